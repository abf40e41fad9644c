package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/datachat-poc/server/internal/datasource"
	logx "github.com/datachat-poc/server/pkg/logger"
)

// Tool names as the model sees them.
const (
	NameConsultDatabase        = "consult_database"
	NameShowTables             = "show_tables"
	NameGetTableColumns        = "get_table_columns"
	NameGenerateChart          = "generate_chart"
	NameGenerateGenericHeatmap = "generate_generic_heatmap"
)

// writeStatementRe matches whole SQL keywords that mutate state. Word
// boundaries keep column names like created_at from tripping the guard.
var writeStatementRe = regexp.MustCompile(`(?i)\b(delete|alter|create|drop|update|insert|truncate|replace)\b`)

// identifierRe accepts plain table names only; anything else is rejected
// before it can reach an interpolated statement.
var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ===================================
// consult_database
// ===================================

type ConsultDatabaseInput struct {
	Query string `json:"query"`
}

type consultDatabaseTool struct {
	source datasource.Queryer
}

// NewConsultDatabase runs read-only SQL against the connected datasource and
// returns the rows as text.
func NewConsultDatabase(source datasource.Queryer) Handler {
	return &consultDatabaseTool{source: source}
}

func (t *consultDatabaseTool) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: NameConsultDatabase,
		Desc: "Execute a read-only SQL query against the user's database and return the " +
			"resulting rows as text, one row per line. Use this to inspect data before " +
			"building a chart or to answer questions directly. Only SELECT-style queries " +
			"are accepted; statements that modify data (INSERT, UPDATE, DELETE, DROP, " +
			"ALTER, CREATE, TRUNCATE, REPLACE) are rejected.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "The SQL query to execute, e.g. 'SELECT category, SUM(total) FROM sales GROUP BY category'",
				Required: true,
			},
		}),
	}
}

func (t *consultDatabaseTool) Call(ctx context.Context, args map[string]any) Result {
	var in ConsultDatabaseInput
	if err := decodeArgs(args, &in); err != nil {
		return Textf("invalid arguments: %v", err)
	}

	query := strings.TrimSpace(in.Query)
	if query == "" {
		return TextResult("a non-empty 'query' argument is required")
	}
	if writeStatementRe.MatchString(query) {
		return TextResult("only read-only queries are allowed; statements that modify data were rejected")
	}

	table, err := t.source.Query(ctx, query)
	if err != nil {
		// The driver text goes back to the model verbatim so it can correct
		// its own SQL on the next iteration.
		logx.Warn().Err(err).Msg("consult_database query failed")
		return Textf("error executing query: %v", err)
	}
	if table.Empty() {
		return TextResult("the query returned no rows")
	}

	lines := make([]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		lines = append(lines, formatRow(row))
	}
	return TextResult(strings.Join(lines, "\n"))
}

func formatRow(row []any) string {
	parts := make([]string, 0, len(row))
	for _, cell := range row {
		if cell == nil {
			parts = append(parts, "NULL")
			continue
		}
		parts = append(parts, fmt.Sprintf("%v", cell))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// ===================================
// show_tables
// ===================================

type showTablesTool struct {
	source datasource.Queryer
}

// NewShowTables lists the tables available in the connected datasource.
func NewShowTables(source datasource.Queryer) Handler {
	return &showTablesTool{source: source}
}

func (t *showTablesTool) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: NameShowTables,
		Desc: "List every table available in the user's database, one name per line. " +
			"Call this first when you do not know the schema.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
	}
}

func (t *showTablesTool) Call(ctx context.Context, _ map[string]any) Result {
	table, err := t.source.Query(ctx, "SHOW TABLES")
	if err != nil {
		// SQLite-backed datasources have no SHOW TABLES.
		table, err = t.source.Query(ctx, "SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
	}
	if err != nil {
		logx.Warn().Err(err).Msg("show_tables query failed")
		return Textf("error listing tables: %v", err)
	}
	if table.Empty() {
		return TextResult("the database has no tables")
	}

	names := make([]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		if len(row) == 0 || row[0] == nil {
			continue
		}
		names = append(names, fmt.Sprintf("%v", row[0]))
	}
	return TextResult(strings.Join(names, "\n"))
}

// ===================================
// get_table_columns
// ===================================

type GetTableColumnsInput struct {
	TableName string `json:"table_name"`
}

type getTableColumnsTool struct {
	source datasource.Queryer
}

// NewGetTableColumns lists the columns of a single table.
func NewGetTableColumns(source datasource.Queryer) Handler {
	return &getTableColumnsTool{source: source}
}

func (t *getTableColumnsTool) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: NameGetTableColumns,
		Desc: "Return the column names of one table as a comma-separated list. " +
			"Use this after show_tables to learn which columns a query can select.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"table_name": {
				Type:     schema.String,
				Desc:     "Name of the table to describe, exactly as returned by show_tables",
				Required: true,
			},
		}),
	}
}

func (t *getTableColumnsTool) Call(ctx context.Context, args map[string]any) Result {
	var in GetTableColumnsInput
	if err := decodeArgs(args, &in); err != nil {
		return Textf("invalid arguments: %v", err)
	}

	name := strings.TrimSpace(in.TableName)
	if !identifierRe.MatchString(name) {
		return Textf("invalid table name '%s'", in.TableName)
	}

	table, err := t.source.Query(ctx, fmt.Sprintf("SHOW COLUMNS FROM %s", name))
	if err != nil {
		table, err = t.source.Query(ctx, fmt.Sprintf("SELECT name FROM pragma_table_info('%s')", name))
	}
	if err != nil {
		logx.Warn().Err(err).Str("table", name).Msg("get_table_columns query failed")
		return Textf("error fetching columns for table '%s': %v", name, err)
	}
	if table.Empty() {
		return Textf("table '%s' has no columns or does not exist", name)
	}

	columns := make([]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		if len(row) == 0 || row[0] == nil {
			continue
		}
		columns = append(columns, fmt.Sprintf("%v", row[0]))
	}
	return TextResult(strings.Join(columns, ", "))
}
