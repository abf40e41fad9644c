package errx

import "net/http"

// WrapDatasource marks failures to reach or read the analytical database.
// Query-level errors are not wrapped: their driver text is surfaced to the
// model so it can correct the query.
func WrapDatasource(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, DatasourceErrorMessage)
}
