package chart

import "image/color"

// seriesPalette mirrors the usual ten-color plotting cycle.
var seriesPalette = []color.NRGBA{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 214, G: 39, B: 40, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
	{R: 140, G: 86, B: 75, A: 255},
	{R: 227, G: 119, B: 194, A: 255},
	{R: 127, G: 127, B: 127, A: 255},
	{R: 188, G: 189, B: 34, A: 255},
	{R: 23, G: 190, B: 207, A: 255},
}

func seriesColor(i int) color.NRGBA {
	return seriesPalette[i%len(seriesPalette)]
}

// viridisStops approximates the viridis colormap used for scatter point color.
var viridisStops = []color.NRGBA{
	{R: 68, G: 1, B: 84, A: 255},
	{R: 59, G: 82, B: 139, A: 255},
	{R: 33, G: 145, B: 140, A: 255},
	{R: 94, G: 201, B: 98, A: 255},
	{R: 253, G: 231, B: 37, A: 255},
}

// bluesStops approximates the white-to-blue ramp used for heatmap cells.
var bluesStops = []color.NRGBA{
	{R: 247, G: 251, B: 255, A: 255},
	{R: 198, G: 219, B: 239, A: 255},
	{R: 107, G: 174, B: 214, A: 255},
	{R: 33, G: 113, B: 181, A: 255},
	{R: 8, G: 48, B: 107, A: 255},
}

// gradientAt linearly interpolates the stop list at t in [0, 1].
func gradientAt(stops []color.NRGBA, t float64) color.NRGBA {
	if t <= 0 {
		return stops[0]
	}
	if t >= 1 {
		return stops[len(stops)-1]
	}
	scaled := t * float64(len(stops)-1)
	i := int(scaled)
	frac := scaled - float64(i)
	a, b := stops[i], stops[i+1]
	return color.NRGBA{
		R: lerp8(a.R, b.R, frac),
		G: lerp8(a.G, b.G, frac),
		B: lerp8(a.B, b.B, frac),
		A: 255,
	}
}

func lerp8(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}
