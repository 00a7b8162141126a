package thawani

import "math"

// The gateway expresses all amounts as integers in 1/1000 of the major
// currency unit (baisa for OMR). These helpers are the only place that
// scaling exists; services hold major units throughout.

func ToMinorUnit(major float64) int64 {
	return int64(math.Round(major * 1000))
}

func ToMajorUnit(minor int64) float64 {
	return float64(minor) / 1000
}
