package viewer

import (
	"image/color"
	"math"
)

// sciColor maps val in [minVal, maxVal] onto a blue→cyan→green→yellow→red
// scientific ramp.
func sciColor(val, minVal, maxVal float32) color.RGBA {
	val = min(max(val, minVal), maxVal-0.0001)
	d := maxVal - minVal
	if d <= 0 {
		val = 0.5
	} else {
		val = (val - minVal) / d
	}
	m := float32(0.25)
	num := float32(math.Floor(float64(val / m)))
	s := (val - num*m) / m
	var r, g, b float32

	switch num {
	case 0:
		r, g, b = 0, s, 1
	case 1:
		r, g, b = 0, 1, 1-s
	case 2:
		r, g, b = s, 1, 0
	case 3:
		r, g, b = 1, 1-s, 0
	}

	return color.RGBA{
		R: uint8(255 * r),
		G: uint8(255 * g),
		B: uint8(255 * b),
		A: 0xff,
	}
}

// inkColor maps dye density in [0,1] onto black-on-paper ink.
func inkColor(val float32) color.RGBA {
	if val < 0 {
		val = 0
	}
	if val > 1 {
		val = 1
	}
	v := uint8(245 * (1 - val))
	return color.RGBA{R: v, G: v, B: v + 10, A: 0xff}
}
