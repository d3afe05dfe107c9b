package runtime

import "math"

// compass holds the exact unit displacement of the eight canonical headings.
// Y grows to the south.
var compass = map[int][2]int{
	0:   {0, -1},
	45:  {1, -1},
	90:  {1, 0},
	135: {1, 1},
	180: {0, 1},
	225: {-1, 1},
	270: {-1, 0},
	315: {-1, -1},
}

// Displacement returns the unit step (dx, dy) for a heading in degrees.
// Canonical headings use the compass table; any other angle is projected with
// dx = round(sin a), dy = -round(cos a).
func Displacement(angle int) (dx, dy int) {
	angle = normalize(angle)
	if d, ok := compass[angle]; ok {
		return d[0], d[1]
	}
	rad := float64(angle) * math.Pi / 180
	return int(math.Round(math.Sin(rad))), -int(math.Round(math.Cos(rad)))
}

func normalize(angle int) int {
	return ((angle % 360) + 360) % 360
}
