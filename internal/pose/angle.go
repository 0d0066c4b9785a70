package pose

import "math"

// NoAngle is reported when no angle could be measured. It equals a fully
// straight joint, so "nothing measured" and "perfectly straight" are
// indistinguishable to callers.
const NoAngle = 180.0

// EstimateAngle returns the angle at vertex b formed by the segments b→a and
// b→c, in degrees within [0, 180]. When either segment has zero length the
// angle is undefined and NoAngle is returned.
func EstimateAngle(a, b, c Point) float64 {
	if (a.X == b.X && a.Y == b.Y) || (c.X == b.X && c.Y == b.Y) {
		return NoAngle
	}
	radians := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	degrees := math.Abs(radians * 180 / math.Pi)
	if degrees > 180 {
		degrees = 360 - degrees
	}
	return degrees
}
