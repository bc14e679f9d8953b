package pose

import "math"

// minSegment is the shortest segment length AngleAtVertex treats as a real
// direction.
const minSegment = 1e-9

// minDenominator bounds divisors away from zero in SafeRatio.
const minDenominator = 1e-6

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// AngleAtVertex returns the angle a-vertex-c in degrees, in [0, 180].
// When either segment is degenerate the result is 180.
func AngleAtVertex(a, vertex, c Point) float64 {
	ax, ay := a.X-vertex.X, a.Y-vertex.Y
	cx, cy := c.X-vertex.X, c.Y-vertex.Y

	ma := math.Hypot(ax, ay)
	mc := math.Hypot(cx, cy)
	if ma < minSegment || mc < minSegment {
		return 180
	}

	cos := (ax*cx + ay*cy) / (ma * mc)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// SafeRatio divides num by den with den clamped away from zero, keeping its
// sign. The result is always finite for finite input.
func SafeRatio(num, den float64) float64 {
	if math.Abs(den) < minDenominator {
		if den < 0 {
			den = -minDenominator
		} else {
			den = minDenominator
		}
	}
	return num / den
}
