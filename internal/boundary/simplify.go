package boundary

import (
	"math"

	"solar-annotator/pkg/geometry"
)

// Simplify reduces the number of vertices of a path using the
// Douglas-Peucker algorithm. Points closer than epsilon to the simplified
// line are removed. epsilon <= 0 returns the path unchanged.
func Simplify(path Path, epsilon float64) Path {
	if len(path) <= 2 || epsilon <= 0 {
		return path
	}

	dmax := 0.0
	index := 0
	end := len(path) - 1
	a, b := path[0].ToFloat(), path[end].ToFloat()

	for i := 1; i < end; i++ {
		if d := perpendicularDistance(path[i].ToFloat(), a, b); d > dmax {
			dmax = d
			index = i
		}
	}

	if dmax > epsilon {
		left := Simplify(path[:index+1], epsilon)
		right := Simplify(path[index:], epsilon)

		result := make(Path, 0, len(left)+len(right)-1)
		result = append(result, left[:len(left)-1]...)
		result = append(result, right...)
		return result
	}
	return Path{path[0], path[end]}
}

// SimplifyOutline simplifies every fragment of an outline.
func SimplifyOutline(o Outline, epsilon float64) Outline {
	out := Outline{Generation: o.Generation, Primary: Simplify(o.Primary, epsilon)}
	for _, frag := range o.Secondary {
		out.Secondary = append(out.Secondary, Simplify(frag, epsilon))
	}
	return out
}

// perpendicularDistance calculates the distance from p to the line a-b.
func perpendicularDistance(p, a, b geometry.Point2D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y

	if dx == 0 && dy == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}

	num := math.Abs(dy*p.X - dx*p.Y + b.X*a.Y - b.Y*a.X)
	return num / math.Hypot(dx, dy)
}
