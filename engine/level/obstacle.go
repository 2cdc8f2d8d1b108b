package level

import "github.com/all-the-way-home/home/common"

// Obstacle is an axis-aligned world rectangle walking actors turn around at.
type Obstacle struct {
	Min, Max common.Vec2
}

// Contains reports whether p lies inside the rectangle, edges included.
func (o Obstacle) Contains(p common.Vec2) bool {
	return p.X >= o.Min.X && p.X <= o.Max.X && p.Y >= o.Min.Y && p.Y <= o.Max.Y
}
