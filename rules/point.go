package rules

// GridSize is the width and height of the board.
const GridSize = 10

// Point is a single cell on the board.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Equal checks if 2 points are the same x,y coordinate
func (p Point) Equal(other Point) bool {
	return p.X == other.X && p.Y == other.Y
}

// Add returns the point offset by d.
func (p Point) Add(d Direction) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// InBounds reports whether the point lies on the board.
func (p Point) InBounds() bool {
	return p.X >= 0 && p.X < GridSize && p.Y >= 0 && p.Y < GridSize
}

func containsPoint(points []Point, p Point) bool {
	for _, o := range points {
		if o.Equal(p) {
			return true
		}
	}
	return false
}
