package rules

// Direction is a unit vector the snake head moves by each tick. Y grows
// downward, so Down is (0,1).
type Direction struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// The four directions a snake can travel in.
var (
	Up    = Direction{X: 0, Y: -1}
	Down  = Direction{X: 0, Y: 1}
	Left  = Direction{X: -1, Y: 0}
	Right = Direction{X: 1, Y: 0}
)

// Opposite returns the direction pointing the other way.
func (d Direction) Opposite() Direction {
	return Direction{X: -d.X, Y: -d.Y}
}

// Valid reports whether d is one of Up, Down, Left or Right.
func (d Direction) Valid() bool {
	return d == Up || d == Down || d == Left || d == Right
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "none"
}
