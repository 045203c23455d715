package rules

var keyDirections = map[string]Direction{
	"ArrowUp":    Up,
	"Up":         Up,
	"w":          Up,
	"W":          Up,
	"ArrowDown":  Down,
	"Down":       Down,
	"s":          Down,
	"S":          Down,
	"ArrowLeft":  Left,
	"Left":       Left,
	"a":          Left,
	"A":          Left,
	"ArrowRight": Right,
	"Right":      Right,
	"d":          Right,
	"D":          Right,
}

// KeyDirection maps a key identifier (arrow keys or WASD) to a direction.
func KeyDirection(key string) (Direction, bool) {
	d, ok := keyDirections[key]
	return d, ok
}

// HandleKey applies a key press to the game. Unknown keys are ignored. It
// reports whether the direction was accepted.
func (g *Game) HandleKey(key string) bool {
	d, ok := KeyDirection(key)
	if !ok {
		return false
	}
	return g.SetDirection(d)
}
