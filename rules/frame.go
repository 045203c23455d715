package rules

// Frame is a snapshot of a game after a tick or input event.
type Frame struct {
	Turn       int       `json:"turn"`
	Snake      []Point   `json:"snake"`
	Direction  Direction `json:"direction"`
	Food       *Point    `json:"food"`
	BonusFood  *Point    `json:"bonusFood"`
	Score      int       `json:"score"`
	FoodCount  int       `json:"foodCount"`
	GameOver   bool      `json:"gameOver"`
	DeathCause string    `json:"deathCause,omitempty"`
}

// Head returns the first point in the snake body
func (f Frame) Head() Point {
	return f.Snake[0]
}
