package rules

const (
	// DeathCauseWallCollision is when a snake runs off the board
	DeathCauseWallCollision = "wall-collision"
	// DeathCauseSnakeSelfCollision is when the head runs into the snake's own body
	DeathCauseSnakeSelfCollision = "self-collision"
)

// checkForDeath returns the cause of death for a snake whose head would move
// to next, or "" if the move is safe. body is the snake before the move.
func checkForDeath(next Point, body []Point) string {
	if deathByOutOfBounds(next) {
		return DeathCauseWallCollision
	}
	for _, b := range body {
		if deathByBodyCollision(next, b) {
			return DeathCauseSnakeSelfCollision
		}
	}
	return ""
}

func deathByBodyCollision(head, body Point) bool {
	return head.Equal(body)
}

func deathByOutOfBounds(head Point) bool {
	return !head.InBounds()
}
