package rules

// maxPlacementAttempts bounds random sampling before PlaceFood falls back to
// enumerating the free cells.
const maxPlacementAttempts = 4 * GridSize * GridSize

// Rand is the source of randomness used for food placement. *math/rand.Rand
// satisfies it.
type Rand interface {
	Intn(n int) int
}

// PlaceFood picks a random cell that is not in occupied. It samples uniformly
// and rejects occupied cells; once the attempts run out it picks uniformly
// from the enumerated free cells instead. ok is false only when the board is
// full.
func PlaceFood(rng Rand, occupied []Point) (p Point, ok bool) {
	for i := 0; i < maxPlacementAttempts; i++ {
		p = Point{X: rng.Intn(GridSize), Y: rng.Intn(GridSize)}
		if !containsPoint(occupied, p) {
			return p, true
		}
	}

	open := unoccupiedPoints(occupied)
	if len(open) == 0 {
		return Point{}, false
	}
	return open[rng.Intn(len(open))], true
}

func unoccupiedPoints(occupied []Point) []Point {
	candidates := make([]Point, 0, GridSize*GridSize)
	for x := 0; x < GridSize; x++ {
		for y := 0; y < GridSize; y++ {
			p := Point{X: x, Y: y}
			if !containsPoint(occupied, p) {
				candidates = append(candidates, p)
			}
		}
	}
	return candidates
}
