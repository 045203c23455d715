// Package render turns game frames into something a player can look at.
package render

import "github.com/battlesnakeio/arcade/rules"

// Cell is what occupies one square of the board.
type Cell int

// Cell kinds, in increasing draw priority.
const (
	Empty Cell = iota
	Food
	Bonus
	Body
	Head
)

func (c Cell) String() string {
	switch c {
	case Food:
		return "food"
	case Bonus:
		return "bonus"
	case Body:
		return "body"
	case Head:
		return "head"
	}
	return "empty"
}

// Grid maps a frame onto the board, indexed [y][x]. Points off the board are
// skipped.
func Grid(f rules.Frame) [rules.GridSize][rules.GridSize]Cell {
	var g [rules.GridSize][rules.GridSize]Cell
	set := func(p rules.Point, c Cell) {
		if !p.InBounds() || g[p.Y][p.X] > c {
			return
		}
		g[p.Y][p.X] = c
	}

	if f.Food != nil {
		set(*f.Food, Food)
	}
	if f.BonusFood != nil {
		set(*f.BonusFood, Bonus)
	}
	for i, p := range f.Snake {
		if i == 0 {
			set(p, Head)
			continue
		}
		set(p, Body)
	}
	return g
}
