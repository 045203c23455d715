package render

import (
	"testing"

	"github.com/battlesnakeio/arcade/rules"
	"github.com/stretchr/testify/require"
)

func TestGrid(t *testing.T) {
	f := rules.Frame{
		Snake:     []rules.Point{{X: 2, Y: 3}, {X: 2, Y: 2}, {X: 2, Y: 1}},
		Food:      &rules.Point{X: 5, Y: 5},
		BonusFood: &rules.Point{X: 0, Y: 9},
	}
	g := Grid(f)

	require.Equal(t, Head, g[3][2])
	require.Equal(t, Body, g[2][2])
	require.Equal(t, Body, g[1][2])
	require.Equal(t, Food, g[5][5])
	require.Equal(t, Bonus, g[9][0])

	count := 0
	for _, row := range g {
		for _, c := range row {
			if c != Empty {
				count++
			}
		}
	}
	require.Equal(t, 5, count)
}

func TestGridNoFood(t *testing.T) {
	g := Grid(rules.Frame{Snake: rules.InitialSnake()})
	require.Equal(t, Head, g[2][2])
	require.Equal(t, Body, g[1][2])
	require.Equal(t, Empty, g[0][0])
}

func TestGridHeadWinsOverlap(t *testing.T) {
	// Overlapping points keep the kind drawn on top.
	f := rules.Frame{
		Snake: []rules.Point{{X: 1, Y: 1}, {X: 1, Y: 2}, {X: 1, Y: 1}},
		Food:  &rules.Point{X: 1, Y: 2},
	}
	g := Grid(f)
	require.Equal(t, Head, g[1][1])
	require.Equal(t, Body, g[2][1])
}

func TestGridSkipsOutOfBounds(t *testing.T) {
	f := rules.Frame{Snake: []rules.Point{{X: -1, Y: 0}, {X: 0, Y: 0}}}
	g := Grid(f)
	require.Equal(t, Body, g[0][0])
}

func TestCellString(t *testing.T) {
	require.Equal(t, "head", Head.String())
	require.Equal(t, "empty", Cell(42).String())
}
