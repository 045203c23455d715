package commands

import (
	"testing"

	"github.com/battlesnakeio/arcade/rules"
	termbox "github.com/nsf/termbox-go"
	"github.com/stretchr/testify/require"
)

func TestKeyName(t *testing.T) {
	tests := []struct {
		ev  termbox.Event
		dir rules.Direction
	}{
		{termbox.Event{Key: termbox.KeyArrowUp}, rules.Up},
		{termbox.Event{Key: termbox.KeyArrowDown}, rules.Down},
		{termbox.Event{Key: termbox.KeyArrowLeft}, rules.Left},
		{termbox.Event{Key: termbox.KeyArrowRight}, rules.Right},
		{termbox.Event{Ch: 'w'}, rules.Up},
		{termbox.Event{Ch: 'd'}, rules.Right},
	}
	for _, test := range tests {
		d, ok := rules.KeyDirection(keyName(test.ev))
		require.True(t, ok, "%+v", test.ev)
		require.Equal(t, test.dir, d)
	}

	require.Equal(t, "", keyName(termbox.Event{Key: termbox.KeyEnter}))
}

func TestIsQuit(t *testing.T) {
	require.True(t, isQuit(termbox.Event{Key: termbox.KeyEsc}))
	require.True(t, isQuit(termbox.Event{Ch: 'q'}))
	require.False(t, isQuit(termbox.Event{Ch: 'r'}))
}
