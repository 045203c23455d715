package commands

import termbox "github.com/nsf/termbox-go"

// keyName maps a termbox key event onto the key names the game understands.
func keyName(ev termbox.Event) string {
	switch ev.Key {
	case termbox.KeyArrowUp:
		return "ArrowUp"
	case termbox.KeyArrowDown:
		return "ArrowDown"
	case termbox.KeyArrowLeft:
		return "ArrowLeft"
	case termbox.KeyArrowRight:
		return "ArrowRight"
	}
	if ev.Ch != 0 {
		return string(ev.Ch)
	}
	return ""
}

func isQuit(ev termbox.Event) bool {
	return ev.Key == termbox.KeyEsc || ev.Key == termbox.KeyCtrlC || ev.Ch == 'q'
}

func setupEventQueue() <-chan termbox.Event {
	eventQueue := make(chan termbox.Event)
	go func(ev chan<- termbox.Event) {
		for {
			ev <- termbox.PollEvent()
		}
	}(eventQueue)
	return eventQueue
}
