package render

import (
	"fmt"
	"sync"

	"github.com/battlesnakeio/arcade/leaderboard"
	"github.com/battlesnakeio/arcade/rules"
	"github.com/mattn/go-runewidth"
	termbox "github.com/nsf/termbox-go"
)

const (
	defaultColor = termbox.ColorDefault
	bgColor      = termbox.ColorDefault
	snakeColor   = termbox.ColorGreen
	headColor    = termbox.ColorYellow
	foodColor    = termbox.ColorRed
	bonusColor   = termbox.ColorMagenta

	// cellWidth is the number of terminal columns per board square, which
	// keeps the board roughly square on screen.
	cellWidth = 2
	left      = 2
	top       = 2
)

// Terminal draws the game and the top scores with termbox. The caller owns
// termbox.Init and termbox.Close. Terminal is safe for concurrent use, so the
// game loop and the leaderboard subscription can both update it.
type Terminal struct {
	// Title is printed above the board.
	Title string
	// Help is printed below the board.
	Help string

	lock   sync.Mutex
	frame  *rules.Frame
	scores []leaderboard.Record
}

// DrawFrame redraws the screen with a new game frame.
func (t *Terminal) DrawFrame(f rules.Frame) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.frame = &f
	return t.draw()
}

// DrawScores redraws the screen with a new top list.
func (t *Terminal) DrawScores(records []leaderboard.Record) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.scores = records
	return t.draw()
}

func (t *Terminal) draw() error {
	if err := termbox.Clear(defaultColor, defaultColor); err != nil {
		return err
	}

	scoresLeft := left
	if t.frame != nil {
		renderTitle(left, top, t.Title, *t.frame)
		renderBoard(left, top)
		renderCells(left, top, Grid(*t.frame))
		renderStatus(left, top+rules.GridSize+3, *t.frame, t.Help)
		scoresLeft = left + rules.GridSize*cellWidth + 6
	}
	renderScores(scoresLeft, top, t.scores)

	return termbox.Flush()
}

func renderTitle(x, y int, title string, f rules.Frame) {
	if title == "" {
		title = "Snake!"
	}
	tbprint(x, y-1, defaultColor, defaultColor, fmt.Sprintf("%s - Score %d", title, f.Score))
}

func renderBoard(x, y int) {
	width := rules.GridSize * cellWidth
	bottom := y + rules.GridSize + 1
	for i := y + 1; i < bottom; i++ {
		termbox.SetCell(x-1, i, '│', defaultColor, bgColor)
		termbox.SetCell(x+width, i, '│', defaultColor, bgColor)
	}

	termbox.SetCell(x-1, y, '┌', defaultColor, bgColor)
	termbox.SetCell(x-1, bottom, '└', defaultColor, bgColor)
	termbox.SetCell(x+width, y, '┐', defaultColor, bgColor)
	termbox.SetCell(x+width, bottom, '┘', defaultColor, bgColor)

	fill(x, y, width, 1, termbox.Cell{Ch: '─'})
	fill(x, bottom, width, 1, termbox.Cell{Ch: '─'})
}

func renderCells(x, y int, g [rules.GridSize][rules.GridSize]Cell) {
	for row := range g {
		for col, c := range g[row] {
			cx, cy := x+col*cellWidth, y+row+1
			switch c {
			case Head:
				fill(cx, cy, cellWidth, 1, termbox.Cell{Ch: ' ', Bg: headColor})
			case Body:
				fill(cx, cy, cellWidth, 1, termbox.Cell{Ch: ' ', Bg: snakeColor})
			case Food:
				termbox.SetCell(cx, cy, '●', foodColor, bgColor)
			case Bonus:
				termbox.SetCell(cx, cy, '★', bonusColor, bgColor)
			}
		}
	}
}

func renderStatus(x, y int, f rules.Frame, help string) {
	if f.GameOver {
		tbprint(x, y, foodColor, defaultColor, fmt.Sprintf("Game over! Score: %d (%s)", f.Score, f.DeathCause))
		y++
	}
	if help != "" {
		tbprint(x, y, defaultColor, defaultColor, help)
	}
}

func renderScores(x, y int, records []leaderboard.Record) {
	tbprint(x, y-1, defaultColor, defaultColor, "Top scores")
	if len(records) == 0 {
		tbprint(x, y+1, defaultColor, defaultColor, "no scores yet")
		return
	}
	for i, r := range records {
		line := fmt.Sprintf("%d. %-*s %5d  %s", i+1, 12, runewidth.Truncate(r.Name, 12, "…"), r.Score,
			r.CreatedAt.Local().Format("Jan 2 15:04"))
		tbprint(x, y+1+i, defaultColor, defaultColor, line)
	}
}

func fill(x, y, w, h int, cell termbox.Cell) {
	for ly := 0; ly < h; ly++ {
		for lx := 0; lx < w; lx++ {
			termbox.SetCell(x+lx, y+ly, cell.Ch, cell.Fg, cell.Bg)
		}
	}
}

func tbprint(x, y int, fg, bg termbox.Attribute, msg string) {
	for _, c := range msg {
		termbox.SetCell(x, y, c, fg, bg)
		x += runewidth.RuneWidth(c)
	}
}
