// Package rules implements the single player snake simulation: movement,
// collision, food placement, bonus food and scoring on a fixed grid.
//
// A Game is not safe for concurrent use. Every method, and every callback the
// game arms on its Scheduler, must run on one goroutine.
package rules

import (
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// BonusEvery is how many foods must be eaten for a bonus to spawn.
	BonusEvery = 5
	// BonusLifetime is how long a bonus stays on the board if uneaten.
	BonusLifetime = 6000 * time.Millisecond
	// FoodPoints is the score for eating food.
	FoodPoints = 1
	// BonusPoints is the score for eating a bonus.
	BonusPoints = 5
)

// InitialDirection is the direction a new game starts moving in.
var InitialDirection = Down

// InitialSnake returns the body of the snake at the start of a game, head
// first.
func InitialSnake() []Point {
	return []Point{
		{X: 2, Y: 2},
		{X: 2, Y: 1},
	}
}

// Option configures a Game.
type Option func(*Game)

// WithRand sets the random source used to place food.
func WithRand(r Rand) Option {
	return func(g *Game) { g.rng = r }
}

// WithScheduler sets the scheduler used to expire bonus food.
func WithScheduler(s Scheduler) Option {
	return func(g *Game) { g.sched = s }
}

// WithBonusLifetime overrides BonusLifetime.
func WithBonusLifetime(d time.Duration) Option {
	return func(g *Game) { g.bonusLifetime = d }
}

// Game holds the state of one playthrough.
type Game struct {
	snake []Point
	// direction is the one applied by the last tick, pending is the one the
	// next tick applies.
	direction Direction
	pending   Direction
	food      *Point
	bonus     *Point
	foodCount int
	score     int
	turn      int
	gameOver  bool
	cause     string

	rng           Rand
	sched         Scheduler
	bonusLifetime time.Duration
	bonusTimer    Timer
	bonusGen      uint64
}

// NewGame creates a game in its initial state. Without WithScheduler the game
// uses a ManualScheduler that never advances, so bonus food only goes away
// when it is eaten or replaced.
func NewGame(opts ...Option) *Game {
	g := &Game{
		bonusLifetime: BonusLifetime,
	}
	for _, o := range opts {
		o(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if g.sched == nil {
		g.sched = NewManualScheduler()
	}
	g.reset()
	return g
}

func (g *Game) reset() {
	g.snake = InitialSnake()
	g.direction = InitialDirection
	g.pending = InitialDirection
	g.bonus = nil
	g.foodCount = 0
	g.score = 0
	g.turn = 0
	g.gameOver = false
	g.cause = ""
	g.food = g.place(g.snake)
}

// Tick advances the game by one step. It reports whether the state changed,
// which is false only once the game is over.
func (g *Game) Tick() bool {
	if g.gameOver {
		return false
	}

	next := g.snake[0].Add(g.pending)
	if cause := checkForDeath(next, g.snake); cause != "" {
		g.gameOver = true
		g.cause = cause
		g.stopBonusExpiry()
		log.WithFields(log.Fields{
			"Turn":  g.turn,
			"Score": g.score,
			"Cause": cause,
		}).Debug("snake died")
		return true
	}

	g.direction = g.pending
	g.turn++
	g.snake = append([]Point{next}, g.snake...)

	switch {
	case g.food != nil && next.Equal(*g.food):
		g.eatFood()
	case g.bonus != nil && next.Equal(*g.bonus):
		g.eatBonus()
		g.dropTail()
	default:
		g.dropTail()
	}
	return true
}

func (g *Game) dropTail() {
	g.snake = g.snake[:len(g.snake)-1]
}

func (g *Game) eatFood() {
	g.score += FoodPoints
	g.foodCount++
	log.WithFields(log.Fields{
		"Turn": g.turn,
		"Food": *g.food,
	}).Debug("snake ate")

	g.food = g.place(g.occupied(g.bonus))
	if g.foodCount%BonusEvery == 0 {
		g.spawnBonus()
	}
}

func (g *Game) eatBonus() {
	log.WithFields(log.Fields{
		"Turn":  g.turn,
		"Bonus": *g.bonus,
	}).Debug("snake ate bonus")
	g.score += BonusPoints
	g.bonus = nil
	g.stopBonusExpiry()
}

func (g *Game) spawnBonus() {
	g.stopBonusExpiry()
	g.bonus = g.place(g.occupied(g.food))
	if g.bonus == nil {
		return
	}

	g.bonusGen++
	gen := g.bonusGen
	g.bonusTimer = g.sched.AfterFunc(g.bonusLifetime, func() { g.expireBonus(gen) })
}

// expireBonus clears the bonus armed as generation gen. Callbacks from timers
// that were replaced or stopped carry an older generation and do nothing.
func (g *Game) expireBonus(gen uint64) {
	if gen != g.bonusGen || g.bonus == nil {
		return
	}
	g.bonus = nil
	g.bonusTimer = nil
}

func (g *Game) stopBonusExpiry() {
	if g.bonusTimer != nil {
		g.bonusTimer.Stop()
		g.bonusTimer = nil
	}
	g.bonusGen++
}

// occupied returns the snake cells plus the given extra cell if present.
func (g *Game) occupied(extra *Point) []Point {
	if extra == nil {
		return g.snake
	}
	points := make([]Point, 0, len(g.snake)+1)
	points = append(points, g.snake...)
	return append(points, *extra)
}

func (g *Game) place(occupied []Point) *Point {
	p, ok := PlaceFood(g.rng, occupied)
	if !ok {
		log.WithField("Turn", g.turn).Warn("no free cell left for food")
		return nil
	}
	return &p
}

// SetDirection sets the direction the next tick moves in. Invalid vectors
// and changes after the game ended are ignored, as is any d opposite either
// the direction the last tick moved in or the one already pending. With Down
// applied and Left pending, Right is therefore rejected. Only the last
// accepted call before a tick takes effect. It reports whether d was
// accepted.
func (g *Game) SetDirection(d Direction) bool {
	if g.gameOver || !d.Valid() {
		return false
	}
	// Checking against both the applied and the pending direction keeps two
	// quick turns inside one tick from reversing the snake.
	if d == g.direction.Opposite() || d == g.pending.Opposite() {
		return false
	}
	g.pending = d
	return true
}

// Restart returns the game to its initial state and cancels a pending bonus
// expiry.
func (g *Game) Restart() {
	g.stopBonusExpiry()
	g.reset()
}

// Stop cancels a pending bonus expiry without touching the rest of the
// state. Call it when the game is abandoned.
func (g *Game) Stop() {
	g.stopBonusExpiry()
}

// GameOver reports whether the snake has died.
func (g *Game) GameOver() bool { return g.gameOver }

// Score returns the current score.
func (g *Game) Score() int { return g.score }

// Direction returns the direction the next tick will move in.
func (g *Game) Direction() Direction { return g.pending }

// Frame returns a snapshot of the game that shares no memory with it.
func (g *Game) Frame() Frame {
	f := Frame{
		Turn:       g.turn,
		Snake:      append([]Point(nil), g.snake...),
		Direction:  g.pending,
		Score:      g.score,
		FoodCount:  g.foodCount,
		GameOver:   g.gameOver,
		DeathCause: g.cause,
	}
	if g.food != nil {
		food := *g.food
		f.Food = &food
	}
	if g.bonus != nil {
		bonus := *g.bonus
		f.BonusFood = &bonus
	}
	return f
}
