package render

import (
	"errors"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/atomic"

	"github.com/i474232898/weather-display/internal/display"
)

// Ticker produces the frame for a point in time.
type Ticker interface {
	Tick(now time.Time) *display.Frame
}

// Game adapts a render loop to ebiten. Update ticks the loop and Draw
// paints the last frame; ebiten calls both on the same goroutine.
type Game struct {
	loop          Ticker
	painter       *Painter
	frame         *display.Frame
	width, height int
	now           func() time.Time
	quit          *atomic.Bool
}

func NewGame(loop Ticker, painter *Painter, width, height int) *Game {
	return &Game{
		loop:    loop,
		painter: painter,
		width:   width,
		height:  height,
		now:     time.Now,
		quit:    atomic.NewBool(false),
	}
}

// Quit asks the game to end at its next Update. Safe from any goroutine.
func (g *Game) Quit() {
	g.quit.Store(true)
}

func (g *Game) Update() error {
	if g.quit.Load() || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	return g.Present(g.loop.Tick(g.now()))
}

// Present keeps frame for the next Draw.
func (g *Game) Present(frame *display.Frame) error {
	g.frame = frame
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.frame == nil {
		return
	}
	g.painter.Paint(screen, g.frame)
}

// Layout keeps the logical screen at the configured resolution; ebiten
// scales it to the window.
func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}

// WindowOptions are the window settings taken from flags and the
// persisted display config.
type WindowOptions struct {
	Title   string
	Width   int
	Height  int
	TPS     int
	VSync   bool
	Resizes bool
}

// Run opens the window and blocks until it is closed.
func Run(g *Game, opts WindowOptions) error {
	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetVsyncEnabled(opts.VSync)
	if opts.TPS > 0 {
		ebiten.SetTPS(opts.TPS)
	}
	if opts.Resizes {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
