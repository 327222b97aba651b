package display

import "math"

// Layout is authored for this resolution and scaled to the window.
const (
	BaseWidth  = 1920
	BaseHeight = 1080
)

// FontStyle picks the face family for a text layer.
type FontStyle int

const (
	FontRegular FontStyle = iota
	FontBold
)

// TextMeasurer reports the rendered size of a string.
type TextMeasurer interface {
	Measure(text string, size float64, style FontStyle) (w, h float64)
}

// PanelGeometry is the scaled layout of the conditions/forecast panel.
type PanelGeometry struct {
	X, Y          float64
	Width, Height float64
	Padding       float64
	LineHeight    float64

	TitleSize float64
	DescSize  float64
	DataSize  float64
	ListSize  float64
	TempSize  float64
}

// DisplayContext holds the screen state every engine and builder reads.
// It is owned by the render loop.
type DisplayContext struct {
	Width, Height  int
	ScaleX, ScaleY float64
	Quality        float64
	ShowFPS        bool
	Measurer       TextMeasurer
	Panel          PanelGeometry
}

// NewDisplayContext derives scale factors and panel layout for a w x h screen.
func NewDisplayContext(w, h int, quality float64, showFPS bool, m TextMeasurer) *DisplayContext {
	if quality <= 0 || quality > 1 {
		quality = 1
	}
	c := &DisplayContext{
		Width:    w,
		Height:   h,
		ScaleX:   float64(w) / BaseWidth,
		ScaleY:   float64(h) / BaseHeight,
		Quality:  quality,
		ShowFPS:  showFPS,
		Measurer: m,
	}

	p := PanelGeometry{
		X:          c.SX(10),
		Y:          c.SY(120),
		Width:      c.SX(550),
		Height:     c.SY(770),
		Padding:    c.SX(20),
		LineHeight: c.SY(40),
		TitleSize:  c.FontSize(40),
		DescSize:   c.FontSize(40),
		DataSize:   c.FontSize(28),
		ListSize:   c.FontSize(28),
		TempSize:   c.FontSize(80),
	}
	switch {
	case w > 1920:
		p.TitleSize = math.Floor(p.TitleSize * 0.9)
		p.DataSize = math.Floor(p.DataSize * 0.9)
		p.ListSize = math.Floor(p.ListSize * 0.9)
	case w < 1280:
		p.TitleSize = math.Floor(p.TitleSize * 0.9)
		p.DataSize = math.Floor(p.DataSize * 0.84)
		p.ListSize = math.Floor(p.ListSize * 0.9)
		p.LineHeight = math.Floor(p.LineHeight * 0.8)
	}
	c.Panel = p
	return c
}

// SX scales a base-resolution x distance.
func (c *DisplayContext) SX(v float64) float64 {
	return math.Floor(v * c.ScaleX)
}

// SY scales a base-resolution y distance.
func (c *DisplayContext) SY(v float64) float64 {
	return math.Floor(v * c.ScaleY)
}

// FontSize scales a base font size, never below 1.
func (c *DisplayContext) FontSize(base float64) float64 {
	return math.Max(1, math.Floor(base*c.ScaleY))
}

func (c *DisplayContext) BottomBarHeight() float64 {
	return c.SY(146)
}

// TickerY is the top of the ticker text.
func (c *DisplayContext) TickerY() float64 {
	return float64(c.Height) - c.BottomBarHeight() + c.SY(50)
}

// WarningPos is where the active event name is drawn on the alert bar.
func (c *DisplayContext) WarningPos() (x, y float64) {
	return c.SX(20), float64(c.Height) - c.BottomBarHeight() + c.SY(7)
}

func (c *DisplayContext) TickerSize() float64 {
	return c.FontSize(64)
}

func (c *DisplayContext) WarningSize() float64 {
	return c.FontSize(32)
}

// ScrollThreshold is the ticker width above which text scrolls.
func (c *DisplayContext) ScrollThreshold() float64 {
	return 800 * c.ScaleX
}

// ScrollSpeed is the ticker speed in px/s for n active alerts.
func (c *DisplayContext) ScrollSpeed(n int) float64 {
	speed := 375 * c.ScaleX
	if n > 3 {
		speed *= 1.5
	}
	return speed
}

func (c *DisplayContext) measure(text string, size float64, style FontStyle) (float64, float64) {
	if c.Measurer == nil {
		return float64(len(text)) * size * 0.5, size
	}
	return c.Measurer.Measure(text, size, style)
}
