package display

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"math/rand/v2"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/i474232898/weather-display/internal/scheduler"
	"github.com/i474232898/weather-display/internal/weather"
)

// Screen assets.
const (
	TitleNormal       = "textures/graphics/4hrradar.png"
	TitleTropical     = "textures/graphics/4hrradarsatellite.png"
	TitleRedmode      = "textures/graphics/4hrradar-redmode.png"
	LogoNormal        = "textures/graphics/logo.png"
	LogoRedmode       = "textures/graphics/logo-redmode.png"
	LoadingBackground = "textures/graphics/background.png"
	FallbackImage     = "textures/graphics/fallback.png"
)

const offlineHint = "Do you have an Internet connection?"

var (
	colorFallbackBG = color.RGBA{0, 0, 200, 255}
	colorNoRadar    = color.RGBA{255, 100, 100, 255}
	colorFPS        = color.RGBA{255, 255, 0, 255}
	colorDot        = color.RGBA{255, 0, 0, 255}
	barFallbacks    = map[weather.AlertLevel]color.RGBA{
		weather.AlertLevelAlert:     {170, 0, 0, 255},
		weather.AlertLevelWatch:     {200, 120, 0, 255},
		weather.AlertLevelStatement: {60, 60, 60, 255},
	}
)

// InitSource is the first-load worker as seen by the render loop.
type InitSource interface {
	Stage() (weather.Stage, bool)
	Result() (scheduler.InitResult, bool)
}

// SnapshotSource is the consumer side of the snapshot channel.
type SnapshotSource interface {
	TryTake() (weather.WeatherSnapshot, bool)
}

// Presenter puts a composed frame on screen.
type Presenter interface {
	Present(frame *Frame) error
}

// LoopConfig wires a RenderLoop. Audio, CrashLog, Status and
// OnInitComplete are optional.
type LoopConfig struct {
	Context   *DisplayContext
	Init      InitSource
	Snapshots SnapshotSource
	Audio     AudioPlayer
	Icons     *IconRules
	MOTD      *MOTD
	CrashLog  *CrashLog
	Status    *StatusBoard

	// OnInitComplete runs once when the first load finishes, successful or not.
	OnInitComplete func()
}

// RenderLoop drives the display. Tick is called once per frame on the
// render thread; it never blocks on the workers.
type RenderLoop struct {
	ctx       *DisplayContext
	init      InitSource
	snapshots SnapshotSource
	icons     *IconRules
	crash     *CrashLog
	status    *StatusBoard
	onInit    func()

	phase   Phase
	stage   weather.Stage
	motd    string
	snap    weather.WeatherSnapshot
	hasSnap bool
	mode    DisplayMode
	failure string
	offline bool

	alerts *AlertRotationEngine
	radar  *RadarPlaybackEngine
	panels *PanelTransitionEngine

	conditions, forecast       PanelFrame
	hasConditions, hasForecast bool

	fps       float64
	fpsFrames int
	fpsWindow time.Time
}

func NewRenderLoop(cfg LoopConfig, now time.Time) *RenderLoop {
	icons := cfg.Icons
	if icons == nil {
		icons = DefaultIconRules()
	}
	motd := cfg.MOTD
	if motd == nil {
		motd = DefaultMOTD()
	}
	return &RenderLoop{
		ctx:       cfg.Context,
		init:      cfg.Init,
		snapshots: cfg.Snapshots,
		icons:     icons,
		crash:     cfg.CrashLog,
		status:    cfg.Status,
		onInit:    cfg.OnInitComplete,
		phase:     PhaseLoading,
		stage:     weather.StageInitializing,
		motd:      motd.Pick(ModeNormal, rand.IntN(1<<16)),
		alerts:    NewAlertRotationEngine(cfg.Context, NewAudioDedup(cfg.Audio)),
		radar:     NewRadarPlaybackEngine(),
		panels:    NewPanelTransitionEngine(FlipSteps, PanelCycle, FlipSubStep, now),
		fpsWindow: now,
	}
}

// Tick advances every engine to now and composes the frame to present.
// A panic inside a tick is logged and answered with the fallback screen.
func (l *RenderLoop) Tick(now time.Time) (frame *Frame) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("phase", string(l.phase)).Msg("render tick failed; presenting fallback frame")
			frame = l.errorFrame(fmt.Sprint(r))
		}
	}()

	l.countFrame(now)
	defer l.publish(now)

	if l.phase == PhaseLoading {
		l.pollInit(now)
		if l.phase == PhaseLoading {
			return l.composeLoading()
		}
	}

	l.drain(now)
	l.alerts.Advance(now)
	l.panels.Advance(now)
	l.radar.Advance(now)

	if l.phase == PhaseFallback {
		return l.composeFallback(now)
	}
	return l.compose(now)
}

func (l *RenderLoop) pollInit(now time.Time) {
	if l.init == nil {
		l.phase = PhaseRunning
		return
	}
	if st, ok := l.init.Stage(); ok {
		l.stage = st
	}
	res, ok := l.init.Result()
	if !ok {
		return
	}

	l.apply(res.Snapshot, now)
	if res.Status == scheduler.InitComplete && res.Snapshot.HasRadar() {
		l.phase = PhaseRunning
	} else {
		cause := res.Err
		if cause == nil {
			cause = fmt.Errorf("%w: %s", weather.ErrNoRadar, res.Snapshot.RadarError)
		}
		l.enterFallback(cause, res.Snapshot.RadarError)
	}
	if l.onInit != nil {
		l.onInit()
	}
}

func (l *RenderLoop) enterFallback(cause error, detail string) {
	l.phase = PhaseFallback
	l.failure = summarize(cause)
	l.offline = IsConnectivityError(cause, detail)
	log.Error().Err(cause).Bool("offline", l.offline).Msg("no usable radar; showing fallback screen")
	if l.crash != nil {
		_, _ = l.crash.Write(cause)
	}
}

func (l *RenderLoop) drain(now time.Time) {
	if l.snapshots == nil {
		return
	}
	for {
		snap, ok := l.snapshots.TryTake()
		if !ok {
			return
		}
		l.apply(snap, now)
		if l.phase == PhaseFallback && snap.HasRadar() {
			l.phase = PhaseRunning
			l.failure, l.offline = "", false
			log.Info().Str("snapshot", snap.ID.String()).Msg("radar recovered; leaving fallback screen")
		}
	}
}

// apply is the single point where worker data becomes visible to the
// render thread.
func (l *RenderLoop) apply(snap weather.WeatherSnapshot, now time.Time) {
	l.snap, l.hasSnap = snap, true
	l.mode = modeOf(snap)

	l.alerts.SetAlerts(snap.Alerts, now)
	// A refresh without radar keeps the previous loop playing.
	if snap.HasRadar() {
		l.radar.Load(snap.Radar, snap.IsTropical, now)
	}

	var primary *weather.AlertRecord
	if a, ok := snap.PrimaryAlert(); ok {
		primary = &a
	}
	l.conditions, l.hasConditions = BuildConditionsPanel(l.ctx, l.icons, snap.Location, snap.Conditions, primary)
	l.forecast, l.hasForecast = BuildForecastPanel(l.ctx, l.icons, snap.Forecast)

	steps := l.panels.Steps()
	l.panels.SetFlipFrames(ModeConditions, flipFramesFor(l.conditions, l.hasConditions, steps))
	l.panels.SetFlipFrames(ModeForecast, flipFramesFor(l.forecast, l.hasForecast, steps))

	log.Info().
		Str("snapshot", snap.ID.String()).
		Str("zip", snap.Location.Zip).
		Int("alerts", len(snap.Alerts)).
		Str("mode", l.mode.String()).
		Int("radarSequences", len(snap.Radar)).
		Msg("snapshot applied")
}

func flipFramesFor(p PanelFrame, ok bool, steps int) FlipFrames {
	if !ok {
		return FlipFrames{}
	}
	return BuildFlipFrames(p, steps)
}

func modeOf(snap weather.WeatherSnapshot) DisplayMode {
	switch {
	case snap.IsRedmode:
		return ModeRedmode
	case snap.IsTropical:
		return ModeTropical
	default:
		return ModeNormal
	}
}

func (l *RenderLoop) compose(now time.Time) *Frame {
	f := NewFrame(l.ctx.Width, l.ctx.Height)
	l.composeRadar(f, now)
	l.composeTitle(f, now)
	l.composeAlertBar(f)
	l.composePanel(f)
	l.composeTicker(f)
	l.composeOverlay(f)
	return f
}

func (l *RenderLoop) composeRadar(f *Frame, now time.Time) {
	w, h := l.ctx.Width, l.ctx.Height
	img, ok := l.radar.Frame()
	if !ok {
		f.Add(BandBackground, FillLayer(0, 0, float64(w), float64(h), colorBlack))
		return
	}

	dw, dh := CoverRect(img.Bounds(), w, h)
	offset := float64(RadarOffsetY(h))
	wide := l.snap.IsTropical && l.radar.ActiveSequence() == 1
	if wide {
		offset = l.ctx.SY(40)
	}
	f.Add(BandBackground, ImageLayer(img, 0, offset, dw, dh))

	if !wide {
		x, y := DotPosition(w, h)
		dot := DotLayer(x, y, math.Max(3, l.ctx.SX(8)), colorDot).Outlined(colorWhite, 1)
		dot.Alpha = float64(DotAlpha(l.radar.Elapsed(now))) / 255
		f.Add(BandBackground, dot)
	}
}

func (l *RenderLoop) composeTitle(f *Frame, now time.Time) {
	title, alpha := TitleNormal, 1.0
	switch {
	case l.mode == ModeRedmode:
		title = TitleRedmode
	case l.snap.IsTropical:
		if l.radar.ActiveSequence() == 1 {
			title = TitleTropical
		}
		alpha = l.radar.TitleAlpha(now) / 255
	}
	titleLayer := AssetLayer(title, 10, 10, 0, math.Floor(l.ctx.FontSize(64)*1.2), color.RGBA{})
	titleLayer.Alpha = alpha
	f.Add(BandTitle, titleLayer)

	logo := LogoNormal
	if l.mode == ModeRedmode {
		logo = LogoRedmode
	}
	logoW := l.ctx.SX(200)
	logoX := float64(l.ctx.Width) - l.ctx.SX(10) - logoW
	f.Add(BandTitle, AssetLayer(logo, logoX, l.ctx.SY(10), logoW, 0, color.RGBA{}))

	clock := now.Format("3:04 PM")
	f.Add(BandTitle, TextLayer(clock, logoX+logoW/2, l.ctx.SY(120), l.ctx.FontSize(28), FontBold, colorWhite).Outlined(colorBlack, 2).Centered())
}

func (l *RenderLoop) composeAlertBar(f *Frame) {
	a, ok := l.alerts.Active()
	if !ok {
		return
	}
	barH := l.ctx.BottomBarHeight()
	f.Add(BandAlertBar, AssetLayer(BarAsset(a.Level), 0, float64(l.ctx.Height)-barH, float64(l.ctx.Width), barH, barFallbacks[a.Level]))
	x, y := l.ctx.WarningPos()
	f.Add(BandAlertBar, TextLayer(a.EventUpper, x, y, l.ctx.WarningSize(), FontBold, colorWhite).Outlined(colorBlack, 2))
}

func (l *RenderLoop) composePanel(f *Frame) {
	g := l.ctx.Panel
	if pf, ok := l.panels.InFlight(); ok {
		x := g.X + math.Floor((g.Width-pf.Width)/2)
		f.Add(BandPanel, pf.Place(x, g.Y)...)
		return
	}
	switch {
	case l.panels.State().Mode == ModeConditions && l.hasConditions:
		f.Add(BandPanel, l.conditions.Place(g.X, g.Y)...)
	case l.panels.State().Mode == ModeForecast && l.hasForecast:
		f.Add(BandPanel, l.forecast.Place(g.X, g.Y)...)
	}
}

func (l *RenderLoop) composeTicker(f *Frame) {
	a, ok := l.alerts.Active()
	if !ok {
		return
	}
	st := l.alerts.State()
	f.Add(BandTicker, TextLayer(a.TickerText, st.ScrollX, l.ctx.TickerY(), l.ctx.TickerSize(), FontRegular, colorWhite))
}

func (l *RenderLoop) composeOverlay(f *Frame) {
	if !l.ctx.ShowFPS {
		return
	}
	y := float64(l.ctx.Height) - l.ctx.BottomBarHeight() - l.ctx.SY(40)
	f.Add(BandOverlay, TextLayer(fmt.Sprintf("FPS: %.0f", l.fps), l.ctx.SX(10), y, l.ctx.FontSize(24), FontBold, colorFPS).Outlined(colorBlack, 1))
}

func (l *RenderLoop) composeLoading() *Frame {
	w, h := float64(l.ctx.Width), float64(l.ctx.Height)
	f := NewFrame(l.ctx.Width, l.ctx.Height)
	f.Add(BandBackground, AssetLayer(LoadingBackground, 0, 0, w, h, colorBlack))

	size := l.ctx.FontSize(72)
	f.Add(BandOverlay, TextLayer(string(l.stage), w/2, h/2-30-size/2, size, FontBold, colorWhite).Outlined(colorBlack, 3).Centered())
	if l.motd != "" {
		f.Add(BandOverlay, TextLayer(l.motd, w/2, h/2+l.ctx.SY(80), l.ctx.FontSize(36), FontRegular, colorWhite).Outlined(colorBlack, 2).Centered())
	}
	l.composeOverlay(f)
	return f
}

// composeFallback is the static no-radar screen. Panels and the ticker
// still show when their data exists.
func (l *RenderLoop) composeFallback(now time.Time) *Frame {
	w, h := float64(l.ctx.Width), float64(l.ctx.Height)
	f := NewFrame(l.ctx.Width, l.ctx.Height)
	f.Add(BandBackground, FillLayer(0, 0, w, h, colorFallbackBG))

	size := math.Floor(math.Min(w, h) / 3)
	f.Add(BandBackground, AssetLayer(FallbackImage, math.Floor((w-size)/2), math.Floor((h-size)/2), size, size, color.RGBA{}))

	f.Add(BandTitle, TextLayer("Radar data unavailable", w/2, l.ctx.SY(40), l.ctx.FontSize(54), FontBold, colorNoRadar).Outlined(colorBlack, 2).Centered())
	msgY := math.Floor((h+size)/2) + l.ctx.SY(20)
	f.Add(BandTitle, TextLayer(l.failure, w/2, msgY, l.ctx.FontSize(30), FontRegular, colorWhite).Outlined(colorBlack, 1).Centered())
	if l.offline {
		f.Add(BandTitle, TextLayer(offlineHint, w/2, msgY+l.ctx.SY(45), l.ctx.FontSize(30), FontBold, colorWhite).Outlined(colorBlack, 1).Centered())
	}

	if l.hasSnap {
		l.composeAlertBar(f)
		l.composePanel(f)
		l.composeTicker(f)
	}
	l.composeOverlay(f)
	return f
}

// errorFrame is built without touching engine state so it cannot fail again.
func (l *RenderLoop) errorFrame(reason string) *Frame {
	w, h := 1, 1
	if l.ctx != nil {
		w, h = l.ctx.Width, l.ctx.Height
	}
	f := NewFrame(w, h)
	f.Add(BandBackground, FillLayer(0, 0, float64(w), float64(h), colorFallbackBG))
	f.Add(BandOverlay, TextLayer("Display error: "+reason, float64(w)/2, float64(h)/2, 24, FontBold, colorWhite).Centered())
	return f
}

func (l *RenderLoop) countFrame(now time.Time) {
	l.fpsFrames++
	if elapsed := now.Sub(l.fpsWindow); elapsed >= time.Second {
		l.fps = float64(l.fpsFrames) / elapsed.Seconds()
		l.fpsFrames = 0
		l.fpsWindow = now
	}
}

func (l *RenderLoop) publish(now time.Time) {
	if l.status == nil {
		return
	}
	st := Status{
		Phase:         l.phase,
		Mode:          l.mode.String(),
		Panel:         l.panels.State().Mode.String(),
		Transitioning: l.panels.State().IsTransitioning,
		AlertCount:    l.alerts.Len(),
		AlertIndex:    l.alerts.State().ActiveIndex,
		RadarSequence: l.radar.ActiveSequence(),
		RadarFrame:    l.radar.FrameIndex(),
		Fade:          l.radar.Fade().String(),
		FPS:           math.Round(l.fps*10) / 10,
		Error:         l.failure,
		UpdatedAt:     now,
	}
	if l.phase == PhaseLoading {
		st.Stage = string(l.stage)
	}
	if a, ok := l.alerts.Active(); ok {
		st.ActiveAlert = a.EventUpper
	}
	if l.hasSnap {
		st.SnapshotID = l.snap.ID.String()
		st.Location = l.snap.Location.DisplayName
	}
	l.status.Publish(st)
}

func (l *RenderLoop) Phase() Phase                       { return l.phase }
func (l *RenderLoop) Mode() DisplayMode                  { return l.mode }
func (l *RenderLoop) FPS() float64                       { return l.fps }
func (l *RenderLoop) Alerts() *AlertRotationEngine       { return l.alerts }
func (l *RenderLoop) Radar() *RadarPlaybackEngine        { return l.radar }
func (l *RenderLoop) Transitions() *PanelTransitionEngine { return l.panels }

// IsConnectivityError reports whether err (or the detail text carried by
// a snapshot) looks like a name-resolution failure.
func IsConnectivityError(err error, detail string) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	text := detail
	if err != nil {
		text += " " + err.Error()
	}
	text = strings.ToLower(text)
	for _, marker := range []string{"no such host", "name resolution", "server misbehaving", "name or service not known"} {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

func summarize(err error) string {
	const limit = 120
	msg := []rune(err.Error())
	if len(msg) > limit {
		return string(msg[:limit-3]) + "..."
	}
	return string(msg)
}
