package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/rs/zerolog/log"

	"github.com/i474232898/weather-display/internal/display"
)

const SampleRate = 44100

// Cue sound files, relative to the asset directory.
var cueFiles = map[display.CueKind]string{
	display.CueWarning: "sounds/warning.ogg",
	display.CueWatch:   "sounds/watch.ogg",
}

var errNoClip = errors.New("no clip loaded for cue")

// CuePlayer plays the alert cues through an ebiten audio context. It
// implements display.AudioPlayer.
type CuePlayer struct {
	ctx     *audio.Context
	clips   map[display.CueKind][]byte
	playing map[display.CueKind]*audio.Player
}

// NewCuePlayer decodes every cue up front. A clip that cannot be read
// is logged and that cue stays silent.
func NewCuePlayer(ctx *audio.Context, assetDir string) *CuePlayer {
	p := &CuePlayer{
		ctx:     ctx,
		clips:   make(map[display.CueKind][]byte),
		playing: make(map[display.CueKind]*audio.Player),
	}
	for kind, file := range cueFiles {
		pcm, err := decodeClip(filepath.Join(assetDir, file))
		if err != nil {
			log.Warn().Err(err).Str("cue", kind.String()).Msg("alert cue unavailable")
			continue
		}
		p.clips[kind] = pcm
	}
	return p
}

func decodeClip(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	stream, err := vorbis.DecodeWithSampleRate(SampleRate, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return io.ReadAll(stream)
}

// PlayCue starts the cue from the beginning. It does not block.
func (p *CuePlayer) PlayCue(kind display.CueKind) error {
	pcm, ok := p.clips[kind]
	if !ok {
		return fmt.Errorf("%w: %s", errNoClip, kind)
	}
	if prev := p.playing[kind]; prev != nil {
		_ = prev.Close()
	}
	player := p.ctx.NewPlayerFromBytes(pcm)
	player.Play()
	p.playing[kind] = player
	return nil
}
