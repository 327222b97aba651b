package display

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// CrashLog writes a single crash report per process.
type CrashLog struct {
	dir string
	now func() time.Time

	once sync.Once
	path string
	err  error
}

func NewCrashLog(dir string) *CrashLog {
	return &CrashLog{dir: dir, now: time.Now}
}

// Write records cause in LOG_DIR/weather-display-crash_<timestamp>.txt.
// Only the first call writes; later calls return the first outcome.
func (c *CrashLog) Write(cause error) (string, error) {
	c.once.Do(func() {
		c.path, c.err = c.write(cause)
		if c.err != nil {
			log.Error().Err(c.err).Msg("could not write crash log")
			return
		}
		log.Info().Str("path", c.path).Msg("crash log written")
	})
	return c.path, c.err
}

func (c *CrashLog) write(cause error) (string, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("crash log dir: %w", err)
	}
	ts := c.now()
	path := filepath.Join(c.dir, "weather-display-crash_"+ts.Format("2006-01-02_15-04-05")+".txt")

	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	var b strings.Builder
	b.WriteString("Weather display crash report\n")
	b.WriteString(strings.Repeat("=", 28) + "\n")
	fmt.Fprintf(&b, "Time:    %s\n", ts.Format(time.RFC3339))
	fmt.Fprintf(&b, "Runtime: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	b.WriteString("\nThe radar loop could not be loaded, so the fallback screen is shown.\n\n")
	fmt.Fprintf(&b, "Error:\n%s\n", msg)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("crash log: %w", err)
	}
	return path, nil
}

// Written reports whether a report exists on disk.
func (c *CrashLog) Written() bool {
	return c.path != ""
}
