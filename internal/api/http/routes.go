package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-display/internal/display"
	"github.com/i474232898/weather-display/internal/store"
	"github.com/i474232898/weather-display/internal/weather"
)

var validate = validator.New()

// History is the read side of the snapshot history.
type History interface {
	GetLatest(loc weather.Location) (weather.SnapshotSummary, error)
	GetRange(loc weather.Location, from, to time.Time) ([]weather.SnapshotSummary, error)
}

// StatusSource exposes the render loop's last published status.
type StatusSource interface {
	Load() (display.Status, bool)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, history History, status StatusSource) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/display/status", func(c *fiber.Ctx) error {
		st, ok := status.Load()
		if !ok {
			return fiber.NewError(fiber.StatusServiceUnavailable, "display has not rendered a frame yet")
		}
		return c.JSON(st)
	})

	v1.Get("/snapshots/latest", func(c *fiber.Ctx) error {
		locReq, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		summary, err := history.GetLatest(locReq.toLocation())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no snapshot for requested zip")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read snapshot history")
		}

		return c.JSON(summary)
	})

	v1.Get("/snapshots/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc := req.Location.toLocation()
		summaries, err := history.GetRange(loc, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no snapshot history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read snapshot history")
		}

		return c.JSON(fiber.Map{
			"zip":       loc.Zip,
			"from":      req.From,
			"to":        req.To,
			"snapshots": summaries,
		})
	})
}

// locationQuery holds query parameters for identifying a location.
type locationQuery struct {
	Zip string `validate:"required,numeric,len=5"`
}

func (l locationQuery) toLocation() weather.Location {
	return weather.Location{Zip: l.Zip}
}

func parseLocationQuery(c *fiber.Ctx) (locationQuery, error) {
	q := locationQuery{Zip: c.Query("zip")}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location locationQuery
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	loc, err := parseLocationQuery(c)
	if err != nil {
		return err
	}
	h.Location = loc

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
