package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/mobilitydash/mobility-data-aggregation/internal/fallback"
	"github.com/mobilitydash/mobility-data-aggregation/internal/mobility"
	"github.com/mobilitydash/mobility-data-aggregation/internal/store"
)

var validate = validator.New()

// Deps bundles what the HTTP handlers need. NewAggregator builds a fresh
// aggregator whose registrations carry the given per-source parameter
// overrides; registrations stay immutable per aggregator instance.
type Deps struct {
	NewAggregator func(overrides map[string]mobility.Params) (*mobility.Aggregator, error)
	History       *store.MemoryStore
	Cache         *fallback.Cache
	SourceNames   []string
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/snapshot", func(c *fiber.Ctx) error {
		location := c.Query("location", mobility.DefaultLocation)

		overrides := make(map[string]mobility.Params)
		if v := c.Query("traffic_radius_km"); v != "" {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "traffic_radius_km must be a number")
			}
			overrides["traffic"] = mobility.Params{"radius_km": v}
		}
		if v := c.Query("attraction_radius_km"); v != "" {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "attraction_radius_km must be a number")
			}
			overrides["attractions"] = mobility.Params{"radius_km": v}
		}

		agg, err := deps.NewAggregator(overrides)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		return c.JSON(agg.Build(c.Context(), location))
	})

	v1.Get("/snapshot/latest", func(c *fiber.Ctx) error {
		location := c.Query("location", mobility.DefaultLocation)

		snap, err := deps.History.GetLatest(location)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no snapshot for requested location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load snapshot")
		}
		return c.JSON(snap)
	})

	v1.Get("/snapshot/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshots, err := deps.History.GetRange(req.Location, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no snapshots for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load snapshot history")
		}

		return c.JSON(fiber.Map{
			"location":  req.Location,
			"from":      req.From,
			"to":        req.To,
			"snapshots": snapshots,
		})
	})

	v1.Get("/cache/status", func(c *fiber.Ctx) error {
		type sourceCacheStatus struct {
			Source      string     `json:"source"`
			HasCached   bool       `json:"hasCached"`
			LastSuccess *time.Time `json:"lastSuccess,omitempty"`
		}

		statuses := make([]sourceCacheStatus, 0, len(deps.SourceNames))
		for _, name := range deps.SourceNames {
			st := sourceCacheStatus{Source: name}
			st.HasCached = deps.Cache.HasCached(c.Context(), name)
			if ts, ok := deps.Cache.LastSuccessTime(c.Context(), name); ok {
				st.LastSuccess = &ts
			}
			statuses = append(statuses, st)
		}
		return c.JSON(fiber.Map{"sources": statuses})
	})

	v1.Delete("/cache", func(c *fiber.Ctx) error {
		if name := c.Query("source"); name != "" {
			deps.Cache.Clear(c.Context(), name)
			return c.JSON(fiber.Map{"cleared": name})
		}
		deps.Cache.ClearAll(c.Context())
		return c.JSON(fiber.Map{"cleared": "all"})
	})
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location string    `validate:"required"`
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	h.Location = c.Query("location", mobility.DefaultLocation)

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
