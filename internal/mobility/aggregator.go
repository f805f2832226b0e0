package mobility

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mobilitydash/mobility-data-aggregation/internal/logger"
)

var (
	// ErrNoSources is returned when an aggregator is constructed without
	// any source to call.
	ErrNoSources = errors.New("at least one source required")
	// ErrConflictingConfig is returned when both registration styles are
	// supplied at once.
	ErrConflictingConfig = errors.New("provide either sources or registrations, not both")
)

const (
	defaultSourceTimeout = 10 * time.Second
	defaultMaxConcurrent = 4
)

// FallbackFetcher routes a source call through a stale-data fallback layer.
// Implemented by fallback.Cache.
type FallbackFetcher interface {
	FetchWithFallback(ctx context.Context, src Source, location string, params Params) (PartialResult, SourceStatus)
}

// AnalysisHook mutates derived fields on a merged snapshot. Hooks must not
// touch raw source-owned fields; a returned error (or panic) is swallowed
// by the aggregator and only leaves the hook's derived fields unset.
type AnalysisHook interface {
	Name() string
	Apply(*Snapshot) error
}

// AggregatorConfig configures a new Aggregator. Exactly one of Sources or
// Registrations must be given; Sources is shorthand for registrations with
// empty parameter bags. Everything else is optional.
type AggregatorConfig struct {
	Sources       []Source
	Registrations []Registration

	Cache         FallbackFetcher
	Hooks         []AnalysisHook
	SourceTimeout time.Duration
	MaxConcurrent int
	Logger        logger.Logger
}

// Aggregator drives all registered sources for one location and merges
// whatever data comes back into a single Snapshot. It holds no mutable
// state beyond its immutable registration list, so concurrent Build calls
// on one instance are safe.
type Aggregator struct {
	regs          []Registration
	cache         FallbackFetcher
	hooks         []AnalysisHook
	sourceTimeout time.Duration
	maxConcurrent int
	log           logger.Logger
}

// NewAggregator validates the configuration and builds an Aggregator.
func NewAggregator(cfg AggregatorConfig) (*Aggregator, error) {
	if len(cfg.Sources) > 0 && len(cfg.Registrations) > 0 {
		return nil, ErrConflictingConfig
	}

	regs := cfg.Registrations
	if len(regs) == 0 {
		for _, src := range cfg.Sources {
			regs = append(regs, Registration{Source: src, Params: Params{}})
		}
	}
	if len(regs) == 0 {
		return nil, ErrNoSources
	}

	// Copy so later mutation of the caller's slice cannot reach us.
	owned := make([]Registration, len(regs))
	copy(owned, regs)

	timeout := cfg.SourceTimeout
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}
	workers := cfg.MaxConcurrent
	if workers <= 0 {
		workers = defaultMaxConcurrent
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}

	return &Aggregator{
		regs:          owned,
		cache:         cfg.Cache,
		hooks:         cfg.Hooks,
		sourceTimeout: timeout,
		maxConcurrent: workers,
		log:           log,
	}, nil
}

// SourceNames returns the resolved names of all registered sources, in
// registration order.
func (a *Aggregator) SourceNames() []string {
	names := make([]string, len(a.regs))
	for i, reg := range a.regs {
		names[i] = SourceName(reg.Source)
	}
	return names
}

// outcome is the tagged result of one source call. Collecting outcomes per
// registration index lets calls run concurrently while merges stay in
// registration order.
type outcome struct {
	name    string
	partial PartialResult
	status  SourceStatus
	err     error
}

// Build aggregates all registered sources into one Snapshot for the given
// location. It never returns an error: per-source failures surface only in
// the snapshot's status map. The snapshot timestamp is the aggregation
// start instant, not any individual source's.
func (a *Aggregator) Build(ctx context.Context, location string) Snapshot {
	if location == "" {
		location = DefaultLocation
	}

	snap := Snapshot{
		ID:           uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Location:     location,
		SourceStatus: make(map[string]SourceStatus, len(a.regs)),
	}

	outcomes := make([]outcome, len(a.regs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, a.maxConcurrent)
	for i, reg := range a.regs {
		wg.Add(1)
		go func(i int, reg Registration) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			outcomes[i] = a.callSource(ctx, reg, location)
		}(i, reg)
	}
	wg.Wait()

	// Merge strictly in registration order regardless of completion order,
	// so ties on the same field always break the same way.
	for _, out := range outcomes {
		snap.SourceStatus[out.name] = out.status
		if out.status == StatusFailed {
			if out.err != nil {
				a.log.Warn("source unavailable",
					logger.String("source", out.name),
					logger.String("location", location),
					logger.Error(out.err))
			}
			continue
		}
		Merge(&snap, out.partial)
	}

	a.runHooks(&snap)
	return snap
}

func (a *Aggregator) callSource(ctx context.Context, reg Registration, location string) outcome {
	name := SourceName(reg.Source)

	callCtx, cancel := context.WithTimeout(ctx, a.sourceTimeout)
	defer cancel()

	if a.cache != nil {
		partial, status := a.cache.FetchWithFallback(callCtx, reg.Source, location, reg.Params)
		if status == StatusLive && ctx.Err() != nil {
			// The build was cancelled before this call finished; the data
			// made it into the cache but must not be reported as live.
			status = StatusCached
		}
		return outcome{name: name, partial: partial, status: status}
	}

	partial, err := CallSource(callCtx, reg.Source, location, reg.Params)
	if err != nil {
		return outcome{name: name, status: StatusFailed, err: err}
	}
	// A call that only "succeeded" because cancellation raced the return
	// still counts as failed; never report live for an unfinished source.
	if ctx.Err() != nil {
		return outcome{name: name, status: StatusFailed, err: ctx.Err()}
	}
	return outcome{name: name, partial: partial, status: StatusLive}
}

func (a *Aggregator) runHooks(snap *Snapshot) {
	for _, hook := range a.hooks {
		if err := a.applyHook(hook, snap); err != nil {
			a.log.Warn("analysis hook failed",
				logger.String("hook", hook.Name()),
				logger.Error(err))
		}
	}
}

func (a *Aggregator) applyHook(hook AnalysisHook, snap *Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("hook panicked")
		}
	}()
	return hook.Apply(snap)
}
