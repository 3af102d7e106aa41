package providers

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"bossai/internal/domain"
)

const (
	breakerThreshold = 5
	breakerCooldown  = 30 * time.Second
)

var providerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bossai_provider_requests_total",
	Help: "Provider attempts by provider name and outcome.",
}, []string{"provider", "outcome"})

type routeEntry struct {
	gen    Generator
	weight int
}

type breaker struct {
	failures  int
	openUntil time.Time
}

// Router picks a provider by weighted random choice, skips providers whose
// circuit is open, and fails over to the remaining ones before giving up.
type Router struct {
	mu       sync.Mutex
	entries  []routeEntry
	breakers map[string]*breaker
	rand     *rand.Rand
	logger   zerolog.Logger
}

func NewRouter(logger zerolog.Logger) *Router {
	return &Router{
		breakers: make(map[string]*breaker),
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   logger,
	}
}

// Register adds a provider with its routing weight. Zero or negative
// weights are ignored.
func (r *Router) Register(gen Generator, weight int) {
	if weight <= 0 {
		return
	}
	r.mu.Lock()
	r.entries = append(r.entries, routeEntry{gen: gen, weight: weight})
	r.mu.Unlock()
}

// Names lists the registered providers in registration order.
func (r *Router) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.gen.Name())
	}
	return names
}

// Generate runs the request against one provider, failing over until a
// provider succeeds or every registered provider has been tried. A request
// that pins a provider goes to that provider only, with no failover.
func (r *Router) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.Provider != "" {
		return r.generatePinned(ctx, req)
	}
	tried := make(map[string]bool)
	var lastErr error
	for {
		gen := r.pick(tried)
		if gen == nil {
			break
		}
		tried[gen.Name()] = true

		res, err := gen.Generate(ctx, req)
		if err != nil {
			r.recordFailure(gen.Name())
			providerRequests.WithLabelValues(gen.Name(), "error").Inc()
			r.logger.Warn().Err(err).Str("provider", gen.Name()).Str("job_id", req.JobID).Msg("provider attempt failed")
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		r.recordSuccess(gen.Name())
		providerRequests.WithLabelValues(gen.Name(), "ok").Inc()
		return res, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, lastErr)
	}
	return nil, fmt.Errorf("%w: no provider available", domain.ErrProviderFailure)
}

func (r *Router) generatePinned(ctx context.Context, req Request) (*Result, error) {
	gen := r.lookup(req.Provider)
	if gen == nil {
		return nil, fmt.Errorf("%w: provider %q not registered", domain.ErrProviderFailure, req.Provider)
	}
	res, err := gen.Generate(ctx, req)
	if err != nil {
		r.recordFailure(gen.Name())
		providerRequests.WithLabelValues(gen.Name(), "error").Inc()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	r.recordSuccess(gen.Name())
	providerRequests.WithLabelValues(gen.Name(), "ok").Inc()
	return res, nil
}

func (r *Router) lookup(name string) Generator {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.gen.Name() == name {
			return e.gen
		}
	}
	return nil
}

func (r *Router) pick(tried map[string]bool) Generator {
	r.mu.Lock()
	defer r.mu.Unlock()

	var candidates []routeEntry
	total := 0
	for _, e := range r.entries {
		if tried[e.gen.Name()] || !r.availableLocked(e.gen.Name()) {
			continue
		}
		candidates = append(candidates, e)
		total += e.weight
	}
	if len(candidates) == 0 {
		return nil
	}
	n := r.rand.Intn(total)
	for _, e := range candidates {
		n -= e.weight
		if n < 0 {
			return e.gen
		}
	}
	return candidates[len(candidates)-1].gen
}

func (r *Router) availableLocked(name string) bool {
	b := r.breakers[name]
	if b == nil || b.failures < breakerThreshold {
		return true
	}
	// Half-open after the cooldown: one attempt is let through and the
	// circuit re-opens on failure.
	return time.Now().After(b.openUntil)
}

func (r *Router) recordFailure(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.breakers[name]
	if b == nil {
		b = &breaker{}
		r.breakers[name] = b
	}
	b.failures++
	if b.failures >= breakerThreshold {
		b.openUntil = time.Now().Add(breakerCooldown)
		r.logger.Warn().Str("provider", name).Int("failures", b.failures).Msg("provider circuit opened")
	}
}

func (r *Router) recordSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b := r.breakers[name]; b != nil {
		b.failures = 0
		b.openUntil = time.Time{}
	}
}

var _ Generator = (*Router)(nil)

// Name identifies the router when it is used as a Generator.
func (r *Router) Name() string { return "router" }
