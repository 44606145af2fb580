package classify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/yungbote/studybits-backend/internal/observability"
	"github.com/yungbote/studybits-backend/internal/platform/logger"
	"github.com/yungbote/studybits-backend/internal/platform/openai"
	"github.com/yungbote/studybits-backend/internal/platform/promptstyle"
)

// ErrTaggerUnavailable means the generator is shedding load (breaker open or too
// many half-open probes).
var ErrTaggerUnavailable = errors.New("tag generator unavailable")

// TagGenerator returns the model's raw reply for a prompt.
type TagGenerator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

type openAIGenerator struct {
	ai openai.Client
}

func NewOpenAIGenerator(ai openai.Client) TagGenerator {
	return openAIGenerator{ai: ai}
}

func (g openAIGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	system := promptstyle.ApplySystem(p.System, "tags")
	if len(p.Images) > 0 {
		return g.ai.GenerateTextWithImages(ctx, system, p.User, p.Images)
	}
	return g.ai.GenerateText(ctx, system, p.User)
}

type GuardConfig struct {
	Name string

	// RatePerSecond <= 0 disables rate limiting.
	RatePerSecond float64
	Burst         int

	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Name:             "tagger",
		RatePerSecond:    5,
		Burst:            10,
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

type guardedGenerator struct {
	next    TagGenerator
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[string]
	metrics *observability.Metrics
}

// NewGuardedGenerator rate limits calls to next and trips a circuit breaker after
// consecutive failures.
func NewGuardedGenerator(next TagGenerator, cfg GuardConfig, log *logger.Logger, metrics *observability.Metrics) TagGenerator {
	if cfg.Name == "" {
		cfg.Name = "tagger"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	g := &guardedGenerator{next: next, metrics: metrics}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	g.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// A caller giving up says nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if log != nil {
				log.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			}
			metrics.SetBreakerState(name, to.String())
		},
	})
	return g
}

func (g *guardedGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("tagger rate limit: %w", err)
		}
	}
	start := time.Now()
	out, err := g.breaker.Execute(func() (string, error) {
		return g.next.Generate(ctx, p)
	})
	status := "ok"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		status = "shed"
		err = fmt.Errorf("%w: %v", ErrTaggerUnavailable, err)
	case err != nil:
		status = "error"
	}
	g.metrics.ObserveTagger(p.Kind, status, time.Since(start))
	return out, err
}

// Cache stores raw generator replies.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type cachedGenerator struct {
	next    TagGenerator
	cache   Cache
	ttl     time.Duration
	log     *logger.Logger
	metrics *observability.Metrics
}

// NewCachedGenerator serves repeated prompts from cache. Cache failures are logged
// and fall through to next.
func NewCachedGenerator(next TagGenerator, cache Cache, ttl time.Duration, log *logger.Logger, metrics *observability.Metrics) TagGenerator {
	if log == nil {
		log = logger.Nop()
	}
	return &cachedGenerator{next: next, cache: cache, ttl: ttl, log: log, metrics: metrics}
}

func (g *cachedGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	key := PromptKey(p)
	if v, ok, err := g.cache.Get(ctx, key); err != nil {
		g.log.Warn("tag cache read failed", "kind", p.Kind, "error", err)
	} else if ok {
		g.metrics.IncTagCache(true)
		return v, nil
	}
	g.metrics.IncTagCache(false)

	out, err := g.next.Generate(ctx, p)
	if err != nil {
		return "", err
	}
	if err := g.cache.Set(ctx, key, out, g.ttl); err != nil {
		g.log.Warn("tag cache write failed", "kind", p.Kind, "error", err)
	}
	return out, nil
}

// PromptKey hashes everything that influences the reply.
func PromptKey(p Prompt) string {
	h := sha256.New()
	for _, part := range []string{p.Kind, p.System, p.User} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	for _, img := range p.Images {
		h.Write([]byte(img.ImageURL))
		h.Write([]byte{0})
	}
	return "tags:" + p.Kind + ":" + hex.EncodeToString(h.Sum(nil))
}
