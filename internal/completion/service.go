package completion

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/atinylittleshell/termsuggest/internal/config"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds providers for completions requested while typing.
	DefaultTimeout = 5 * time.Second
	// DefaultExplicitTimeout bounds providers for explicitly requested
	// completions.
	DefaultExplicitTimeout = 30 * time.Second
)

// Request describes a single completion request.
type Request struct {
	Value  string
	Cursor int

	ShellType    ShellType
	Capabilities Capabilities

	// AllowFallback is passed through to providers.
	AllowFallback bool

	// TriggerCharacter restricts the request to providers declaring it.
	TriggerCharacter string

	// Explicit requests were made by the user rather than by typing.
	Explicit bool

	// SkipExternal keeps only built-in providers.
	SkipExternal bool
}

// ServiceConfig holds configuration for creating a Service.
type ServiceConfig struct {
	Registry *Registry
	Resolver *ResourceResolver

	// Settings decides which providers are enabled. Defaults to DefaultConfig.
	Settings *config.Config

	// Clock drives provider timeouts. Defaults to the real clock.
	Clock Clock

	// Timeout and ExplicitTimeout override DefaultTimeout and
	// DefaultExplicitTimeout when non-zero.
	Timeout         time.Duration
	ExplicitTimeout time.Duration

	// Logger for debug output. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// Service fans a request out to the applicable providers and merges their
// results in registration order.
type Service struct {
	registry        *Registry
	resolver        *ResourceResolver
	settings        *config.Config
	clock           Clock
	timeout         time.Duration
	explicitTimeout time.Duration
	logger          *zap.Logger
}

// NewService creates a new Service.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := cfg.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	settings := cfg.Settings
	if settings == nil {
		settings = config.DefaultConfig()
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = NewResourceResolver(ResourceResolverConfig{Settings: settings, Logger: logger})
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	explicitTimeout := cfg.ExplicitTimeout
	if explicitTimeout <= 0 {
		explicitTimeout = DefaultExplicitTimeout
	}

	return &Service{
		registry:        registry,
		resolver:        resolver,
		settings:        settings,
		clock:           clock,
		timeout:         timeout,
		explicitTimeout: explicitTimeout,
		logger:          logger,
	}
}

// Registry returns the registry the service reads providers from.
func (s *Service) Registry() *Registry {
	return s.registry
}

// ProvideCompletions queries every applicable provider concurrently and
// returns the merged candidates in registration order.
//
// A negative cursor yields no candidates. When ctx is cancelled the result is
// abandoned and ctx.Err() is returned; callers must discard it. A candidate
// with a replacement range outside the prompt fails the whole request with an
// error wrapping ErrInvalidRange.
func (s *Service) ProvideCompletions(ctx context.Context, req Request) ([]Candidate, error) {
	if req.Cursor < 0 {
		return nil, nil
	}

	registrations := s.selectProviders(req)
	if len(registrations) == 0 {
		return nil, ctx.Err()
	}

	timeout := s.timeout
	if req.Explicit {
		timeout = s.explicitTimeout
	}

	results := make([][]Candidate, len(registrations))
	errs := make([]error, len(registrations))
	var wg sync.WaitGroup
	for i, reg := range registrations {
		wg.Add(1)
		go func(i int, reg Registration) {
			defer wg.Done()
			results[i], errs[i] = s.runProvider(ctx, reg, req, timeout)
		}(i, reg)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		s.logger.Debug("completion request cancelled", zap.Error(err))
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return lo.Flatten(results), nil
}

func (s *Service) selectProviders(req Request) []Registration {
	return lo.Filter(s.registry.Registrations(), func(reg Registration, _ int) bool {
		p := reg.Provider
		if req.TriggerCharacter != "" && !slices.Contains(p.TriggerCharacters(), req.TriggerCharacter) {
			return false
		}
		if req.SkipExternal {
			if !reg.Builtin {
				return false
			}
		} else if !s.settings.ProviderEnabled(p.ID()) {
			return false
		}
		if shells := p.ShellTypes(); len(shells) > 0 && !slices.Contains(shells, req.ShellType) {
			return false
		}
		return true
	})
}

type providerOutcome struct {
	result *ProviderResult
	err    error
}

// runProvider calls a single provider and post-processes its result. A
// provider that fails, panics or does not settle in time contributes nothing.
// A timeout does not cancel the provider; it keeps ctx and may finish later.
func (s *Service) runProvider(ctx context.Context, reg Registration, req Request, timeout time.Duration) ([]Candidate, error) {
	id := reg.Provider.ID()
	done := make(chan providerOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- providerOutcome{err: fmt.Errorf("provider panicked: %v", r)}
			}
		}()
		result, err := reg.Provider.ProvideCompletions(ctx, req.Value, req.Cursor, req.AllowFallback)
		done <- providerOutcome{result: result, err: err}
	}()

	var outcome providerOutcome
	select {
	case outcome = <-done:
	case <-s.clock.After(timeout):
		s.logger.Debug("completion provider timed out", zap.String("provider", id), zap.Duration("timeout", timeout))
		return nil, nil
	case <-ctx.Done():
		return nil, nil
	}

	if outcome.err != nil {
		s.logger.Debug("completion provider failed", zap.String("provider", id), zap.Error(outcome.err))
		return nil, nil
	}
	if outcome.result == nil {
		return nil, nil
	}

	items := make([]Candidate, 0, len(outcome.result.Items))
	for _, item := range outcome.result.Items {
		if reg.Builtin && item.Provider == "" {
			item.Provider = id
		}
		if req.ShellType == ShellPowerShell && item.Kind == KindMethod && item.Range.Start == 0 {
			item.IsFileOverride = true
		}
		if err := item.Validate(len(req.Value)); err != nil {
			return nil, fmt.Errorf("provider %q: %w", id, err)
		}
		items = append(items, item)
	}

	if opts := outcome.result.ResourceOptions; opts != nil {
		seen := lo.SliceToMap(items, func(c Candidate) (string, struct{}) {
			return c.Label.Text, struct{}{}
		})
		resources := s.resolver.ResolveResources(ctx, *opts, req.Value, req.Cursor, id, req.Capabilities, req.ShellType)
		for _, resource := range resources {
			if _, dup := seen[resource.Label.Text]; dup {
				continue
			}
			seen[resource.Label.Text] = struct{}{}
			items = append(items, resource)
		}
	}

	return items, nil
}
