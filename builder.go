package authkit

import (
	"errors"
	"fmt"

	"github.com/nrednav/authkit/internal"
	"github.com/nrednav/authkit/password"
	"github.com/nrednav/authkit/token"
)

// Builder assembles an [Engine]. Construction is allocation-only until
// Build, which loads the initial credential state and wires every
// component. A Builder is single-use.
type Builder struct {
	config    Config
	validator Validator
	loader    StateLoader
	saver     StateSaver

	state    State
	hasState bool

	built bool
}

// New returns a Builder carrying the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithKey sets the cookie token signing key.
func (b *Builder) WithKey(key []byte) *Builder {
	b.config.Cookie.Key = cloneBytes(key)
	return b
}

// WithValidator injects a custom field validator. The default grammar
// is [DefaultValidator].
func (b *Builder) WithValidator(v Validator) *Builder {
	b.validator = v
	return b
}

// WithStateLoader sets the collaborator that supplies the initial
// credential state at Build time.
func (b *Builder) WithStateLoader(l StateLoader) *Builder {
	b.loader = l
	return b
}

// WithStateSaver sets the collaborator that receives the credential
// state after every successful mutation.
func (b *Builder) WithStateSaver(s StateSaver) *Builder {
	b.saver = s
	return b
}

// WithState supplies the initial credential state directly, bypassing
// any loader.
func (b *Builder) WithState(state State) *Builder {
	b.state = state
	b.hasState = true
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, loads the initial state, and
// returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Password.GeneratedLength == 0 {
		cfg.Password.GeneratedLength = internal.MinPasswordLength
	}

	validator := b.validator
	if validator == nil {
		validator = DefaultValidator{}
	}

	state := b.state
	if !b.hasState && b.loader != nil {
		loaded, err := b.loader.Load()
		if err != nil {
			return nil, fmt.Errorf("load credential state: %w", err)
		}
		state = loaded
	}

	hasher, err := password.NewHasher(password.Config{Cost: cfg.Password.Cost})
	if err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(token.Config{
		Key: cfg.Cookie.Key,
		TTL: cfg.Cookie.TTL,
	})
	if err != nil {
		return nil, err
	}

	credentials, err := newCredentials(state, hasher, validator, b.saver, cfg.Password.GeneratedLength)
	if err != nil {
		return nil, err
	}

	b.built = true

	return &Engine{
		config:      cfg,
		credentials: credentials,
		hasher:      hasher,
		tokens:      tokens,
		metrics:     NewMetrics(cfg.Metrics),
	}, nil
}
