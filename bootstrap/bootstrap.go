// Package bootstrap holds the startup hook of the service locator.
//
// Initialize does not register anything: services register themselves
// through the registry package before anyone resolves them. Startup can
// optionally check that promise against a dependency manifest and warm up
// chosen services.
package bootstrap

import (
	"context"

	"github.com/xraph/go-utils/log"

	"github.com/cepho/locator"
	"github.com/cepho/locator/registry"
)

// Option configures Initialize.
type Option func(*options)

type options struct {
	logger    log.Logger
	container locator.Container
}

// WithLogger overrides the logger built from Config.Logging.
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithContainer initializes c instead of the process-wide registry container.
func WithContainer(c locator.Container) Option {
	return func(o *options) {
		o.container = c
	}
}

// Initialize runs once at application startup.
func Initialize(ctx context.Context, cfg *Config, opts ...Option) error {
	if cfg == nil {
		cfg = &Config{}
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.logger == nil {
		o.logger = log.NewLogger(cfg.Logging)
	}

	if o.container == nil {
		o.container = registry.Container()
	}

	logger := o.logger.Named("bootstrap")
	logger.Info("service registration is lazy, services register on first use",
		log.Int("registered", len(o.container.Services())))

	if cfg.Manifest != "" {
		if err := checkManifest(cfg, o.container, logger); err != nil {
			return err
		}
	}

	if len(cfg.Warm) > 0 {
		if err := locator.Warm(ctx, o.container, cfg.Warm...); err != nil {
			return err
		}

		logger.Info("services warmed", log.Strings("services", cfg.Warm))
	}

	return nil
}

func checkManifest(cfg *Config, c locator.Container, logger log.Logger) error {
	m, err := locator.LoadManifest(cfg.Manifest)
	if err != nil {
		return err
	}

	if err := locator.Validate(c, m); err != nil {
		if cfg.Strict {
			return err
		}

		logger.Warn("dependency manifest validation failed",
			log.String("manifest", cfg.Manifest), log.Error(err))

		return nil
	}

	logger.Info("dependency manifest validated",
		log.String("manifest", cfg.Manifest), log.Int("services", len(m.Services)))

	return nil
}
