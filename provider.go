package xmlfactory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	xferrors "github.com/jacoelho/xmlfactory/errors"
	"github.com/jacoelho/xmlfactory/internal/config"
	"github.com/jacoelho/xmlfactory/internal/domparse"
	"github.com/jacoelho/xmlfactory/internal/resolution"
	"github.com/jacoelho/xmlfactory/internal/telemetry"
)

// FactoryProvider builds the hardened parser factory on first use and hands
// the same instance to every later caller. A failed construction is not
// cached; the next call tries again.
type FactoryProvider struct {
	factory       atomic.Pointer[Factory]
	tel           *telemetry.Telemetry
	opts          ProviderOptions
	mu            sync.Mutex
	constructions atomic.Int64
}

// NewFactoryProvider returns a provider that has not built its factory yet.
func NewFactoryProvider(opts ProviderOptions) *FactoryProvider {
	return &FactoryProvider{
		opts: opts,
		tel: telemetry.New(telemetry.Config{
			Logger:         opts.logger,
			TracerProvider: opts.tracerProvider,
			MeterProvider:  opts.meterProvider,
		}),
	}
}

var defaultProvider = sync.OnceValue(func() *FactoryProvider {
	return NewFactoryProvider(NewProviderOptions())
})

// DefaultProvider returns the process-wide provider used by the package
// level helpers.
func DefaultProvider() *FactoryProvider {
	return defaultProvider()
}

// GetFactory returns the process-wide hardened factory.
func GetFactory() (*Factory, error) {
	return defaultProvider().Factory()
}

// Factory returns the hardened factory, building it if needed.
func (p *FactoryProvider) Factory() (*Factory, error) {
	if f := p.factory.Load(); f != nil {
		return f, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if f := p.factory.Load(); f != nil {
		return f, nil
	}
	f, err := p.construct()
	if err != nil {
		return nil, err
	}
	p.factory.Store(f)
	return f, nil
}

func (p *FactoryProvider) construct() (f *Factory, err error) {
	p.constructions.Add(1)
	ctx, end := p.tel.StartSpan(context.Background(), "xmlfactory.factory.construct")
	defer func() { end(err) }()
	log := p.tel.Logger()

	cfg, err := p.opts.resolve()
	if err != nil {
		err = &xferrors.ConfigurationError{Stage: xferrors.StageFactory, Err: err}
		p.fail(ctx, log, "", err)
		return nil, err
	}

	own := p.opts.ownContext
	if own == nil {
		own = resolution.NewContext("xmlfactory", domparse.NewProvider())
	}
	if cfg.ContextSwitch {
		log.WithFields(logrus.Fields{
			"from": resolution.Current().Name(),
			"to":   own.Name(),
		}).Debug("overriding resolution context for factory construction")
	}
	f, err = resolution.WithOverride(cfg.ContextSwitch, own, func() (*Factory, error) {
		return p.build(cfg)
	})
	if err != nil {
		feature := ""
		if cerr, ok := xferrors.AsConfiguration(err); ok {
			feature = cerr.Feature
		}
		p.fail(ctx, log, feature, err)
		return nil, err
	}

	p.tel.FactoryConstructed(ctx, f.provider, nil)
	log.WithFields(logrus.Fields{
		"provider":       f.provider,
		"context":        f.context,
		"context_switch": cfg.ContextSwitch,
	}).Debug("parser factory constructed")
	return f, nil
}

// build runs with the resolution context already in place.
func (p *FactoryProvider) build(cfg config.Config) (*Factory, error) {
	rc := resolution.Current()
	provider, err := rc.Lookup()
	if err != nil {
		return nil, &xferrors.ConfigurationError{Stage: xferrors.StageProvider, Err: err}
	}
	impl, err := provider.NewFactory()
	if err != nil {
		if !errors.Is(err, xferrors.ErrParserUnavailable) {
			err = errors.Join(xferrors.ErrParserUnavailable, err)
		}
		return nil, &xferrors.ConfigurationError{Stage: xferrors.StageProvider, Err: err}
	}

	impl.SetNamespaceAware(true)
	if err := impl.SetXIncludeAware(false); err != nil {
		return nil, &xferrors.ConfigurationError{Stage: xferrors.StageFactory, Err: err}
	}
	for _, feature := range p.opts.securityFeatures() {
		if err := impl.SetFeature(feature.Name, feature.Value); err != nil {
			return nil, &xferrors.ConfigurationError{Stage: xferrors.StageFeature, Feature: feature.Name, Err: err}
		}
	}
	if err := impl.SetLimits(cfg.Limits.ParseLimits()); err != nil {
		return nil, &xferrors.ConfigurationError{Stage: xferrors.StageLimits, Err: err}
	}
	return &Factory{
		impl:     impl,
		provider: provider.Name(),
		context:  rc.Name(),
		tel:      p.tel,
	}, nil
}

func (p *FactoryProvider) fail(ctx context.Context, log logrus.FieldLogger, feature string, err error) {
	p.tel.FactoryConstructed(ctx, "", err)
	fields := logrus.Fields{}
	if cerr, ok := xferrors.AsConfiguration(err); ok {
		fields["stage"] = cerr.Stage
	}
	if feature != "" {
		fields["feature"] = feature
	}
	log.WithFields(fields).WithError(err).Warn("parser factory construction failed")
}
