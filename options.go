package xmlfactory

import (
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jacoelho/xmlfactory/internal/config"
	"github.com/jacoelho/xmlfactory/pkg/xmlparse"
)

type intOption struct {
	value int
	set   bool
}

func (o intOption) resolved() int {
	if !o.set {
		return 0
	}
	return o.value
}

type boolOption struct {
	value bool
	set   bool
}

// ProviderOptions configures a FactoryProvider. Settings left unset fall
// back to the configuration source, which reads XMLFACTORY_CONFIG and
// XMLFACTORY_CONTEXT_SWITCH from the environment.
type ProviderOptions struct {
	source             config.Source
	ownContext         *ResolutionContext
	logger             logrus.FieldLogger
	tracerProvider     trace.TracerProvider
	meterProvider      metric.MeterProvider
	features           []xmlparse.Feature
	contextSwitch      boolOption
	maxDepth           intOption
	maxAttrs           intOption
	maxTokenSize       intOption
	maxEntityExpansion intOption
}

// NewProviderOptions returns a default, valid options value.
func NewProviderOptions() ProviderOptions {
	return ProviderOptions{}
}

// Validate validates option values.
func (o ProviderOptions) Validate() error {
	return o.limits().Validate()
}

// WithContextSwitch forces the resolution-context override during factory
// construction on or off, ignoring the configuration source.
func (o ProviderOptions) WithContextSwitch(value bool) ProviderOptions {
	o.contextSwitch = boolOption{value: value, set: true}
	return o
}

// WithOwnContext sets the context installed while the factory is built with
// the context switch enabled. The default holds the encoding/xml provider.
func (o ProviderOptions) WithOwnContext(value *ResolutionContext) ProviderOptions {
	o.ownContext = value
	return o
}

// WithConfigFile reads settings from a YAML file instead of the environment.
func (o ProviderOptions) WithConfigFile(path string) ProviderOptions {
	o.source = config.File(path)
	return o
}

// WithLogger sets the logger; the default is the logrus standard logger.
func (o ProviderOptions) WithLogger(value logrus.FieldLogger) ProviderOptions {
	o.logger = value
	return o
}

// WithTracerProvider sets the trace provider (default: otel global).
func (o ProviderOptions) WithTracerProvider(value trace.TracerProvider) ProviderOptions {
	o.tracerProvider = value
	return o
}

// WithMeterProvider sets the meter provider (default: otel global).
func (o ProviderOptions) WithMeterProvider(value metric.MeterProvider) ProviderOptions {
	o.meterProvider = value
	return o
}

// WithMaxDepth sets the element nesting limit (0 uses default).
func (o ProviderOptions) WithMaxDepth(value int) ProviderOptions {
	o.maxDepth = intOption{value: value, set: true}
	return o
}

// WithMaxAttrs sets the per-element attribute limit (0 uses default).
func (o ProviderOptions) WithMaxAttrs(value int) ProviderOptions {
	o.maxAttrs = intOption{value: value, set: true}
	return o
}

// WithMaxTokenSize sets the text and attribute value size limit (0 uses default).
func (o ProviderOptions) WithMaxTokenSize(value int) ProviderOptions {
	o.maxTokenSize = intOption{value: value, set: true}
	return o
}

// WithMaxEntityExpansion sets the per-document entity expansion budget in
// bytes (0 uses default). It only matters for factories that allow DOCTYPE.
func (o ProviderOptions) WithMaxEntityExpansion(value int) ProviderOptions {
	o.maxEntityExpansion = intOption{value: value, set: true}
	return o
}

// withFeatures replaces the security feature list applied at construction.
func (o ProviderOptions) withFeatures(features ...xmlparse.Feature) ProviderOptions {
	o.features = features
	return o
}

func (o ProviderOptions) limits() xmlparse.Limits {
	return xmlparse.Limits{
		MaxDepth:           o.maxDepth.resolved(),
		MaxAttrs:           o.maxAttrs.resolved(),
		MaxTokenSize:       o.maxTokenSize.resolved(),
		MaxEntityExpansion: o.maxEntityExpansion.resolved(),
	}
}

func (o ProviderOptions) securityFeatures() []xmlparse.Feature {
	if o.features != nil {
		return o.features
	}
	return xmlparse.SecureFeatures()
}

// resolve merges the configuration source with explicit options.
func (o ProviderOptions) resolve() (config.Config, error) {
	source := o.source
	if source == nil {
		source = config.Env(nil)
	}
	cfg, err := source.Load()
	if err != nil {
		return config.Config{}, err
	}
	if o.contextSwitch.set {
		cfg.ContextSwitch = o.contextSwitch.value
	}
	merged := cfg.Limits.ParseLimits().Merge(o.limits())
	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	cfg.Limits = config.LimitsConfig{
		MaxDepth:           merged.MaxDepth,
		MaxAttrs:           merged.MaxAttrs,
		MaxTokenSize:       merged.MaxTokenSize,
		MaxEntityExpansion: merged.MaxEntityExpansion,
	}
	return cfg, nil
}
