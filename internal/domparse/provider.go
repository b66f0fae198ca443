package domparse

import (
	"fmt"
	"sync"

	xferrors "github.com/jacoelho/xmlfactory/errors"
	"github.com/jacoelho/xmlfactory/pkg/xmlparse"
)

// ProviderName identifies the encoding/xml backed implementation.
const ProviderName = "encoding/xml"

// Provider creates factories backed by encoding/xml.
type Provider struct{}

// NewProvider returns the standard provider.
func NewProvider() Provider {
	return Provider{}
}

func (Provider) Name() string {
	return ProviderName
}

// NewFactory returns a factory with the implementation defaults: DOCTYPE
// allowed, external entities enabled (still only fetched through a resolver)
// and namespace processing off.
func (Provider) NewFactory() (xmlparse.Factory, error) {
	return &Factory{
		features: map[string]bool{
			xmlparse.FeatureDisallowDoctypeDecl:       false,
			xmlparse.FeatureExternalGeneralEntities:   true,
			xmlparse.FeatureExternalParameterEntities: true,
		},
	}, nil
}

// Factory holds settings for builders. It is safe for concurrent use.
type Factory struct {
	mu             sync.RWMutex
	features       map[string]bool
	limits         xmlparse.Limits
	namespaceAware bool
}

func (f *Factory) SetNamespaceAware(aware bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.namespaceAware = aware
}

func (f *Factory) NamespaceAware() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.namespaceAware
}

// SetXIncludeAware accepts only false; XInclude processing is not implemented.
func (f *Factory) SetXIncludeAware(aware bool) error {
	if aware {
		return fmt.Errorf("%w: xinclude", xferrors.ErrFeatureNotSupported)
	}
	return nil
}

func (f *Factory) XIncludeAware() bool {
	return false
}

func (f *Factory) SetFeature(name string, value bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.features[name]; !ok {
		return fmt.Errorf("%w: %s", xferrors.ErrFeatureNotSupported, name)
	}
	f.features[name] = value
	return nil
}

func (f *Factory) Feature(name string) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.features[name]
	if !ok {
		return false, fmt.Errorf("%w: %s", xferrors.ErrFeatureNotSupported, name)
	}
	return v, nil
}

func (f *Factory) SetLimits(limits xmlparse.Limits) error {
	if err := limits.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits = limits
	return nil
}

func (f *Factory) Limits() xmlparse.Limits {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.limits.Resolved()
}

// NewBuilder derives a builder from a snapshot of the current settings.
func (f *Factory) NewBuilder() (xmlparse.Builder, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return newBuilder(config{
		namespaceAware:    f.namespaceAware,
		disallowDoctype:   f.features[xmlparse.FeatureDisallowDoctypeDecl],
		externalGeneral:   f.features[xmlparse.FeatureExternalGeneralEntities],
		externalParameter: f.features[xmlparse.FeatureExternalParameterEntities],
		limits:            f.limits.Resolved(),
	}), nil
}
