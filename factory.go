package xmlfactory

import (
	xferrors "github.com/jacoelho/xmlfactory/errors"
	"github.com/jacoelho/xmlfactory/internal/telemetry"
	"github.com/jacoelho/xmlfactory/pkg/xmlparse"
)

// Factory is the constructed, hardened parser factory. It exposes its
// settings read-only; the security features cannot be changed once built.
type Factory struct {
	impl     xmlparse.Factory
	tel      *telemetry.Telemetry
	provider string
	context  string
}

// Feature reports the value of a named parser feature.
func (f *Factory) Feature(name string) (bool, error) {
	return f.impl.Feature(name)
}

// NamespaceAware is always true for a constructed factory.
func (f *Factory) NamespaceAware() bool {
	return f.impl.NamespaceAware()
}

// XIncludeAware is always false for a constructed factory.
func (f *Factory) XIncludeAware() bool {
	return f.impl.XIncludeAware()
}

// Limits returns the resolved parse limits.
func (f *Factory) Limits() xmlparse.Limits {
	return f.impl.Limits()
}

// ProviderName names the parser provider the factory came from.
func (f *Factory) ProviderName() string {
	return f.provider
}

// ResolutionContextName names the resolution context that supplied the
// provider.
func (f *Factory) ResolutionContextName() string {
	return f.context
}

// NewBuilder derives a fresh builder. Failures are ConfigurationErrors.
func (f *Factory) NewBuilder() (*Builder, error) {
	b, err := f.impl.NewBuilder()
	if err != nil {
		return nil, &xferrors.ConfigurationError{Stage: xferrors.StageBuilder, Err: err}
	}
	return &Builder{impl: b, tel: f.tel}, nil
}
