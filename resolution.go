package xmlfactory

import (
	"github.com/jacoelho/xmlfactory/internal/resolution"
	"github.com/jacoelho/xmlfactory/pkg/xmlparse"
)

// ResolutionContext is an ordered registry of parser providers.
type ResolutionContext = resolution.Context

// NewResolutionContext returns a named context holding providers in lookup
// order.
func NewResolutionContext(name string, providers ...xmlparse.Provider) *ResolutionContext {
	return resolution.NewContext(name, providers...)
}

// CurrentResolutionContext returns the context in effect for the process.
func CurrentResolutionContext() *ResolutionContext {
	return resolution.Current()
}

// SetResolutionContext installs c and returns the previous context. Passing
// nil restores the default. Factories already constructed are unaffected.
func SetResolutionContext(c *ResolutionContext) *ResolutionContext {
	return resolution.Install(c)
}
