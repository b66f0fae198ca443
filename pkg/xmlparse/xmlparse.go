// Package xmlparse defines the contract between the document factory and a
// parser implementation: providers create factories, factories carry feature
// settings and derive builders, builders turn XML into DOM documents.
package xmlparse

import (
	"io"

	"github.com/jacoelho/xmlfactory/pkg/dom"
)

// Feature identifiers shared with standard parser implementations.
const (
	FeatureDisallowDoctypeDecl       = "http://apache.org/xml/features/disallow-doctype-decl"
	FeatureExternalGeneralEntities   = "http://xml.org/sax/features/external-general-entities"
	FeatureExternalParameterEntities = "http://xml.org/sax/features/external-parameter-entities"
)

// Feature is a named boolean parser setting.
type Feature struct {
	Name  string
	Value bool
}

// SecureFeatures returns the hardening features in the order they are applied.
func SecureFeatures() []Feature {
	return []Feature{
		{Name: FeatureDisallowDoctypeDecl, Value: true},
		{Name: FeatureExternalGeneralEntities, Value: false},
		{Name: FeatureExternalParameterEntities, Value: false},
	}
}

// Provider locates a parser implementation.
type Provider interface {
	Name() string
	NewFactory() (Factory, error)
}

// Factory holds parser settings and derives builders from them.
// Builders snapshot the settings at derivation time.
type Factory interface {
	SetNamespaceAware(aware bool)
	NamespaceAware() bool
	SetXIncludeAware(aware bool) error
	XIncludeAware() bool
	// SetFeature returns an error wrapping errors.ErrFeatureNotSupported for
	// names the implementation does not recognize.
	SetFeature(name string, value bool) error
	Feature(name string) (bool, error)
	SetLimits(limits Limits) error
	Limits() Limits
	NewBuilder() (Builder, error)
}

// Builder parses documents. A builder is not safe for concurrent use.
type Builder interface {
	Parse(r io.Reader) (*dom.Document, error)
	NewDocument() *dom.Document
	Implementation() dom.Implementation
	SetEntityResolver(resolver EntityResolver)
	EntityResolver() EntityResolver
	SetErrorHandler(handler ErrorHandler)
	ErrorHandler() ErrorHandler
	// Reset returns the builder to the state it had when derived.
	Reset()
}

// EntityResolver supplies the content of external entities. It is consulted
// only when the matching external-entity feature is enabled.
type EntityResolver interface {
	ResolveEntity(publicID, systemID string) (io.ReadCloser, error)
}

// EntityResolverFunc adapts a function to EntityResolver.
type EntityResolverFunc func(publicID, systemID string) (io.ReadCloser, error)

func (f EntityResolverFunc) ResolveEntity(publicID, systemID string) (io.ReadCloser, error) {
	return f(publicID, systemID)
}

// Severity grades diagnostics passed to an ErrorHandler.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityFatal
)

func (s Severity) String() string {
	if s == SeverityFatal {
		return "fatal"
	}
	return "warning"
}

// ErrorHandler observes parse diagnostics. Fatal errors are still returned
// from Parse.
type ErrorHandler func(severity Severity, err error)
