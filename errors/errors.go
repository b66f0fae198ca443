package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode identifies a failure class reported by the document factory.
type ErrorCode string

const (
	// ErrCodeParserUnavailable indicates no parser provider could be located.
	ErrCodeParserUnavailable ErrorCode = "xml-parser-unavailable"
	// ErrCodeFeatureUnsupported indicates a security feature could not be applied.
	ErrCodeFeatureUnsupported ErrorCode = "xml-feature-unsupported"
	// ErrCodeFactoryConfig indicates the factory rejected a non-feature setting.
	ErrCodeFactoryConfig ErrorCode = "xml-factory-config"
	// ErrCodeBuilderUnavailable indicates a builder could not be derived from the factory.
	ErrCodeBuilderUnavailable ErrorCode = "xml-builder-unavailable"
	// ErrCodeDocumentCreate indicates a requested document could not be materialized.
	ErrCodeDocumentCreate ErrorCode = "xml-document-create"
	// ErrCodeXMLParse indicates the XML input could not be parsed.
	ErrCodeXMLParse ErrorCode = "xml-parse-error"
)

// Stage names the construction step a ConfigurationError came from.
type Stage string

const (
	StageProvider Stage = "provider"
	StageFactory  Stage = "factory"
	StageFeature  Stage = "feature"
	StageLimits   Stage = "limits"
	StageBuilder  Stage = "builder"
)

var (
	// ErrConfiguration matches every *ConfigurationError via errors.Is.
	ErrConfiguration = errors.New("xml parser configuration error")
	// ErrProcessing matches every *ProcessingError via errors.Is.
	ErrProcessing = errors.New("xml processing error")
	// ErrParserUnavailable reports that the resolution context has no parser provider.
	ErrParserUnavailable = errors.New("no xml parser provider available")
	// ErrFeatureNotSupported is returned by providers for unknown or unsupported features.
	ErrFeatureNotSupported = errors.New("feature not supported")

	ErrDoctypeDisallowed  = errors.New("DOCTYPE is disallowed")
	ErrExternalEntity     = errors.New("external entity not permitted")
	ErrUndeclaredEntity   = errors.New("undeclared entity")
	ErrEntityExpansion    = errors.New("entity expansion exceeds limit")
	ErrLimitExceeded      = errors.New("document exceeds parse limit")
	ErrMissingRoot        = errors.New("missing root element")
	ErrContentOutsideRoot = errors.New("content outside root element")
	ErrMultipleRoots      = errors.New("multiple root elements")
	ErrMisplacedDoctype   = errors.New("DOCTYPE outside prolog")
)

// ConfigurationError reports that the parser factory or a builder could not
// be configured. Feature is set when a named security feature was rejected.
type ConfigurationError struct {
	Err     error
	Stage   Stage
	Feature string
}

// Error formats the failing stage, feature and cause.
func (e *ConfigurationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s configuration failed", e.Code(), e.Stage)
	if e.Feature != "" {
		fmt.Fprintf(&b, ": feature %q", e.Feature)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Code maps the stage to a stable error code.
func (e *ConfigurationError) Code() ErrorCode {
	switch e.Stage {
	case StageProvider:
		return ErrCodeParserUnavailable
	case StageFeature:
		return ErrCodeFeatureUnsupported
	case StageBuilder:
		return ErrCodeBuilderUnavailable
	default:
		return ErrCodeFactoryConfig
	}
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ProcessingError reports that a document could not be materialized after a
// builder was obtained.
type ProcessingError struct {
	Err error
	Op  string
}

func (e *ProcessingError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s failed", ErrCodeDocumentCreate, e.Op)
	}
	return fmt.Sprintf("[%s] %s failed: %v", ErrCodeDocumentCreate, e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

func (e *ProcessingError) Is(target error) bool {
	return target == ErrProcessing
}

// ParseError reports a well-formedness or security rejection with location.
type ParseError struct {
	Err    error
	Line   int
	Column int
}

// Error formats the parse error with location and cause.
func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("[%s] line %d, column %d: %v", ErrCodeXMLParse, e.Line, e.Column, e.Err)
	}
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %v", ErrCodeXMLParse, e.Line, e.Err)
	}
	return fmt.Sprintf("[%s] %v", ErrCodeXMLParse, e.Err)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// AsConfiguration extracts a ConfigurationError from err.
func AsConfiguration(err error) (*ConfigurationError, bool) {
	var target *ConfigurationError
	if errors.As(err, &target) && target != nil {
		return target, true
	}
	return nil, false
}

// AsProcessing extracts a ProcessingError from err.
func AsProcessing(err error) (*ProcessingError, bool) {
	var target *ProcessingError
	if errors.As(err, &target) && target != nil {
		return target, true
	}
	return nil, false
}

// AsParse extracts a ParseError from err.
func AsParse(err error) (*ParseError, bool) {
	var target *ParseError
	if errors.As(err, &target) && target != nil {
		return target, true
	}
	return nil, false
}
