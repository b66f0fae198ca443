package xmlfactory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	xferrors "github.com/jacoelho/xmlfactory/errors"
	"github.com/jacoelho/xmlfactory/internal/telemetry"
	"github.com/jacoelho/xmlfactory/pkg/dom"
	"github.com/jacoelho/xmlfactory/pkg/xmlparse"
)

// Builder parses and creates documents. A builder belongs to one worker at
// a time and is reset before each handout.
type Builder struct {
	impl xmlparse.Builder
	tel  *telemetry.Telemetry
}

// Parse reads a document. Rejections are reported as *errors.ParseError.
func (b *Builder) Parse(r io.Reader) (*dom.Document, error) {
	ctx, end := b.tel.StartSpan(context.Background(), "xmlfactory.parse")
	doc, err := b.impl.Parse(r)
	end(err)
	if err != nil {
		reason := failureReason(err)
		b.tel.ParseFailed(ctx, reason)
		b.tel.Logger().WithField("reason", reason).WithError(err).Warn("xml document rejected")
		return nil, err
	}
	return doc, nil
}

// ParseFile opens path and parses it.
func (b *Builder) ParseFile(path string) (doc *dom.Document, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open xml file %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close xml file %s: %w", path, closeErr)
		}
	}()
	return b.Parse(f)
}

// NewDocument returns an empty document.
func (b *Builder) NewDocument() *dom.Document {
	return b.impl.NewDocument()
}

// Implementation returns the DOM implementation behind the builder.
func (b *Builder) Implementation() dom.Implementation {
	return b.impl.Implementation()
}

// SetEntityResolver sets the resolver for external entities. The hardened
// factory rejects DOCTYPE, so it is never consulted.
func (b *Builder) SetEntityResolver(resolver xmlparse.EntityResolver) {
	b.impl.SetEntityResolver(resolver)
}

// EntityResolver returns the resolver set since the last reset, or nil.
func (b *Builder) EntityResolver() xmlparse.EntityResolver {
	return b.impl.EntityResolver()
}

// SetErrorHandler sets the handler notified of warnings and fatal errors.
func (b *Builder) SetErrorHandler(handler xmlparse.ErrorHandler) {
	b.impl.SetErrorHandler(handler)
}

// ErrorHandler returns the handler set since the last reset, or nil.
func (b *Builder) ErrorHandler() xmlparse.ErrorHandler {
	return b.impl.ErrorHandler()
}

// Reset clears resolver, handler and parse state.
func (b *Builder) Reset() {
	b.impl.Reset()
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, xferrors.ErrDoctypeDisallowed):
		return "doctype"
	case errors.Is(err, xferrors.ErrExternalEntity):
		return "external-entity"
	case errors.Is(err, xferrors.ErrEntityExpansion):
		return "entity-expansion"
	case errors.Is(err, xferrors.ErrLimitExceeded):
		return "limit"
	default:
		return "malformed"
	}
}
