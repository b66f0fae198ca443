package domparse

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	xferrors "github.com/jacoelho/xmlfactory/errors"
	"github.com/jacoelho/xmlfactory/internal/dtd"
	"github.com/jacoelho/xmlfactory/pkg/dom"
	"github.com/jacoelho/xmlfactory/pkg/xmlparse"
)

const maxPooledStackEntries = 1 << 10

type config struct {
	limits            xmlparse.Limits
	namespaceAware    bool
	disallowDoctype   bool
	externalGeneral   bool
	externalParameter bool
}

// Builder turns XML input into a dom.Document. It is not safe for concurrent
// use; callers own a builder exclusively between Reset calls.
type Builder struct {
	resolver xmlparse.EntityResolver
	handler  xmlparse.ErrorHandler
	entities *dtd.Table
	stack    []*dom.Element
	ns       nsStack
	impl     dom.Implementation
	state    documentState
	cfg      config
}

func newBuilder(cfg config) *Builder {
	b := &Builder{cfg: cfg}
	b.Reset()
	return b
}

// Reset drops the entity resolver, error handler and any state left by a
// previous parse.
func (b *Builder) Reset() {
	b.resolver = nil
	b.handler = nil
	b.clearParseState()
}

func (b *Builder) clearParseState() {
	b.entities = nil
	clear(b.stack)
	if cap(b.stack) > maxPooledStackEntries {
		b.stack = nil
	} else {
		b.stack = b.stack[:0]
	}
	b.ns.reset()
	b.state = newDocumentState()
}

func (b *Builder) NewDocument() *dom.Document {
	return b.impl.NewDocument()
}

func (b *Builder) Implementation() dom.Implementation {
	return b.impl
}

func (b *Builder) SetEntityResolver(resolver xmlparse.EntityResolver) {
	b.resolver = resolver
}

func (b *Builder) EntityResolver() xmlparse.EntityResolver {
	return b.resolver
}

func (b *Builder) SetErrorHandler(handler xmlparse.ErrorHandler) {
	b.handler = handler
}

func (b *Builder) ErrorHandler() xmlparse.ErrorHandler {
	return b.handler
}

// Parse reads one document from r.
func (b *Builder) Parse(r io.Reader) (*dom.Document, error) {
	b.clearParseState()
	defer b.clearParseState()

	if r == nil {
		return nil, b.fatal(&xferrors.ParseError{Err: errors.New("nil XML reader")})
	}
	dec := xml.NewDecoder(r)
	dec.Strict = true
	dec.CharsetReader = charsetReader

	doc := b.impl.NewDocument()
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, b.fatal(locate(dec, err))
		}
		if err := b.handle(dec, doc, tok); err != nil {
			return nil, b.fatal(locate(dec, err))
		}
	}
	if len(b.stack) > 0 {
		return nil, b.fatal(locate(dec, fmt.Errorf("unclosed element <%s>: %w", b.stack[len(b.stack)-1].TagName(), io.ErrUnexpectedEOF)))
	}
	if err := b.state.finish(); err != nil {
		return nil, b.fatal(locate(dec, err))
	}
	return doc, nil
}

func (b *Builder) handle(dec *xml.Decoder, doc *dom.Document, tok xml.Token) error {
	switch t := tok.(type) {
	case xml.StartElement:
		return b.startElement(doc, t)
	case xml.EndElement:
		return b.endElement(t)
	case xml.CharData:
		return b.charData(t)
	case xml.Comment:
		c, err := doc.CreateComment(string(t))
		if err != nil {
			return err
		}
		return b.attach(doc, c)
	case xml.ProcInst:
		if t.Target == "xml" {
			return nil
		}
		pi, err := doc.CreateProcessingInstruction(t.Target, string(bytes.TrimLeft(t.Inst, " \t\r\n")))
		if err != nil {
			return err
		}
		return b.attach(doc, pi)
	case xml.Directive:
		return b.directive(dec, t)
	default:
		return fmt.Errorf("unexpected token %T", tok)
	}
}

func (b *Builder) attach(doc *dom.Document, n dom.Node) error {
	if len(b.stack) == 0 {
		b.state.onOutsideMarkup()
		return doc.AppendChild(n)
	}
	return b.stack[len(b.stack)-1].AppendChild(n)
}

func (b *Builder) startElement(doc *dom.Document, t xml.StartElement) error {
	limits := b.cfg.limits
	if len(b.stack) >= limits.MaxDepth {
		return fmt.Errorf("%w: element depth exceeds %d", xferrors.ErrLimitExceeded, limits.MaxDepth)
	}
	if len(t.Attr) > limits.MaxAttrs {
		return fmt.Errorf("%w: attribute count exceeds %d", xferrors.ErrLimitExceeded, limits.MaxAttrs)
	}
	if len(b.stack) == 0 {
		if err := b.state.onStartElement(); err != nil {
			return err
		}
	}
	var (
		el  *dom.Element
		err error
	)
	if b.cfg.namespaceAware {
		el, err = b.namespacedElement(doc, t)
	} else {
		el, err = b.plainElement(doc, t)
	}
	if err != nil {
		return err
	}
	if len(b.stack) == 0 {
		err = doc.AppendChild(el)
	} else {
		err = b.stack[len(b.stack)-1].AppendChild(el)
	}
	if err != nil {
		return err
	}
	b.stack = append(b.stack, el)
	return nil
}

func (b *Builder) plainElement(doc *dom.Document, t xml.StartElement) (*dom.Element, error) {
	el, err := doc.CreateElement(qualified(t.Name))
	if err != nil {
		return nil, err
	}
	for _, a := range t.Attr {
		name := qualified(a.Name)
		if el.HasAttribute(name) {
			return nil, fmt.Errorf("duplicate attribute %s on <%s>", name, el.TagName())
		}
		value, err := b.attrValue(a.Value)
		if err != nil {
			return nil, err
		}
		if err := el.SetAttribute(name, value); err != nil {
			return nil, err
		}
	}
	return el, nil
}

func (b *Builder) namespacedElement(doc *dom.Document, t xml.StartElement) (*dom.Element, error) {
	if err := b.ns.declare(t.Attr); err != nil {
		return nil, err
	}
	uri, ok := b.ns.lookup(t.Name.Space)
	if !ok {
		return nil, fmt.Errorf("unbound namespace prefix %q on <%s>", t.Name.Space, qualified(t.Name))
	}
	el, err := doc.CreateElementNS(uri, qualified(t.Name))
	if err != nil {
		return nil, err
	}
	for _, a := range t.Attr {
		var ns string
		switch {
		case a.Name.Space == "xmlns", a.Name.Space == "" && a.Name.Local == "xmlns":
			ns = dom.XMLNSNamespace
		case a.Name.Space != "":
			if ns, ok = b.ns.lookup(a.Name.Space); !ok {
				return nil, fmt.Errorf("unbound namespace prefix %q on attribute %s", a.Name.Space, qualified(a.Name))
			}
		}
		if el.HasAttributeNS(ns, a.Name.Local) {
			return nil, fmt.Errorf("duplicate attribute {%s}%s on <%s>", ns, a.Name.Local, el.TagName())
		}
		value, err := b.attrValue(a.Value)
		if err != nil {
			return nil, err
		}
		if err := el.SetAttributeNS(ns, qualified(a.Name), value); err != nil {
			return nil, err
		}
	}
	return el, nil
}

func (b *Builder) attrValue(raw string) (string, error) {
	value, err := b.entities.Expand(raw)
	if err != nil {
		return "", err
	}
	if len(value) > b.cfg.limits.MaxTokenSize {
		return "", fmt.Errorf("%w: attribute value exceeds %d bytes", xferrors.ErrLimitExceeded, b.cfg.limits.MaxTokenSize)
	}
	return value, nil
}

func (b *Builder) endElement(t xml.EndElement) error {
	if len(b.stack) == 0 {
		return fmt.Errorf("unexpected end element </%s>", qualified(t.Name))
	}
	n := len(b.stack) - 1
	top := b.stack[n]
	if name := qualified(t.Name); name != top.TagName() {
		return fmt.Errorf("element <%s> closed by </%s>", top.TagName(), name)
	}
	b.stack[n] = nil
	b.stack = b.stack[:n]
	if b.cfg.namespaceAware {
		b.ns.pop()
	}
	if n == 0 {
		b.state.onRootClosed()
	}
	return nil
}

func (b *Builder) charData(t xml.CharData) error {
	if len(b.stack) == 0 {
		return b.state.outsideCharData(t)
	}
	text, err := b.entities.Expand(string(t))
	if err != nil {
		return err
	}
	parent := b.stack[len(b.stack)-1]
	if last, ok := parent.LastChild().(*dom.Text); ok {
		if len(last.Data())+len(text) > b.cfg.limits.MaxTokenSize {
			return fmt.Errorf("%w: text exceeds %d bytes", xferrors.ErrLimitExceeded, b.cfg.limits.MaxTokenSize)
		}
		last.AppendData(text)
		return nil
	}
	if len(text) > b.cfg.limits.MaxTokenSize {
		return fmt.Errorf("%w: text exceeds %d bytes", xferrors.ErrLimitExceeded, b.cfg.limits.MaxTokenSize)
	}
	return parent.AppendChild(parent.OwnerDocument().CreateTextNode(text))
}

func (b *Builder) directive(dec *xml.Decoder, t xml.Directive) error {
	if !bytes.HasPrefix(t, []byte("DOCTYPE")) {
		return fmt.Errorf("unsupported markup declaration <!%s>", firstWord(t))
	}
	if b.cfg.disallowDoctype {
		return xferrors.ErrDoctypeDisallowed
	}
	if err := b.state.onDoctype(); err != nil {
		return err
	}
	dt, ok, err := dtd.ParseDoctype(t)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("unsupported markup declaration <!%s>", firstWord(t))
	}
	opts := dtd.Options{
		Warn:              b.warn,
		MaxExpansion:      b.cfg.limits.MaxEntityExpansion,
		ExternalGeneral:   b.cfg.externalGeneral,
		ExternalParameter: b.cfg.externalParameter,
	}
	if b.resolver != nil {
		opts.Resolve = b.resolver.ResolveEntity
	}
	table, err := dtd.Load(dt, opts)
	if err != nil {
		return err
	}
	b.entities = table
	dec.Entity = table.Placeholders()
	return nil
}

func (b *Builder) warn(err error) {
	if b.handler != nil {
		b.handler(xmlparse.SeverityWarning, err)
	}
}

func (b *Builder) fatal(err error) error {
	if b.handler != nil {
		b.handler(xmlparse.SeverityFatal, err)
	}
	return err
}

// locate wraps err in a ParseError carrying the decoder position.
func locate(dec *xml.Decoder, err error) error {
	var perr *xferrors.ParseError
	if errors.As(err, &perr) {
		return err
	}
	var syntax *xml.SyntaxError
	if errors.As(err, &syntax) {
		return &xferrors.ParseError{Line: syntax.Line, Err: errors.New(syntax.Msg)}
	}
	line, column := dec.InputPos()
	return &xferrors.ParseError{Line: line, Column: column, Err: err}
}

func firstWord(b []byte) string {
	s := string(b)
	if i := strings.IndexAny(s, " \t\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "us-ascii", "ascii", "utf8":
		return input, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", label)
	}
}
