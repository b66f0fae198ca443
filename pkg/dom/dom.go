package dom

import "strings"

// NodeType classifies nodes in the document tree.
type NodeType int

const (
	ElementNode               NodeType = 1
	AttributeNode             NodeType = 2
	TextNode                  NodeType = 3
	ProcessingInstructionNode NodeType = 7
	CommentNode               NodeType = 8
	DocumentNode              NodeType = 9
)

// Node is the contract shared by every tree node.
type Node interface {
	NodeType() NodeType
	NodeName() string
	NodeValue() string
	ParentNode() Node
	OwnerDocument() *Document
	ChildNodes() []Node
}

type base struct {
	owner    *Document
	parent   Node
	children []Node
}

func (b *base) OwnerDocument() *Document { return b.owner }
func (b *base) ParentNode() Node         { return b.parent }

// ChildNodes returns a copy of the child list.
func (b *base) ChildNodes() []Node {
	if len(b.children) == 0 {
		return nil
	}
	out := make([]Node, len(b.children))
	copy(out, b.children)
	return out
}

// LastChild returns the last child, or nil.
func (b *base) LastChild() Node {
	if len(b.children) == 0 {
		return nil
	}
	return b.children[len(b.children)-1]
}

func (b *base) setParent(p Node) { b.parent = p }

type parentSetter interface {
	Node
	setParent(Node)
}

// Document is the root of a tree. The zero value is not usable; documents are
// created through an Implementation or a builder.
type Document struct {
	base
	impl Implementation
}

func newDocument(impl Implementation) *Document {
	d := &Document{impl: impl}
	d.owner = d
	return d
}

func (d *Document) NodeType() NodeType { return DocumentNode }
func (d *Document) NodeName() string   { return "#document" }
func (d *Document) NodeValue() string  { return "" }

// OwnerDocument is nil for a document node.
func (d *Document) OwnerDocument() *Document { return nil }

// Implementation returns the implementation that created the document.
func (d *Document) Implementation() Implementation { return d.impl }

// DocumentElement returns the root element, or nil for an empty document.
func (d *Document) DocumentElement() *Element {
	if d == nil {
		return nil
	}
	for _, child := range d.children {
		if el, ok := child.(*Element); ok {
			return el
		}
	}
	return nil
}

// CreateElementNS creates an unattached element owned by d.
func (d *Document) CreateElementNS(namespaceURI, qualifiedName string) (*Element, error) {
	prefix, local, err := ValidateQualifiedName(namespaceURI, qualifiedName)
	if err != nil {
		return nil, err
	}
	el := &Element{namespace: namespaceURI, prefix: prefix, local: local}
	el.owner = d
	return el, nil
}

// CreateElement creates an element whose name is not namespace-qualified.
// The name is kept verbatim, colons included.
func (d *Document) CreateElement(name string) (*Element, error) {
	if !IsName(name) {
		return nil, newError(InvalidCharacterErr, "invalid element name %q", name)
	}
	el := &Element{local: name}
	el.owner = d
	return el, nil
}

// CreateTextNode creates an unattached text node owned by d.
func (d *Document) CreateTextNode(data string) *Text {
	t := &Text{data: data}
	t.owner = d
	return t
}

// CreateComment creates an unattached comment owned by d.
func (d *Document) CreateComment(data string) (*Comment, error) {
	if strings.Contains(data, "--") {
		return nil, newError(InvalidCharacterErr, "comment data contains \"--\"")
	}
	c := &Comment{data: data}
	c.owner = d
	return c, nil
}

// CreateProcessingInstruction creates an unattached processing instruction.
func (d *Document) CreateProcessingInstruction(target, data string) (*ProcessingInstruction, error) {
	if !IsName(target) || strings.EqualFold(target, "xml") {
		return nil, newError(InvalidCharacterErr, "invalid processing instruction target %q", target)
	}
	if strings.Contains(data, "?>") {
		return nil, newError(InvalidCharacterErr, "processing instruction data contains \"?>\"")
	}
	pi := &ProcessingInstruction{target: target, data: data}
	pi.owner = d
	return pi, nil
}

// AppendChild attaches n as the last child of the document. A document holds
// at most one element and never holds text.
func (d *Document) AppendChild(n Node) error {
	switch n.(type) {
	case *Element:
		if d.DocumentElement() != nil {
			return newError(HierarchyRequestErr, "document already has a root element")
		}
	case *Comment, *ProcessingInstruction:
	default:
		return newError(HierarchyRequestErr, "%s cannot be a document child", n.NodeName())
	}
	return appendChild(d, &d.base, n)
}

// TextContent is always empty for a document node.
func (d *Document) TextContent() string { return "" }

func appendChild(parent Node, b *base, n Node) error {
	child, ok := n.(parentSetter)
	if !ok {
		return newError(HierarchyRequestErr, "unsupported node %T", n)
	}
	owner := parent.OwnerDocument()
	if doc, isDoc := parent.(*Document); isDoc {
		owner = doc
	}
	if n.OwnerDocument() != owner {
		return newError(WrongDocumentErr, "node belongs to another document")
	}
	if n.ParentNode() != nil {
		return newError(HierarchyRequestErr, "node is already attached")
	}
	for p := parent; p != nil; p = p.ParentNode() {
		if p == n {
			return newError(HierarchyRequestErr, "node is an ancestor of the new parent")
		}
	}
	child.setParent(parent)
	b.children = append(b.children, n)
	return nil
}

// Element is a namespace-aware element node.
type Element struct {
	base
	namespace string
	prefix    string
	local     string
	attrs     []Attr
}

func (e *Element) NodeType() NodeType { return ElementNode }
func (e *Element) NodeName() string   { return e.TagName() }
func (e *Element) NodeValue() string  { return "" }
func (e *Element) NamespaceURI() string {
	return e.namespace
}
func (e *Element) Prefix() string { return e.prefix }

// LocalName returns the local part of the name. Elements created without
// namespace processing report their full name.
func (e *Element) LocalName() string { return e.local }

// TagName returns the qualified name.
func (e *Element) TagName() string {
	if e.prefix == "" {
		return e.local
	}
	return e.prefix + ":" + e.local
}

// Attributes returns a copy of the attribute list in document order.
func (e *Element) Attributes() []Attr {
	if len(e.attrs) == 0 {
		return nil
	}
	out := make([]Attr, len(e.attrs))
	copy(out, e.attrs)
	return out
}

func (e *Element) findNS(namespaceURI, local string) int {
	for i, a := range e.attrs {
		if a.namespace == namespaceURI && a.local == local && !a.opaque {
			return i
		}
	}
	return -1
}

func (e *Element) find(name string) int {
	for i, a := range e.attrs {
		if a.Name() == name {
			return i
		}
	}
	return -1
}

// GetAttributeNS returns the attribute value or "" when absent.
func (e *Element) GetAttributeNS(namespaceURI, local string) string {
	if i := e.findNS(namespaceURI, local); i >= 0 {
		return e.attrs[i].value
	}
	return ""
}

// HasAttributeNS reports whether the attribute is present.
func (e *Element) HasAttributeNS(namespaceURI, local string) bool {
	return e.findNS(namespaceURI, local) >= 0
}

// GetAttribute looks an attribute up by qualified name.
func (e *Element) GetAttribute(name string) string {
	if i := e.find(name); i >= 0 {
		return e.attrs[i].value
	}
	return ""
}

// HasAttribute reports whether an attribute with the qualified name exists.
func (e *Element) HasAttribute(name string) bool {
	return e.find(name) >= 0
}

// SetAttributeNS adds or replaces a namespaced attribute.
func (e *Element) SetAttributeNS(namespaceURI, qualifiedName, value string) error {
	prefix, local, err := ValidateQualifiedName(namespaceURI, qualifiedName)
	if err != nil {
		return err
	}
	attr := Attr{namespace: namespaceURI, prefix: prefix, local: local, value: value}
	if i := e.findNS(namespaceURI, local); i >= 0 {
		e.attrs[i] = attr
		return nil
	}
	e.attrs = append(e.attrs, attr)
	return nil
}

// SetAttribute adds or replaces an attribute whose name is not
// namespace-qualified.
func (e *Element) SetAttribute(name, value string) error {
	if !IsName(name) {
		return newError(InvalidCharacterErr, "invalid attribute name %q", name)
	}
	if i := e.find(name); i >= 0 {
		e.attrs[i].value = value
		return nil
	}
	e.attrs = append(e.attrs, Attr{local: name, value: value, opaque: true})
	return nil
}

// RemoveAttributeNS removes the attribute if present.
func (e *Element) RemoveAttributeNS(namespaceURI, local string) {
	if i := e.findNS(namespaceURI, local); i >= 0 {
		e.attrs = append(e.attrs[:i], e.attrs[i+1:]...)
	}
}

// AppendChild attaches n as the last child of e.
func (e *Element) AppendChild(n Node) error {
	switch n.(type) {
	case *Element, *Text, *Comment, *ProcessingInstruction:
	default:
		return newError(HierarchyRequestErr, "%s cannot be an element child", n.NodeName())
	}
	return appendChild(e, &e.base, n)
}

// Children returns the child elements in document order.
func (e *Element) Children() []*Element {
	var out []*Element
	for _, child := range e.children {
		if el, ok := child.(*Element); ok {
			out = append(out, el)
		}
	}
	return out
}

// TextContent returns the concatenated text of the subtree.
func (e *Element) TextContent() string {
	var sb strings.Builder
	e.collectText(&sb)
	return sb.String()
}

func (e *Element) collectText(sb *strings.Builder) {
	for _, child := range e.children {
		switch c := child.(type) {
		case *Text:
			sb.WriteString(c.data)
		case *Element:
			c.collectText(sb)
		}
	}
}

// Attr is an attribute value attached to an element.
type Attr struct {
	namespace string
	prefix    string
	local     string
	value     string
	opaque    bool
}

// Name returns the qualified attribute name.
func (a Attr) Name() string {
	if a.prefix == "" {
		return a.local
	}
	return a.prefix + ":" + a.local
}

func (a Attr) NamespaceURI() string { return a.namespace }
func (a Attr) Prefix() string       { return a.prefix }
func (a Attr) LocalName() string    { return a.local }
func (a Attr) Value() string        { return a.value }

// Text is a character data node.
type Text struct {
	base
	data string
}

func (t *Text) NodeType() NodeType { return TextNode }
func (t *Text) NodeName() string   { return "#text" }
func (t *Text) NodeValue() string  { return t.data }
func (t *Text) Data() string       { return t.data }

// AppendData extends the node text.
func (t *Text) AppendData(s string) { t.data += s }

// Comment is a comment node.
type Comment struct {
	base
	data string
}

func (c *Comment) NodeType() NodeType { return CommentNode }
func (c *Comment) NodeName() string   { return "#comment" }
func (c *Comment) NodeValue() string  { return c.data }
func (c *Comment) Data() string       { return c.data }

// ProcessingInstruction is a processing-instruction node.
type ProcessingInstruction struct {
	base
	target string
	data   string
}

func (p *ProcessingInstruction) NodeType() NodeType { return ProcessingInstructionNode }
func (p *ProcessingInstruction) NodeName() string   { return p.target }
func (p *ProcessingInstruction) NodeValue() string  { return p.data }
func (p *ProcessingInstruction) Target() string     { return p.target }
func (p *ProcessingInstruction) Data() string       { return p.data }

// Implementation creates documents. The zero value is ready to use.
type Implementation struct{}

// NewDocument returns an empty document with no children.
func (impl Implementation) NewDocument() *Document {
	return newDocument(impl)
}

// CreateDocument returns a document whose root element has the given
// namespace and qualified name.
func (impl Implementation) CreateDocument(namespaceURI, qualifiedName string) (*Document, error) {
	doc := newDocument(impl)
	root, err := doc.CreateElementNS(namespaceURI, qualifiedName)
	if err != nil {
		return nil, err
	}
	if err := doc.AppendChild(root); err != nil {
		return nil, err
	}
	return doc, nil
}
