package dom

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireDOMError(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	var domErr *Error
	require.True(t, errors.As(err, &domErr), "expected *dom.Error, got %T (%v)", err, err)
	assert.Equal(t, code, domErr.Code)
}

func TestCreateDocumentWithRoot(t *testing.T) {
	doc, err := Implementation{}.CreateDocument("urn:example:test", "root")
	require.NoError(t, err)

	root := doc.DocumentElement()
	require.NotNil(t, root)
	assert.Equal(t, "urn:example:test", root.NamespaceURI())
	assert.Equal(t, "root", root.LocalName())
	assert.Empty(t, root.Prefix())
	assert.Equal(t, "root", root.TagName())
	assert.Same(t, doc, root.OwnerDocument())
	assert.Equal(t, Node(doc), root.ParentNode())
	assert.Nil(t, doc.OwnerDocument())
	assert.Empty(t, root.ChildNodes())
}

func TestCreateDocumentQualifiedNames(t *testing.T) {
	tests := []struct {
		name string
		ns   string
		qn   string
		code ErrorCode
		ok   bool
	}{
		{name: "prefixed", ns: "urn:x", qn: "x:root", ok: true},
		{name: "no namespace", qn: "root", ok: true},
		{name: "xml prefix", ns: XMLNamespace, qn: "xml:root", ok: true},
		{name: "empty", qn: "", code: InvalidCharacterErr},
		{name: "leading digit", ns: "urn:x", qn: "1root", code: InvalidCharacterErr},
		{name: "space", ns: "urn:x", qn: "a b", code: InvalidCharacterErr},
		{name: "double colon", ns: "urn:x", qn: "a:b:c", code: NamespaceErr},
		{name: "leading colon", ns: "urn:x", qn: ":a", code: NamespaceErr},
		{name: "prefix without namespace", qn: "x:root", code: NamespaceErr},
		{name: "xml prefix wrong namespace", ns: "urn:x", qn: "xml:root", code: NamespaceErr},
		{name: "xmlns name wrong namespace", ns: "urn:x", qn: "xmlns", code: NamespaceErr},
		{name: "xmlns namespace plain name", ns: XMLNSNamespace, qn: "root", code: NamespaceErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Implementation{}.CreateDocument(tt.ns, tt.qn)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.qn, doc.DocumentElement().TagName())
				return
			}
			assert.Nil(t, doc)
			requireDOMError(t, err, tt.code)
		})
	}
}

func TestDocumentAppendChildRules(t *testing.T) {
	doc := Implementation{}.NewDocument()
	assert.Nil(t, doc.DocumentElement())

	c, err := doc.CreateComment("c")
	require.NoError(t, err)
	require.NoError(t, doc.AppendChild(c))

	root, err := doc.CreateElementNS("", "root")
	require.NoError(t, err)
	require.NoError(t, doc.AppendChild(root))

	second, err := doc.CreateElementNS("", "second")
	require.NoError(t, err)
	requireDOMError(t, doc.AppendChild(second), HierarchyRequestErr)
	requireDOMError(t, doc.AppendChild(doc.CreateTextNode("x")), HierarchyRequestErr)

	other := Implementation{}.NewDocument()
	foreign, err := other.CreateElementNS("", "foreign")
	require.NoError(t, err)
	requireDOMError(t, root.AppendChild(foreign), WrongDocumentErr)

	requireDOMError(t, root.AppendChild(c), HierarchyRequestErr)

	child, err := doc.CreateElementNS("", "child")
	require.NoError(t, err)
	require.NoError(t, root.AppendChild(child))
	requireDOMError(t, child.AppendChild(root), HierarchyRequestErr)
}

func TestElementAttributes(t *testing.T) {
	doc := Implementation{}.NewDocument()
	el, err := doc.CreateElementNS("urn:a", "a:el")
	require.NoError(t, err)

	require.NoError(t, el.SetAttributeNS("urn:a", "a:id", "1"))
	require.NoError(t, el.SetAttributeNS("urn:b", "b:id", "2"))
	require.NoError(t, el.SetAttributeNS("urn:a", "other:id", "3"))
	require.NoError(t, el.SetAttribute("plain", "p"))

	assert.Equal(t, "3", el.GetAttributeNS("urn:a", "id"))
	assert.Equal(t, "2", el.GetAttributeNS("urn:b", "id"))
	assert.True(t, el.HasAttributeNS("urn:b", "id"))
	assert.Equal(t, "p", el.GetAttribute("plain"))
	assert.True(t, el.HasAttribute("b:id"))
	assert.Len(t, el.Attributes(), 3)

	el.RemoveAttributeNS("urn:b", "id")
	assert.False(t, el.HasAttributeNS("urn:b", "id"))

	requireDOMError(t, el.SetAttributeNS("", "p:x", "v"), NamespaceErr)
	requireDOMError(t, el.SetAttribute("1bad", "v"), InvalidCharacterErr)
}

func TestTextContent(t *testing.T) {
	doc := Implementation{}.NewDocument()
	root, err := doc.CreateElement("root")
	require.NoError(t, err)
	require.NoError(t, doc.AppendChild(root))
	inner, err := doc.CreateElement("inner")
	require.NoError(t, err)

	require.NoError(t, root.AppendChild(doc.CreateTextNode("a")))
	require.NoError(t, root.AppendChild(inner))
	require.NoError(t, inner.AppendChild(doc.CreateTextNode("b")))
	pi, err := doc.CreateProcessingInstruction("target", "ignored")
	require.NoError(t, err)
	require.NoError(t, root.AppendChild(pi))

	assert.Equal(t, "ab", root.TextContent())
	assert.Empty(t, doc.TextContent())
	assert.Equal(t, []*Element{inner}, root.Children())
}

func TestNodeConstructorsValidate(t *testing.T) {
	doc := Implementation{}.NewDocument()
	_, err := doc.CreateComment("a--b")
	requireDOMError(t, err, InvalidCharacterErr)
	_, err = doc.CreateProcessingInstruction("xml", "")
	requireDOMError(t, err, InvalidCharacterErr)
	_, err = doc.CreateProcessingInstruction("pi", "a?>b")
	requireDOMError(t, err, InvalidCharacterErr)
	_, err = doc.CreateElement("")
	requireDOMError(t, err, InvalidCharacterErr)
}

func TestErrorCodeString(t *testing.T) {
	assert.Equal(t, "NAMESPACE_ERR", NamespaceErr.String())
	assert.Equal(t, "DOM_ERR(99)", ErrorCode(99).String())
	assert.Equal(t, "dom: INVALID_CHARACTER_ERR: bad", (&Error{Code: InvalidCharacterErr, Msg: "bad"}).Error())
}
