package xmlfactory

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xferrors "github.com/jacoelho/xmlfactory/errors"
	"github.com/jacoelho/xmlfactory/pkg/xmlparse"
)

const xxeDocument = `<?xml version="1.0"?>
<!DOCTYPE foo [
  <!ENTITY xxe SYSTEM "file:///etc/passwd">
]>
<foo>&xxe;</foo>`

func TestCreateDocumentWithRoot(t *testing.T) {
	doc, err := CreateDocumentWithRoot("urn:example:test", "root")
	require.NoError(t, err)

	children := doc.ChildNodes()
	require.Len(t, children, 1)
	root := doc.DocumentElement()
	assert.Equal(t, "urn:example:test", root.NamespaceURI())
	assert.Equal(t, "root", root.LocalName())
	assert.Empty(t, root.ChildNodes())
	assert.Empty(t, root.Attributes())
}

func TestCreateDocumentWithRootRejectsMalformedName(t *testing.T) {
	for _, name := range []string{"", "1root", "a:b:c", "x y"} {
		_, err := CreateDocumentWithRoot("urn:example:test", name)
		require.ErrorIs(t, err, xferrors.ErrProcessing, name)
		_, ok := xferrors.AsProcessing(err)
		assert.True(t, ok)
	}
}

func TestCreateDocument(t *testing.T) {
	doc, err := CreateDocument()
	require.NoError(t, err)
	assert.Nil(t, doc.DocumentElement())
	assert.Empty(t, doc.ChildNodes())
}

func TestExternalEntityNeverResolved(t *testing.T) {
	cache := NewBuilderCache(NewFactoryProvider(quietOptions()))
	b, err := cache.Acquire(NewWorkerID())
	require.NoError(t, err)

	resolved := 0
	b.SetEntityResolver(xmlparse.EntityResolverFunc(func(string, string) (io.ReadCloser, error) {
		resolved++
		return io.NopCloser(strings.NewReader("root:x:0:0")), nil
	}))
	doc, err := b.Parse(strings.NewReader(xxeDocument))
	require.Nil(t, doc)
	require.ErrorIs(t, err, xferrors.ErrDoctypeDisallowed)
	_, ok := xferrors.AsParse(err)
	assert.True(t, ok)
	assert.Zero(t, resolved)
}

func TestPackageParse(t *testing.T) {
	doc, err := Parse(strings.NewReader(`<p:r xmlns:p="urn:p"><p:c>v</p:c></p:r>`))
	require.NoError(t, err)
	assert.Equal(t, "urn:p", doc.DocumentElement().NamespaceURI())
	assert.Equal(t, "v", doc.DocumentElement().TextContent())

	_, err = Parse(strings.NewReader(xxeDocument))
	require.ErrorIs(t, err, xferrors.ErrDoctypeDisallowed)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.xml")
	require.NoError(t, os.WriteFile(good, []byte(`<ok/>`), 0o600))
	bad := filepath.Join(dir, "bad.xml")
	require.NoError(t, os.WriteFile(bad, []byte(xxeDocument), 0o600))

	doc, err := ParseFile(good)
	require.NoError(t, err)
	assert.Equal(t, "ok", doc.DocumentElement().TagName())

	_, err = ParseFile(bad)
	require.ErrorIs(t, err, xferrors.ErrDoctypeDisallowed)

	_, err = ParseFile(filepath.Join(dir, "missing.xml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFailureReason(t *testing.T) {
	tests := map[error]string{
		xferrors.ErrDoctypeDisallowed: "doctype",
		xferrors.ErrExternalEntity:    "external-entity",
		xferrors.ErrEntityExpansion:   "entity-expansion",
		xferrors.ErrLimitExceeded:     "limit",
		xferrors.ErrMissingRoot:       "malformed",
	}
	for err, want := range tests {
		assert.Equal(t, want, failureReason(&xferrors.ParseError{Err: err}))
	}
}
