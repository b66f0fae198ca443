package xmlfactory

import (
	"fmt"
	"io"

	xferrors "github.com/jacoelho/xmlfactory/errors"
	"github.com/jacoelho/xmlfactory/pkg/dom"
)

// CreateDocument returns an empty document built by the process-wide
// hardened factory.
func CreateDocument() (*dom.Document, error) {
	p := defaultPool()
	return createDocument(p.acquire, p.release)
}

// CreateDocumentWithRoot returns a document whose single root element has
// the given namespace URI and qualified name.
func CreateDocumentWithRoot(namespaceURI, qualifiedName string) (*dom.Document, error) {
	p := defaultPool()
	return createDocumentWithRoot(p.acquire, p.release, namespaceURI, qualifiedName)
}

// Parse parses r with a hardened builder.
func Parse(r io.Reader) (*dom.Document, error) {
	p := defaultPool()
	b, err := p.acquire()
	if err != nil {
		return nil, err
	}
	defer p.release(b)
	return b.Parse(r)
}

// ParseFile parses the file at path with a hardened builder.
func ParseFile(path string) (*dom.Document, error) {
	p := defaultPool()
	b, err := p.acquire()
	if err != nil {
		return nil, err
	}
	defer p.release(b)
	return b.ParseFile(path)
}

func createDocument(acquire func() (*Builder, error), release func(*Builder)) (*dom.Document, error) {
	b, err := acquire()
	if err != nil {
		if _, ok := xferrors.AsConfiguration(err); !ok {
			err = &xferrors.ConfigurationError{Stage: xferrors.StageBuilder, Err: err}
		}
		return nil, err
	}
	if release != nil {
		defer release(b)
	}
	return b.NewDocument(), nil
}

func createDocumentWithRoot(acquire func() (*Builder, error), release func(*Builder), namespaceURI, qualifiedName string) (*dom.Document, error) {
	op := fmt.Sprintf("create document with root {%s}%s", namespaceURI, qualifiedName)
	b, err := acquire()
	if err != nil {
		return nil, &xferrors.ProcessingError{Op: op, Err: err}
	}
	if release != nil {
		defer release(b)
	}
	doc, err := b.Implementation().CreateDocument(namespaceURI, qualifiedName)
	if err != nil {
		return nil, &xferrors.ProcessingError{Op: op, Err: err}
	}
	return doc, nil
}
