package xmlfactory

import (
	"io"

	"github.com/jacoelho/xmlfactory/pkg/dom"
)

// Worker is a goroutine-owned handle onto a BuilderCache. It must not be
// shared between goroutines.
type Worker struct {
	cache *BuilderCache
	id    WorkerID
}

// ID returns the identity the worker's builder is cached under.
func (w *Worker) ID() WorkerID {
	return w.id
}

// AcquireBuilder returns this worker's builder, reset.
func (w *Worker) AcquireBuilder() (*Builder, error) {
	return w.cache.Acquire(w.id)
}

// CreateDocument returns an empty document.
func (w *Worker) CreateDocument() (*dom.Document, error) {
	return createDocument(w.AcquireBuilder, nil)
}

// CreateDocumentWithRoot returns a document whose root element has the
// given namespace and qualified name.
func (w *Worker) CreateDocumentWithRoot(namespaceURI, qualifiedName string) (*dom.Document, error) {
	return createDocumentWithRoot(w.AcquireBuilder, nil, namespaceURI, qualifiedName)
}

// Parse parses r with this worker's builder.
func (w *Worker) Parse(r io.Reader) (*dom.Document, error) {
	b, err := w.AcquireBuilder()
	if err != nil {
		return nil, err
	}
	return b.Parse(r)
}

// Close releases the worker's cached builder.
func (w *Worker) Close() {
	w.cache.Evict(w.id)
}
