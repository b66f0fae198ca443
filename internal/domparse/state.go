package domparse

import (
	"unicode/utf8"

	xferrors "github.com/jacoelho/xmlfactory/errors"
)

// documentState tracks document-boundary lexical state for the token loop.
type documentState struct {
	allowBOM    bool
	doctypeSeen bool
	rootSeen    bool
	rootClosed  bool
}

func newDocumentState() documentState {
	return documentState{allowBOM: true}
}

// onStartElement advances state for a start element at depth zero.
func (s *documentState) onStartElement() error {
	if s.rootClosed {
		return xferrors.ErrMultipleRoots
	}
	s.rootSeen = true
	s.allowBOM = false
	return nil
}

// onRootClosed records that the document element has ended.
func (s *documentState) onRootClosed() {
	s.rootClosed = true
}

// onDoctype accepts a DOCTYPE only once, before the root element.
func (s *documentState) onDoctype() error {
	if s.rootSeen || s.doctypeSeen {
		return xferrors.ErrMisplacedDoctype
	}
	s.doctypeSeen = true
	s.allowBOM = false
	return nil
}

// onOutsideMarkup advances state for comments or processing instructions
// outside the root element.
func (s *documentState) onOutsideMarkup() {
	s.allowBOM = false
}

// outsideCharData reports whether character data outside the root is
// ignorable whitespace.
func (s *documentState) outsideCharData(data []byte) error {
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		data = data[size:]
		switch {
		case r == '\uFEFF' && s.allowBOM:
			s.allowBOM = false
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
		default:
			return xferrors.ErrContentOutsideRoot
		}
	}
	return nil
}

// finish validates end-of-input state.
func (s *documentState) finish() error {
	if !s.rootSeen {
		return xferrors.ErrMissingRoot
	}
	return nil
}
