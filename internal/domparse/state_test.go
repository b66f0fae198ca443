package domparse

import (
	"errors"
	"testing"

	xferrors "github.com/jacoelho/xmlfactory/errors"
)

func TestDocumentStateRootLifecycle(t *testing.T) {
	st := newDocumentState()
	if err := st.finish(); !errors.Is(err, xferrors.ErrMissingRoot) {
		t.Fatalf("finish() before root = %v, want ErrMissingRoot", err)
	}
	if err := st.onStartElement(); err != nil {
		t.Fatalf("first root rejected: %v", err)
	}
	st.onRootClosed()
	if err := st.onStartElement(); !errors.Is(err, xferrors.ErrMultipleRoots) {
		t.Fatalf("second root = %v, want ErrMultipleRoots", err)
	}
	if err := st.finish(); err != nil {
		t.Fatalf("finish() after root = %v", err)
	}
}

func TestDocumentStateDoctypePlacement(t *testing.T) {
	st := newDocumentState()
	if err := st.onDoctype(); err != nil {
		t.Fatalf("doctype in prolog rejected: %v", err)
	}
	if err := st.onDoctype(); !errors.Is(err, xferrors.ErrMisplacedDoctype) {
		t.Fatalf("second doctype = %v, want ErrMisplacedDoctype", err)
	}

	st = newDocumentState()
	if err := st.onStartElement(); err != nil {
		t.Fatal(err)
	}
	if err := st.onDoctype(); !errors.Is(err, xferrors.ErrMisplacedDoctype) {
		t.Fatalf("doctype after root = %v, want ErrMisplacedDoctype", err)
	}
}

func TestDocumentStateOutsideCharDataBOM(t *testing.T) {
	st := newDocumentState()
	if err := st.outsideCharData([]byte("\uFEFF \n")); err != nil {
		t.Fatalf("leading BOM rejected: %v", err)
	}
	if err := st.outsideCharData([]byte("\uFEFF")); !errors.Is(err, xferrors.ErrContentOutsideRoot) {
		t.Fatalf("second BOM = %v, want ErrContentOutsideRoot", err)
	}
}

func TestDocumentStateOutsideMarkupDisablesBOM(t *testing.T) {
	st := newDocumentState()
	st.onOutsideMarkup()
	if err := st.outsideCharData([]byte("\uFEFF")); err == nil {
		t.Fatalf("BOM should be rejected after outside markup")
	}
}

func TestDocumentStateOutsideText(t *testing.T) {
	st := newDocumentState()
	if err := st.outsideCharData([]byte(" \t\r\n")); err != nil {
		t.Fatalf("whitespace rejected: %v", err)
	}
	if err := st.outsideCharData([]byte("x")); !errors.Is(err, xferrors.ErrContentOutsideRoot) {
		t.Fatalf("text = %v, want ErrContentOutsideRoot", err)
	}
}
