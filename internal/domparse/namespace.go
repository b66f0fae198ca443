package domparse

import (
	"encoding/xml"
	"fmt"

	"github.com/jacoelho/xmlfactory/pkg/dom"
)

type nsBinding struct {
	prefix string
	uri    string
}

// nsStack records prefix bindings per open element. Lookups walk from the
// innermost scope outward.
type nsStack struct {
	bindings []nsBinding
	marks    []int
}

func (s *nsStack) push() {
	s.marks = append(s.marks, len(s.bindings))
}

func (s *nsStack) pop() {
	if len(s.marks) == 0 {
		return
	}
	n := len(s.marks) - 1
	s.bindings = s.bindings[:s.marks[n]]
	s.marks = s.marks[:n]
}

func (s *nsStack) bind(prefix, uri string) {
	s.bindings = append(s.bindings, nsBinding{prefix: prefix, uri: uri})
}

func (s *nsStack) lookup(prefix string) (string, bool) {
	switch prefix {
	case "xml":
		return dom.XMLNamespace, true
	case "xmlns":
		return dom.XMLNSNamespace, true
	}
	for i := len(s.bindings) - 1; i >= 0; i-- {
		if s.bindings[i].prefix == prefix {
			return s.bindings[i].uri, true
		}
	}
	if prefix == "" {
		return "", true
	}
	return "", false
}

func (s *nsStack) reset() {
	s.bindings = s.bindings[:0]
	s.marks = s.marks[:0]
}

// declare pushes a scope and binds the namespace declarations in attrs.
func (s *nsStack) declare(attrs []xml.Attr) error {
	s.push()
	for _, a := range attrs {
		switch {
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			if a.Value == dom.XMLNamespace || a.Value == dom.XMLNSNamespace {
				return fmt.Errorf("default namespace cannot be %s", a.Value)
			}
			s.bind("", a.Value)
		case a.Name.Space == "xmlns":
			switch {
			case a.Name.Local == "xmlns":
				return fmt.Errorf("prefix xmlns cannot be declared")
			case a.Name.Local == "xml" && a.Value != dom.XMLNamespace:
				return fmt.Errorf("prefix xml must be bound to %s", dom.XMLNamespace)
			case a.Value == "":
				return fmt.Errorf("prefix %s cannot be undeclared", a.Name.Local)
			}
			s.bind(a.Name.Local, a.Value)
		}
	}
	return nil
}

// qualified joins a raw token name back into its lexical form.
func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
