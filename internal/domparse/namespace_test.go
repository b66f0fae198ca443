package domparse

import (
	"encoding/xml"
	"testing"

	"github.com/jacoelho/xmlfactory/pkg/dom"
)

func TestNamespaceScopes(t *testing.T) {
	var ns nsStack
	if err := ns.declare([]xml.Attr{
		{Name: xml.Name{Local: "xmlns"}, Value: "urn:outer"},
		{Name: xml.Name{Space: "xmlns", Local: "p"}, Value: "urn:p"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := ns.declare([]xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: ""}}); err != nil {
		t.Fatal(err)
	}
	if uri, ok := ns.lookup(""); !ok || uri != "" {
		t.Fatalf("inner default = %q, %v; want undeclared", uri, ok)
	}
	if uri, ok := ns.lookup("p"); !ok || uri != "urn:p" {
		t.Fatalf("lookup(p) = %q, %v", uri, ok)
	}
	ns.pop()
	if uri, _ := ns.lookup(""); uri != "urn:outer" {
		t.Fatalf("outer default = %q", uri)
	}
	ns.pop()
	if _, ok := ns.lookup("p"); ok {
		t.Fatalf("prefix p still bound after pop")
	}
	if uri, ok := ns.lookup("xml"); !ok || uri != dom.XMLNamespace {
		t.Fatalf("xml prefix = %q, %v", uri, ok)
	}
}

func TestNamespaceDeclareErrors(t *testing.T) {
	tests := []xml.Attr{
		{Name: xml.Name{Space: "xmlns", Local: "xmlns"}, Value: "urn:x"},
		{Name: xml.Name{Space: "xmlns", Local: "xml"}, Value: "urn:x"},
		{Name: xml.Name{Space: "xmlns", Local: "p"}, Value: ""},
		{Name: xml.Name{Local: "xmlns"}, Value: dom.XMLNSNamespace},
	}
	for _, attr := range tests {
		var ns nsStack
		if err := ns.declare([]xml.Attr{attr}); err == nil {
			t.Errorf("declare(%s=%q) succeeded", qualified(attr.Name), attr.Value)
		}
	}
}
