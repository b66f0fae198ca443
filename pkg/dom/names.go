package dom

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Reserved namespaces bound by the XML and Namespaces in XML recommendations.
const (
	XMLNamespace   = "http://www.w3.org/XML/1998/namespace"
	XMLNSNamespace = "http://www.w3.org/2000/xmlns/"
)

// nameStartTable holds the non-ASCII NameStartChar ranges of XML 1.0 (5th ed.).
var nameStartTable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00C0, Hi: 0x00D6, Stride: 1},
		{Lo: 0x00D8, Hi: 0x00F6, Stride: 1},
		{Lo: 0x00F8, Hi: 0x02FF, Stride: 1},
		{Lo: 0x0370, Hi: 0x037D, Stride: 1},
		{Lo: 0x037F, Hi: 0x1FFF, Stride: 1},
		{Lo: 0x200C, Hi: 0x200D, Stride: 1},
		{Lo: 0x2070, Hi: 0x218F, Stride: 1},
		{Lo: 0x2C00, Hi: 0x2FEF, Stride: 1},
		{Lo: 0x3001, Hi: 0xD7FF, Stride: 1},
		{Lo: 0xF900, Hi: 0xFDCF, Stride: 1},
		{Lo: 0xFDF0, Hi: 0xFFFD, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x10000, Hi: 0xEFFFF, Stride: 1},
	},
}

// nameCharTable holds the extra non-ASCII NameChar ranges.
var nameCharTable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00B7, Hi: 0x00B7, Stride: 1},
		{Lo: 0x0300, Hi: 0x036F, Stride: 1},
		{Lo: 0x203F, Hi: 0x2040, Stride: 1},
	},
}

func isNameStartRune(r rune) bool {
	if r < utf8.RuneSelf {
		return r == ':' || r == '_' || ('A' <= r && r <= 'Z') || ('a' <= r && r <= 'z')
	}
	return unicode.Is(nameStartTable, r)
}

func isNameRune(r rune) bool {
	if r < utf8.RuneSelf {
		return isNameStartRune(r) || r == '-' || r == '.' || ('0' <= r && r <= '9')
	}
	return unicode.Is(nameStartTable, r) || unicode.Is(nameCharTable, r)
}

// IsName reports whether s matches the XML Name production.
func IsName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == utf8.RuneError {
			return false
		}
		if i == 0 {
			if !isNameStartRune(r) {
				return false
			}
			continue
		}
		if !isNameRune(r) {
			return false
		}
	}
	return true
}

// IsNCName reports whether s is a Name without colons.
func IsNCName(s string) bool {
	return IsName(s) && !strings.Contains(s, ":")
}

// SplitQName splits a qualified name into prefix and local part.
// The prefix is empty when qname carries no colon.
func SplitQName(qname string) (prefix, local string) {
	if i := strings.IndexByte(qname, ':'); i >= 0 {
		return qname[:i], qname[i+1:]
	}
	return "", qname
}

// ValidateQualifiedName checks qname against namespaceURI using the DOM
// "validate and extract" rules and returns the prefix and local name.
func ValidateQualifiedName(namespaceURI, qname string) (prefix, local string, err error) {
	if !IsName(qname) {
		return "", "", newError(InvalidCharacterErr, "invalid qualified name %q", qname)
	}
	prefix, local = SplitQName(qname)
	if strings.Count(qname, ":") > 1 || (prefix == "" && local != qname) || !IsNCName(local) {
		return "", "", newError(NamespaceErr, "malformed qualified name %q", qname)
	}
	if prefix != "" && namespaceURI == "" {
		return "", "", newError(NamespaceErr, "prefix %q requires a namespace", prefix)
	}
	if prefix == "xml" && namespaceURI != XMLNamespace {
		return "", "", newError(NamespaceErr, "prefix xml must be bound to %s", XMLNamespace)
	}
	isXMLNS := qname == "xmlns" || prefix == "xmlns"
	if isXMLNS != (namespaceURI == XMLNSNamespace) {
		return "", "", newError(NamespaceErr, "xmlns names must use namespace %s", XMLNSNamespace)
	}
	return prefix, local, nil
}
