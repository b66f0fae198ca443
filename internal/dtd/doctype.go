package dtd

import (
	"bytes"
	"fmt"
	"strings"
)

// Doctype is a parsed document type declaration.
type Doctype struct {
	Name     string
	PublicID string
	SystemID string
	Internal string
}

// ParseDoctype parses the body of a <!...> directive as returned by
// encoding/xml. ok is false when the directive is not a DOCTYPE.
func ParseDoctype(directive []byte) (dt Doctype, ok bool, err error) {
	if !bytes.HasPrefix(directive, []byte("DOCTYPE")) {
		return Doctype{}, false, nil
	}
	sc := &scanner{s: string(directive), pos: len("DOCTYPE")}
	if !sc.skipSpace() {
		return Doctype{}, true, fmt.Errorf("DOCTYPE: missing whitespace before name")
	}
	if dt.Name, err = sc.name(); err != nil {
		return Doctype{}, true, fmt.Errorf("DOCTYPE: %w", err)
	}
	sc.skipSpace()
	if sc.hasPrefix("SYSTEM") || sc.hasPrefix("PUBLIC") {
		if dt.PublicID, dt.SystemID, err = sc.externalID(); err != nil {
			return Doctype{}, true, fmt.Errorf("DOCTYPE: %w", err)
		}
		sc.skipSpace()
	}
	if sc.peek() == '[' {
		sc.pos++
		start := sc.pos
		end, err := sc.subsetEnd()
		if err != nil {
			return Doctype{}, true, fmt.Errorf("DOCTYPE: %w", err)
		}
		dt.Internal = sc.s[start:end]
		sc.pos = end + 1
		sc.skipSpace()
	}
	if !sc.eof() {
		return Doctype{}, true, fmt.Errorf("DOCTYPE: unexpected %q", sc.rest(16))
	}
	return dt, true, nil
}

type scanner struct {
	s   string
	pos int
}

func (sc *scanner) eof() bool { return sc.pos >= len(sc.s) }

func (sc *scanner) peek() byte {
	if sc.eof() {
		return 0
	}
	return sc.s[sc.pos]
}

func (sc *scanner) hasPrefix(p string) bool {
	return strings.HasPrefix(sc.s[sc.pos:], p)
}

func (sc *scanner) rest(n int) string {
	r := sc.s[sc.pos:]
	if len(r) > n {
		return r[:n]
	}
	return r
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func (sc *scanner) skipSpace() bool {
	start := sc.pos
	for !sc.eof() && isSpace(sc.s[sc.pos]) {
		sc.pos++
	}
	return sc.pos > start
}

func (sc *scanner) expect(lit string) error {
	if !sc.hasPrefix(lit) {
		return fmt.Errorf("expected %q, found %q", lit, sc.rest(len(lit)))
	}
	sc.pos += len(lit)
	return nil
}

// name reads an XML Name. Non-ASCII bytes are accepted as name characters.
func (sc *scanner) name() (string, error) {
	start := sc.pos
	for !sc.eof() {
		b := sc.s[sc.pos]
		if isSpace(b) || strings.IndexByte("<>[]'\"%;&=|()?*+,/!", b) >= 0 {
			break
		}
		sc.pos++
	}
	if sc.pos == start {
		return "", fmt.Errorf("expected name, found %q", sc.rest(8))
	}
	n := sc.s[start:sc.pos]
	if c := n[0]; c == '-' || c == '.' || ('0' <= c && c <= '9') {
		return "", fmt.Errorf("invalid name %q", n)
	}
	return n, nil
}

func (sc *scanner) quoted() (string, error) {
	q := sc.peek()
	if q != '"' && q != '\'' {
		return "", fmt.Errorf("expected quoted literal, found %q", sc.rest(8))
	}
	end := strings.IndexByte(sc.s[sc.pos+1:], q)
	if end < 0 {
		return "", fmt.Errorf("unterminated literal")
	}
	v := sc.s[sc.pos+1 : sc.pos+1+end]
	sc.pos += end + 2
	return v, nil
}

// externalID reads SYSTEM "sys" or PUBLIC "pub" "sys".
func (sc *scanner) externalID() (publicID, systemID string, err error) {
	switch {
	case sc.hasPrefix("SYSTEM"):
		sc.pos += len("SYSTEM")
	case sc.hasPrefix("PUBLIC"):
		sc.pos += len("PUBLIC")
		if !sc.skipSpace() {
			return "", "", fmt.Errorf("missing whitespace after PUBLIC")
		}
		if publicID, err = sc.quoted(); err != nil {
			return "", "", err
		}
	default:
		return "", "", fmt.Errorf("expected SYSTEM or PUBLIC")
	}
	if !sc.skipSpace() {
		return "", "", fmt.Errorf("missing whitespace before system literal")
	}
	if systemID, err = sc.quoted(); err != nil {
		return "", "", err
	}
	return publicID, systemID, nil
}

// skipTo advances past the next occurrence of lit.
func (sc *scanner) skipTo(lit string) error {
	i := strings.Index(sc.s[sc.pos:], lit)
	if i < 0 {
		return fmt.Errorf("unterminated construct, missing %q", lit)
	}
	sc.pos += i + len(lit)
	return nil
}

// subsetEnd returns the index of the ']' closing the internal subset.
func (sc *scanner) subsetEnd() (int, error) {
	for !sc.eof() {
		switch {
		case sc.hasPrefix("<!--"):
			if err := sc.skipTo("-->"); err != nil {
				return 0, err
			}
		case sc.hasPrefix("<?"):
			if err := sc.skipTo("?>"); err != nil {
				return 0, err
			}
		case sc.peek() == '"' || sc.peek() == '\'':
			if _, err := sc.quoted(); err != nil {
				return 0, err
			}
		case sc.peek() == ']':
			return sc.pos, nil
		default:
			sc.pos++
		}
	}
	return 0, fmt.Errorf("unterminated internal subset")
}

// skipDecl advances past a markup declaration, honoring quoted literals.
func (sc *scanner) skipDecl() error {
	for !sc.eof() {
		switch sc.peek() {
		case '"', '\'':
			if _, err := sc.quoted(); err != nil {
				return err
			}
		case '>':
			sc.pos++
			return nil
		default:
			sc.pos++
		}
	}
	return fmt.Errorf("unterminated markup declaration")
}
