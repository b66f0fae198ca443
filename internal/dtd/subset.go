package dtd

import (
	"cmp"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	xferrors "github.com/jacoelho/xmlfactory/errors"
	"github.com/jacoelho/xmlfactory/pkg/xmlparse"
)

const maxNesting = 16

// Options controls how declarations are loaded and expanded.
type Options struct {
	// Resolve fetches external entity content. Nil disables fetching.
	Resolve           func(publicID, systemID string) (io.ReadCloser, error)
	Warn              func(error)
	MaxExpansion      int
	ExternalGeneral   bool
	ExternalParameter bool
}

type entity struct {
	name     string
	value    string
	publicID string
	systemID string
	notation string
	external bool
}

type loader struct {
	opts      Options
	general   map[string]*entity
	parameter map[string]*entity
	order     []string
	active    map[string]bool
}

// Load reads the internal subset and, when permitted, the external subset
// of dt, and returns the table of general entities it declares.
func Load(dt Doctype, opts Options) (*Table, error) {
	l := &loader{
		opts:      opts,
		general:   make(map[string]*entity),
		parameter: make(map[string]*entity),
		active:    make(map[string]bool),
	}
	if err := l.declare(dt.Internal, 0, false); err != nil {
		return nil, err
	}
	if dt.SystemID != "" {
		text, ok, err := l.fetch("external subset", dt.PublicID, dt.SystemID, l.opts.ExternalParameter)
		if err != nil {
			return nil, err
		}
		if ok {
			if err := l.declare(text, 1, true); err != nil {
				return nil, err
			}
		}
	}
	return l.table()
}

func (l *loader) warn(err error) {
	if l.opts.Warn != nil {
		l.opts.Warn(err)
	}
}

// fetch loads external content. It reports ok=false when the feature is off.
func (l *loader) fetch(what, publicID, systemID string, enabled bool) (string, bool, error) {
	if !enabled {
		l.warn(fmt.Errorf("%w: %s %q skipped", xferrors.ErrExternalEntity, what, systemID))
		return "", false, nil
	}
	if l.opts.Resolve == nil {
		return "", false, fmt.Errorf("%w: %s %q has no entity resolver", xferrors.ErrExternalEntity, what, systemID)
	}
	rc, err := l.opts.Resolve(publicID, systemID)
	if err != nil {
		return "", false, fmt.Errorf("%w: resolve %s %q: %w", xferrors.ErrExternalEntity, what, systemID, err)
	}
	defer rc.Close()
	limit := int64(cmp.Or(l.opts.MaxExpansion, xmlparse.DefaultMaxEntityExpansion))
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return "", false, fmt.Errorf("%w: read %s %q: %w", xferrors.ErrExternalEntity, what, systemID, err)
	}
	if int64(len(data)) > limit {
		return "", false, fmt.Errorf("%w: %s %q", xferrors.ErrEntityExpansion, what, systemID)
	}
	return stripTextDecl(string(data)), true, nil
}

func stripTextDecl(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	if strings.HasPrefix(s, "<?xml") {
		if i := strings.Index(s, "?>"); i >= 0 {
			return s[i+2:]
		}
	}
	return s
}

func (l *loader) declare(text string, depth int, external bool) error {
	if depth > maxNesting {
		return fmt.Errorf("%w: parameter entity nesting too deep", xferrors.ErrEntityExpansion)
	}
	sc := &scanner{s: text}
	for {
		sc.skipSpace()
		if sc.eof() {
			return nil
		}
		var err error
		switch {
		case sc.peek() == '%':
			err = l.parameterRef(sc, depth, external)
		case sc.hasPrefix("<!--"):
			err = sc.skipTo("-->")
		case sc.hasPrefix("<?"):
			err = sc.skipTo("?>")
		case sc.hasPrefix("<!ENTITY"):
			sc.pos += len("<!ENTITY")
			err = l.entityDecl(sc, depth, external)
		case sc.hasPrefix("<!ELEMENT"), sc.hasPrefix("<!ATTLIST"), sc.hasPrefix("<!NOTATION"):
			err = sc.skipDecl()
		case sc.hasPrefix("<!["):
			if !external {
				return fmt.Errorf("conditional section in internal subset")
			}
			err = l.conditional(sc, depth)
		default:
			return fmt.Errorf("invalid markup declaration %q", sc.rest(16))
		}
		if err != nil {
			return err
		}
	}
}

func (l *loader) parameterRef(sc *scanner, depth int, external bool) error {
	sc.pos++
	name, err := sc.name()
	if err != nil {
		return err
	}
	if err := sc.expect(";"); err != nil {
		return err
	}
	pe, ok := l.parameter[name]
	if !ok {
		return fmt.Errorf("%w: %%%s;", xferrors.ErrUndeclaredEntity, name)
	}
	if l.active[pe.name] {
		return fmt.Errorf("%w: recursive parameter entity %%%s;", xferrors.ErrEntityExpansion, name)
	}
	text := pe.value
	if pe.external {
		fetched, ok, err := l.fetch("parameter entity", pe.publicID, pe.systemID, l.opts.ExternalParameter)
		if err != nil || !ok {
			return err
		}
		text = fetched
		external = true
	}
	l.active[pe.name] = true
	defer delete(l.active, pe.name)
	return l.declare(text, depth+1, external)
}

func (l *loader) conditional(sc *scanner, depth int) error {
	sc.pos += len("<![")
	sc.skipSpace()
	var include bool
	switch {
	case sc.hasPrefix("INCLUDE"):
		include = true
		sc.pos += len("INCLUDE")
	case sc.hasPrefix("IGNORE"):
		sc.pos += len("IGNORE")
	default:
		return fmt.Errorf("unsupported conditional section %q", sc.rest(16))
	}
	sc.skipSpace()
	if err := sc.expect("["); err != nil {
		return err
	}
	start, nest := sc.pos, 1
	for nest > 0 {
		switch {
		case sc.eof():
			return fmt.Errorf("unterminated conditional section")
		case sc.hasPrefix("<!["):
			nest++
			sc.pos += 3
		case sc.hasPrefix("]]>"):
			nest--
			sc.pos += 3
		default:
			sc.pos++
		}
	}
	if !include {
		return nil
	}
	return l.declare(sc.s[start:sc.pos-3], depth+1, true)
}

func (l *loader) entityDecl(sc *scanner, depth int, external bool) error {
	if !sc.skipSpace() {
		return fmt.Errorf("ENTITY: missing whitespace")
	}
	parameter := false
	if sc.peek() == '%' {
		sc.pos++
		if !sc.skipSpace() {
			return fmt.Errorf("ENTITY: missing whitespace after %%")
		}
		parameter = true
	}
	name, err := sc.name()
	if err != nil {
		return fmt.Errorf("ENTITY: %w", err)
	}
	if !sc.skipSpace() {
		return fmt.Errorf("ENTITY %s: missing whitespace", name)
	}
	ent := &entity{name: name}
	if q := sc.peek(); q == '"' || q == '\'' {
		literal, err := sc.quoted()
		if err != nil {
			return fmt.Errorf("ENTITY %s: %w", name, err)
		}
		if ent.value, err = l.entityValue(literal, depth, external); err != nil {
			return fmt.Errorf("ENTITY %s: %w", name, err)
		}
	} else {
		if ent.publicID, ent.systemID, err = sc.externalID(); err != nil {
			return fmt.Errorf("ENTITY %s: %w", name, err)
		}
		ent.external = true
		spaced := sc.skipSpace()
		if !parameter && spaced && sc.hasPrefix("NDATA") {
			sc.pos += len("NDATA")
			sc.skipSpace()
			if ent.notation, err = sc.name(); err != nil {
				return fmt.Errorf("ENTITY %s: %w", name, err)
			}
		}
	}
	sc.skipSpace()
	if err := sc.expect(">"); err != nil {
		return fmt.Errorf("ENTITY %s: %w", name, err)
	}
	table := l.general
	if parameter {
		table = l.parameter
	}
	if _, exists := table[name]; exists {
		return nil
	}
	table[name] = ent
	if !parameter {
		l.order = append(l.order, name)
	}
	return nil
}

// entityValue converts a literal into replacement text: character references
// are expanded, general entity references are kept for later expansion.
func (l *loader) entityValue(literal string, depth int, external bool) (string, error) {
	var b strings.Builder
	for i := 0; i < len(literal); {
		switch literal[i] {
		case '%':
			if !external {
				return "", fmt.Errorf("parameter entity reference in internal subset entity value")
			}
			end := strings.IndexByte(literal[i:], ';')
			if end < 0 {
				return "", fmt.Errorf("unterminated parameter entity reference")
			}
			name := literal[i+1 : i+end]
			pe, ok := l.parameter[name]
			if !ok {
				return "", fmt.Errorf("%w: %%%s;", xferrors.ErrUndeclaredEntity, name)
			}
			if pe.external || l.active[name] || depth >= maxNesting {
				return "", fmt.Errorf("%w: parameter entity %%%s; in entity value", xferrors.ErrEntityExpansion, name)
			}
			b.WriteString(pe.value)
			i += end + 1
		case '&':
			if i+1 < len(literal) && literal[i+1] == '#' {
				end := strings.IndexByte(literal[i:], ';')
				if end < 0 {
					return "", fmt.Errorf("unterminated character reference")
				}
				r, err := charRef(literal[i+2 : i+end])
				if err != nil {
					return "", err
				}
				b.WriteRune(r)
				i += end + 1
				continue
			}
			b.WriteByte('&')
			i++
		default:
			b.WriteByte(literal[i])
			i++
		}
		if l.opts.MaxExpansion > 0 && b.Len() > l.opts.MaxExpansion {
			return "", xferrors.ErrEntityExpansion
		}
	}
	return b.String(), nil
}

func charRef(ref string) (rune, error) {
	var (
		n   uint64
		err error
	)
	if strings.HasPrefix(ref, "x") {
		n, err = strconv.ParseUint(ref[1:], 16, 32)
	} else {
		n, err = strconv.ParseUint(ref, 10, 32)
	}
	if err != nil || !validChar(rune(n)) {
		return 0, fmt.Errorf("invalid character reference &#%s;", ref)
	}
	return rune(n), nil
}

func validChar(r rune) bool {
	switch {
	case r == 0x9 || r == 0xA || r == 0xD:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= utf8.MaxRune:
		return true
	default:
		return false
	}
}
