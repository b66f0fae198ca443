package dtd

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	xferrors "github.com/jacoelho/xmlfactory/errors"
	"github.com/jacoelho/xmlfactory/pkg/xmlparse"
)

const (
	markerOpen  = "\uE000"
	markerClose = "\uE001"
)

var predefined = map[string]string{
	"lt":   "<",
	"gt":   ">",
	"amp":  "&",
	"apos": "'",
	"quot": "\"",
}

// Table maps declared general entities to short placeholders. The decoder
// substitutes placeholders, and Expand swaps them for replacement text while
// charging a per-document budget, so repeated references cannot amplify the
// input beyond MaxExpansion bytes.
type Table struct {
	marker       string
	placeholders map[string]string
	values       []string
	budget       int
	used         int
}

// Placeholders returns the entity map to install on an encoding/xml decoder.
func (t *Table) Placeholders() map[string]string {
	if t == nil {
		return nil
	}
	return t.placeholders
}

// Len reports the number of declared general entities.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.values)
}

// Expand replaces placeholders in s with their replacement text.
func (t *Table) Expand(s string) (string, error) {
	if t == nil || len(t.values) == 0 || !strings.Contains(s, t.marker) {
		return s, nil
	}
	var b strings.Builder
	for {
		i := strings.Index(s, t.marker)
		if i < 0 {
			b.WriteString(s)
			return b.String(), nil
		}
		b.WriteString(s[:i])
		s = s[i+len(t.marker):]
		end := strings.Index(s, markerClose)
		if end < 0 {
			return "", fmt.Errorf("corrupt entity placeholder")
		}
		idx, err := strconv.Atoi(s[:end])
		if err != nil || idx < 0 || idx >= len(t.values) {
			return "", fmt.Errorf("corrupt entity placeholder")
		}
		value := t.values[idx]
		t.used += len(value)
		if t.used > t.budget {
			return "", fmt.Errorf("%w: %d bytes", xferrors.ErrEntityExpansion, t.used)
		}
		b.WriteString(value)
		s = s[end+len(markerClose):]
	}
}

func (l *loader) table() (*Table, error) {
	nonce := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	t := &Table{
		marker:       markerOpen + nonce + ":",
		placeholders: make(map[string]string, len(l.order)),
		budget:       cmp.Or(l.opts.MaxExpansion, xmlparse.DefaultMaxEntityExpansion),
	}
	x := &expander{loader: l, memo: make(map[string]string), stack: make(map[string]bool), budget: t.budget}
	for _, name := range l.order {
		ent := l.general[name]
		if ent.notation != "" {
			continue
		}
		value, err := x.expand(name)
		if err != nil {
			return nil, err
		}
		t.placeholders[name] = t.marker + strconv.Itoa(len(t.values)) + markerClose
		t.values = append(t.values, value)
	}
	return t, nil
}

type expander struct {
	loader *loader
	memo   map[string]string
	stack  map[string]bool
	budget int
	total  int
}

func (x *expander) expand(name string) (string, error) {
	if v, ok := x.memo[name]; ok {
		return v, nil
	}
	ent, ok := x.loader.general[name]
	if !ok || ent.notation != "" {
		return "", fmt.Errorf("%w: &%s;", xferrors.ErrUndeclaredEntity, name)
	}
	if x.stack[name] {
		return "", fmt.Errorf("%w: recursive entity &%s;", xferrors.ErrEntityExpansion, name)
	}
	text := ent.value
	if ent.external {
		fetched, ok, err := x.loader.fetch("general entity", ent.publicID, ent.systemID, x.loader.opts.ExternalGeneral)
		if err != nil {
			return "", err
		}
		if !ok {
			x.memo[name] = ""
			return "", nil
		}
		text = fetched
	}
	if strings.IndexByte(text, '<') >= 0 {
		return "", fmt.Errorf("entity &%s; contains markup, which is not supported", name)
	}
	x.stack[name] = true
	defer delete(x.stack, name)

	var b strings.Builder
	for i := 0; i < len(text); {
		if text[i] != '&' {
			b.WriteByte(text[i])
			i++
			if err := x.charge(1); err != nil {
				return "", err
			}
			continue
		}
		end := strings.IndexByte(text[i:], ';')
		if end < 0 {
			return "", fmt.Errorf("entity &%s;: unterminated reference", name)
		}
		ref := text[i+1 : i+end]
		i += end + 1
		var repl string
		switch {
		case strings.HasPrefix(ref, "#"):
			r, err := charRef(ref[1:])
			if err != nil {
				return "", err
			}
			repl = string(r)
		case predefined[ref] != "":
			repl = predefined[ref]
		default:
			v, err := x.expand(ref)
			if err != nil {
				return "", err
			}
			repl = v
		}
		b.WriteString(repl)
		if err := x.charge(len(repl)); err != nil {
			return "", err
		}
	}
	v := b.String()
	x.memo[name] = v
	return v, nil
}

func (x *expander) charge(n int) error {
	x.total += n
	if x.total > x.budget {
		return fmt.Errorf("%w: %d bytes", xferrors.ErrEntityExpansion, x.total)
	}
	return nil
}
