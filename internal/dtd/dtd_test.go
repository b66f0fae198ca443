package dtd

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xferrors "github.com/jacoelho/xmlfactory/errors"
)

func TestParseDoctype(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Doctype
		notDT   bool
		wantErr bool
	}{
		{name: "bare", in: "DOCTYPE html", want: Doctype{Name: "html"}},
		{name: "system", in: `DOCTYPE r SYSTEM "r.dtd"`, want: Doctype{Name: "r", SystemID: "r.dtd"}},
		{name: "public", in: `DOCTYPE r PUBLIC "-//X//EN" 'r.dtd'`, want: Doctype{Name: "r", PublicID: "-//X//EN", SystemID: "r.dtd"}},
		{name: "internal", in: `DOCTYPE r [<!ENTITY a "]">]`, want: Doctype{Name: "r", Internal: `<!ENTITY a "]">`}},
		{name: "not doctype", in: "ELEMENT a ANY", notDT: true},
		{name: "missing name", in: "DOCTYPE", wantErr: true},
		{name: "trailing junk", in: "DOCTYPE r junk", wantErr: true},
		{name: "unterminated subset", in: "DOCTYPE r [<!ENTITY a 'x'>", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt, ok, err := ParseDoctype([]byte(tt.in))
			if tt.notDT {
				assert.False(t, ok)
				return
			}
			assert.True(t, ok)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, dt)
		})
	}
}

func TestLoadExpandsInternalEntities(t *testing.T) {
	table, err := Load(Doctype{Name: "r", Internal: `
<!-- ignored -->
<!ELEMENT r ANY>
<!ATTLIST r a CDATA #IMPLIED>
<!ENTITY amp2 "&#38;#38;">
<!ENTITY who "w&#111;rld">
<!ENTITY hi "hi &who;">
<!ENTITY who "shadowed">
`}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	got, err := table.Expand("[" + table.Placeholders()["hi"] + "]")
	require.NoError(t, err)
	assert.Equal(t, "[hi world]", got)

	got, err = table.Expand(table.Placeholders()["amp2"])
	require.NoError(t, err)
	assert.Equal(t, "&", got)
}

func TestLoadParameterEntitiesInternalSubset(t *testing.T) {
	table, err := Load(Doctype{Name: "r", Internal: `<!ENTITY % decl '<!ENTITY x "from-pe">'>%decl;`}, Options{})
	require.NoError(t, err)
	got, err := table.Expand(table.Placeholders()["x"])
	require.NoError(t, err)
	assert.Equal(t, "from-pe", got)
}

func TestLoadRejectsMarkupInEntity(t *testing.T) {
	_, err := Load(Doctype{Name: "r", Internal: `<!ENTITY m "&#60;b&#62;">`}, Options{})
	require.Error(t, err)
}

func TestLoadUndeclaredReference(t *testing.T) {
	_, err := Load(Doctype{Name: "r", Internal: `<!ENTITY a "&missing;">`}, Options{})
	require.ErrorIs(t, err, xferrors.ErrUndeclaredEntity)
}

func TestLoadExternal(t *testing.T) {
	resolve := func(_, systemID string) (io.ReadCloser, error) {
		switch systemID {
		case "ext.dtd":
			return io.NopCloser(strings.NewReader(`<?xml version="1.0" encoding="UTF-8"?><!ENTITY fromdtd "dtd"><![IGNORE[<!ENTITY skipped "no">]]>`)), nil
		case "value.txt":
			return io.NopCloser(strings.NewReader("ext-value")), nil
		}
		return nil, errors.New("not found")
	}
	doctype := Doctype{Name: "r", SystemID: "ext.dtd", Internal: `<!ENTITY v SYSTEM "value.txt">`}

	t.Run("enabled", func(t *testing.T) {
		table, err := Load(doctype, Options{Resolve: resolve, ExternalGeneral: true, ExternalParameter: true})
		require.NoError(t, err)
		got, err := table.Expand(table.Placeholders()["v"] + "/" + table.Placeholders()["fromdtd"])
		require.NoError(t, err)
		assert.Equal(t, "ext-value/dtd", got)
		assert.NotContains(t, table.Placeholders(), "skipped")
	})

	t.Run("disabled warns", func(t *testing.T) {
		var warnings []error
		table, err := Load(doctype, Options{
			Resolve: func(string, string) (io.ReadCloser, error) {
				t.Fatal("resolver must not be consulted")
				return nil, nil
			},
			Warn: func(err error) { warnings = append(warnings, err) },
		})
		require.NoError(t, err)
		got, err := table.Expand("<" + table.Placeholders()["v"] + ">")
		require.NoError(t, err)
		assert.Equal(t, "<>", got)
		assert.Len(t, warnings, 2)
	})

	t.Run("enabled without resolver", func(t *testing.T) {
		_, err := Load(doctype, Options{ExternalGeneral: true})
		require.ErrorIs(t, err, xferrors.ErrExternalEntity)
	})

	t.Run("resolver failure", func(t *testing.T) {
		_, err := Load(Doctype{Name: "r", Internal: `<!ENTITY v SYSTEM "missing">`}, Options{Resolve: resolve, ExternalGeneral: true})
		require.ErrorIs(t, err, xferrors.ErrExternalEntity)
	})
}

func TestTableExpandBudget(t *testing.T) {
	table, err := Load(Doctype{Name: "r", Internal: `<!ENTITY a "12345">`}, Options{MaxExpansion: 12})
	require.NoError(t, err)
	ref := table.Placeholders()["a"]

	_, err = table.Expand(ref + ref)
	require.NoError(t, err)
	_, err = table.Expand(ref)
	require.ErrorIs(t, err, xferrors.ErrEntityExpansion)
}

func TestNilTable(t *testing.T) {
	var table *Table
	assert.Nil(t, table.Placeholders())
	assert.Zero(t, table.Len())
	got, err := table.Expand("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", got)
}
