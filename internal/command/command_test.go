package command

import (
	"errors"
	"testing"

	"github.com/loykin/devterm/internal/color"
	"github.com/loykin/devterm/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestResolve_PlainString(t *testing.T) {
	for _, os := range []platform.OS{platform.Windows, platform.Linux, platform.Darwin} {
		def, err := Resolve(Plain("php artisan serve"), os)
		require.NoError(t, err)
		assert.Equal(t, "php artisan serve", def.Command)
		assert.True(t, def.Colors.IsZero())
	}
}

func TestResolve_MissingCommand(t *testing.T) {
	_, err := Resolve(Entry{Structured: true, Colors: color.Colors{Text: "Red", Background: "Black"}}, platform.Linux)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestResolve_StructuredWithoutColors(t *testing.T) {
	def, err := Resolve(Structured("npm run dev", color.Colors{}), platform.Windows)
	require.NoError(t, err)
	assert.Equal(t, "npm run dev", def.Command)
	assert.True(t, def.Colors.IsZero())
}

func TestResolve_Colors(t *testing.T) {
	yg := color.Colors{Text: "Yellow", Background: "Green"}
	tests := []struct {
		name    string
		os      platform.OS
		colors  color.Colors
		want    color.Colors
		wantErr bool
	}{
		{"windows keeps case", platform.Windows, yg, yg, false},
		{"linux keeps case", platform.Linux, yg, yg, false},
		{"mac lowercases", platform.Darwin, yg, color.Colors{Text: "yellow", Background: "green"}, false},
		{"invalid everywhere win", platform.Windows, color.Colors{Text: "invalidColor", Background: "invalidColor"}, color.Colors{}, true},
		{"invalid everywhere linux", platform.Linux, color.Colors{Text: "invalidColor", Background: "invalidColor"}, color.Colors{}, true},
		{"invalid everywhere mac", platform.Darwin, color.Colors{Text: "invalidColor", Background: "invalidColor"}, color.Colors{}, true},
		{"half pair", platform.Windows, color.Colors{Text: "Yellow"}, color.Colors{}, true},
		{"dark yellow on linux", platform.Linux, color.Colors{Text: "DarkYellow", Background: "Black"}, color.Colors{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := Resolve(Structured("run", tt.colors), tt.os)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, def.Colors)
		})
	}
}

func TestDecodeMap_OrderAndForms(t *testing.T) {
	src := `
Laravel Server: php artisan serve
Queue Worker:
  command: php artisan queue:work
  colors:
    text: Yellow
    background: Green
Vite: {command: npm run dev}
`
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	m, err := DecodeMap(&doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Laravel Server", "Queue Worker", "Vite"}, m.Keys())

	ls, _ := m.Get("Laravel Server")
	assert.Equal(t, Plain("php artisan serve"), ls)

	qw, _ := m.Get("Queue Worker")
	assert.True(t, qw.Structured)
	assert.True(t, qw.HasCommand)
	assert.Equal(t, color.Colors{Text: "Yellow", Background: "Green"}, qw.Colors)

	v, _ := m.Get("Vite")
	assert.True(t, v.Colors.IsZero())
}

func TestDecodeMap_StructuredWithoutCommand(t *testing.T) {
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("Broken:\n  colors: {text: Red, background: Black}\n"), &doc))
	m, err := DecodeMap(&doc)
	require.NoError(t, err)
	e, _ := m.Get("Broken")
	assert.True(t, e.Structured)
	assert.False(t, e.HasCommand)

	_, err = Resolve(e, platform.Linux)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDecodeMap_Rejects(t *testing.T) {
	for _, src := range []string{
		"- a\n- b\n",
		"A: [1, 2]\n",
		"A: {command: [x]}\n",
		"A: {command: x, colors: red}\n",
		"A: ~\n",
	} {
		var doc yaml.Node
		require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
		_, err := DecodeMap(&doc)
		assert.ErrorIs(t, err, ErrInvalidConfig, src)
	}
}

func TestDecodeMap_Empty(t *testing.T) {
	m, err := DecodeMap(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("~\n"), &doc))
	m, err = DecodeMap(&doc)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}
