package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemes(t *testing.T) {
	names := ThemeNames()
	require.Contains(t, names, DefaultTheme)

	for _, name := range names {
		p, ok := GetPalette(name)
		require.True(t, ok)
		assert.NotEmpty(t, p.Primary, name)
		assert.NotEmpty(t, p.Error, name)
	}

	_, ok := GetPalette("neon-vomit")
	assert.False(t, ok)
}

func TestSetTheme(t *testing.T) {
	t.Cleanup(func() { SetTheme(themes[DefaultTheme]) })

	p, _ := GetPalette("gruvbox")
	SetTheme(p)

	assert.Equal(t, p, CurrentPalette)
	assert.Equal(t, p.Error, TextErrorStyle.GetForeground())

	cfg := GlamourStyle()
	require.NotNil(t, cfg.H2.Color)
	assert.Equal(t, string(p.Primary), *cfg.H2.Color)
}
