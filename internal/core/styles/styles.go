// Package styles provides shared lipgloss styles for CLI output.
package styles

import (
	"github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

var (
	TextPrimaryStyle        lipgloss.Style
	TextPrimaryBoldStyle    lipgloss.Style
	TextForegroundStyle     lipgloss.Style
	TextForegroundBoldStyle lipgloss.Style
	TextMutedStyle          lipgloss.Style
	TextSuccessStyle        lipgloss.Style
	TextWarningStyle        lipgloss.Style
	TextErrorStyle          lipgloss.Style

	DividerStyle lipgloss.Style

	// CurrentShiftStyle highlights the shift covering now in schedule listings.
	CurrentShiftStyle lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	TextPrimaryStyle = lipgloss.NewStyle().Foreground(p.Primary)
	TextPrimaryBoldStyle = TextPrimaryStyle.Bold(true)
	TextForegroundStyle = lipgloss.NewStyle().Foreground(p.Foreground)
	TextForegroundBoldStyle = TextForegroundStyle.Bold(true)
	TextMutedStyle = lipgloss.NewStyle().Foreground(p.Muted)
	TextSuccessStyle = lipgloss.NewStyle().Foreground(p.Success)
	TextWarningStyle = lipgloss.NewStyle().Foreground(p.Warning)
	TextErrorStyle = lipgloss.NewStyle().Foreground(p.Error)

	DividerStyle = lipgloss.NewStyle().Foreground(p.Surface)

	CurrentShiftStyle = lipgloss.NewStyle().
		Foreground(p.Success).
		Bold(true)
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}

func hexPtr(c lipgloss.Color) *string {
	if c == "" {
		return nil
	}
	s := string(c)
	return &s
}

// GlamourStyle returns a Glamour style config derived from the active theme.
func GlamourStyle() ansi.StyleConfig {
	cfg := glamourstyles.DarkStyleConfig

	fg := hexPtr(CurrentPalette.Foreground)
	primary := hexPtr(CurrentPalette.Primary)
	secondary := hexPtr(CurrentPalette.Secondary)
	muted := hexPtr(CurrentPalette.Muted)

	cfg.Document.Color = fg
	cfg.Paragraph.Color = fg

	cfg.Heading.Color = primary
	cfg.H1.Color = primary
	cfg.H2.Color = primary
	cfg.H3.Color = primary

	cfg.BlockQuote.Color = muted
	cfg.HorizontalRule.Color = muted

	cfg.Code.Color = secondary
	cfg.Strong.Color = hexPtr(CurrentPalette.Success)

	cfg.Table.Color = fg

	return cfg
}

// FormTheme returns a huh theme matching the active palette.
func FormTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = t.Focused.Title.Foreground(CurrentPalette.Primary).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(CurrentPalette.Muted)
	t.Focused.FocusedButton = t.Focused.FocusedButton.
		Foreground(CurrentPalette.Surface).
		Background(CurrentPalette.Primary)
	t.Focused.BlurredButton = t.Focused.BlurredButton.
		Foreground(CurrentPalette.Foreground).
		Background(CurrentPalette.Surface)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(CurrentPalette.Error)

	t.Blurred = t.Focused
	return t
}
