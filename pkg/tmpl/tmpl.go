// Package tmpl renders plain-text templates used for notification emails.
package tmpl

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// DateLayout is how times are printed by the date function.
const DateLayout = "2006-01-02 15:04:05 MST"

var funcs = template.FuncMap{
	"join":  strings.Join,
	"date":  formatDate,
	"quote": func(s string) string { return "`" + s + "`" },
}

func formatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Render executes a Go template string with the given data.
// Returns an error if the template is invalid or references undefined keys.
//
// Available template functions:
//   - join: Join string slice with separator (e.g., join .People ", ")
//   - date: Format a time.Time in UTC using DateLayout
//   - quote: Wrap a string in backticks
func Render(tmpl string, data any) (string, error) {
	t, err := template.New("").Funcs(funcs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}

// MustParse parses a template with the package functions, panicking on error.
// Intended for templates compiled into the binary.
func MustParse(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).Option("missingkey=error").Parse(text))
}
