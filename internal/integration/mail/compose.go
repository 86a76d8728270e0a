package mail

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/colonyops/oncall/internal/core/notify"
	"github.com/colonyops/oncall/pkg/tmpl"
)

var advisoryBody = tmpl.MustParse("advisory", `A new security advisory has been created for {{ .Repo }}.

Please take action within {{ .Window }}. The security group members
currently on the rotation are: {{ join .OnCall ", " }}.

Advisory: {{ .Title }}
Advisory URL: https://github.com/{{ .Repo }}/security/advisories/{{ .ID }}
`)

var nagBody = tmpl.MustParse("nag", `The rotation schedule is running short; {{ if .Scheduled -}}
the last rotation starts at {{ date .LastStart }} and the schedule ends at {{ date .End }}.
{{- else -}}
no rotation is currently scheduled.
{{- end }}

Please extend it by running {{ quote .ExtendCommand }} in the
{{ .Repo }} repo and committing the results.

This nag email will be sent {{ .Cadence }} until the rotation is extended.

Thank you!
`)

// Composer builds the emails a notify run sends.
type Composer struct {
	Repo string
	From string
	To   string
	// Window is how long responders have to act, e.g. "two days".
	Window string
	// ExtendCommand is the command operators run to add shifts.
	ExtendCommand string
	// Cooldown is how often the nag repeats.
	Cooldown time.Duration
}

// Advisory composes the message for one planned notification.
func (c Composer) Advisory(n notify.Notification, now time.Time) (Message, error) {
	body, err := execute(advisoryBody, map[string]any{
		"Repo":   c.Repo,
		"Window": c.Window,
		"OnCall": n.Recipients,
		"Title":  n.Item.Title,
		"ID":     n.Item.ID,
	})
	if err != nil {
		return Message{}, err
	}

	subject := fmt.Sprintf("New security advisory for %s: %s", c.Repo, n.Item.Title)
	return NewMessage(c.From, c.recipients(), subject, body, now), nil
}

// Nag composes the schedule exhaustion reminder. lastStart and end are nil
// when there is no schedule.
func (c Composer) Nag(lastStart, end *time.Time, now time.Time) (Message, error) {
	data := map[string]any{
		"Repo":          c.Repo,
		"ExtendCommand": c.ExtendCommand,
		"Cadence":       cadence(c.Cooldown),
		"Scheduled":     lastStart != nil && end != nil,
		"LastStart":     time.Time{},
		"End":           time.Time{},
	}
	if lastStart != nil && end != nil {
		data["LastStart"] = *lastStart
		data["End"] = *end
	}

	body, err := execute(nagBody, data)
	if err != nil {
		return Message{}, err
	}

	subject := fmt.Sprintf("Rotation schedule running short for %s", c.Repo)
	return NewMessage(c.From, c.recipients(), subject, body, now), nil
}

func (c Composer) recipients() []string {
	if c.To == "" {
		return nil
	}
	return []string{c.To}
}

func cadence(d time.Duration) string {
	switch d {
	case 0, 24 * time.Hour:
		return "daily"
	case time.Hour:
		return "hourly"
	default:
		return "every " + d.String()
	}
}

func execute(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}
