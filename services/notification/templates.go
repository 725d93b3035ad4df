package notification

import (
	"bytes"
	"html/template"
)

var (
	confirmationTmpl = template.Must(template.New("confirmation").Parse(`<p>Hi {{.ActorName}},</p>
<p>Your self-tape session with {{.ReaderName}} is confirmed.</p>
<ul>
<li>When: {{.When}}</li>
<li>Length: {{.DurationMin}} minutes</li>
{{if .MeetingURL}}<li>Join: <a href="{{.MeetingURL}}">{{.MeetingURL}}</a></li>{{end}}
</ul>
{{if .Notes}}<p>Notes: {{.Notes}}</p>{{end}}
<p>Break a leg!</p>`))

	reminderTmpl = template.Must(template.New("reminder").Parse(`<p>Hi {{.ActorName}},</p>
<p>Reminder: your session with {{.ReaderName}} starts {{.When}}.</p>
{{if .MeetingURL}}<p>Join here: <a href="{{.MeetingURL}}">{{.MeetingURL}}</a></p>{{end}}`))

	magicLinkTmpl = template.Must(template.New("magic").Parse(`<p>Use the link below to sign in. It expires soon.</p>
<p><a href="{{.Link}}">Sign in</a></p>
<p>If you did not ask for this email you can ignore it.</p>`))
)

type sessionView struct {
	ActorName   string
	ReaderName  string
	When        string
	DurationMin int
	MeetingURL  string
	Notes       string
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
