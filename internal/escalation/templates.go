package escalation

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"github.com/suPer8Hu/intake-chat/internal/prompt"
)

// Entry is one line of a transcript as sent by the widget.
type Entry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

var funcs = template.FuncMap{
	"speaker": func(role string) string {
		if role == "user" {
			return "Visitor"
		}
		return "AI Assistant"
	},
	"background": func(role string) template.CSS {
		if role == "user" {
			return "#f0f8ff"
		}
		return "#f5f5f5"
	},
	"accent": func(role string) template.CSS {
		if role == "user" {
			return "#5bb3ff"
		}
		return "#a58cff"
	},
	"lines": func(s string) []string {
		return strings.Split(s, "\n")
	},
	"join": strings.Join,
	"stamp": func(t time.Time) string {
		return t.UTC().Format("Jan 2, 2006 15:04 MST")
	},
}

const entriesTmpl = `{{define "entries"}}{{range .}}
    <div style="margin: 16px 0; padding: 12px; background: {{background .Role}}; border-left: 3px solid {{accent .Role}};">
      <strong>{{speaker .Role}}:</strong><br/>
      {{range $i, $l := lines .Content}}{{if $i}}<br/>{{end}}{{$l}}{{end}}
    </div>{{end}}{{end}}`

var escalationTmpl = template.Must(template.New("escalation").Funcs(funcs).Parse(entriesTmpl + `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>High-Value Escalation</title></head>
<body style="font-family: Inter, sans-serif; line-height: 1.6; color: #333; max-width: 700px; margin: 0 auto; padding: 20px;">
  <div style="background: linear-gradient(135deg, #dc3545, #c82333); padding: 30px; text-align: center; border-radius: 12px 12px 0 0;">
    <h1 style="margin: 0; color: white;">🚨 High-Value Lead: Escalated Chat</h1>
  </div>
  <div style="background: white; padding: 30px; border: 1px solid #e0e0e0; border-radius: 0 0 12px 12px;">
    <div style="background: #fff9e6; padding: 16px; border-radius: 8px; margin: 20px 0;">
      <h3 style="margin-top: 0;">⚡ Metadata</h3>
      <p><strong>Session ID:</strong> {{.SessionID}}</p>
      <p><strong>Total Turns:</strong> {{.Count}}</p>
      <p><strong>Escalated:</strong> {{stamp .At}}</p>
    </div>
    <h2>Full Conversation</h2>
    {{template "entries" .Transcript}}
    <div style="background: #e6f7ff; padding: 16px; border-radius: 8px; margin-top: 24px;">
      <h3 style="margin-top: 0;">📋 Next Steps</h3>
      <ul>
        <li>Review conversation and assess complexity</li>
        <li>Reach out within 24 hours</li>
        <li>Prepare custom proposal if needed</li>
      </ul>
    </div>
  </div>
</body>
</html>`))

var transcriptTmpl = template.Must(template.New("transcript").Funcs(funcs).Parse(entriesTmpl + `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>New Chat Lead</title></head>
<body style="font-family: Inter, sans-serif; line-height: 1.6; color: #333; max-width: 700px; margin: 0 auto; padding: 20px;">
  <div style="background: linear-gradient(135deg, #8ecbff, #a58cff); padding: 30px; text-align: center; border-radius: 12px 12px 0 0;">
    <h1 style="margin: 0; color: #0b0f14;">🤖 New AI Chat Lead</h1>
    {{if .VisitorEmail}}<p style="margin: 8px 0 0;"><strong>From:</strong> {{.VisitorEmail}}</p>{{end}}
  </div>
  <div style="background: white; padding: 30px; border: 1px solid #e0e0e0; border-radius: 0 0 12px 12px;">
    <h2>Conversation Transcript</h2>
    {{template "entries" .Transcript}}
    {{with .Plan}}<h2>Generated Plan</h2>
    <div style="background: #f9f9f9; padding: 20px; border-radius: 8px;">
      {{if .ProblemStatement}}<p><strong>Problem:</strong> {{.ProblemStatement}}</p>{{end}}
      <h3>DIY Option</h3>
      <p><strong>Tools:</strong> {{if and .DIYOption .DIYOption.Tools}}{{join .DIYOption.Tools ", "}}{{else}}N/A{{end}}</p>
      <p><strong>Effort:</strong> {{with .DIYOption}}{{or .EffortHours "0"}}{{else}}0{{end}} hours</p>
      <h3>Limbo Studio Option</h3>
      <p><strong>Timeline:</strong> {{with .StudioOption}}{{or .TimelineWeeksTotal "0"}}{{else}}0{{end}} weeks</p>
      <p><strong>Price Band:</strong> {{if and .StudioOption .StudioOption.PriceBandUSD}}{{.StudioOption.PriceBandUSD}}{{else}}TBD{{end}}</p>
    </div>{{end}}
    {{if .AdditionalRequest}}<h2>Additional Request</h2>
    <p>{{.AdditionalRequest}}</p>{{end}}
    <p style="margin-top: 24px; font-size: 14px; color: #666;">
      <strong>Timestamp:</strong> {{stamp .At}}
    </p>
  </div>
</body>
</html>`))

type escalationView struct {
	SessionID  string
	Count      int
	At         time.Time
	Transcript []Entry
}

type transcriptView struct {
	VisitorEmail      string
	Transcript        []Entry
	Plan              *prompt.Plan
	AdditionalRequest string
	At                time.Time
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
