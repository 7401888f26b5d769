package invite

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/models"
)

// Subject is the subject line of every invite e-mail
const Subject = "You've been invited to join a fridge!"

// Message is a rendered e-mail ready for a Mailer
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

var strictPolicy = bluemonday.StrictPolicy()

var htmlTemplate = template.Must(template.New("invite").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, Helvetica, Arial, sans-serif; color: #1f2933;">
  <h2>{{.Sender}} invited you to {{if .Fridge}}the fridge &ldquo;{{.Fridge}}&rdquo;{{else}}their shared fridge{{end}}</h2>
  <p>Use this invite code in the app to join:</p>
  <p style="font-size: 24px; font-weight: bold; letter-spacing: 4px;">{{.Code}}</p>
  {{if .JoinURL}}<p><a href="{{.JoinURL}}">Open the invite</a></p>{{end}}
  <p style="color: #7b8794; font-size: 12px;">If you were not expecting this e-mail you can ignore it.</p>
</body>
</html>
`))

type templateData struct {
	Sender  string
	Fridge  string
	Code    string
	JoinURL string
}

// Render builds the invite e-mail. Names are stripped of markup before they reach the template.
func Render(inv models.Invite, appURL string) (Message, error) {
	data := templateData{
		Sender: cleanName(inv.SenderName),
		Fridge: cleanName(inv.FridgeName),
		Code:   inv.InviteCode,
	}
	if data.Sender == "" {
		data.Sender = "A friend"
	}
	if appURL != "" {
		data.JoinURL = joinURL(appURL, inv.InviteCode)
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("failed to render invite: %w", err)
	}

	return Message{
		To:      inv.RecipientEmail,
		Subject: Subject,
		HTML:    buf.String(),
		Text:    renderText(data),
	}, nil
}

func renderText(data templateData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s invited you to ", data.Sender)
	if data.Fridge != "" {
		fmt.Fprintf(&b, "the fridge %q.\n\n", data.Fridge)
	} else {
		b.WriteString("their shared fridge.\n\n")
	}
	fmt.Fprintf(&b, "Invite code: %s\n", data.Code)
	if data.JoinURL != "" {
		fmt.Fprintf(&b, "Join here: %s\n", data.JoinURL)
	}
	return b.String()
}

// cleanName drops any HTML and unescapes what bluemonday escaped, since the template escapes again
func cleanName(s string) string {
	sanitized := strictPolicy.Sanitize(strings.TrimSpace(s))
	return strings.TrimSpace(html.UnescapeString(sanitized))
}

func joinURL(appURL, code string) string {
	return strings.TrimSuffix(appURL, "/") + "/join?code=" + url.QueryEscape(code)
}
