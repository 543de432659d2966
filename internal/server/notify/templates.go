package notify

import (
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

const subjectFormat = `Your Time Capsule "%s" is Now Available!`

const createdDateLayout = "January 2, 2006"

type emailData struct {
	Name    string
	Title   string
	Created string
	Link    string
}

var htmlBody = htmltemplate.Must(htmltemplate.New("html").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; color: #333;">
  <h1 style="color: #6366f1; text-align: center;">Your Time Capsule is Ready!</h1>
  <p>Hello {{.Name}},</p>
  <p>Great news! Your time capsule "<strong>{{.Title}}</strong>" is now available to open.</p>
  <p>You created this time capsule on {{.Created}} and set it to be opened today.</p>
  <div style="text-align: center; margin: 30px 0;">
    <a href="{{.Link}}" style="background-color: #6366f1; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; font-weight: bold;">Open Your Time Capsule</a>
  </div>
  <p>Take a moment to revisit your memories and rediscover what you preserved for your future self.</p>
  <p>Best regards,<br>The TimeCapsule Team</p>
</div>
`))

var textBody = texttemplate.Must(texttemplate.New("text").Parse(`Hello {{.Name}},

Great news! Your time capsule "{{.Title}}" is now available to open.

You created this time capsule on {{.Created}} and set it to be opened today.

Open it here: {{.Link}}

Take a moment to revisit your memories and rediscover what you preserved for your future self.

Best regards,
The TimeCapsule Team
`))

func render(data emailData) (html, text string, err error) {
	var hb, tb strings.Builder
	if err := htmlBody.Execute(&hb, data); err != nil {
		return "", "", err
	}
	if err := textBody.Execute(&tb, data); err != nil {
		return "", "", err
	}
	return hb.String(), tb.String(), nil
}
