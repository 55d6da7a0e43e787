package mailer

import (
	"bytes"
	htmltemplate "html/template"
	texttemplate "text/template"
)

type emailTemplate struct {
	subject *texttemplate.Template
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

func newTemplate(subject, text, html string) emailTemplate {
	return emailTemplate{
		subject: texttemplate.Must(texttemplate.New("subject").Parse(subject)),
		text:    texttemplate.Must(texttemplate.New("text").Parse(text)),
		html:    htmltemplate.Must(htmltemplate.New("html").Parse(html)),
	}
}

func (t emailTemplate) render(to string, data any) (Message, error) {
	var subject, text, html bytes.Buffer
	if err := t.subject.Execute(&subject, data); err != nil {
		return Message{}, err
	}
	if err := t.text.Execute(&text, data); err != nil {
		return Message{}, err
	}
	if err := t.html.Execute(&html, data); err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subject.String(), Text: text.String(), HTML: html.String()}, nil
}

var (
	statusChangedTmpl = newTemplate(
		`Complaint status updated: {{.Title}}`,
		`Hello {{.Name}},

The status of your complaint "{{.Title}}" changed from {{.OldStatus}} to {{.NewStatus}}.
{{if .FeedbackRequested}}
Your complaint is now {{.NewStatus}}. Please tell us how we did: {{.Link}}
{{else}}
View it here: {{.Link}}
{{end}}`,
		`<p>Hello {{.Name}},</p>
<p>The status of your complaint <strong>{{.Title}}</strong> changed from <em>{{.OldStatus}}</em> to <em>{{.NewStatus}}</em>.</p>
{{if .FeedbackRequested}}<p>Your complaint is now {{.NewStatus}}. <a href="{{.Link}}">Leave feedback</a>.</p>{{else}}<p><a href="{{.Link}}">View complaint</a></p>{{end}}`,
	)

	complaintCreatedTmpl = newTemplate(
		`Complaint received: {{.Title}}`,
		`Hello {{.Name}},

We received your complaint "{{.Title}}". It is now Open and has been routed to the responsible department.
Track it here: {{.Link}}
`,
		`<p>Hello {{.Name}},</p>
<p>We received your complaint <strong>{{.Title}}</strong>. It is now Open and has been routed to the responsible department.</p>
<p><a href="{{.Link}}">Track your complaint</a></p>`,
	)

	otpTmpl = newTemplate(
		`{{.Purpose}} code`,
		`Hello {{.Name}},

Your {{.Purpose}} code is {{.Code}}. It expires in {{.Minutes}} minutes.
If you did not request this, ignore this email.
`,
		`<p>Hello {{.Name}},</p>
<p>Your {{.Purpose}} code is <strong>{{.Code}}</strong>. It expires in {{.Minutes}} minutes.</p>
<p>If you did not request this, ignore this email.</p>`,
	)
)

type StatusChangedData struct {
	Name              string
	Title             string
	OldStatus         string
	NewStatus         string
	Link              string
	FeedbackRequested bool
}

func StatusChanged(to string, data StatusChangedData) (Message, error) {
	return statusChangedTmpl.render(to, data)
}

type ComplaintCreatedData struct {
	Name  string
	Title string
	Link  string
}

func ComplaintCreated(to string, data ComplaintCreatedData) (Message, error) {
	return complaintCreatedTmpl.render(to, data)
}

type OTPData struct {
	Name    string
	Purpose string
	Code    string
	Minutes int
}

func OTP(to string, data OTPData) (Message, error) {
	return otpTmpl.render(to, data)
}
