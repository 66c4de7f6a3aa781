package mailer

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"
)

const (
	SubjectVerification  = "Verify your email"
	SubjectPasswordReset = "Reset your password"
)

type templateData struct {
	AppName string
	Name    string
	Code    string
	Minutes int
	Year    int
}

const layoutHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background: #f4f6f9; margin: 0; padding: 0;">
  <div style="max-width: 600px; margin: 30px auto; background: #fff; border-radius: 12px; overflow: hidden;">
    <div style="background: #667eea; color: #fff; padding: 32px 20px; text-align: center;">
      <h1 style="margin: 0;">{{template "title" .}}</h1>
    </div>
    <div style="padding: 32px 28px; text-align: center; color: #444;">
      {{template "body" .}}
      <div style="font-size: 34px; font-weight: bold; letter-spacing: 8px; margin: 24px 0;">{{.Code}}</div>
      <p>This code expires in <strong>{{.Minutes}} minutes</strong>.</p>
    </div>
    <div style="padding: 16px; text-align: center; color: #888; font-size: 12px;">
      &copy; {{.Year}} {{.AppName}}
    </div>
  </div>
</body>
</html>`

const verificationHTML = `{{define "title"}}Email verification{{end}}
{{define "body"}}<h2>Hello {{.Name}}!</h2>
<p>Use the code below to verify your email address.</p>
<p>If you did not sign up, you can ignore this email.</p>{{end}}`

const resetHTML = `{{define "title"}}Password reset{{end}}
{{define "body"}}<h2>Hi {{.Name}},</h2>
<p>We received a request to reset your password. Use the code below.</p>
<p><strong>Didn't request this?</strong> No action is needed, your password stays unchanged.</p>{{end}}`

const verificationText = `Hello {{.Name}}!

Your verification code is: {{.Code}}

This code expires in {{.Minutes}} minutes.

If you did not sign up, you can ignore this email.
`

const resetText = `Hi {{.Name}},

Your password reset code is: {{.Code}}

This code expires in {{.Minutes}} minutes.

If you did not request this, no action is needed.
`

var (
	verificationHTMLTmpl = htmltemplate.Must(htmltemplate.Must(htmltemplate.New("layout").Parse(layoutHTML)).Parse(verificationHTML))
	resetHTMLTmpl        = htmltemplate.Must(htmltemplate.Must(htmltemplate.New("layout").Parse(layoutHTML)).Parse(resetHTML))
	verificationTextTmpl = texttemplate.Must(texttemplate.New("verification").Parse(verificationText))
	resetTextTmpl        = texttemplate.Must(texttemplate.New("reset").Parse(resetText))
)

// Composer builds the account emails for one application name.
type Composer struct {
	AppName string
	now     func() time.Time
}

func NewComposer(appName string) *Composer {
	return &Composer{AppName: appName, now: time.Now}
}

func (c *Composer) data(name, code string, ttl time.Duration) templateData {
	if strings.TrimSpace(name) == "" {
		name = "User"
	}
	return templateData{
		AppName: c.AppName,
		Name:    name,
		Code:    code,
		Minutes: int(ttl.Round(time.Minute) / time.Minute),
		Year:    c.now().Year(),
	}
}

// Verification renders the email carrying a verification OTP.
func (c *Composer) Verification(to, name, otp string, ttl time.Duration) (Message, error) {
	return render(to, SubjectVerification, verificationHTMLTmpl, verificationTextTmpl, c.data(name, otp, ttl))
}

// PasswordReset renders the email carrying a password reset OTP.
func (c *Composer) PasswordReset(to, name, otp string, ttl time.Duration) (Message, error) {
	return render(to, SubjectPasswordReset, resetHTMLTmpl, resetTextTmpl, c.data(name, otp, ttl))
}

func render(to, subject string, h *htmltemplate.Template, t *texttemplate.Template, d templateData) (Message, error) {
	var html, text bytes.Buffer
	if err := h.Execute(&html, d); err != nil {
		return Message{}, err
	}
	if err := t.Execute(&text, d); err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subject, HTML: html.String(), Text: text.String()}, nil
}
