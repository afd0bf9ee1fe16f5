package notify

import (
	"bytes"
	"html/template"
	"strings"
)

const footer = `<hr>
<p style="color: #666; font-size: 12px;">This is an automated notification from {{.Brand}}.</p>`

var (
	newChatTmpl = template.Must(template.New("new_chat").Parse(`<h2>New Chat Session Alert</h2>
<p>A new chat session has been created on the {{.Brand}} platform.</p>
<p><strong>Session ID:</strong> {{.SessionID}}</p>
<p><strong>Customer ID:</strong> {{.CustomerID}}</p>
<p><strong>Status:</strong> Pending</p>
<p>Please log into the admin dashboard to respond to this customer.</p>
` + footer))

	newMessageTmpl = template.Must(template.New("new_message").Parse(`<h2>New Message from Customer</h2>
<p>You have received a new message from a customer.</p>
<p><strong>Session ID:</strong> {{.SessionID}}</p>
<p><strong>Customer ID:</strong> {{.CustomerID}}</p>
<p><strong>Message:</strong></p>
<div style="background: #f5f5f5; padding: 15px; border-left: 4px solid #0d9488; margin: 10px 0;">{{.Content}}</div>
<p>Please log into the admin dashboard to respond.</p>
` + footer))

	newReviewTmpl = template.Must(template.New("new_review").Parse(`<h2>New Review Alert</h2>
<p>A new review has been submitted on the {{.Brand}} platform.</p>
<p><strong>Review ID:</strong> {{.ReviewID}}</p>
<p><strong>Rating:</strong> {{.Rating}}/5 {{.Stars}}</p>
{{if .Text}}<p><strong>Review Text:</strong></p>
<div style="background: #f5f5f5; padding: 15px; border-left: 4px solid #0d9488; margin: 10px 0;">{{.Text}}</div>
{{else}}<p><em>No review text provided.</em></p>
{{end}}<p><strong>Status:</strong> Pending Approval</p>
<p>Please log into the admin dashboard to review and approve this review.</p>
` + footer))
)

type mailData struct {
	Brand      string
	SessionID  string
	CustomerID string
	Content    string
	ReviewID   string
	Rating     int
	Stars      string
	Text       string
}

func render(t *template.Template, d mailData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func stars(n int) string {
	if n < 0 {
		n = 0
	}
	return strings.Repeat("⭐", n)
}
