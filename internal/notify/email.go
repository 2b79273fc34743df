package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

var awardEmailTmpl = template.Must(template.New("award").Funcs(template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
	"date": func(t *time.Time) string {
		if t == nil {
			return "TBD"
		}
		return t.Format("Jan 2, 2006")
	},
}).Parse(`<p>Hi {{if .RecipientName}}{{.RecipientName}}{{else}}there{{end}},</p>
<p>You have been awarded the job <strong>{{.JobTitle}}</strong>.</p>
<ul>
  <li>Company: {{.CompanyName}}</li>
  <li>Location: {{.Address}}{{if .Address}}, {{end}}{{.City}}{{if .City}}, {{end}}{{.State}}</li>
  <li>Date: {{date .MetDate}}</li>
  <li>Award amount: {{money .AwardAmount}}</li>
</ul>
{{if .Notes}}<p>Notes from the team: {{.Notes}}</p>{{end}}`))

// EmailNotifier отправляет письмо через HTTP API транзакционного почтового провайдера
// (совместим с Resend: POST /emails, ответ {"id": "..."}).
type EmailNotifier struct {
	client *resty.Client
	from   string
}

func NewEmailNotifier(baseURL, apiKey, from string) *EmailNotifier {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)
	return &EmailNotifier{client: client, from: from}
}

func (e *EmailNotifier) NotifyAward(ctx context.Context, n AwardNotice) error {
	if n.RecipientEmail == "" {
		return errors.New("award email: recipient has no email address")
	}

	var html bytes.Buffer
	if err := awardEmailTmpl.Execute(&html, n); err != nil {
		return fmt.Errorf("award email: render: %w", err)
	}

	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"from":    e.from,
			"to":      []string{n.RecipientEmail},
			"subject": "You've been awarded: " + n.JobTitle,
			"html":    html.String(),
		}).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("award email: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("award email: provider returned %d: %s",
			resp.StatusCode(), gjson.GetBytes(resp.Body(), "message").String())
	}

	log.Printf("award email for job %s sent, message id %s", n.JobID, gjson.GetBytes(resp.Body(), "id").String())
	return nil
}
