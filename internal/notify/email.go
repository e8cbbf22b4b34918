package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io"
	"net/http"
	"strings"
	texttemplate "text/template"
	"time"

	internalsettings "github.com/folio-studio/contactgate/internal/settings"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ErrMissingEmailConfig indicates the email channel is not fully configured.
var ErrMissingEmailConfig = errors.New("email notifier: missing api key, sender or recipient")

// EmailConfig configures the transactional email channel.
type EmailConfig struct {
	APIURL        string
	APIKey        string
	From          string
	To            []string
	SiteName      string
	RatePerSecond float64
	// Timeout bounds each provider call. Zero leaves the call unbounded.
	Timeout time.Duration
}

// EmailNotifier sends leads through a Resend-compatible HTTP API.
type EmailNotifier struct {
	cfg     EmailConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewEmailNotifier constructs an EmailNotifier.
func NewEmailNotifier(cfg EmailConfig, client *http.Client) (*EmailNotifier, error) {
	cfg.APIURL = strings.TrimSpace(cfg.APIURL)
	if cfg.APIURL == "" {
		cfg.APIURL = internalsettings.DefaultEmailAPIURL
	}
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.From) == "" || len(cfg.To) == 0 {
		return nil, ErrMissingEmailConfig
	}
	if strings.TrimSpace(cfg.SiteName) == "" {
		cfg.SiteName = internalsettings.DefaultSiteName
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = internalsettings.DefaultEmailRatePerSecond
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &EmailNotifier{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
	}, nil
}

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

// Send delivers the lead. Waiting for a send slot honors ctx.
func (n *EmailNotifier) Send(ctx context.Context, lead Lead) error {
	if errWait := n.limiter.Wait(ctx); errWait != nil {
		return fmt.Errorf("email notifier: wait for send slot: %w", errWait)
	}

	htmlBody, textBody, errRender := renderLead(lead, n.cfg.SiteName)
	if errRender != nil {
		return errRender
	}
	payload, errMarshal := json.Marshal(emailRequest{
		From:    n.cfg.From,
		To:      n.cfg.To,
		ReplyTo: lead.Email,
		Subject: fmt.Sprintf("[%s] New lead: %s (%s)", n.cfg.SiteName, lead.Name, lead.BusinessType),
		HTML:    htmlBody,
		Text:    textBody,
	})
	if errMarshal != nil {
		return fmt.Errorf("email notifier: marshal request: %w", errMarshal)
	}

	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.APIURL, bytes.NewReader(payload))
	if errReq != nil {
		return fmt.Errorf("email notifier: build request: %w", errReq)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.cfg.APIKey)
	if lead.Reference != "" {
		req.Header.Set("Idempotency-Key", lead.Reference)
	}

	resp, errDo := n.client.Do(req)
	if errDo != nil {
		return fmt.Errorf("email notifier: request failed: %w", errDo)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.WithError(errClose).Warn("email notifier: close response body failed")
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("email notifier: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

var leadHTML = htmltemplate.Must(htmltemplate.New("lead").Parse(`<h2>New lead from {{.Site}}</h2>
<table cellpadding="4">
<tr><td><strong>Name</strong></td><td>{{.Lead.Name}}</td></tr>
<tr><td><strong>Email</strong></td><td><a href="mailto:{{.Lead.Email}}">{{.Lead.Email}}</a></td></tr>
<tr><td><strong>Phone</strong></td><td>{{.Lead.Phone}}</td></tr>
<tr><td><strong>Business type</strong></td><td>{{.Lead.BusinessType}}</td></tr>
<tr><td><strong>Has website</strong></td><td>{{.Lead.HasWebsite}}</td></tr>
<tr><td><strong>Goals</strong></td><td style="white-space:pre-wrap">{{.Lead.Goals}}</td></tr>
</table>
<p style="color:#666;font-size:12px">Received {{.Lead.SubmittedAtDisplay}}{{if .Lead.Identity}} from {{.Lead.Identity}}{{end}} · ref {{.Lead.Reference}}{{if .Lead.Lang}} · lang {{.Lead.Lang}}{{end}}</p>
`))

var leadText = texttemplate.Must(texttemplate.New("lead").Parse(`New lead from {{.Site}}

Name: {{.Lead.Name}}
Email: {{.Lead.Email}}
Phone: {{.Lead.Phone}}
Business type: {{.Lead.BusinessType}}
Has website: {{.Lead.HasWebsite}}

Goals:
{{.Lead.Goals}}

Received {{.Lead.SubmittedAtDisplay}}{{if .Lead.Identity}} from {{.Lead.Identity}}{{end}} (ref {{.Lead.Reference}})
`))

func renderLead(lead Lead, site string) (string, string, error) {
	data := struct {
		Site string
		Lead Lead
	}{Site: site, Lead: lead}

	var htmlBuf, textBuf bytes.Buffer
	if errHTML := leadHTML.Execute(&htmlBuf, data); errHTML != nil {
		return "", "", fmt.Errorf("email notifier: render html: %w", errHTML)
	}
	if errText := leadText.Execute(&textBuf, data); errText != nil {
		return "", "", fmt.Errorf("email notifier: render text: %w", errText)
	}
	return htmlBuf.String(), textBuf.String(), nil
}
