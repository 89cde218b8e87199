// Package email sends transactional emails through Resend.
//
// Bodies are rendered from the HTML templates embedded under templates/,
// with the sprig function library available to every template.
package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/sebastianleon1-sys/Zerby2/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

// Client wraps the Resend client and the parsed templates.
type Client struct {
	client    *resend.Client
	from      string
	logger    *zerolog.Logger
	templates *template.Template
}

// NewClient parses every embedded template up front so a broken template
// fails at startup instead of inside a job.
//
// Without a Resend API key the client still renders, but SendEmail only
// logs the message.
func NewClient(cfg *config.Config, logger *zerolog.Logger) (*Client, error) {
	tmpl, err := template.New("emails").Funcs(sprig.FuncMap()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse email templates")
	}

	c := &Client{
		from:      cfg.Integration.EmailFrom,
		logger:    logger,
		templates: tmpl,
	}
	if cfg.Integration.ResendAPIKey != "" {
		c.client = resend.NewClient(cfg.Integration.ResendAPIKey)
	}
	return c, nil
}

// Enabled reports whether emails actually leave the process.
func (c *Client) Enabled() bool {
	return c.client != nil
}

// Render executes the named template with data.
func (c *Client) Render(name Template, data map[string]any) (string, error) {
	var body bytes.Buffer
	if err := c.templates.ExecuteTemplate(&body, name.File(), data); err != nil {
		return "", errors.Wrapf(err, "failed to execute email template %s", name)
	}
	return body.String(), nil
}

// SendEmail renders the template and sends it to a single recipient.
func (c *Client) SendEmail(ctx context.Context, to, subject string, name Template, data map[string]any) error {
	html, err := c.Render(name, data)
	if err != nil {
		return err
	}

	if !c.Enabled() {
		c.logger.Info().
			Str("to", to).
			Str("subject", subject).
			Str("template", string(name)).
			Msg("email delivery disabled, skipping send")
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}

	if _, err := c.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
