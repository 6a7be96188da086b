package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/oksasatya/devconnect/pkg/helpers"
	"github.com/oksasatya/devconnect/pkg/mailer"
	mailtpl "github.com/oksasatya/devconnect/pkg/mailer/templates"
)

type message struct {
	Subject string
	Text    string
	HTML    string
}

// renderJob normalizes the job and renders its template. Jobs without a
// template are sent as given.
func renderJob(ctx context.Context, resolver mailtpl.GeoResolver, job *mailer.EmailJob) (message, error) {
	helpers.EnsureRecipientAndEmail(job)
	helpers.MapLegacyToUniversal(job)
	helpers.LocalizeEmailData(ctx, resolver, job.Data)

	msg := message{Subject: job.Subject, Text: job.Text, HTML: job.HTML}
	if job.Template == "" {
		if msg.Subject == "" || (msg.Text == "" && msg.HTML == "") {
			return message{}, fmt.Errorf("job for %s has neither template nor content", job.To)
		}
		return msg, nil
	}

	if strings.EqualFold(job.Template, mailtpl.Universal) {
		html, err := mailtpl.RenderHTML(mailtpl.Universal, job.Data)
		if err != nil {
			return message{}, fmt.Errorf("render universal: %w", err)
		}
		msg.HTML = html
		msg.Subject = helpers.SubjectForUniversal(job.Data)
		return msg, nil
	}

	s, t, h, err := mailtpl.Render(job.Template, job.Data)
	if err != nil {
		return message{}, fmt.Errorf("render %s: %w", job.Template, err)
	}
	msg.Subject, msg.Text, msg.HTML = s, t, h
	return msg, nil
}
