package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/devconnect/pkg/mailer"
	mailtpl "github.com/oksasatya/devconnect/pkg/mailer/templates"
)

type outcome int

const (
	sent outcome = iota
	dropped
	retry
)

type worker struct {
	sender   mailer.Sender
	resolver mailtpl.GeoResolver
	logger   *logrus.Logger
}

// handle processes one queue message. Bad payloads and render failures are
// dropped; delivery failures are retried.
func (w *worker) handle(ctx context.Context, body []byte) outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.logger.WithError(err).Warn("bad message")
		return dropped
	}
	log := w.logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template})

	msg, err := renderJob(ctx, w.resolver, &job)
	if err != nil {
		log.WithError(err).Error("render failed")
		return dropped
	}

	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := w.sender.Send(c, job.To, msg.Subject, msg.Text, msg.HTML); err != nil {
		log.WithError(err).Warn("send failed, requeueing")
		return retry
	}
	log.Info("email sent")
	return sent
}
