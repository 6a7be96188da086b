package application

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
)

// JobPublisher enqueues background jobs (email notifications).
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

func orDiscard(l *logrus.Logger) *logrus.Logger {
	if l != nil {
		return l
	}
	d := logrus.New()
	d.SetOutput(io.Discard)
	return d
}
