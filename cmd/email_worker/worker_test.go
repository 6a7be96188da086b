package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/devconnect/pkg/mailer"
)

type fakeSender struct {
	err  error
	sent []string
}

func (f *fakeSender) Send(_ context.Context, to, subject, _, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to+"|"+subject)
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestWorkerHandle(t *testing.T) {
	body, err := json.Marshal(mailer.EmailJob{To: "a@example.com", Subject: "hi", Text: "body"})
	require.NoError(t, err)

	s := &fakeSender{}
	w := &worker{sender: s, logger: quietLogger()}
	assert.Equal(t, sent, w.handle(context.Background(), body))
	assert.Equal(t, []string{"a@example.com|hi"}, s.sent)

	assert.Equal(t, dropped, w.handle(context.Background(), []byte("{")))
	assert.Equal(t, dropped, w.handle(context.Background(), []byte(`{"to":"a@example.com"}`)))

	s.err = errors.New("mailgun down")
	assert.Equal(t, retry, w.handle(context.Background(), body))
}
