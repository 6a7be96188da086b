package helpers

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"

	mailtpl "github.com/oksasatya/devconnect/pkg/mailer/templates"
)

type stubResolver struct {
	geo mailtpl.Geo
	err error
}

func (s stubResolver) Lookup(context.Context, string) (mailtpl.Geo, error) { return s.geo, s.err }

func TestLocalizeEmailData(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	data := map[string]any{
		"IP":        "203.0.113.5",
		"TimeAt":    at.Format(time.RFC3339),
		"ExpiresAt": at.Add(30 * time.Minute),
	}
	r := stubResolver{geo: mailtpl.Geo{City: "Jakarta", Country: "Indonesia", Timezone: "Asia/Jakarta"}}

	LocalizeEmailData(context.Background(), r, data)
	assert.Equal(t, "Jakarta, Indonesia", data["Location"])
	assert.Contains(t, data["Time"], "01 May 2024, 17:00")
	assert.Contains(t, data["ExpiresAtText"], "01 May 2024, 17:30")
}

func TestLocalizeEmailDataKeepsDataOnFailure(t *testing.T) {
	data := map[string]any{"IP": "203.0.113.5", "Location": "Somewhere", "Time": "x"}
	LocalizeEmailData(context.Background(), stubResolver{err: errors.New("down")}, data)
	assert.Equal(t, "Somewhere", data["Location"])
	assert.Equal(t, "x", data["Time"])

	noIP := map[string]any{"Time": "x"}
	LocalizeEmailData(context.Background(), stubResolver{geo: mailtpl.Geo{Timezone: "Asia/Jakarta"}}, noIP)
	assert.Equal(t, map[string]any{"Time": "x"}, noIP)
}
