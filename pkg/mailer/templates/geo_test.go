package templates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatGeo(t *testing.T) {
	assert.Equal(t, "Bandung, West Java, Indonesia", FormatGeo(Geo{City: "Bandung", Region: "West Java", Country: "Indonesia"}))
	assert.Equal(t, "Indonesia", FormatGeo(Geo{City: " ", Country: "Indonesia"}))
}

func TestIPAPIResolver(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "/json/203.0.113.5", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"success","country":"Indonesia","regionName":"Jakarta","city":"Jakarta","timezone":"Asia/Jakarta"}`))
	}))
	defer srv.Close()

	r := IPAPIResolver{Client: srv.Client(), BaseURL: srv.URL}
	g, err := r.Lookup(context.Background(), "203.0.113.5")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", g.Timezone)

	_, err = r.Lookup(context.Background(), "192.168.1.10")
	assert.ErrorIs(t, err, ErrNoGeo)
	_, err = r.Lookup(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrNoGeo)
	assert.Equal(t, 1, hits)
}

type countingResolver struct {
	calls int
	err   error
}

func (c *countingResolver) Lookup(context.Context, string) (Geo, error) {
	c.calls++
	return Geo{Country: "Indonesia"}, c.err
}

func TestCachedResolver(t *testing.T) {
	next := &countingResolver{}
	c := NewCachedResolver(next, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		g, err := c.Lookup(context.Background(), "203.0.113.5")
		require.NoError(t, err)
		assert.Equal(t, "Indonesia", g.Country)
	}
	assert.Equal(t, 1, next.calls)

	now = now.Add(2 * time.Minute)
	_, _ = c.Lookup(context.Background(), "203.0.113.5")
	assert.Equal(t, 2, next.calls)

	next.err = errors.New("down")
	_, err := c.Lookup(context.Background(), "198.51.100.1")
	assert.Error(t, err)
	_, err = c.Lookup(context.Background(), "198.51.100.1")
	assert.Error(t, err)
	assert.Equal(t, 3, next.calls)
}
