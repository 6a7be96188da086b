package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Geo is the coarse location of an IP address.
type Geo struct {
	City     string
	Region   string // state/province
	Country  string
	Timezone string
}

type GeoResolver interface {
	Lookup(ctx context.Context, ip string) (Geo, error)
}

// ErrNoGeo is returned for addresses that have no public location.
var ErrNoGeo = errors.New("no geo location for address")

// FormatGeo joins the known parts as "City, Region, Country".
func FormatGeo(g Geo) string {
	var parts []string
	for _, s := range []string{g.City, g.Region, g.Country} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// IPAPIResolver looks addresses up on ip-api.com. BaseURL is overridable
// for tests.
type IPAPIResolver struct {
	Client  *http.Client
	BaseURL string
}

func (r IPAPIResolver) Lookup(ctx context.Context, ip string) (Geo, error) {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return Geo{}, ErrNoGeo
	}
	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}
	base := r.BaseURL
	if base == "" {
		base = "http://ip-api.com"
	}

	url := fmt.Sprintf("%s/json/%s?fields=status,message,country,regionName,city,timezone", strings.TrimRight(base, "/"), parsed)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Geo{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return Geo{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var body struct {
		Status     string `json:"status"`
		Message    string `json:"message"`
		Country    string `json:"country"`
		RegionName string `json:"regionName"`
		City       string `json:"city"`
		Timezone   string `json:"timezone"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Geo{}, fmt.Errorf("decode geo: %w", err)
	}
	if !strings.EqualFold(body.Status, "success") {
		return Geo{}, fmt.Errorf("geo lookup failed: %s", body.Message)
	}
	return Geo{City: body.City, Region: body.RegionName, Country: body.Country, Timezone: body.Timezone}, nil
}

type geoEntry struct {
	geo     Geo
	err     error
	expires time.Time
}

// CachedResolver remembers results, failures included, for TTL so one job
// never triggers more than one lookup per address.
type CachedResolver struct {
	Next GeoResolver
	TTL  time.Duration

	mu      sync.Mutex
	entries map[string]geoEntry
	now     func() time.Time
}

func NewCachedResolver(next GeoResolver, ttl time.Duration) *CachedResolver {
	return &CachedResolver{Next: next, TTL: ttl, entries: map[string]geoEntry{}, now: time.Now}
}

func (c *CachedResolver) Lookup(ctx context.Context, ip string) (Geo, error) {
	ip = strings.TrimSpace(ip)
	c.mu.Lock()
	e, ok := c.entries[ip]
	c.mu.Unlock()
	if ok && c.now().Before(e.expires) {
		return e.geo, e.err
	}

	g, err := c.Next.Lookup(ctx, ip)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return g, err
	}
	c.mu.Lock()
	c.entries[ip] = geoEntry{geo: g, err: err, expires: c.now().Add(c.TTL)}
	c.mu.Unlock()
	return g, err
}
