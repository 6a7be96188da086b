package helpers

import (
	"context"
	"fmt"
	"strings"
	"time"

	mailtpl "github.com/oksasatya/devconnect/pkg/mailer/templates"
)

const localTimeLayout = "02 January 2006, 15:04 MST"

// localTimeFields maps a timestamp key of email data to the display key
// that receives its localized text.
var localTimeFields = map[string]string{
	"ExpiresAt": "ExpiresAtText",
	"TimeAt":    "Time",
}

// LocalizeEmailData uses data["IP"] to fill data["Location"] when it is
// missing and to render the display times in the requester's timezone.
// Lookup failures leave data unchanged.
func LocalizeEmailData(ctx context.Context, resolver mailtpl.GeoResolver, data map[string]any) {
	if resolver == nil || data == nil {
		return
	}
	ip := strings.TrimSpace(fmt.Sprint(data["IP"]))
	if ip == "" || ip == "<nil>" {
		return
	}
	g, err := resolver.Lookup(ctx, ip)
	if err != nil {
		return
	}
	if loc, _ := data["Location"].(string); strings.TrimSpace(loc) == "" {
		if s := mailtpl.FormatGeo(g); s != "" {
			data["Location"] = s
		}
	}
	if strings.TrimSpace(g.Timezone) == "" {
		return
	}
	tz, err := time.LoadLocation(g.Timezone)
	if err != nil {
		return
	}
	for src, dst := range localTimeFields {
		if t, ok := parseTimeAny(data[src]); ok {
			data[dst] = t.In(tz).Format(localTimeLayout)
		}
	}
}

func parseTimeAny(v any) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return x, !x.IsZero()
	}
	s := fmt.Sprint(v)
	for _, l := range []string{time.RFC3339Nano, "2006-01-02 15:04:05 -0700 MST", "2006-01-02 15:04:05 -0700"} {
		if t, err := time.Parse(l, s); err == nil && !t.IsZero() {
			return t, true
		}
	}
	return time.Time{}, false
}
