package sanitizer

import (
	"net/url"
	"strings"
)

// NormalizeCalendarURL cleans up a calendar feed URL as pasted by a user.
// Calendar apps hand out webcal:// links for what is an HTTPS resource, so
// that scheme is rewritten. Anything that does not parse as an http(s) URL
// with a host comes back empty.
func NormalizeCalendarURL(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}

	if after, ok := strings.CutPrefix(s, "webcal://"); ok {
		s = "https://" + after
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "https://" + s
	}

	// Hostname, not Host: "://" parses with Host ":" but no hostname.
	u, err := url.Parse(s)
	if err != nil || u.Hostname() == "" {
		return ""
	}

	u.Host = strings.ToLower(u.Host)
	return u.String()
}
