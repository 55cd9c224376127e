package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// Summarize reduces a raw User-Agent header to a coarse "browser/os" label
// for audit enrichment. Raw user agents are near-unique per client and would
// turn the trail into a fingerprint store; the summary keeps just enough to
// spot anomalies.
func Summarize(raw string) string {
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	if ua.Bot() {
		return "bot"
	}
	name, _ := ua.Browser()
	os := ua.OSInfo().Name
	parts := make([]string, 0, 2)
	if name != "" {
		parts = append(parts, name)
	}
	if os != "" {
		parts = append(parts, os)
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, "/")
}
