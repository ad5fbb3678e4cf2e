// Package device condenses a raw User-Agent header into a stable, compact
// summary suitable for audit records. Raw UA strings are long, noisy, and can
// carry enough entropy to fingerprint individuals; the summary keeps just
// browser family, major version, OS and form factor.
package device

import (
	"fmt"
	"strings"

	"github.com/mssola/useragent"
)

// Summarize reduces a User-Agent string to "browser/major os platform".
// Returns "unknown" for empty input so audit rows never carry blanks.
func Summarize(userAgentString string) string {
	if strings.TrimSpace(userAgentString) == "" {
		return "unknown"
	}

	ua := useragent.New(userAgentString)
	browser, version := ua.Browser()

	majorVersion := "unknown"
	if version != "" {
		parts := strings.Split(version, ".")
		if len(parts) > 0 && parts[0] != "" {
			majorVersion = parts[0]
		}
	}

	os := ua.OS()
	platform := "desktop"
	if ua.Mobile() {
		platform = "mobile"
	} else if ua.Bot() {
		platform = "bot"
	}

	browser = strings.ToLower(strings.TrimSpace(browser))
	if browser == "" {
		browser = "unknown"
	}
	os = strings.ToLower(strings.TrimSpace(os))
	if os == "" {
		os = "unknown"
	}

	return fmt.Sprintf("%s/%s %s %s", browser, majorVersion, os, platform)
}
