// Package device derives display names and coarse fingerprints from the
// User-Agent header. Sessions record both so the Logs page can show where a
// login came from.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mssola/useragent"
)

const unknownDevice = "Unknown Device"

type Service struct {
	enabled bool
}

// NewService returns a fingerprinting service. A disabled service yields empty
// fingerprints, which never drift.
func NewService(enabled bool) *Service {
	return &Service{enabled: enabled}
}

// ParseUserAgent returns "<browser> on <os>" for display.
func ParseUserAgent(ua string) string {
	ua = strings.TrimSpace(ua)
	if ua == "" {
		return unknownDevice
	}
	parsed := useragent.New(ua)
	browser, _ := parsed.Browser()
	if browser == "" {
		browser = "Unknown"
	}
	os := parsed.OS()
	if os == "" {
		os = parsed.Platform()
	}
	if os == "" {
		os = "Unknown"
	}
	return strings.TrimSpace(browser + " on " + os)
}

// ComputeFingerprint hashes browser family, major version, OS and the mobile
// flag. Minor browser updates keep the same fingerprint.
func (s *Service) ComputeFingerprint(ua string) string {
	if !s.enabled {
		return ""
	}
	parsed := useragent.New(ua)
	browser, version := parsed.Browser()
	major, _, _ := strings.Cut(version, ".")
	mobile := "desktop"
	if parsed.Mobile() {
		mobile = "mobile"
	}
	sum := sha256.Sum256([]byte(strings.Join([]string{browser, major, parsed.OS(), parsed.Platform(), mobile}, "|")))
	return hex.EncodeToString(sum[:])
}
