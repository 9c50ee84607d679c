package relay

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// The relay intentionally allows all public domains; protection is against
// server-side request forgery, not a whitelist. Localhost, private ranges and
// cloud metadata services are the targets a hostile snippet would aim at.

var dangerousHosts = map[string]struct{}{
	"localhost":                 {},
	"127.0.0.1":                 {},
	"0.0.0.0":                   {},
	"[::1]":                     {},
	"::1":                       {},
	"169.254.169.254":           {}, // AWS EC2 metadata service
	"metadata.google.internal":  {}, // GCP metadata service
	"metadata":                  {},
	"metadata.azure.com":        {}, // Azure metadata service
}

// privateIPPatterns covers RFC 1918 / RFC 4193 ranges plus loopback forms.
var privateIPPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^10\.`),
	regexp.MustCompile(`^172\.(1[6-9]|2[0-9]|3[01])\.`),
	regexp.MustCompile(`^192\.168\.`),
	regexp.MustCompile(`^fc00:`),
	regexp.MustCompile(`^fe80:`),
	regexp.MustCompile(`^::1$`),
	regexp.MustCompile(`^0\.0\.0\.0`),
	regexp.MustCompile(`^127\.`),
}

// Hex, octal and decimal spellings of loopback addresses.
var obfuscatedIPPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^0x7f`),
	regexp.MustCompile(`^0177`),
	regexp.MustCompile(`^2130706433`),
}

var metadataKeywords = []string{"metadata", "meta-data", "instance-data"}

// checkURLSafety reports whether target is safe to proxy. The message
// explains a rejection; it is safe to return to the caller.
func checkURLSafety(target string) (bool, string) {
	if target == "" {
		return false, "URL is required"
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return false, "Only HTTP and HTTPS protocols are allowed"
	}
	parsed, err := url.Parse(target)
	if err != nil {
		return false, fmt.Sprintf("Invalid URL format: %v", err)
	}
	hostname := strings.ToLower(parsed.Hostname())
	if hostname == "" {
		return false, "URL must contain a valid hostname"
	}
	if _, ok := dangerousHosts[hostname]; ok {
		return false, fmt.Sprintf("Access to %s is blocked for security reasons", hostname)
	}
	if strings.Contains(hostname, "localhost") {
		return false, "Access to localhost is blocked for security reasons"
	}
	for _, kw := range metadataKeywords {
		if strings.Contains(hostname, kw) {
			return false, "Access to metadata services is blocked for security reasons"
		}
	}
	for _, re := range privateIPPatterns {
		if re.MatchString(hostname) {
			return false, "Access to private IP addresses is blocked for security reasons"
		}
	}
	for _, re := range obfuscatedIPPatterns {
		if re.MatchString(hostname) {
			return false, "Suspicious IP address format blocked"
		}
	}
	// An all-digit hostname with more than four octets is a rebinding trick.
	if strings.Count(hostname, ".") > 3 {
		if regexp.MustCompile(`^[0-9.]+$`).MatchString(hostname) {
			return false, "Invalid IP address format"
		}
	}
	return true, "URL passed security validation"
}

// isLocalhostURL reports whether target points at a local address; dev mode
// permits these for testing against a local API.
func isLocalhostURL(target string) bool {
	lower := strings.ToLower(target)
	for _, host := range []string{"localhost", "127.0.0.1", "0.0.0.0"} {
		if strings.Contains(lower, host) {
			return true
		}
	}
	return false
}

// checkHeaders rejects header injection attempts and oversized entries.
func checkHeaders(headers map[string]string) (bool, string) {
	for k, v := range headers {
		if strings.ContainsAny(k, "\r\n") {
			return false, "Invalid characters in header name"
		}
		if strings.ContainsAny(v, "\r\n") {
			return false, "Invalid characters in header value"
		}
		if len(k) > 1000 || len(v) > 10000 {
			return false, "Header name or value too long"
		}
	}
	return true, "Headers validated successfully"
}
