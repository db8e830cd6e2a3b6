// Package privacy scrubs messages before they leave the process: URLs are
// reduced to a stable anonymous token and photo positions are masked.
package privacy

import (
	"crypto/sha256"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

// CoordinatesMask replaces a position found in a message.
const CoordinatesMask = "[coordinates]"

var (
	urlPattern = regexp.MustCompile(`\bhttps?://\S+`)

	// "39.9042, 116.4074" as logged by the geocoder
	coordinatePairPattern = regexp.MustCompile(`-?\d{1,2}\.\d+\s*,\s*-?\d{1,3}\.\d+`)

	// "北纬39.9000°" as written into classifier prompts
	chineseCoordinatePattern = regexp.MustCompile(`[北南]纬\d+(?:\.\d+)?°|[东西]经\d+(?:\.\d+)?°`)
)

// ScrubMessage anonymizes URLs and masks GPS positions in message.
func ScrubMessage(message string) string {
	message = urlPattern.ReplaceAllStringFunc(message, AnonymizeURL)
	message = coordinatePairPattern.ReplaceAllString(message, CoordinatesMask)
	return chineseCoordinatePattern.ReplaceAllString(message, CoordinatesMask)
}

// AnonymizeURL replaces a URL with a hash of its shape: scheme, host kind,
// port and path structure. Credentials and the query string never
// contribute, so reverse geocoding URLs of different positions map to the
// same token.
func AnonymizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		hash := sha256.Sum256([]byte(rawURL))
		return fmt.Sprintf("url-hash-%x", hash[:8])
	}

	var parts []string
	if u.Scheme != "" {
		parts = append(parts, u.Scheme)
	}
	if host := u.Hostname(); host != "" {
		parts = append(parts, categorizeHost(host))
	}
	if u.Port() != "" {
		parts = append(parts, "port-"+u.Port())
	}
	if u.Path != "" && u.Path != "/" {
		parts = append(parts, anonymizePath(u.Path))
	}

	hash := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("url-%x", hash[:12])
}

// categorizeHost keeps only the kind of host: loopback, private or public
// address, or the top level domain of a name.
func categorizeHost(host string) string {
	if host == "localhost" {
		return "localhost"
	}
	if ip := net.ParseIP(host); ip != nil {
		switch {
		case ip.IsLoopback():
			return "localhost"
		case ip.IsPrivate(), ip.IsLinkLocalUnicast():
			return "private-ip"
		}
		return "public-ip"
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		return "domain-" + parts[len(parts)-1]
	}
	return "unknown-host"
}

// anonymizePath hashes each path segment, keeping the structure.
func anonymizePath(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return "root"
	}

	var segments []string
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			continue
		}
		if isNumeric(segment) {
			segments = append(segments, "numeric")
			continue
		}
		hash := sha256.Sum256([]byte(segment))
		segments = append(segments, fmt.Sprintf("seg-%x", hash[:4]))
	}
	return strings.Join(segments, "/")
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
