// ABOUTME: Maps a URL to the platform it was shared from
package metadata

import (
	"net/url"
	"strings"

	"github.com/harper/stash/internal/models"
)

var platformHosts = []struct {
	platform models.Platform
	hosts    []string
}{
	{models.PlatformYouTube, []string{"youtube.com", "youtu.be"}},
	{models.PlatformTikTok, []string{"tiktok.com"}},
	{models.PlatformInstagram, []string{"instagram.com"}},
}

// DetectPlatform classifies a URL by hostname. A host matches a platform when
// it equals one of the platform's domains or is a subdomain of one, so
// m.youtube.com is youtube but notyoutube.com is web. Unparseable input is web.
func DetectPlatform(rawURL string) models.Platform {
	host := Hostname(rawURL)
	if host == "" {
		return models.PlatformWeb
	}
	for _, p := range platformHosts {
		for _, domain := range p.hosts {
			if host == domain || strings.HasSuffix(host, "."+domain) {
				return p.platform
			}
		}
	}
	return models.PlatformWeb
}

// Hostname returns the lowercased host of rawURL without port, or "" when
// rawURL has none.
func Hostname(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
