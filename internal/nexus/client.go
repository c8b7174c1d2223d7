package nexus

import (
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"
)

const (
	DefaultSiteURL  = "https://www.nexusmods.com"
	DefaultEndpoint = DefaultSiteURL + "/Core/Libs/Common/Managers/Downloads?GenerateDownloadUrl"
	DefaultGraphQL  = "https://api-router.nexusmods.com/graphql"

	SessionCookie = "nexusmods_session"

	// UserAgent is sent until a challenge solver hands over the real browser's.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36"
)

// NewClient builds the HTTP client used for API calls: a public-suffix aware
// cookie jar, so clearance cookies set on the site domain are replayed, and an
// overall timeout per request.
func NewClient(timeout time.Duration) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
	}

	return &http.Client{
		Jar:       jar,
		Transport: transport,
		Timeout:   timeout,
	}, nil
}
