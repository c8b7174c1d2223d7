package nexus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Clearance is what a real browser obtained after passing a bot challenge:
// the cookies proving it, and the user agent they are bound to.
type Clearance struct {
	Cookies   []*http.Cookie
	UserAgent string
}

// ChallengeSolver obtains clearance for siteURL, typically by driving a
// headless browser through the challenge page.
type ChallengeSolver interface {
	Clearance(ctx context.Context, siteURL string) (*Clearance, error)
}

// maxBodyPeek bounds how much of an error body is read for challenge
// detection and error messages.
const maxBodyPeek = 64 << 10

var challengeMarkers = []string{
	"cf-chl",
	"challenge-platform",
	"Just a moment...",
	"cf_chl_opt",
}

// Resolver turns mod page references into time-limited direct download URLs.
// It is safe for concurrent use.
type Resolver struct {
	Client       *http.Client
	Endpoint     string
	SiteURL      string
	SessionToken string
	GameID       int
	Solver       ChallengeSolver

	sessionOnce sync.Once
	sf          singleflight.Group

	mu        sync.RWMutex
	userAgent string
	cookies   []*http.Cookie // clearance cookies, only used when Client has no jar
}

// NewResolver returns a Resolver for the public site. Solver may be nil.
func NewResolver(client *http.Client, sessionToken string, gameID int, solver ChallengeSolver) *Resolver {
	return &Resolver{
		Client:       client,
		Endpoint:     DefaultEndpoint,
		SiteURL:      DefaultSiteURL,
		SessionToken: sessionToken,
		GameID:       gameID,
		Solver:       solver,
	}
}

type generateResponse struct {
	URL string `json:"url"`
}

// Resolve issues the GenerateDownloadUrl call for the reference's file id.
//
// There is no retry here except the single re-issue after a challenge has
// been cleared. Errors are wrapped ErrMalformedReference or *ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, reference string) (string, error) {
	ref, err := ParseReference(reference)
	if err != nil {
		return "", err
	}
	r.sessionOnce.Do(r.installSession)

	direct, challenged, err := r.post(ctx, ref)
	if !challenged {
		return direct, err
	}
	if r.Solver == nil {
		return "", err
	}

	if cerr := r.clear(ctx); cerr != nil {
		return "", &ResolutionError{Kind: KindChallenge, Reference: ref.Raw, Err: cerr}
	}

	direct, _, err = r.post(ctx, ref)
	return direct, err
}

func (r *Resolver) post(ctx context.Context, ref Reference) (string, bool, error) {
	form := url.Values{}
	form.Set("fid", ref.FileID)
	form.Set("game_id", strconv.Itoa(r.GameID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", false, &ResolutionError{Kind: KindTransport, Reference: ref.Raw, Err: err}
	}
	r.decorate(req, ref.Raw)

	resp, err := r.Client.Do(req)
	if err != nil {
		return "", false, &ResolutionError{Kind: KindTransport, Reference: ref.Raw, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyPeek))
	if err != nil {
		return "", false, &ResolutionError{Kind: KindTransport, Reference: ref.Raw, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		if isChallenge(resp, body) {
			return "", true, &ResolutionError{Kind: KindChallenge, Reference: ref.Raw, Status: resp.StatusCode}
		}
		return "", false, &ResolutionError{Kind: KindStatus, Reference: ref.Raw, Status: resp.StatusCode, Err: bodyError(body)}
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", false, &ResolutionError{Kind: KindDecode, Reference: ref.Raw, Status: resp.StatusCode, Err: err}
	}
	if strings.TrimSpace(out.URL) == "" {
		return "", false, &ResolutionError{Kind: KindEmptyURL, Reference: ref.Raw, Status: resp.StatusCode}
	}
	return out.URL, false, nil
}

func (r *Resolver) decorate(req *http.Request, referer string) {
	r.mu.RLock()
	ua := r.userAgent
	cookies := r.cookies
	r.mu.RUnlock()
	if ua == "" {
		ua = UserAgent
	}

	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Origin", r.SiteURL)
	req.Header.Set("Referer", referer)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")

	if r.Client.Jar == nil {
		if r.SessionToken != "" {
			req.AddCookie(&http.Cookie{Name: SessionCookie, Value: r.SessionToken})
		}
		for _, c := range cookies {
			req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
}

// installSession puts the session token in the jar for the site and the
// endpoint host, which normally coincide.
func (r *Resolver) installSession() {
	if r.Client.Jar == nil || r.SessionToken == "" {
		return
	}
	cookie := &http.Cookie{Name: SessionCookie, Value: r.SessionToken, Path: "/"}
	for _, raw := range []string{r.SiteURL, r.Endpoint} {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			r.Client.Jar.SetCookies(u, []*http.Cookie{cookie})
		}
	}
}

// clear runs the solver once no matter how many workers hit the challenge
// at the same time.
func (r *Resolver) clear(ctx context.Context) error {
	_, err, _ := r.sf.Do("clearance", func() (any, error) {
		c, err := r.Solver.Clearance(ctx, r.SiteURL)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, errors.New("solver returned no clearance")
		}

		r.mu.Lock()
		if c.UserAgent != "" {
			r.userAgent = c.UserAgent
		}
		if r.Client.Jar == nil {
			r.cookies = c.Cookies
		}
		r.mu.Unlock()

		if r.Client.Jar != nil {
			for _, raw := range []string{r.SiteURL, r.Endpoint} {
				if u, err := url.Parse(raw); err == nil && u.Host != "" {
					r.Client.Jar.SetCookies(u, c.Cookies)
				}
			}
		}
		return nil, nil
	})
	return err
}

func isChallenge(resp *http.Response, body []byte) bool {
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusServiceUnavailable {
		return false
	}
	if strings.EqualFold(resp.Header.Get("cf-mitigated"), "challenge") {
		return true
	}
	for _, m := range challengeMarkers {
		if bytes.Contains(body, []byte(m)) {
			return true
		}
	}
	return false
}

func bodyError(body []byte) error {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return nil
	}
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return fmt.Errorf("body: %s", s)
}
