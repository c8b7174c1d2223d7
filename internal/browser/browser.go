package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"modlist-downloader/internal/i18n"
	"modlist-downloader/internal/logger"
	"modlist-downloader/internal/nexus"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// ClearanceCookie is set by the challenge page once the browser has passed it.
const ClearanceCookie = "cf_clearance"

var ErrBrowserClosed = errors.New("browser closed before the session cookie appeared")

// Manager owns one Chrome instance driven over the DevTools protocol.
type Manager struct {
	Browser *rod.Browser
	DataDir string // perfil persistente: cookies y sesión sobreviven entre ejecuciones
	router  *rod.HijackRouter
}

// New launches Chrome (the system binary when there is one, a downloaded
// build otherwise) and connects to it.
func New(userDataDir string, headless bool) (*Manager, error) {
	l := newLauncher(userDataDir, headless)
	if path, ok := launcher.LookPath(); ok {
		logger.Debug(i18n.T("browser_system"), path)
		l = l.Bin(path)
	}

	controlURL, err := l.Launch()
	if err != nil {
		logger.Info(i18n.T("browser_download_fail"))
		controlURL, err = newLauncher(userDataDir, headless).Launch()
		if err != nil {
			return nil, fmt.Errorf("launching browser: %w", err)
		}
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	// Challenge pages only need the document and scripts; skip heavy assets.
	router := b.HijackRequests()
	for _, rt := range []proto.NetworkResourceType{
		proto.NetworkResourceTypeImage,
		proto.NetworkResourceTypeMedia,
		proto.NetworkResourceTypeFont,
	} {
		if err := router.Add("*", rt, func(h *rod.Hijack) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		}); err != nil {
			b.Close()
			return nil, fmt.Errorf("installing request filter: %w", err)
		}
	}
	go router.Run()

	return &Manager{Browser: b, DataDir: userDataDir, router: router}, nil
}

func newLauncher(userDataDir string, headless bool) *launcher.Launcher {
	l := launcher.New().
		Headless(headless).
		Set("lang", "en-US").
		Devtools(false).
		Set("disable-blink-features", "AutomationControlled"). // Ocultar que es un bot
		Set("exclude-switches", "enable-automation").
		Set("use-automation-extension", "false")
	if userDataDir != "" {
		l = l.UserDataDir(userDataDir)
	}
	if !headless {
		l = l.Set("start-maximized")
	}
	return l
}

// Close stops request interception and the browser.
func (m *Manager) Close() {
	if m.router != nil {
		_ = m.router.Stop()
	}
	if m.Browser != nil {
		_ = m.Browser.Close()
	}
}

// Clearance opens siteURL in a stealth page, waits for any bot challenge to
// resolve and returns the resulting cookies with the browser's user agent.
func (m *Manager) Clearance(ctx context.Context, siteURL string) (*nexus.Clearance, error) {
	page, err := stealth.Page(m.Browser)
	if err != nil {
		return nil, fmt.Errorf("opening stealth page: %w", err)
	}
	defer page.Close()
	page = page.Context(ctx)

	logger.Debug(i18n.T("browser_solving"), siteURL)
	if err := page.Navigate(siteURL); err != nil {
		return nil, fmt.Errorf("navigating to %s: %w", siteURL, err)
	}
	_ = page.WaitLoad()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	deadline := time.After(60 * time.Second)

	for {
		cookies, err := page.Cookies([]string{siteURL})
		if err != nil {
			return nil, fmt.Errorf("reading cookies: %w", err)
		}
		if passed(page, cookies) {
			ua, err := page.Eval(`() => navigator.userAgent`)
			if err != nil {
				return nil, fmt.Errorf("reading user agent: %w", err)
			}
			logger.Debug(i18n.T("browser_solved"), len(cookies))
			return &nexus.Clearance{
				Cookies:   toHTTPCookies(cookies),
				UserAgent: ua.Value.Str(),
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, errors.New("challenge not solved within 60s")
		case <-ticker.C:
		}
	}
}

func passed(page *rod.Page, cookies []*proto.NetworkCookie) bool {
	for _, c := range cookies {
		if c.Name == ClearanceCookie {
			return true
		}
	}
	info, err := page.Info()
	if err != nil {
		return false
	}
	return info.Title != "" && !strings.Contains(info.Title, "Just a moment")
}

// CaptureSession opens siteURL in a visible window and waits until the user
// has signed in and cookieName is set, or the window is closed.
func (m *Manager) CaptureSession(ctx context.Context, siteURL, cookieName string) (string, error) {
	page, err := m.Browser.Page(proto.TargetCreateTarget{URL: siteURL})
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", siteURL, err)
	}
	_ = page.WaitLoad()

	fmt.Println(i18n.T("browser_nav_open"))
	fmt.Println(i18n.T("browser_nav_close"))

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		cookies, err := m.Browser.GetCookies()
		if err != nil {
			// La ventana se cerró
			return "", ErrBrowserClosed
		}
		if v := cookieValue(cookies, cookieName); v != "" {
			return v, nil
		}
	}
}

func cookieValue(cookies []*proto.NetworkCookie, name string) string {
	for _, c := range cookies {
		if c.Name == name && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

func toHTTPCookies(in []*proto.NetworkCookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(in))
	for _, c := range in {
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		if !c.Session && c.Expires > 0 {
			hc.Expires = c.Expires.Time()
		}
		out = append(out, hc)
	}
	return out
}

// Solver launches a headless browser on first use and keeps it for later
// challenges. It satisfies nexus.ChallengeSolver.
type Solver struct {
	DataDir  string
	Headless bool

	mu      sync.Mutex
	manager *Manager
}

func NewSolver(dataDir string, headless bool) *Solver {
	return &Solver{DataDir: dataDir, Headless: headless}
}

func (s *Solver) Clearance(ctx context.Context, siteURL string) (*nexus.Clearance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.manager == nil {
		m, err := New(s.DataDir, s.Headless)
		if err != nil {
			return nil, err
		}
		s.manager = m
	}
	return s.manager.Clearance(ctx, siteURL)
}

// Close shuts the browser down if it was ever started.
func (s *Solver) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.manager != nil {
		s.manager.Close()
		s.manager = nil
	}
}
