package browser

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
)

func TestToHTTPCookies(t *testing.T) {
	in := []*proto.NetworkCookie{
		{Name: "cf_clearance", Value: "abc", Domain: ".nexusmods.com", Path: "/", Secure: true, HTTPOnly: true, Session: true},
		{Name: "other", Value: "v", Domain: "www.nexusmods.com", Path: "/", Expires: 1900000000},
	}
	out := toHTTPCookies(in)
	if len(out) != 2 {
		t.Fatalf("len = %d", len(out))
	}
	if out[0].Name != "cf_clearance" || !out[0].Secure || !out[0].HttpOnly || !out[0].Expires.IsZero() {
		t.Errorf("session cookie = %+v", out[0])
	}
	if out[1].Expires.Unix() != 1900000000 {
		t.Errorf("expires = %v", out[1].Expires)
	}
}

func TestCookieValue(t *testing.T) {
	cookies := []*proto.NetworkCookie{
		{Name: "nexusmods_session", Value: ""},
		{Name: "x", Value: "1"},
		{Name: "nexusmods_session", Value: "tok"},
	}
	if got := cookieValue(cookies, "nexusmods_session"); got != "tok" {
		t.Errorf("cookieValue = %q", got)
	}
	if got := cookieValue(cookies, "missing"); got != "" {
		t.Errorf("cookieValue = %q", got)
	}
}

func TestOpenCommand(t *testing.T) {
	cases := []struct {
		goos string
		name string
	}{
		{"linux", "xdg-open"},
		{"freebsd", "xdg-open"},
		{"darwin", "open"},
		{"windows", "rundll32"},
	}
	for _, tc := range cases {
		name, args := openCommand(tc.goos, "https://example.com/x")
		if name != tc.name {
			t.Errorf("%s: command = %s, want %s", tc.goos, name, tc.name)
		}
		if args[len(args)-1] != "https://example.com/x" {
			t.Errorf("%s: url not last argument: %v", tc.goos, args)
		}
	}
}
