package transfer

import (
	"net/http"
	"net/url"
	"testing"
)

func TestFilenameFromResponse(t *testing.T) {
	tests := []struct {
		name      string
		cd        string
		url       string
		requested string
		want      string
	}{
		{"quoted", `attachment; filename="A B.7z"`, "https://h/x.bin", "r", "A B.7z"},
		{"unquoted", `attachment; filename=plain.zip`, "https://h/x.bin", "r", "plain.zip"},
		{"malformed", `attachment; filename=has space.rar; size=1`, "https://h/x.bin", "r", "has space.rar"},
		{"traversal", `attachment; filename="../../etc/passwd"`, "https://h/x.bin", "r", "passwd"},
		{"url fallback", "", "https://h/dir/From%20URL.zip?q=1", "r", "From URL.zip"},
		{"requested fallback", "", "https://h/", "req.zip", "req.zip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.url)
			if err != nil {
				t.Fatal(err)
			}
			resp := &http.Response{Header: http.Header{}, Request: &http.Request{URL: u}}
			if tt.cd != "" {
				resp.Header.Set("Content-Disposition", tt.cd)
			}
			if got := FilenameFromResponse(resp, tt.requested); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
