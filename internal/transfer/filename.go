package transfer

import (
	"mime"
	"net/http"
	"path"
	"regexp"
	"strings"
)

var quotedFilename = regexp.MustCompile(`filename="([^"]+)"`)

// FilenameFromResponse picks the name a download should be stored under:
// the Content-Disposition filename, else the last segment of the final
// request URL, else requested. The result is always a bare base name.
func FilenameFromResponse(resp *http.Response, requested string) string {
	if name := dispositionFilename(resp.Header.Get("Content-Disposition")); name != "" {
		return name
	}
	if resp.Request != nil && resp.Request.URL != nil {
		if name := sanitize(path.Base(resp.Request.URL.Path)); name != "" {
			return name
		}
	}
	return sanitize(requested)
}

func dispositionFilename(cd string) string {
	if cd == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(cd); err == nil {
		if name := sanitize(params["filename"]); name != "" {
			return name
		}
	}
	// Servers do send malformed headers, e.g. unquoted names with spaces.
	if m := quotedFilename.FindStringSubmatch(cd); m != nil {
		if name := sanitize(m[1]); name != "" {
			return name
		}
	}
	if i := strings.LastIndex(cd, "filename="); i >= 0 {
		raw := cd[i+len("filename="):]
		if j := strings.IndexByte(raw, ';'); j >= 0 {
			raw = raw[:j]
		}
		return sanitize(strings.Trim(strings.TrimSpace(raw), `"`))
	}
	return ""
}

// sanitize strips any directory part so a hostile header cannot write
// outside the destination directory.
func sanitize(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return ""
	}
	name = path.Base(name)
	switch name {
	case ".", "..", "/":
		return ""
	}
	return name
}
