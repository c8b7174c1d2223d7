package nexus

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrMalformedReference marks a work item whose page URL carries no file id.
var ErrMalformedReference = errors.New("malformed reference")

var fileIDPattern = regexp.MustCompile(`file_id=(\d+)`)

// Reference is a mod page URL of the form
// https://www.nexusmods.com/{game}/mods/{mod_id}?tab=files&file_id={file_id}.
type Reference struct {
	Raw    string
	Game   string // game domain name, empty when the path is not a mod page
	ModID  string
	FileID string
}

// ParseReference extracts the numeric file id (required) and, when the path
// has the usual shape, the game domain and mod id.
func ParseReference(raw string) (Reference, error) {
	ref := Reference{Raw: strings.TrimSpace(raw)}

	m := fileIDPattern.FindStringSubmatch(ref.Raw)
	if m == nil {
		return ref, fmt.Errorf("%w: no file_id in %q", ErrMalformedReference, raw)
	}
	ref.FileID = m[1]

	if u, err := url.Parse(ref.Raw); err == nil {
		segs := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(segs) >= 3 && segs[1] == "mods" {
			ref.Game = strings.ToLower(segs[0])
			ref.ModID = segs[2]
		}
	}
	return ref, nil
}

// GameDomain returns the game domain of a page URL, or "" if it has none.
func GameDomain(raw string) string {
	ref, err := ParseReference(raw)
	if err != nil {
		u, perr := url.Parse(strings.TrimSpace(raw))
		if perr != nil {
			return ""
		}
		segs := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(segs) >= 2 && segs[1] == "mods" {
			return strings.ToLower(segs[0])
		}
		return ""
	}
	return ref.Game
}
