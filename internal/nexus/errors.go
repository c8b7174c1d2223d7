package nexus

import "fmt"

// Kind classifies why a download link could not be resolved.
type Kind int

const (
	KindTransport Kind = iota // timeout, DNS, connection reset
	KindStatus                // non-200 answer
	KindDecode                // 200 with a body that is not the expected JSON
	KindEmptyURL              // 200 with JSON but no url field
	KindChallenge             // bot challenge that could not be cleared
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "http status"
	case KindDecode:
		return "decode"
	case KindEmptyURL:
		return "empty URL"
	case KindChallenge:
		return "challenge"
	}
	return "unknown"
}

// ResolutionError is returned by Resolver.Resolve for every failure after the
// reference itself has been parsed.
type ResolutionError struct {
	Kind      Kind
	Reference string
	Status    int
	Err       error
}

func (e *ResolutionError) Error() string {
	msg := "resolving " + e.Reference + ": "
	switch e.Kind {
	case KindStatus:
		msg += fmt.Sprintf("http status %d", e.Status)
	case KindEmptyURL:
		msg += "empty URL"
	case KindChallenge:
		msg += "blocked by bot challenge"
	default:
		msg += e.Kind.String()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
