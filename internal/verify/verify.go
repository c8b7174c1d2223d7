package verify

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Mode selects how a file on disk is checked against its expected fingerprint.
type Mode int

const (
	// ModeHash compares the xxh64 digest of the file with the expected hash.
	ModeHash Mode = iota
	// ModeSize compares the on-disk byte length with the expected size.
	ModeSize
	// ModeSkip trusts that an existing file is correct.
	ModeSkip
)

func (m Mode) String() string {
	switch m {
	case ModeHash:
		return "Hash"
	case ModeSize:
		return "Size"
	case ModeSkip:
		return "Skip"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "Hash", "Size" or "Skip" in any letter case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hash":
		return ModeHash, nil
	case "size":
		return ModeSize, nil
	case "skip":
		return ModeSkip, nil
	}
	return 0, fmt.Errorf("unknown verification mode %q (expected Hash, Size or Skip)", s)
}

// Outcome is the result of checking a file.
type Outcome int

const (
	Verified Outcome = iota
	Mismatch
	Unverifiable
)

func (o Outcome) String() string {
	switch o {
	case Verified:
		return "verified"
	case Mismatch:
		return "mismatch"
	case Unverifiable:
		return "unverifiable"
	}
	return "unknown"
}

// Fingerprint is the expected identity of a file as recorded out-of-band.
// Both fields are kept as they appear in the work list; either may be empty.
type Fingerprint struct {
	Hash string
	Size string
}

// Empty reports whether no fingerprint of either kind is available.
func (f Fingerprint) Empty() bool {
	return strings.TrimSpace(f.Hash) == "" && strings.TrimSpace(f.Size) == ""
}

// SizeBytes parses Size. ok is false when it is missing or not a decimal number.
func (f Fingerprint) SizeBytes() (n int64, ok bool) {
	s := strings.TrimSpace(f.Size)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ErrUnverifiable is returned when the fingerprint needed by the mode is missing.
var ErrUnverifiable = errors.New("unverifiable: no expected fingerprint for this mode")

// MismatchError describes a file that exists but disagrees with its fingerprint.
type MismatchError struct {
	Path     string
	Mode     Mode
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s check failed for %s (expected %s, actual %s)", strings.ToLower(e.Mode.String()), e.Path, e.Expected, e.Actual)
}

// Verify checks path against fp using mode.
//
// The returned error is nil only for Verified. Mismatch carries a *MismatchError,
// Unverifiable wraps ErrUnverifiable, and I/O problems (missing file, read
// failure) are reported as Mismatch with the underlying error.
func Verify(path string, fp Fingerprint, mode Mode) (Outcome, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Mismatch, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Mismatch, fmt.Errorf("%s is a directory", path)
	}

	switch mode {
	case ModeSkip:
		return Verified, nil

	case ModeSize:
		want, ok := fp.SizeBytes()
		if !ok {
			return Unverifiable, fmt.Errorf("%w (size %q)", ErrUnverifiable, fp.Size)
		}
		if info.Size() != want {
			return Mismatch, &MismatchError{
				Path:     path,
				Mode:     mode,
				Expected: strconv.FormatInt(want, 10),
				Actual:   strconv.FormatInt(info.Size(), 10),
			}
		}
		return Verified, nil

	case ModeHash:
		want := strings.TrimSpace(fp.Hash)
		if want == "" {
			return Unverifiable, ErrUnverifiable
		}
		got, err := HashFile(path)
		if err != nil {
			return Mismatch, err
		}
		if got != want {
			return Mismatch, &MismatchError{Path: path, Mode: mode, Expected: want, Actual: got}
		}
		return Verified, nil
	}

	return Unverifiable, fmt.Errorf("unsupported verification mode %v", mode)
}
