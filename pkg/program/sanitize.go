package program

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxProgramSize is 64KB
	DefaultMaxProgramSize = 64 * 1024
	// EnvMaxProgramSize is the environment variable to override the default
	EnvMaxProgramSize = "TRACKS_MAX_PROGRAM_SIZE"
)

var (
	ErrProgramTooLarge = errors.New("program exceeds maximum allowed size")
	ErrInvalidUTF8     = errors.New("program contains invalid UTF-8 sequences")
)

// Sanitize cleans remote program text by enforcing the size limit from the
// environment, validating UTF-8, and stripping control characters.
func Sanitize(input string) (string, error) {
	return SanitizeWithLimit(input, maxProgramSize())
}

// SanitizeWithLimit is Sanitize with an explicit size limit. A limit <= 0 uses the default.
func SanitizeWithLimit(input string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxProgramSize
	}
	if len(input) > limit {
		// Reject, never truncate.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrProgramTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	// Fast path: if no control chars, return as is.
	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func maxProgramSize() int {
	if val := os.Getenv(EnvMaxProgramSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxProgramSize
}
