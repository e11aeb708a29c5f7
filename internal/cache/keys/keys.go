package keys

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const prefix = "flickr"

// Key builds the store key for one (operation, subject, bucket) triple.
// The subject is sanitized for readability and hashed for uniqueness, so
// subjects differing only in punctuation never collide.
func Key(op, subject string, bucket int64) string {
	opNorm := sanitize(strings.TrimSpace(op))
	subj := strings.TrimSpace(subject)
	subjSafe := sanitize(subj)

	const maxSubjectLen = 80
	if len(subjSafe) > maxSubjectLen {
		subjSafe = subjSafe[:maxSubjectLen]
	}

	sum := xxhash.Sum64String(subj)

	return fmt.Sprintf("%s:%s:%s:b=%d:h=%016x", prefix, opNorm, subjSafe, bucket, sum)
}

// Bucket is the integer time window unixSeconds falls in.
func Bucket(unixSeconds, widthSeconds int64) int64 {
	if widthSeconds <= 0 {
		widthSeconds = 1
	}
	if unixSeconds < 0 {
		return (unixSeconds - widthSeconds + 1) / widthSeconds
	}
	return unixSeconds / widthSeconds
}

func sanitize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-' || r == '@' || r == '*':
			out = r
		default:
			// Any other rune (including ':' and non-ASCII) becomes '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r < unicode.MaxASCII && unicode.IsDigit(r))
}
