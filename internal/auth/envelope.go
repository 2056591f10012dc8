package auth

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"time"
)

const (
	SubjectField   = "subjectId"
	TimestampField = "timestamp"

	// ReplayWindow bounds the distance between a request timestamp and the
	// server clock in either direction.
	ReplayWindow = 5 * time.Minute
)

var subjectPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsSubject reports whether s is shaped like an email address.
func IsSubject(s string) bool {
	return subjectPattern.MatchString(s)
}

// EnvelopeCheck is the outcome of ValidateEnvelope. Errors lists every
// violation found.
type EnvelopeCheck struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ValidateEnvelope checks the signed-request envelope fields of payload
// against the clock reading now.
func ValidateEnvelope(payload map[string]any, now time.Time) EnvelopeCheck {
	var problems []string

	subject, hasSubject := nonEmptyString(payload, SubjectField)
	if !hasSubject {
		problems = append(problems, "subjectId is required")
	}

	rawTS, hasTS := payload[TimestampField]
	if !hasTS || rawTS == nil {
		problems = append(problems, "timestamp is required")
	}

	if _, ok := nonEmptyString(payload, SignatureField); !ok {
		problems = append(problems, "signature is required")
	}

	if hasTS && rawTS != nil {
		ts, ok := timestampMillis(rawTS)
		nowMs, window := now.UnixMilli(), ReplayWindow.Milliseconds()
		switch {
		case !ok:
			problems = append(problems, "timestamp must be epoch milliseconds")
		case ts < nowMs-window || ts > nowMs+window:
			problems = append(problems, "timestamp is outside the allowed window")
		}
	}

	if hasSubject && !IsSubject(subject) {
		problems = append(problems, "subjectId must be an email address")
	}

	return EnvelopeCheck{Valid: len(problems) == 0, Errors: problems}
}

func nonEmptyString(payload map[string]any, key string) (string, bool) {
	s, ok := payload[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func timestampMillis(v any) (int64, bool) {
	switch ts := v.(type) {
	case json.Number:
		if n, err := ts.Int64(); err == nil {
			return intMillis(n)
		}
		f, err := ts.Float64()
		if err != nil {
			return 0, false
		}
		return floatMillis(f)
	case float64:
		return floatMillis(ts)
	case int64:
		return intMillis(ts)
	case int:
		return intMillis(int64(ts))
	default:
		return 0, false
	}
}

// maxMillis is the largest magnitude a JSON number carries exactly.
const maxMillis = 1 << 53

func intMillis(n int64) (int64, bool) {
	if n > maxMillis || n < -maxMillis {
		return 0, false
	}
	return n, true
}

func floatMillis(f float64) (int64, bool) {
	if math.IsNaN(f) || math.Abs(f) > maxMillis || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}
