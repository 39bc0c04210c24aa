package models

import (
	"fmt"
	"strings"
)

// KeySeparator joins the three parts of a MatchKey in its string form.
const KeySeparator = "|"

// MatchKey identifies a result inside the live hierarchy.
//
// Keys compare trimmed and case-insensitively; use Normalized for map keys
// and Equal for comparisons. String keeps the original spelling.
type MatchKey struct {
	SignalPath  string `json:"signalPath" msgpack:"signalPath"`
	Measurement string `json:"measurement" msgpack:"measurement"`
	Result      string `json:"result" msgpack:"result"`
}

// String renders the key as "path|measurement|result".
func (k MatchKey) String() string {
	return k.SignalPath + KeySeparator + k.Measurement + KeySeparator + k.Result
}

// Normalized returns the key with every part trimmed and lower-cased.
func (k MatchKey) Normalized() MatchKey {
	return MatchKey{
		SignalPath:  NormalizeName(k.SignalPath),
		Measurement: NormalizeName(k.Measurement),
		Result:      NormalizeName(k.Result),
	}
}

// Equal compares two keys under the matching policy.
func (k MatchKey) Equal(o MatchKey) bool {
	return k.Normalized() == o.Normalized()
}

// NormalizeName applies the matching policy to a single name.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ParseMatchKey decomposes "path|measurement|result" back into a key.
func ParseMatchKey(s string) (MatchKey, error) {
	parts := strings.Split(s, KeySeparator)
	if len(parts) != 3 {
		return MatchKey{}, fmt.Errorf("result key %q: want 3 parts separated by %q, got %d", s, KeySeparator, len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return MatchKey{}, fmt.Errorf("result key %q: part %d is empty", s, i+1)
		}
	}
	return MatchKey{SignalPath: parts[0], Measurement: parts[1], Result: parts[2]}, nil
}
