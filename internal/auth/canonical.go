package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SignatureField is excluded from the signed content.
const SignatureField = "signature"

// Canonical returns the signing input for payload: the JSON encoding of all
// fields but SignatureField. encoding/json writes map keys in sorted order at
// every nesting level, so insertion order never matters.
func Canonical(payload map[string]any) (string, error) {
	fields := make(map[string]any, len(payload))
	for k, v := range payload {
		if k == SignatureField {
			continue
		}
		fields[k] = v
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fields); err != nil {
		return "", fmt.Errorf("canonical encode: %w", err)
	}

	// json.Encoder terminates every value with a newline
	return string(bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})), nil
}
