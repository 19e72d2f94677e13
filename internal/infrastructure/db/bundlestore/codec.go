package bundlestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/jsonc"

	"github.com/hcmut-portal/portal-api/internal/core/domain"
)

// Decode parses a stored bundle. Comments and trailing commas are accepted
// so hand-edited fixture files stay loadable.
func Decode(data []byte) (domain.Bundle, error) {
	var doc domain.Bundle
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if doc == nil {
		return nil, errors.New("decode bundle: document is not a JSON object")
	}
	return doc, nil
}

// Encode renders a bundle as indented JSON without HTML escaping, so URLs
// in fixtures keep their literal '&'.
func Encode(doc domain.Bundle) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	return buf.Bytes(), nil
}
