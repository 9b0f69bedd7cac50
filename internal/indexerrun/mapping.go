package indexerrun

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/localsearch/simulator/internal/model"
)

// keyPattern is the legal character set for a document key, §4.8.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_\-=]+$`)

// ValidKey reports whether key contains only characters a document key
// is allowed to carry.
func ValidKey(key string) bool {
	return key != "" && keyPattern.MatchString(key)
}

// SanitizeKey rewrites any character outside the legal key set to a
// "_xxxx_" escape of its hex code point, the same recovery the teacher's ingestion path
// applies to source keys with slashes or spaces rather than rejecting
// the whole document.
func SanitizeKey(key string) string {
	if ValidKey(key) {
		return key
	}
	var b strings.Builder
	for _, r := range key {
		if keyPattern.MatchString(string(r)) {
			b.WriteRune(r)
			continue
		}
		b.WriteString(fmt.Sprintf("_%04x_", r))
	}
	return b.String()
}

// ApplyFieldMappings projects a raw/enriched record onto the target
// index's field names, applying each mapping's function chain in order.
func ApplyFieldMappings(record map[string]any, mappings []model.FieldMapping) (map[string]any, error) {
	out := make(map[string]any, len(record)+len(mappings))
	for k, v := range record {
		out[k] = v
	}
	for _, m := range mappings {
		v, ok := record[m.SourceFieldName]
		if !ok {
			continue
		}
		if m.MappingFunction != "" {
			mapped, err := applyMappingFunction(v, m.MappingFunction, m.FunctionParams)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", m.SourceFieldName, err)
			}
			v = mapped
		}
		target := m.TargetFieldName
		if target == "" {
			target = m.SourceFieldName
		}
		out[target] = v
		if target != m.SourceFieldName {
			delete(out, m.SourceFieldName)
		}
	}
	return out, nil
}

func applyMappingFunction(v any, name string, params map[string]string) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	switch name {
	case "base64Encode":
		return base64Encode(s, params), nil
	case "base64Decode":
		return base64Decode(s, params)
	case "urlEncode":
		return urlEncode(s), nil
	case "urlDecode":
		return urlDecode(s)
	case "extractTokenAtPosition":
		return extractTokenAtPosition(s, params)
	default:
		return nil, fmt.Errorf("unknown mapping function %q", name)
	}
}

func base64Encode(s string, params map[string]string) string {
	enc := base64.StdEncoding
	if useHTTPSafe(params) {
		enc = base64.URLEncoding
	}
	return enc.EncodeToString([]byte(s))
}

func base64Decode(s string, params map[string]string) (string, error) {
	enc := base64.StdEncoding
	if useHTTPSafe(params) {
		enc = base64.URLEncoding
	}
	b, err := enc.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func useHTTPSafe(params map[string]string) bool {
	return params["useHttpServerUtilityUrlTokenEncode"] == "true"
}

func urlEncode(s string) string {
	return url.QueryEscape(s)
}

func urlDecode(s string) (string, error) {
	return url.QueryUnescape(s)
}

func extractTokenAtPosition(s string, params map[string]string) (string, error) {
	delim := params["delimiter"]
	if delim == "" {
		delim = " "
	}
	posStr, ok := params["position"]
	if !ok {
		return "", fmt.Errorf("extractTokenAtPosition: missing position parameter")
	}
	pos, err := strconv.Atoi(posStr)
	if err != nil {
		return "", fmt.Errorf("extractTokenAtPosition: %w", err)
	}
	parts := strings.Split(s, delim)
	if pos < 0 || pos >= len(parts) {
		return "", nil
	}
	return parts[pos], nil
}
