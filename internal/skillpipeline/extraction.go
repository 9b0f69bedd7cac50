package skillpipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// DocumentExtractionExecutor implements the Document-extraction behavior
// of §4.7: decodes file_data, detects its content type by magic bytes,
// and delegates to a content-type-appropriate cracker.
type DocumentExtractionExecutor struct {
	// HTTPClient fetches file_data.url when no inline data is present.
	// Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

func (e DocumentExtractionExecutor) Execute(ctx context.Context, inputs map[string]any, params map[string]any) (map[string]any, []string, error) {
	fileData, ok := inputs["file_data"].(map[string]any)
	if !ok {
		return nil, []string{"file_data input is missing or not an object"}, nil
	}

	raw, warnings, err := e.resolveBytes(ctx, fileData)
	if err != nil {
		return nil, nil, fmt.Errorf("document-extraction: %w", err)
	}
	if raw == nil {
		return nil, warnings, nil
	}

	contentType := DetectContentType(raw)
	parsingMode := paramString(params, "parsingMode", "default")
	dataToExtract := paramString(params, "dataToExtract", "contentAndMetadata")

	content, crackErr := extractContent(raw, contentType, parsingMode, dataToExtract)
	if crackErr != nil {
		return nil, nil, fmt.Errorf("document-extraction: %w", crackErr)
	}

	// No rasterizer is wired, so generateNormalizedImages always yields an
	// empty list rather than populated bounding-box image descriptors.
	outputs := map[string]any{"content": content, "normalized_images": []any{}}
	return outputs, warnings, nil
}

func (e DocumentExtractionExecutor) resolveBytes(ctx context.Context, fileData map[string]any) ([]byte, []string, error) {
	if data, ok := fileData["data"].(string); ok && data != "" {
		raw, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid base64 data: %w", err)
		}
		return raw, nil, nil
	}

	url, ok := fileData["url"].(string)
	if !ok || url == "" {
		return nil, []string{"file_data has neither data nor url"}, nil
	}

	client := e.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, []string{fmt.Sprintf("fetching %s: status %d", url, resp.StatusCode)}, nil
	}
	return io.ReadAll(resp.Body)
}

// DetectContentType classifies raw bytes per the §4.7 magic-byte table.
func DetectContentType(raw []byte) string {
	switch {
	case bytes.HasPrefix(raw, []byte("%PDF")):
		return "application/pdf"
	case bytes.HasPrefix(raw, []byte{'P', 'K', 0x03, 0x04}):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case looksLikeJSON(raw):
		return "application/json"
	case looksLikeHTML(raw):
		return "text/html"
	case utf8.Valid(raw):
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

func looksLikeJSON(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !utf8.Valid(trimmed) {
		return false
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return false
	}
	return json.Valid(trimmed)
}

func looksLikeHTML(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '<' {
		return false
	}
	return bytes.Contains(bytes.ToLower(trimmed), []byte("html"))
}

// extractContent is the cracker dispatch. PDF/OOXML formats are not
// byte-parsed (no document-format library is wired for them); they
// return the content decoded as best-effort text, matching the
// simulator's role as a behavioral stand-in rather than a real document
// renderer.
func extractContent(raw []byte, contentType, parsingMode, dataToExtract string) (any, error) {
	switch parsingMode {
	case "json":
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("parsingMode=json: %w", err)
		}
		return v, nil
	case "jsonArray":
		var arr []any
		if err := json.Unmarshal(raw, &arr); err != nil {
			return nil, fmt.Errorf("parsingMode=jsonArray: %w", err)
		}
		return arr, nil
	case "text", "default", "":
		return extractText(raw, contentType), nil
	default:
		return nil, fmt.Errorf("unsupported parsingMode %q", parsingMode)
	}
}

func extractText(raw []byte, contentType string) string {
	if contentType == "application/octet-stream" {
		return ""
	}
	if utf8.Valid(raw) {
		return string(raw)
	}
	return strings.ToValidUTF8(string(raw), "")
}
