package skillpipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/localsearch/simulator/internal/simerrors"
)

// batchRecord is one entry of a Custom web-API request/response batch.
type batchRecord struct {
	RecordID string         `json:"recordId"`
	Data     map[string]any `json:"data,omitempty"`
	Errors   []apiMessage   `json:"errors,omitempty"`
	Warnings []apiMessage   `json:"warnings,omitempty"`
}

type apiMessage struct {
	Message string `json:"message"`
}

type batchEnvelope struct {
	Values []batchRecord `json:"values"`
}

// WebAPIExecutor implements the Custom web-API behavior of §4.7: POSTs a
// values[] batch of one record to the configured URL and unpacks its
// data/errors/warnings.
type WebAPIExecutor struct {
	HTTPClient *http.Client
	breakers   map[string]*simerrors.CircuitBreaker
}

// NewWebAPIExecutor wires client as the HTTP transport (defaulting to a
// 30s-timeout client) and guards each distinct URL with its own circuit
// breaker.
func NewWebAPIExecutor(client *http.Client) *WebAPIExecutor {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &WebAPIExecutor{HTTPClient: client, breakers: make(map[string]*simerrors.CircuitBreaker)}
}

func (e *WebAPIExecutor) breakerFor(url string) *simerrors.CircuitBreaker {
	if cb, ok := e.breakers[url]; ok {
		return cb
	}
	cb := simerrors.NewCircuitBreaker(url)
	e.breakers[url] = cb
	return cb
}

func (e *WebAPIExecutor) Execute(ctx context.Context, inputs map[string]any, params map[string]any) (map[string]any, []string, error) {
	url := paramString(params, "url", "")
	if url == "" {
		return nil, nil, fmt.Errorf("custom web-API: url parameter is required")
	}
	timeout := time.Duration(paramInt(params, "timeoutSeconds", 30)) * time.Second

	reqBody := batchEnvelope{Values: []batchRecord{{RecordID: "0", Data: inputs}}}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, nil, err
	}

	var respBody batchEnvelope
	cb := e.breakerFor(url)
	execErr := cb.Execute(func() error {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if headers, ok := params["headers"].(map[string]string); ok {
			for k, v := range headers {
				req.Header.Set(k, v)
			}
		}

		resp, err := e.HTTPClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("custom web-API: status %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("custom web-API: status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&respBody)
	})
	if execErr != nil {
		return nil, nil, fmt.Errorf("custom web-API: %w", execErr)
	}
	if len(respBody.Values) == 0 {
		return nil, nil, fmt.Errorf("custom web-API: response carried no values")
	}

	record := respBody.Values[0]
	var warnings []string
	for _, w := range record.Warnings {
		warnings = append(warnings, w.Message)
	}
	if len(record.Errors) > 0 {
		msgs := make([]string, len(record.Errors))
		for i, e := range record.Errors {
			msgs[i] = e.Message
		}
		return nil, warnings, fmt.Errorf("custom web-API: %v", msgs)
	}
	if record.Data == nil {
		// Null/missing data with only warnings is success-with-warnings.
		return nil, warnings, nil
	}
	return record.Data, warnings, nil
}
