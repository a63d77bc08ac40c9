package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// postJSON sends payload and decodes a 2xx body into out. Other statuses come
// back as *APIError; transport failures as an APIError with status 0.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s encode request: %w", provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s build request: %w", provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &APIError{Provider: provider, Message: err.Error()}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Provider: provider, StatusCode: resp.StatusCode, Message: "read body: " + err.Error()}
	}
	if resp.StatusCode >= 300 {
		return decodeAPIError(provider, resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s decode response: %w", provider, err)
	}
	return nil
}

// decodeAPIError understands the {"error": {...}} and {"error": "..."} /
// {"message": "..."} shapes used by the supported backends.
func decodeAPIError(provider string, status int, raw []byte) *APIError {
	e := &APIError{Provider: provider, StatusCode: status}
	var nested struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    any    `json:"code"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &nested) == nil && nested.Error.Message != "" {
		e.Message = nested.Error.Message
		e.Type = nested.Error.Type
		if code, ok := nested.Error.Code.(string); ok && e.Type == "" {
			e.Type = code
		}
		return e
	}
	var flat struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &flat) == nil && (flat.Error != "" || flat.Message != "") {
		e.Message = strings.TrimSpace(flat.Error + " " + flat.Message)
		return e
	}
	e.Message = strings.TrimSpace(string(raw))
	return e
}

func bearer(key string) map[string]string {
	if key == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + key}
}
