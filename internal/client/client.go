// Package client talks to the events backend over its REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrRequestFailed is the single error kind every client call reports:
// transport failures and non-2xx responses alike.
var ErrRequestFailed = errors.New("request failed")

// RequestError carries the detail of a failed call. It always unwraps to ErrRequestFailed.
type RequestError struct {
	Op      string
	Status  int // 0 when the request never got a response
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: backend returned %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrRequestFailed, e.Err}
	}
	return []error{ErrRequestFailed}
}

// base holds what AuthClient and EventsClient share.
type base struct {
	baseURL    string
	httpClient *http.Client
}

func newBase(baseURL string, httpClient *http.Client) base {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return base{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// call performs one request and decodes a 2xx JSON body into out (when out is non-nil).
// Non-2xx responses produce a *RequestError whose Message is the backend's message
// when verbatim is set, or fallback otherwise.
func (b base) call(ctx context.Context, op, method, path, token string, in, out any, verbatim bool, fallback string) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return &RequestError{Op: op, Message: fallback, Err: err}
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return &RequestError{Op: op, Message: fallback, Err: err}
	}
	if in != nil || method != http.MethodGet {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return &RequestError{Op: op, Message: fallback, Err: err}
	}
	defer resp.Body.Close()

	if err := checkResp(resp, op, verbatim, fallback); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{Op: op, Status: resp.StatusCode, Message: fallback, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

// checkResp returns nil for 2xx and a *RequestError otherwise.
func checkResp(resp *http.Response, op string, verbatim bool, fallback string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg := fallback
	if verbatim {
		if m := backendMessage(resp.Body); m != "" {
			msg = m
		}
	}
	return &RequestError{Op: op, Status: resp.StatusCode, Message: msg}
}

func backendMessage(r io.Reader) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
