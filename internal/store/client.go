package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// Client talks to the hosted database through its REST interface
// ({url}/rest/v1/{table}).
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ Store = (*Client)(nil)

// NewClient returns a REST client that authenticates every call with apiKey,
// both as the apikey header and as bearer token. Requests are sent through
// base, normally the offline worker; nil means http.DefaultTransport.
func NewClient(ctx context.Context, baseURL, apiKey string, base http.RoundTripper) *Client {
	if base == nil {
		base = http.DefaultTransport
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: base})
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey, TokenType: "Bearer"})
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: oauth2.NewClient(ctx, ts),
	}
}

func eq(v string) string { return "eq." + v }

// do sends one request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, table string, query url.Values, body, out any) error {
	endpoint := c.baseURL + "/rest/v1/" + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost || method == http.MethodPatch {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, table, err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", table, err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	se := &Error{Status: status}
	if err := json.Unmarshal(body, se); err != nil || (se.Code == "" && se.Message == "") {
		se.Message = strings.TrimSpace(string(body))
	}
	return se
}

// single returns the only row of a representation response.
func single[T any](rows []T) (T, error) {
	var zero T
	if len(rows) == 0 {
		return zero, ErrNotFound
	}
	return rows[0], nil
}
