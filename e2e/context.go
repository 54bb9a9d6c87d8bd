package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// TestContext carries one scenario's HTTP client, cookie jar and last
// response. Paths are relative to the API base path.
type TestContext struct {
	BaseURL       string
	AdminEmail    string
	AdminPassword string

	client      *http.Client
	lastStatus  int
	lastBody    []byte
	lastHeaders http.Header
	values      map[string]string
}

func NewTestContext(baseURL, adminEmail, adminPassword string) *TestContext {
	tc := &TestContext{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
	}
	tc.Reset()
	return tc
}

// Reset drops cookies and remembered values between scenarios.
func (tc *TestContext) Reset() {
	jar, _ := cookiejar.New(nil)
	tc.client = &http.Client{Jar: jar, Timeout: 15 * time.Second}
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.lastHeaders = nil
	tc.values = map[string]string{}
}

func (tc *TestContext) do(method, path string, body any, headers map[string]string) error {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.BaseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()
	tc.lastStatus = res.StatusCode
	tc.lastHeaders = res.Header
	tc.lastBody, err = io.ReadAll(res.Body)
	return err
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body, nil)
}

func (tc *TestContext) PUT(path string, body any) error {
	return tc.do(http.MethodPut, path, body, nil)
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.do(http.MethodGet, path, nil, headers)
}

func (tc *TestContext) DELETE(path string) error {
	return tc.do(http.MethodDelete, path, nil, nil)
}

func (tc *TestContext) GetLastResponseStatus() int { return tc.lastStatus }

func (tc *TestContext) GetLastResponseBody() []byte { return tc.lastBody }

func (tc *TestContext) GetLastHeader(name string) string { return tc.lastHeaders.Get(name) }

// GetResponseField reads a top-level field of the last JSON object body.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var out map[string]any
	if err := json.Unmarshal(tc.lastBody, &out); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %s", tc.lastBody)
	}
	v, ok := out[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response: %s", field, tc.lastBody)
	}
	return v, nil
}

// GetResponseList decodes the last body as a JSON array.
func (tc *TestContext) GetResponseList() ([]map[string]any, error) {
	var out []map[string]any
	if err := json.Unmarshal(tc.lastBody, &out); err != nil {
		return nil, fmt.Errorf("response is not a JSON array: %s", tc.lastBody)
	}
	return out, nil
}

func (tc *TestContext) GetAdminCredentials() (string, string) {
	return tc.AdminEmail, tc.AdminPassword
}

func (tc *TestContext) Remember(key, value string) { tc.values[key] = value }

func (tc *TestContext) Recall(key string) string { return tc.values[key] }
