package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// formView mirrors the server's form session payload.
type formView struct {
	ID         string            `json:"id"`
	Kind       string            `json:"kind"`
	State      string            `json:"state"`
	Draft      map[string]any    `json:"draft"`
	Options    formOptions       `json:"options"`
	Candidates []candidateView   `json:"candidates"`
	Warning    string            `json:"warning"`
	Errors     map[string]string `json:"errors"`
	FormError  string            `json:"form_error"`
	ResetTo    []string          `json:"reset_fields"`
}

type formOptions struct {
	Areas       []namedEntity `json:"areas"`
	Territories []namedEntity `json:"territories"`
	Dealers     []dealerView  `json:"dealers"`
}

type namedEntity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type dealerView struct {
	ID           string `json:"id"`
	BusinessName string `json:"business_name"`
	DealerCode   string `json:"dealer_code"`
}

type candidateView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	RoleName string `json:"role_name"`
	Eligible bool   `json:"eligible"`
	Warning  string `json:"warning"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// apiClient is a thin JSON client for the form API.
type apiClient struct {
	baseURL string
	httpc   *http.Client
}

func newAPIClient() *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(flagAPIURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) do(method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e apiError
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Message != "" {
			return fmt.Errorf("%s (%s)", e.Message, e.Code)
		}
		return fmt.Errorf("unexpected status %d from %s %s", resp.StatusCode, method, path)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// openForm opens a session and applies each field=value pair in order.
func (c *apiClient) openForm(kind string, sets []string) (*formView, error) {
	var view formView
	err := c.do(http.MethodPost, "/api/v1/forms", map[string]string{"kind": kind}, &view)
	if err != nil {
		return nil, err
	}

	for _, s := range sets {
		field, value, err := splitSet(s)
		if err != nil {
			return &view, err
		}
		if err := c.do(http.MethodPatch, "/api/v1/forms/"+view.ID+"/fields",
			map[string]string{"field": field, "value": value}, &view); err != nil {
			return &view, fmt.Errorf("set %s: %w", field, err)
		}
	}
	return &view, nil
}

// closeForm discards a session, best effort.
func (c *apiClient) closeForm(id string) {
	if id != "" {
		_ = c.do(http.MethodDelete, "/api/v1/forms/"+id, nil, nil)
	}
}

func splitSet(s string) (field, value string, err error) {
	field, value, ok := strings.Cut(s, "=")
	if !ok || field == "" {
		return "", "", fmt.Errorf("invalid --set %q, want field=value", s)
	}
	return field, value, nil
}

// printJSON renders any value as indented JSON.
func printJSON(v any) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(buf))
	return nil
}
