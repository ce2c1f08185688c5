// Package assets talks to the farm backend that owns animal assets and reference lists.
package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

// HttpRequestDoer performs HTTP requests.
type HttpRequestDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestEditorFn can mutate a request before it is sent.
type RequestEditorFn func(ctx context.Context, req *http.Request) error

// ClientOption configures the client.
type ClientOption func(*Client) error

// WithHTTPClient overrides the HTTP doer.
func WithHTTPClient(doer HttpRequestDoer) ClientOption {
	return func(c *Client) error {
		c.client = doer
		return nil
	}
}

// WithRequestEditorFn registers a request editor applied to every call.
func WithRequestEditorFn(fn RequestEditorFn) ClientOption {
	return func(c *Client) error {
		c.editors = append(c.editors, fn)
		return nil
	}
}

// Client issues farm backend calls.
type Client struct {
	server  string
	client  HttpRequestDoer
	editors []RequestEditorFn
}

// NewClient builds a client rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("asset API base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse asset API base URL: %w", err)
	}
	c := &Client{server: strings.TrimSuffix(baseURL, "/") + "/"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: 30 * time.Second}
	}
	return c, nil
}

// FormPart is a scalar multipart field.
type FormPart struct {
	Name  string
	Value string
}

// FilePart is a binary multipart field.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Content     io.Reader
}

// CreateAssetRequest is the multipart body of POST /create-asset/.
type CreateAssetRequest struct {
	Fields      []FormPart
	Files       []FilePart
	BearerToken string
}

// CreateAssetResponse exposes the status and the parsed envelope.
type CreateAssetResponse struct {
	StatusCode int
	Status     string
	Message    string
	AssetID    string
	Body       []byte
}

type envelope struct {
	Message string `json:"message"`
	Data    *struct {
		Message string          `json:"message"`
		ID      json.RawMessage `json:"id"`
		AssetID json.RawMessage `json:"asset_id"`
	} `json:"data"`
}

// CreateAsset posts the registration. Any HTTP status is returned as a response; only transport failures are errors.
func (c *Client) CreateAsset(ctx context.Context, body CreateAssetRequest) (*CreateAssetResponse, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("asset client not configured")
	}
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeMultipart(mw, body))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.server+"create-asset/", pr)
	if err != nil {
		pr.CloseWithError(err)
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	setBearer(req, body.BearerToken)
	if err := c.applyEditors(ctx, req); err != nil {
		pr.CloseWithError(err)
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		pr.CloseWithError(err)
		return nil, fmt.Errorf("call asset API: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read asset API response: %w", err)
	}
	out := &CreateAssetResponse{StatusCode: resp.StatusCode, Status: resp.Status, Body: raw}
	var env envelope
	if json.Unmarshal(raw, &env) == nil {
		out.Message = strings.TrimSpace(env.Message)
		if env.Data != nil {
			if msg := strings.TrimSpace(env.Data.Message); msg != "" {
				out.Message = msg
			}
			out.AssetID = rawID(env.Data.AssetID)
			if out.AssetID == "" {
				out.AssetID = rawID(env.Data.ID)
			}
		}
	}
	return out, nil
}

func writeMultipart(mw *multipart.Writer, body CreateAssetRequest) error {
	for _, f := range body.Fields {
		if err := mw.WriteField(f.Name, f.Value); err != nil {
			return err
		}
	}
	for _, f := range body.Files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Filename))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := mw.CreatePart(header)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return fmt.Errorf("write %s: %w", f.Field, err)
		}
	}
	return mw.Close()
}

// ReferenceItem is one entry of a lookup list.
type ReferenceItem struct {
	ID   string
	Name string
}

type referenceEntry struct {
	ID    json.RawMessage `json:"id"`
	Name  string          `json:"name"`
	Title string          `json:"title"`
}

// ListReference loads GET /{list}/ and accepts either a bare array or a {"data": [...]} envelope.
func (c *Client) ListReference(ctx context.Context, list string, bearerToken string) ([]ReferenceItem, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("asset client not configured")
	}
	list = strings.Trim(strings.TrimSpace(list), "/")
	if list == "" {
		return nil, errors.New("reference list name is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.server+url.PathEscape(list)+"/", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	setBearer(req, bearerToken)
	if err := c.applyEditors(ctx, req); err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call asset API: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read asset API response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("asset API %s: unexpected status: %s", list, resp.Status)
	}
	var entries []referenceEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		var wrapped struct {
			Data []referenceEntry `json:"data"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("decode %s: %w", list, err)
		}
		entries = wrapped.Data
	}
	items := make([]ReferenceItem, 0, len(entries))
	for _, e := range entries {
		name := e.Name
		if name == "" {
			name = e.Title
		}
		items = append(items, ReferenceItem{ID: rawID(e.ID), Name: name})
	}
	return items, nil
}

func (c *Client) applyEditors(ctx context.Context, req *http.Request) error {
	for _, fn := range c.editors {
		if fn == nil {
			continue
		}
		if err := fn(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

func setBearer(req *http.Request, token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

func rawID(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	return strings.Trim(s, `"`)
}
