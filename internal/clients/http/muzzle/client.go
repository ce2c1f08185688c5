// Package muzzle talks to the AI service that identifies cattle by muzzle print.
package muzzle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// DefaultBaseURL is the production matcher.
const DefaultBaseURL = "https://ai.insurecow.com"

var (
	// ErrNoMatch is returned for a 400: the video was unusable or matched nothing.
	ErrNoMatch = errors.New("muzzle service found no match")
	// ErrUnauthorized is returned for a 401 from the matcher.
	ErrUnauthorized = errors.New("muzzle service rejected credentials")
)

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken sets the matcher's own bearer token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// Client calls the /register and /claim endpoints.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client; an empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Video is the muzzle clip sent as the multipart field "video".
type Video struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// Result is the matcher's answer.
type Result struct {
	Message        string     `json:"msg"`
	AnimalName     string     `json:"animal_name"`
	RegistrationID FlexibleID `json:"registration_id"`
	MatchedID      FlexibleID `json:"matched_id"`
}

// FlexibleID accepts identifiers encoded as JSON strings or numbers.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	*f = FlexibleID(strings.Trim(s, `"`))
	return nil
}

// ID returns whichever identifier the endpoint reported.
func (r Result) ID() string {
	if r.RegistrationID != "" {
		return string(r.RegistrationID)
	}
	return string(r.MatchedID)
}

// Register proposes a reference id for a new animal.
func (c *Client) Register(ctx context.Context, video Video) (*Result, error) {
	return c.upload(ctx, "/register", video)
}

// Claim finds the already registered animal the video belongs to.
func (c *Client) Claim(ctx context.Context, video Video) (*Result, error) {
	return c.upload(ctx, "/claim", video)
}

func (c *Client) upload(ctx context.Context, path string, video Video) (*Result, error) {
	if c == nil || c.http == nil {
		return nil, errors.New("muzzle client not configured")
	}
	if video.Content == nil {
		return nil, errors.New("muzzle video is empty")
	}
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeVideo(mw, video))
	}()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, pr)
	if err != nil {
		pr.CloseWithError(err)
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		pr.CloseWithError(err)
		return nil, fmt.Errorf("call muzzle service: %w", err)
	}
	defer resp.Body.Close()

	var result Result
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)
	switch resp.StatusCode {
	case http.StatusOK:
		if decodeErr != nil {
			return nil, fmt.Errorf("decode muzzle response: %w", decodeErr)
		}
		return &result, nil
	case http.StatusBadRequest:
		if msg := strings.TrimSpace(result.Message); msg != "" {
			return nil, fmt.Errorf("%w: %s", ErrNoMatch, msg)
		}
		return nil, ErrNoMatch
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	default:
		return nil, fmt.Errorf("muzzle service unexpected status: %s", resp.Status)
	}
}

func writeVideo(mw *multipart.Writer, video Video) error {
	filename := video.Filename
	if filename == "" {
		filename = "muzzle.mp4"
	}
	contentType := video.ContentType
	if contentType == "" {
		contentType = "video/mp4"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="video"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, video.Content); err != nil {
		return err
	}
	return mw.Close()
}
