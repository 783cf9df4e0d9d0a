package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	sourcePath = "jb/source/"
	updatePath = "jb/update/"

	// DefaultDeleteTarget is where the server sends the browser after a delete.
	DefaultDeleteTarget = "index.html"

	textContentType = "text/plain; charset=UTF-8"
)

var (
	ErrEmptyURI   = errors.New("page identifier is empty")
	ErrInvalidURI = errors.New("page identifier must not contain '..', ':' or '\\'")
)

// UpdateResult is the document the server returns after a PUT. Older servers
// also send the rendered body and the title.
type UpdateResult struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

type DeleteResult struct {
	URI string `json:"uri"`
}

// Client talks to the jb/source and jb/update endpoints of a wiki server.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New returns a client rooted at baseURL, the server's context path.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base url is empty")
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		base: u,
		http: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CheckURI applies the same path rules the server enforces.
func CheckURI(uri string) error {
	if strings.TrimSpace(uri) == "" {
		return ErrEmptyURI
	}
	if strings.Contains(uri, "..") || strings.Contains(uri, ":") || strings.Contains(uri, "\\") {
		return ErrInvalidURI
	}
	return nil
}

func (c *Client) SourceURL(uri string) string {
	return c.endpoint(sourcePath, uri, false)
}

func (c *Client) UpdateURL(uri string) string {
	return c.endpoint(updatePath, uri, false)
}

// PageURL is the address a browser would navigate to for uri.
func (c *Client) PageURL(uri string) string {
	return c.endpoint("", uri, false)
}

func (c *Client) endpoint(prefix, uri string, create bool) string {
	ref := &url.URL{Path: prefix + strings.TrimPrefix(uri, "/")}
	if create {
		ref.RawQuery = "create=true"
	}
	return c.base.ResolveReference(ref).String()
}

// Source fetches the raw source text of a page.
func (c *Client) Source(ctx context.Context, uri string) (string, error) {
	if err := CheckURI(uri); err != nil {
		return "", err
	}
	body, err := c.do(ctx, http.MethodGet, c.SourceURL(uri), nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Update stores source under uri. With create set the server refuses to
// overwrite an existing page.
func (c *Client) Update(ctx context.Context, uri, source string, create bool) (*UpdateResult, error) {
	if err := CheckURI(uri); err != nil {
		return nil, err
	}
	target := c.endpoint(updatePath, uri, create)
	body, err := c.do(ctx, http.MethodPut, target, strings.NewReader(source))
	if err != nil {
		return nil, err
	}

	var res UpdateResult
	if err := decode(body, &res); err != nil {
		return nil, &RequestError{Method: http.MethodPut, URL: target, StatusCode: http.StatusOK, Status: "parseerror", Err: err}
	}
	if res.URI == "" {
		res.URI = uri
	}
	return &res, nil
}

// Delete removes the page source at uri.
func (c *Client) Delete(ctx context.Context, uri string) (*DeleteResult, error) {
	if err := CheckURI(uri); err != nil {
		return nil, err
	}
	target := c.UpdateURL(uri)
	body, err := c.do(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return nil, err
	}

	var res DeleteResult
	if err := decode(body, &res); err != nil {
		return nil, &RequestError{Method: http.MethodDelete, URL: target, StatusCode: http.StatusOK, Status: "parseerror", Err: err}
	}
	if res.URI == "" {
		res.URI = DefaultDeleteTarget
	}
	return &res, nil
}

func (c *Client) do(ctx context.Context, method, target string, body io.Reader) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &RequestError{Method: method, URL: target, Status: "error", Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", textContentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("%s %s failed: %v", method, target, err)
		return nil, &RequestError{Method: method, URL: target, Status: "error", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Method: method, URL: target, StatusCode: resp.StatusCode, Status: statusText(resp), Err: err}
	}
	log.Printf("%s %s -> %d", method, target, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
			Message:    strings.TrimSpace(string(data)),
		}
	}
	return data, nil
}

func decode(body []byte, v any) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

// statusText strips the numeric code from resp.Status ("404 Not Found").
func statusText(resp *http.Response) string {
	if _, text, ok := strings.Cut(resp.Status, " "); ok && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
