// Package qrcode builds goQR.me image URLs and proxies the PNG for
// download. Image generation itself stays with the remote service.
package qrcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"multitool/internal/cache"
	"multitool/internal/core"
)

const (
	DefaultBase = "https://api.qrserver.com/v1/create-qr-code/"
	DefaultSize = 200

	// MaxTextLength is the longest payload accepted.
	MaxTextLength = 900

	maxImageBytes = 1 << 20
)

var (
	ErrTextRequired = fmt.Errorf("%w: Text parameter is required", core.ErrInvalidInput)
	ErrTextTooLong  = fmt.Errorf("%w: text too long (max %d characters)", core.ErrInvalidInput, MaxTextLength)

	// ErrUpstream wraps failures of the QR service.
	ErrUpstream = errors.New("qr service unavailable")
)

// Image is a fetched QR code.
type Image struct {
	Data        []byte
	ContentType string
}

// Client builds QR URLs and fetches the rendered images.
type Client struct {
	base   *url.URL
	size   int
	http   *http.Client
	images cache.Cache[Image]
}

type Option func(*Client)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithCache keeps fetched images keyed by text.
func WithCache(c cache.Cache[Image]) Option {
	return func(cl *Client) { cl.images = c }
}

// NewClient validates base and returns a client producing size x size codes.
func NewClient(base string, size int, opts ...Option) (*Client, error) {
	if base == "" {
		base = DefaultBase
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid QR API base %q", base)
	}
	if size <= 0 {
		size = DefaultSize
	}

	c := &Client{base: u, size: size, http: newHTTPClientWithPooling()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// newHTTPClientWithPooling keeps connections to the QR service warm.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 15 * time.Second}
}

func validate(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrTextRequired
	}
	if len([]rune(text)) > MaxTextLength {
		return ErrTextTooLong
	}
	return nil
}

// encodeComponent percent-encodes s with spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// URL returns the image URL for text, e.g.
// https://api.qrserver.com/v1/create-qr-code/?size=200x200&data=hello%20world
func (c *Client) URL(text string) (string, error) {
	if err := validate(text); err != nil {
		return "", err
	}
	dim := strconv.Itoa(c.size)
	u := *c.base
	u.RawQuery = "size=" + dim + "x" + dim + "&data=" + encodeComponent(text)
	return u.String(), nil
}

// Fetch downloads the PNG for text.
func (c *Client) Fetch(ctx context.Context, text string) (Image, error) {
	target, err := c.URL(text)
	if err != nil {
		return Image{}, err
	}
	if c.images != nil {
		if img, ok := c.images.Get(text); ok {
			return img, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Image{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "image/png")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Image{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return Image{}, fmt.Errorf("%w: unexpected content type %q", ErrUpstream, contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}
	if len(data) > maxImageBytes {
		return Image{}, fmt.Errorf("%w: image larger than %d bytes", ErrUpstream, maxImageBytes)
	}

	slog.DebugContext(ctx, "QR image fetched",
		"bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds())

	img := Image{Data: data, ContentType: contentType}
	if c.images != nil {
		c.images.Set(text, img)
	}
	return img, nil
}

// Origin is the scheme and host of the QR service, for CSP img-src.
func (c *Client) Origin() string {
	return c.base.Scheme + "://" + c.base.Host
}
