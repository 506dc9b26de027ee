// Package fetch retrieves statement files from HTTP(S) URLs or the local filesystem.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"mt4-journal/internal/logger"
	"mt4-journal/internal/store"
)

var (
	ErrUnsupportedScheme = errors.New("unsupported scheme")
	ErrTooLarge          = errors.New("statement exceeds max body size")
)

// Document is a fetched statement.
type Document struct {
	Name        string
	URL         string
	ContentType string
	Body        []byte
}

type Fetcher struct {
	timeout      time.Duration
	userAgent    string
	maxBodyBytes int
	transport    *http.Transport
}

func New(cfg store.FetchConfig) *Fetcher {
	t := &http.Transport{Proxy: http.ProxyFromEnvironment}
	t.RegisterProtocol("file", http.NewFileTransport(http.Dir("/")))
	return &Fetcher{
		timeout:      cfg.Timeout,
		userAgent:    cfg.UserAgent,
		maxBodyBytes: cfg.MaxBodyBytes,
		transport:    t,
	}
}

// Fetch downloads location, which may be an http(s) URL, a file:// URL or a bare path.
func (f *Fetcher) Fetch(ctx context.Context, location string) (*Document, error) {
	u, err := resolve(location)
	if err != nil {
		return nil, err
	}

	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.StdlibContext(ctx),
	)
	c.WithTransport(f.transport)
	if f.timeout > 0 {
		c.SetRequestTimeout(f.timeout)
	}
	if f.maxBodyBytes > 0 {
		c.MaxBodySize = f.maxBodyBytes + 1
	}
	c.OnRequest(func(r *colly.Request) {
		if f.userAgent != "" {
			r.Headers.Set("User-Agent", f.userAgent)
		}
	})

	var doc *Document
	c.OnResponse(func(r *colly.Response) {
		doc = &Document{
			Name:        nameOf(r.Request.URL),
			URL:         r.Request.URL.String(),
			ContentType: r.Headers.Get("Content-Type"),
			Body:        r.Body,
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Fetch error", err, "url", r.Request.URL.String(), "status", r.StatusCode)
	})

	if err := c.Visit(u.String()); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	c.Wait()

	if doc == nil {
		return nil, fmt.Errorf("fetch %s: empty response", location)
	}
	if f.maxBodyBytes > 0 && len(doc.Body) > f.maxBodyBytes {
		return nil, fmt.Errorf("fetch %s: %w (%d bytes)", location, ErrTooLarge, f.maxBodyBytes)
	}
	logger.Debug(ctx, "Fetched statement", "url", doc.URL, "bytes", len(doc.Body))
	return doc, nil
}

func resolve(location string) (*url.URL, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New("empty location")
	}
	if u, err := url.Parse(location); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		switch strings.ToLower(u.Scheme) {
		case "http", "https", "file":
			return u, nil
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
		}
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return nil, err
	}
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}, nil
}

func nameOf(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return u.Host
	}
	return name
}
