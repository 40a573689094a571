// Package client provides a typed JSON API client for the line sampler
// service, for use by the CLI and by tests.
package client

import (
	"net/http"
)

// Client encodes settings and default values used when constructing requests.
type Client struct {
	url    string
	client *http.Client
	header http.Header
}

// New returns a client for the service at url, e.g. "http://127.0.0.1:8000".
func New(url string, opts ...Opt) *Client {
	n := &Client{
		url:    url,
		client: &http.Client{},
		header: make(http.Header),
	}

	for _, opt := range opts {
		opt(n)
	}
	return n
}

type Opt func(*Client)

// HTTPClient sets an HTTP client to use when making requests.
func HTTPClient(client *http.Client) Opt {
	return func(p *Client) { p.client = client }
}

// Header adds a header that will be included in all requests.
func Header(k, v string) Opt {
	return func(p *Client) { p.header.Add(k, v) }
}
