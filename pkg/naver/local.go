package naver

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

const defaultLocalBaseURL = "https://openapi.naver.com"

// LocalClient calls the Naver Developers local search API.
type LocalClient struct {
	t *transport
}

// NewLocalClient creates a local search client.
func NewLocalClient(clientID, clientSecret string, opts ...Option) *LocalClient {
	headers := http.Header{}
	headers.Set("X-Naver-Client-Id", clientID)
	headers.Set("X-Naver-Client-Secret", clientSecret)
	return &LocalClient{t: newTransport("naver_local", defaultLocalBaseURL, headers, opts)}
}

// SearchLocal runs a similarity-sorted local search returning up to display
// items.
func (c *LocalClient) SearchLocal(ctx context.Context, query string, display int) (Payload, error) {
	if display <= 0 {
		display = 5
	}
	params := url.Values{
		"query":   {query},
		"display": {strconv.Itoa(display)},
		"start":   {"1"},
		"sort":    {"sim"},
	}
	var resp Payload
	if err := c.t.getJSON(ctx, "local search", "/v1/search/local.json", params, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}
