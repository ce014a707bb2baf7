package routingcfg

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Override is the document served by the remote config endpoint.
type Override struct {
	Flags map[string]any  `json:"flags"`
	UI    json.RawMessage `json:"ui"`
}

type Fetcher interface {
	Fetch(ctx context.Context) (Override, error)
}

type HTTPFetcher struct {
	client *resty.Client
	url    string
}

func NewHTTPFetcher(url string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Cache-Control", "no-store")
	return &HTTPFetcher{client: client, url: url}
}

func (f *HTTPFetcher) Fetch(ctx context.Context) (Override, error) {
	var out Override
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParam("ts", fmt.Sprint(time.Now().UnixMilli())).
		SetResult(&out).
		ForceContentType("application/json").
		Get(f.url)
	if err != nil {
		return Override{}, err
	}
	if resp.IsError() {
		return Override{}, fmt.Errorf("remote config http error: %s", resp.Status())
	}
	return out, nil
}
