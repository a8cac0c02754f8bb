// Package client talks to a running directory server over REST and the
// websocket change feed.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gstdirectory/pkg/directory"
)

type RESTClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// List fetches every record.
func (c *RESTClient) List(ctx context.Context) ([]directory.Record, error) {
	var records []directory.Record
	if err := c.do(ctx, http.MethodGet, "/data", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Traders fetches the records of one city.
func (c *RESTClient) Traders(ctx context.Context, city string) ([]directory.Record, error) {
	var records []directory.Record
	if err := c.do(ctx, http.MethodGet, "/data/cities/"+url.PathEscape(city), nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *RESTClient) Insert(ctx context.Context, city, trader, gst string) (directory.Record, error) {
	body := map[string]string{"city": city, "trader": trader, "gst": gst}
	var resp MessageResponse
	if err := c.do(ctx, http.MethodPost, "/data", body, &resp); err != nil {
		return directory.Record{}, err
	}
	return resp.record(), nil
}

func (c *RESTClient) Update(ctx context.Context, oldCity, oldTrader, newCity, newTrader, newGST string) (directory.Record, error) {
	body := map[string]string{
		"oldCity":   oldCity,
		"oldTrader": oldTrader,
		"newCity":   newCity,
		"newTrader": newTrader,
		"newGST":    newGST,
	}
	var resp MessageResponse
	if err := c.do(ctx, http.MethodPut, "/data", body, &resp); err != nil {
		return directory.Record{}, err
	}
	return resp.record(), nil
}

func (c *RESTClient) Delete(ctx context.Context, city, trader string) error {
	body := map[string]string{"city": city, "trader": trader}
	return c.do(ctx, http.MethodDelete, "/data", body, nil)
}

func (c *RESTClient) do(ctx context.Context, method, path string, in, out any) error {
	endpoint := c.baseURL + path

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	// Construct the request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Execute the HTTP request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	// Check HTTP status code
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
