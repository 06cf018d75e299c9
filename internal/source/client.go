// Package source extracts raw tables from the two upstream systems: the
// hosted tabular-record API and Excel workbooks. Both produce a
// tabular.Table; normalization and validation happen downstream.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fieldline-io/plansync/pkg/types"
)

// Client fetches records from the hosted tabular-record API. Calls are not
// retried; a failed fetch fails the batch.
type Client struct {
	baseURL string
	token   string
	base    string
	httpc   *http.Client
}

// NewClient builds a client for one base of the record API.
func NewClient(baseURL, token, base string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		base:    base,
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}
}

// recordPage is one page of the API's list-records response.
type recordPage struct {
	Records []struct {
		ID     string         `json:"id"`
		Fields map[string]any `json:"fields"`
	} `json:"records"`
	Offset string `json:"offset"`
}

// FetchRecords fetches every record of a table, following offset pagination
// until the server stops returning one. An empty table is an error; the
// upstream tables are never legitimately empty.
func (c *Client) FetchRecords(ctx context.Context, tableID string) ([]map[string]any, error) {
	var all []map[string]any
	offset := ""
	for {
		page, err := c.fetchPage(ctx, tableID, offset)
		if err != nil {
			return nil, err
		}
		for _, rec := range page.Records {
			all = append(all, rec.Fields)
		}
		if page.Offset == "" {
			break
		}
		offset = page.Offset
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: table %s", types.ErrNoRecords, tableID)
	}
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, tableID, offset string) (*recordPage, error) {
	u, err := url.Parse(fmt.Sprintf("%s/v0/%s/%s", c.baseURL, c.base, tableID))
	if err != nil {
		return nil, fmt.Errorf("building request URL: %w", err)
	}
	if offset != "" {
		q := u.Query()
		q.Set("offset", offset)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching table %s: %w", tableID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching table %s: unexpected status %s", tableID, resp.Status)
	}

	var page recordPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding table %s response: %w", tableID, err)
	}
	return &page, nil
}
