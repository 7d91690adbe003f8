// Package enrich looks up organization membership from the community
// directory API and carries the job type flowing through the enrichment
// queue.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"marque/internal/domain/model"
)

const defaultTimeout = 10 * time.Second

// Job is one unit of enrichment work: resolve the handle's org and upsert
// its metadata. PlayerID links the resulting membership row.
type Job struct {
	ID       string
	Handle   string
	PlayerID uint64
}

// PlayerOrg is the membership summary returned by a handle lookup.
type PlayerOrg struct {
	SID  string
	Name string
	Rank *string
}

// Directory resolves handles and organizations against an external source.
type Directory interface {
	// FetchPlayerOrg returns the handle's primary organization, or nil when
	// the handle has none or the lookup did not succeed. Only transport
	// failures surface as errors.
	FetchPlayerOrg(ctx context.Context, handle string) (*PlayerOrg, error)

	// FetchOrgInfo returns extended metadata for an organization SID, or
	// nil when the directory has nothing usable.
	FetchOrgInfo(ctx context.Context, sid string) (*model.OrgMetadata, error)
}

// Client talks to the community directory over HTTP. Request paths follow
// the {base}/{key}/v1/{mode}/... scheme of the public API.
type Client struct {
	baseURL    string
	apiKey     string
	mode       string
	httpClient *http.Client
}

// NewClient creates a directory client.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		mode:    "live",
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientOption applies a configuration option to the Client.
type ClientOption func(*Client)

// WithMode sets the API mode segment (live or cache).
func WithMode(mode string) ClientOption {
	return func(c *Client) {
		if mode != "" {
			c.mode = mode
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func (c *Client) url(path string) string {
	return fmt.Sprintf("%s/%s/v1/%s/%s", c.baseURL, c.apiKey, c.mode, path)
}

// directory API envelopes.

type userResponse struct {
	Success int `json:"success"`
	Data    struct {
		Organization struct {
			SID  string  `json:"sid"`
			Name string  `json:"name"`
			Rank *string `json:"rank"`
		} `json:"organization"`
	} `json:"data"`
}

type orgResponse struct {
	Success int `json:"success"`
	Data    struct {
		Name string `json:"name"`
		// Logo appears either as a bare URL string or an object with a
		// source field, depending on the endpoint version.
		Logo        json.RawMessage `json:"logo"`
		Site        string          `json:"site"`
		URL         string          `json:"url"`
		Members     *int            `json:"members"`
		MemberCount *int            `json:"member_count"`
	} `json:"data"`
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("build directory request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("directory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, nil
	}
	return true, nil
}

// FetchPlayerOrg implements Directory.
func (c *Client) FetchPlayerOrg(ctx context.Context, handle string) (*PlayerOrg, error) {
	var out userResponse
	ok, err := c.getJSON(ctx, c.url("user/"+handle), &out)
	if err != nil {
		return nil, err
	}
	if !ok || out.Success != 1 || out.Data.Organization.SID == "" {
		return nil, nil
	}
	return &PlayerOrg{
		SID:  out.Data.Organization.SID,
		Name: out.Data.Organization.Name,
		Rank: out.Data.Organization.Rank,
	}, nil
}

// FetchOrgInfo implements Directory.
func (c *Client) FetchOrgInfo(ctx context.Context, sid string) (*model.OrgMetadata, error) {
	var out orgResponse
	ok, err := c.getJSON(ctx, c.url("organization/"+sid), &out)
	if err != nil {
		return nil, err
	}
	if !ok || out.Success != 1 {
		return nil, nil
	}

	meta := &model.OrgMetadata{SID: sid}
	if out.Data.Name != "" {
		name := out.Data.Name
		meta.Name = &name
	}
	if logo := decodeLogo(out.Data.Logo); logo != "" {
		meta.Logo = &logo
	}
	if site := firstNonEmpty(out.Data.Site, out.Data.URL); site != "" {
		meta.URL = &site
	}
	if out.Data.Members != nil {
		meta.MemberCount = out.Data.Members
	} else if out.Data.MemberCount != nil {
		meta.MemberCount = out.Data.MemberCount
	}
	return meta, nil
}

func decodeLogo(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var obj struct {
		Source string `json:"source"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Source != "" {
		return obj.Source
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
