package northbound

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/veesix-networks/osvlan/pkg/switchapi"
	"github.com/veesix-networks/osvlan/pkg/version"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s (%s, HTTP %d)", e.Message, e.Status, e.StatusCode)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			e.Error = resp.Status
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Status:     e.Status,
			Message:    e.Error,
			RequestID:  resp.Header.Get(RequestIDHeader),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func counterQuery(counters []string) string {
	if len(counters) == 0 {
		return ""
	}
	q := url.Values{}
	for _, c := range counters {
		q.Add("counter", c)
	}
	return "?" + q.Encode()
}

func vlanPath(vlan uint16) string {
	return "/api/vlans/" + strconv.FormatUint(uint64(vlan), 10)
}

func memberPath(id string) string {
	return "/api/vlan-members/" + url.PathEscape(id)
}

func (c *Client) Ports(ctx context.Context) ([]switchapi.Port, error) {
	var resp PortsResponse
	if err := c.do(ctx, http.MethodGet, "/api/ports", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Ports, nil
}

func (c *Client) CreateVlan(ctx context.Context, vlan uint16) error {
	return c.do(ctx, http.MethodPost, "/api/vlans", CreateVlanRequest{VlanID: vlan}, nil)
}

func (c *Client) DeleteVlan(ctx context.Context, vlan uint16) error {
	return c.do(ctx, http.MethodDelete, vlanPath(vlan), nil, nil)
}

func (c *Client) Vlan(ctx context.Context, vlan uint16) (*VlanResponse, error) {
	var resp VlanResponse
	if err := c.do(ctx, http.MethodGet, vlanPath(vlan)+"/members", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SetVlanAttribute(ctx context.Context, vlan uint16, attr AttributeRequest) error {
	return c.do(ctx, http.MethodPut, vlanPath(vlan)+"/attributes", attr, nil)
}

func (c *Client) VlanStats(ctx context.Context, vlan uint16, counters ...string) (*StatsResponse, error) {
	var resp StatsResponse
	if err := c.do(ctx, http.MethodGet, vlanPath(vlan)+"/stats"+counterQuery(counters), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ClearVlanStats(ctx context.Context, vlan uint16, counters ...string) error {
	return c.do(ctx, http.MethodDelete, vlanPath(vlan)+"/stats"+counterQuery(counters), nil, nil)
}

func (c *Client) CreateMember(ctx context.Context, req CreateMemberRequest) (*Member, error) {
	var m Member
	if err := c.do(ctx, http.MethodPost, "/api/vlan-members", req, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) Member(ctx context.Context, id string) (*Member, error) {
	var m Member
	if err := c.do(ctx, http.MethodGet, memberPath(id), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) DeleteMember(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, memberPath(id), nil, nil)
}

func (c *Client) SetMemberAttribute(ctx context.Context, id string, attr AttributeRequest) error {
	return c.do(ctx, http.MethodPut, memberPath(id)+"/attributes", attr, nil)
}
