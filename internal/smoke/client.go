package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/prefight/internal/domain/model"
	"github.com/okian/prefight/internal/domain/types"
)

// Client talks to a prefight server.
type Client struct {
	base   string
	client *http.Client
}

// NewClient creates a client with a request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

// Built is the part of a features response the smoke run checks.
type Built struct {
	RunID   string   `json:"run_id"`
	Persist string   `json:"persist"`
	Mode    string   `json:"mode"`
	Schema  []string `json:"schema"`
	Rows    []struct {
		MatchID string `json:"match_id"`
	} `json:"rows"`
}

// PostFeatures submits records as one JSON array.
func (c *Client) PostFeatures(ctx context.Context, records []model.MatchRecord) (*Built, error) {
	body, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal records: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/v1/features", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out Built
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TopN fetches the first n leaderboard entries.
func (c *Client) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/v1/ratings?limit="+strconv.Itoa(n), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	var out []types.Entry
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s %s: %d %s", ErrStatus, req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
