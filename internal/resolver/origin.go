package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"cheatreport/backend/internal/models"

	"github.com/goccy/go-json"
)

// OriginClient looks profiles up on one instance of the external profile API:
//
//	GET {base}/profile?name=<name>     -> {"username","userId","personaId"}
//	GET {base}/profile?userId=<id>     -> same
//	GET {base}/avatar?userId=<id>      -> {"avatar": "<url>"}
//
// A 404 maps to ErrProfileNotFound. Timeouts come from the http.Client.
type OriginClient struct {
	name    string
	baseURL string
	http    *http.Client
}

// NewOriginClient creates a client for baseURL with the given request timeout.
func NewOriginClient(baseURL string, timeout time.Duration) *OriginClient {
	return &OriginClient{
		name:    "origin:" + baseURL,
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *OriginClient) Name() string { return c.name }

func (c *OriginClient) ByName(ctx context.Context, name string) (models.Profile, error) {
	return c.profile(ctx, url.Values{"name": {name}})
}

func (c *OriginClient) ByUserID(ctx context.Context, userID string) (models.Profile, error) {
	return c.profile(ctx, url.Values{"userId": {userID}})
}

func (c *OriginClient) Avatar(ctx context.Context, userID string) (string, error) {
	var body struct {
		Avatar string `json:"avatar"`
	}
	if err := c.get(ctx, "/avatar", url.Values{"userId": {userID}}, &body); err != nil {
		return "", err
	}
	return body.Avatar, nil
}

func (c *OriginClient) profile(ctx context.Context, q url.Values) (models.Profile, error) {
	var p models.Profile
	if err := c.get(ctx, "/profile", q, &p); err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

func (c *OriginClient) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrProfileNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("bad response: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
