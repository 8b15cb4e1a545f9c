package pushlog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Changeset is a single changeset within a push.
type Changeset struct {
	Node string `json:"node"`
	Desc string `json:"desc"`
}

// Push is one source-control submission as recorded by the push log.
type Push struct {
	ID         int64       `json:"-"`
	User       string      `json:"user"`
	Date       int64       `json:"date"`
	Changesets []Changeset `json:"changesets"`
}

// Tip returns the last changeset of the push, the one task graph
// templates are resolved against.
func (p *Push) Tip() (*Changeset, error) {
	if len(p.Changesets) == 0 {
		return nil, fmt.Errorf("push %d has no changesets", p.ID)
	}
	return &p.Changesets[len(p.Changesets)-1], nil
}

type pushesResponse struct {
	LastPushID int64           `json:"lastpushid"`
	Pushes     map[string]Push `json:"pushes"`
}

// Client reads the hg-style json-pushes log of a repository.
type Client struct {
	httpClient *http.Client
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetOne fetches a single push by id.
func (c *Client) GetOne(ctx context.Context, repoURL string, pushID int64) (*Push, error) {
	u := fmt.Sprintf(
		"%s/json-pushes?version=2&startID=%d&endID=%d",
		strings.TrimSuffix(repoURL, "/"), pushID-1, pushID,
	)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	p, ok := body.Pushes[strconv.FormatInt(pushID, 10)]
	if !ok {
		return nil, fmt.Errorf("push %d not found in push log of %s", pushID, repoURL)
	}
	p.ID = pushID
	return &p, nil
}

// Since returns the pushes recorded after lastID in ascending push order.
func (c *Client) Since(ctx context.Context, repoURL string, lastID int64) ([]Push, error) {
	u := fmt.Sprintf(
		"%s/json-pushes?version=2&startID=%d",
		strings.TrimSuffix(repoURL, "/"), lastID,
	)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	pushes := make([]Push, 0, len(body.Pushes))
	for id, p := range body.Pushes {
		pushID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid push id %q in push log of %s", id, repoURL)
		}
		p.ID = pushID
		pushes = append(pushes, p)
	}
	sort.Slice(pushes, func(i, j int) bool { return pushes[i].ID < pushes[j].ID })
	return pushes, nil
}

func (c *Client) get(ctx context.Context, url string) (*pushesResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching push log %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching push log %s: unexpected status %s", url, resp.Status)
	}

	body := new(pushesResponse)
	if err := json.NewDecoder(resp.Body).Decode(body); err != nil {
		return nil, fmt.Errorf("decoding push log %s: %w", url, err)
	}
	return body, nil
}
