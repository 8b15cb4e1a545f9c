package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/treeci/treeci/internal/graph"
)

// Client is the narrow slice of the remote task-queue service the
// submitter consumes: create a task under a caller-chosen id. Task
// creation is idempotent by id on the remote side.
type Client interface {
	CreateTask(ctx context.Context, taskID string, definition graph.Task) error
}

// HTTPClient talks to the queue service's REST API. It authenticates with
// service credentials and restricts itself to an authorized-scope
// allowlist; the remote side rejects tasks requiring scopes outside it.
type HTTPClient struct {
	rootURL          string
	clientID         string
	accessToken      string
	authorizedScopes []string
	httpClient       *http.Client
}

func NewHTTPClient(rootURL, clientID, accessToken string, authorizedScopes []string) *HTTPClient {
	return &HTTPClient{
		rootURL:          rootURL,
		clientID:         clientID,
		accessToken:      accessToken,
		authorizedScopes: authorizedScopes,
		httpClient:       &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) CreateTask(ctx context.Context, taskID string, definition graph.Task) error {
	body, err := json.Marshal(definition)
	if err != nil {
		return fmt.Errorf("encoding task %s: %w", taskID, err)
	}

	url := c.rootURL + "/v1/task/" + taskID
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.clientID, c.accessToken)
	if len(c.authorizedScopes) > 0 {
		scopes, err := json.Marshal(c.authorizedScopes)
		if err != nil {
			return err
		}
		req.Header.Set("X-Authorized-Scopes", string(scopes))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("creating task %s: %w", taskID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf(
			"creating task %s: unexpected status %s: %s",
			taskID, resp.Status, string(message),
		)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
