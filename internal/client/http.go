package client

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

	"github.com/pulseflow/pulseflow/internal/model"
)

// HTTPClient implements PulseClient using the PulseFlow HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Automation CRUD ---

func (c *HTTPClient) CreateAutomation(ctx context.Context, req *CreateAutomationRequest) (*model.Automation, error) {
	var automation model.Automation
	if err := c.doJSON(ctx, http.MethodPost, "/v1/automations", req, &automation); err != nil {
		return nil, err
	}
	return &automation, nil
}

func (c *HTTPClient) GetAutomation(ctx context.Context, id string) (*model.Automation, error) {
	var automation model.Automation
	if err := c.doJSON(ctx, http.MethodGet, "/v1/automations/"+url.PathEscape(id), nil, &automation); err != nil {
		return nil, err
	}
	return &automation, nil
}

func (c *HTTPClient) ListAutomations(ctx context.Context, req *ListAutomationsRequest) (*ListAutomationsResponse, error) {
	q := url.Values{}
	if req.Owner != "" {
		q.Set("owner", req.Owner)
	}
	if req.Enabled != nil {
		q.Set("enabled", strconv.FormatBool(*req.Enabled))
	}
	if req.Search != "" {
		q.Set("search", req.Search)
	}
	if req.Sort != "" {
		q.Set("sort", req.Sort)
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Offset > 0 {
		q.Set("offset", strconv.Itoa(req.Offset))
	}

	path := "/v1/automations"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ListAutomationsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) UpdateAutomation(ctx context.Context, id string, req *UpdateAutomationRequest) (*model.Automation, error) {
	var automation model.Automation
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/automations/"+url.PathEscape(id), req, &automation); err != nil {
		return nil, err
	}
	return &automation, nil
}

func (c *HTTPClient) DeleteAutomation(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/automations/"+url.PathEscape(id), nil, nil)
}

// --- Graph ---

func (c *HTTPClient) AppendNode(ctx context.Context, automationID string, req *AppendNodeRequest) (*AppendNodeResponse, error) {
	var resp AppendNodeResponse
	path := "/v1/automations/" + url.PathEscape(automationID) + "/nodes"
	if err := c.doJSON(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) CreateConnection(ctx context.Context, automationID string, req *CreateConnectionRequest) (*model.Connection, error) {
	var conn model.Connection
	path := "/v1/automations/" + url.PathEscape(automationID) + "/connections"
	if err := c.doJSON(ctx, http.MethodPost, path, req, &conn); err != nil {
		return nil, err
	}
	return &conn, nil
}

func (c *HTTPClient) GetGraph(ctx context.Context, automationID string) (*model.GraphResponse, error) {
	var graph model.GraphResponse
	path := "/v1/automations/" + url.PathEscape(automationID) + "/graph"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &graph); err != nil {
		return nil, err
	}
	return &graph, nil
}

// --- Runs ---

func (c *HTTPClient) StartRun(ctx context.Context, automationID, startedBy string) (*model.Run, error) {
	body := map[string]string{}
	if startedBy != "" {
		body["started_by"] = startedBy
	}
	var run model.Run
	path := "/v1/automations/" + url.PathEscape(automationID) + "/runs"
	if err := c.doJSON(ctx, http.MethodPost, path, body, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *HTTPClient) GetRun(ctx context.Context, id string) (*model.Run, error) {
	var run model.Run
	if err := c.doJSON(ctx, http.MethodGet, "/v1/runs/"+url.PathEscape(id), nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *HTTPClient) ListRuns(ctx context.Context, automationID string) ([]*model.Run, error) {
	var resp struct {
		Runs []*model.Run `json:"runs"`
	}
	path := "/v1/automations/" + url.PathEscape(automationID) + "/runs"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Runs, nil
}

func (c *HTTPClient) RunStatus(ctx context.Context, runID string) (map[string]model.ExecutionStatus, error) {
	var resp struct {
		Statuses map[string]model.ExecutionStatus `json:"statuses"`
	}
	path := "/v1/runs/" + url.PathEscape(runID) + "/status"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Statuses, nil
}

func (c *HTTPClient) SetNodeStatus(ctx context.Context, runID, nodeID string, status model.ExecutionStatus) error {
	body := map[string]model.ExecutionStatus{"status": status}
	path := "/v1/runs/" + url.PathEscape(runID) + "/nodes/" + url.PathEscape(nodeID) + "/status"
	return c.doJSON(ctx, http.MethodPost, path, body, nil)
}

func (c *HTTPClient) RecordNodeResult(ctx context.Context, runID, nodeID string, result any) (*model.NodeResult, error) {
	body := map[string]any{"result": result}
	var nr model.NodeResult
	path := "/v1/runs/" + url.PathEscape(runID) + "/nodes/" + url.PathEscape(nodeID) + "/result"
	if err := c.doJSON(ctx, http.MethodPost, path, body, &nr); err != nil {
		return nil, err
	}
	return &nr, nil
}

func (c *HTTPClient) FinishRun(ctx context.Context, runID string, status model.RunStatus, runErr string) (*model.Run, error) {
	body := map[string]string{"status": string(status)}
	if runErr != "" {
		body["error"] = runErr
	}
	var run model.Run
	path := "/v1/runs/" + url.PathEscape(runID) + "/finish"
	if err := c.doJSON(ctx, http.MethodPost, path, body, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// --- Node results ---

func (c *HTTPClient) ListNodeResults(ctx context.Context, automationID string) ([]*model.NodeResult, error) {
	var resp struct {
		Results []*model.NodeResult `json:"results"`
	}
	path := "/v1/automations/" + url.PathEscape(automationID) + "/results"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *HTTPClient) GetNodeResult(ctx context.Context, automationID, nodeID string) (*model.NodeResult, error) {
	var nr model.NodeResult
	path := "/v1/automations/" + url.PathEscape(automationID) + "/results/" + url.PathEscape(nodeID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &nr); err != nil {
		return nil, err
	}
	return &nr, nil
}

// --- Events ---

func (c *HTTPClient) GetEvents(ctx context.Context, automationID string) ([]*model.Event, error) {
	var resp struct {
		Events []*model.Event `json:"events"`
	}
	path := "/v1/automations/" + url.PathEscape(automationID) + "/events"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// --- Config ---

func (c *HTTPClient) SetConfig(ctx context.Context, key string, value json.RawMessage) (*model.Config, error) {
	body := map[string]json.RawMessage{"value": value}
	var config model.Config
	if err := c.doJSON(ctx, http.MethodPut, "/v1/configs/"+key, body, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *HTTPClient) GetConfig(ctx context.Context, key string) (*model.Config, error) {
	var config model.Config
	if err := c.doJSON(ctx, http.MethodGet, "/v1/configs/"+key, nil, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *HTTPClient) ListConfigs(ctx context.Context, namespace string) ([]*model.Config, error) {
	var resp struct {
		Configs []*model.Config `json:"configs"`
	}
	path := "/v1/configs?namespace=" + url.QueryEscape(namespace)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Configs, nil
}

func (c *HTTPClient) DeleteConfig(ctx context.Context, key string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/configs/"+key, nil, nil)
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content means success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
