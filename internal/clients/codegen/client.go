package codegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/timeless-backend/internal/pkg/logger"
)

// Client invokes the code-generation collaborator: it takes the current
// requirement text and returns where the generated application was deployed.
// Generation can take minutes, so the timeout here is deliberately long; the
// orchestrator never calls this on a request path.
type Client interface {
	Generate(ctx context.Context, requirements string) (deploymentURL string, err error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
}

func NewClient(log *logger.Logger, baseURL string, timeout time.Duration) (Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("codegen service url required")
	}
	return &client{
		log:        log.With("service", "CodegenClient"),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type generateRequest struct {
	Requirements string `json:"requirements"`
}

type generateResponse struct {
	Status        string `json:"status"`
	DeploymentURL string `json:"deployment_url"`
}

func (c *client) Generate(ctx context.Context, requirements string) (string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(generateRequest{Requirements: requirements}); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/generate", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return "", readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("codegen service http %d: %s", resp.StatusCode, string(raw))
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("codegen service decode error: %w", err)
	}
	url := strings.TrimSpace(out.DeploymentURL)
	if url == "" {
		return "", fmt.Errorf("codegen service returned no deployment url")
	}
	return url, nil
}
