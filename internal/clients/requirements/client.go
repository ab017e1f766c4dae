package requirements

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/timeless-backend/internal/pkg/logger"
)

// Client talks to the requirements collaborator's /api/v0 surface. Every call
// carries the bounded client timeout; failures are transient by design and
// surface as plain errors for the caller to log and skip.
type Client interface {
	CreateMeeting(ctx context.Context) (uuid.UUID, error)
	RegisterMeeting(ctx context.Context, meetingID uuid.UUID) error
	ForwardTranscription(ctx context.Context, meetingID uuid.UUID, text string) error
	FetchRequirements(ctx context.Context, meetingID uuid.UUID) (string, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
}

func NewClient(log *logger.Logger, baseURL string, timeout time.Duration) (Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("requirements service url required")
	}
	return &client{
		log:        log.With("service", "RequirementsClient"),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("requirements service http %d: %s", resp.StatusCode, string(raw))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("requirements service decode error: %w", err)
		}
	}
	return nil
}

type createMeetingResponse struct {
	MeetingID string `json:"meeting_id"`
}

func (c *client) CreateMeeting(ctx context.Context) (uuid.UUID, error) {
	var resp createMeetingResponse
	if err := c.doJSON(ctx, "POST", "/api/v0/meeting", nil, &resp); err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(strings.TrimSpace(resp.MeetingID))
	if err != nil {
		return uuid.Nil, fmt.Errorf("requirements service returned bad meeting id %q: %w", resp.MeetingID, err)
	}
	return id, nil
}

// RegisterMeeting creates the session under an id chosen on our side. Used by
// the registration retry loop when the collaborator was unreachable at
// meeting creation, so both sides end up resolving the same id. A collaborator
// that ignores the requested id and mints its own is a failed registration;
// accepting it would leave every later forward and fetch pointed at a session
// the collaborator does not know.
func (c *client) RegisterMeeting(ctx context.Context, meetingID uuid.UUID) error {
	body := map[string]string{"meeting_id": meetingID.String()}
	var resp createMeetingResponse
	if err := c.doJSON(ctx, "POST", "/api/v0/meeting", body, &resp); err != nil {
		return err
	}
	got, err := uuid.Parse(strings.TrimSpace(resp.MeetingID))
	if err != nil {
		return fmt.Errorf("requirements service returned bad meeting id %q: %w", resp.MeetingID, err)
	}
	if got != meetingID {
		return fmt.Errorf("requirements service registered %s instead of %s", got, meetingID)
	}
	return nil
}

func (c *client) ForwardTranscription(ctx context.Context, meetingID uuid.UUID, text string) error {
	body := map[string]string{"transcription": text}
	return c.doJSON(ctx, "POST", "/api/v0/meeting/"+meetingID.String()+"/transcription", body, nil)
}

type requirementsResponse struct {
	Requirements string `json:"requirements"`
}

func (c *client) FetchRequirements(ctx context.Context, meetingID uuid.UUID) (string, error) {
	var resp requirementsResponse
	if err := c.doJSON(ctx, "GET", "/api/v0/meeting/"+meetingID.String()+"/requirements", nil, &resp); err != nil {
		return "", err
	}
	return resp.Requirements, nil
}
