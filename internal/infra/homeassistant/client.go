package homeassistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lego-house/internal/domain"
	"lego-house/internal/infra"
)

// Entities names the Home Assistant entities wired into the model house.
type Entities struct {
	FirstFloor  string
	SecondFloor string
	Speaker     string
}

// Client drives the model's lights and speaker through Home Assistant's
// REST API.
type Client struct {
	baseURL    string
	token      string
	entities   Entities
	volume     domain.VolumeRange
	httpClient *http.Client
}

func NewClient(baseURL, token string, entities Entities, volume domain.VolumeRange) *Client {
	// Remove trailing slash if present
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &Client{
		baseURL:    baseURL,
		token:      token,
		entities:   entities,
		volume:     volume,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

type serviceCall struct {
	service string
	data    map[string]any
}

func (c *Client) Send(ctx context.Context, cmd domain.Command) error {
	calls, err := c.buildServiceCalls(cmd)
	if err != nil {
		return err
	}

	var errs []error
	for _, call := range calls {
		if err := c.callService(ctx, call); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", call.service, err))
		}
	}
	return errors.Join(errs...)
}

// Ping checks that Home Assistant is reachable with the configured token.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.doRequest(ctx, http.MethodGet, "/api/", nil); err != nil {
		return fmt.Errorf("reaching home assistant: %w", err)
	}
	return nil
}

func (c *Client) buildServiceCalls(cmd domain.Command) ([]serviceCall, error) {
	switch cmd.Target {
	case domain.TargetLight:
		p := cmd.Preset
		var calls []serviceCall
		if c.entities.FirstFloor != "" {
			calls = append(calls, switchCall("light", c.entities.FirstFloor, p.FirstFloor))
		}
		if c.entities.SecondFloor != "" {
			calls = append(calls, switchCall("light", c.entities.SecondFloor, p.SecondFloor))
		}
		if c.entities.Speaker != "" {
			service := "media_player.media_pause"
			if p.Music {
				service = "media_player.media_play"
			}
			calls = append(calls, serviceCall{service: service, data: map[string]any{"entity_id": c.entities.Speaker}})
		}
		return calls, nil

	case domain.TargetAudio:
		if c.entities.Speaker == "" {
			return nil, fmt.Errorf("no speaker entity configured")
		}
		return []serviceCall{{
			service: "media_player.volume_set",
			data: map[string]any{
				"entity_id":    c.entities.Speaker,
				"volume_level": c.volumeLevel(cmd.Level),
			},
		}}, nil

	default:
		return nil, fmt.Errorf("unknown command target: %s", cmd.Target)
	}
}

func switchCall(entityDomain, entityID string, on bool) serviceCall {
	service := entityDomain + ".turn_off"
	if on {
		service = entityDomain + ".turn_on"
	}
	return serviceCall{service: service, data: map[string]any{"entity_id": entityID}}
}

// volumeLevel maps the installation's integer level onto Home Assistant's
// 0.0-1.0 scale.
func (c *Client) volumeLevel(level int) float64 {
	span := c.volume.Max - c.volume.Min
	if span <= 0 {
		return 0
	}
	return float64(c.volume.Clamp(level)-c.volume.Min) / float64(span)
}

func (c *Client) callService(ctx context.Context, call serviceCall) error {
	// Split service into domain and service name (e.g., "light.turn_on" -> "light", "turn_on")
	parts := strings.SplitN(call.service, ".", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid service format: %s", call.service)
	}

	body, err := json.Marshal(call.data)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	path := fmt.Sprintf("/api/services/%s/%s", parts[0], parts[1])
	if _, err := c.doRequest(ctx, http.MethodPost, path, body); err != nil {
		return err
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var respBody []byte

	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = strings.NewReader(string(body))
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("unauthorized: check your Home Assistant token")
		}

		if infra.IsRetryableHTTPStatus(resp.StatusCode) {
			return fmt.Errorf("home assistant API error %d (retryable): %s", resp.StatusCode, string(respBody))
		}

		if resp.StatusCode >= 400 {
			return fmt.Errorf("home assistant API error %d: %s", resp.StatusCode, string(respBody))
		}

		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	return respBody, nil
}
