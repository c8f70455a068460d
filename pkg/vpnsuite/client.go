// Package vpnsuite is the client for the external VPN security suite. The
// console notifies the suite about connection lifecycle events so it can
// program tunnels; notifications are best effort and never gate the
// authoritative state in the database.
package vpnsuite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/eclipse-sealman/sealman-ems/pkg/model"
)

// Event is one lifecycle notification sent to the suite.
type Event struct {
	Type             string    `json:"type"`
	Username         string    `json:"username"`
	DeviceID         *uint     `json:"deviceId,omitempty"`
	EndpointDeviceID *uint     `json:"endpointDeviceId,omitempty"`
	Destination      string    `json:"destination,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

const (
	EventConnectionOpened = "connectionOpened"
	EventConnectionClosed = "connectionClosed"
)

type Client struct {
	endpoint string
	client   *http.Client
	retrier  *retrier
	logger   zerolog.Logger
}

func NewClient(endpoint string, logger zerolog.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		retrier:  newRetrier(500, 4000, 3, logger),
		logger:   logger,
	}
}

// NotifyOpened reports a newly created connection to the suite.
func (c *Client) NotifyOpened(ctx context.Context, connection *model.VpnConnection) error {
	return c.send(ctx, Event{
		Type:             EventConnectionOpened,
		Username:         connection.Source,
		DeviceID:         connection.DeviceID,
		EndpointDeviceID: connection.EndpointDeviceID,
		Destination:      connection.Destination,
		Timestamp:        time.Now(),
	})
}

// NotifyClosed reports that connections to a target were torn down.
func (c *Client) NotifyClosed(ctx context.Context, username string, deviceID, endpointDeviceID *uint) error {
	return c.send(ctx, Event{
		Type:             EventConnectionClosed,
		Username:         username,
		DeviceID:         deviceID,
		EndpointDeviceID: endpointDeviceID,
		Timestamp:        time.Now(),
	})
}

func (c *Client) send(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return c.retrier.do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/events", bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= http.StatusMultipleChoices {
			if isRetryableStatus(resp) {
				return retryableStatusError{status: resp.StatusCode}
			}
			return fmt.Errorf("vpn suite returned %d", resp.StatusCode)
		}
		return nil
	}, isRetryableHTTP)
}

// Ping checks whether the suite endpoint answers, used by health checks.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/v1/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vpn suite returned %d", resp.StatusCode)
	}
	return nil
}
