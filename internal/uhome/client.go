// Package uhome speaks the U-tec cloud API dialect: a single action endpoint
// that multiplexes discovery, status queries and device commands through a
// small request envelope.
package uhome

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"strings"

	"utec-gateway/internal/common/errors"
	"utec-gateway/internal/common/logging"
	"utec-gateway/internal/executor"
	"utec-gateway/internal/settings"
)

// Actions understood by the vendor's multiplexed endpoint.
const (
	ActionQuery   = "Uhome.Device/Query"
	ActionCommand = "Uhome.Device/Command"
)

// CapabilityLock is the smart lock capability namespace.
const CapabilityLock = "st.lock"

// Envelope is the request wrapper every vendor call uses.
type Envelope struct {
	Action string      `json:"action"`
	Data   interface{} `json:"data"`
}

// Device is the vendor's device descriptor. Extra fields the vendor sends
// are preserved in Raw for pass-through to API consumers.
type Device struct {
	ID       string          `json:"id"`
	Name     string          `json:"name,omitempty"`
	Category string          `json:"category,omitempty"`
	Raw      json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps the raw bytes alongside the typed fields.
func (d *Device) UnmarshalJSON(data []byte) error {
	type alias Device
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*d = Device(a)
	d.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON emits the vendor's original bytes when present.
func (d Device) MarshalJSON() ([]byte, error) {
	if len(d.Raw) > 0 {
		return d.Raw, nil
	}
	type alias Device
	return json.Marshal(alias(d))
}

// queryResponse is the vendor's answer to a Query action.
type queryResponse struct {
	Payload struct {
		Devices []Device `json:"devices"`
	} `json:"payload"`
}

// deviceRef identifies a device in a status query.
type deviceRef struct {
	ID string `json:"id"`
}

// commandData is the payload of a Command action.
type commandData struct {
	ID         string      `json:"id"`
	Capability string      `json:"capability"`
	Command    commandName `json:"command"`
}

type commandName struct {
	Name string `json:"name"`
}

// Client calls the vendor API through the authenticated executor.
type Client struct {
	exec     *executor.Executor
	settings func() settings.Settings
	logger   logging.Logger
}

// NewClient builds a vendor API client.
func NewClient(exec *executor.Executor, src func() settings.Settings, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Client{exec: exec, settings: src, logger: logger}
}

// Discover lists all devices on the account.
func (c *Client) Discover(ctx context.Context) ([]Device, error) {
	resp, err := c.do(ctx, Envelope{Action: ActionQuery, Data: map[string]interface{}{}})
	if err != nil {
		return nil, err
	}

	var qr queryResponse
	if err := json.Unmarshal(resp.RawBody, &qr); err != nil {
		return nil, errors.UpstreamError(resp.StatusCode, "discovery response is not valid JSON")
	}
	return qr.Payload.Devices, nil
}

// QueryStatus fetches the current state of the given devices. The result is
// the vendor's parsed response body; its shape is passed through unchanged.
func (c *Client) QueryStatus(ctx context.Context, ids []string) (interface{}, error) {
	refs := make([]deviceRef, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			refs = append(refs, deviceRef{ID: id})
		}
	}
	if len(refs) == 0 {
		return nil, errors.ValidationError("at least one device id is required")
	}

	resp, err := c.do(ctx, Envelope{
		Action: ActionQuery,
		Data:   map[string]interface{}{"devices": refs},
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// SendCommand issues a device command such as lock or unlock.
func (c *Client) SendCommand(ctx context.Context, deviceID, capability, command string) (interface{}, error) {
	if deviceID == "" {
		return nil, errors.ValidationError("device id is required")
	}

	resp, err := c.do(ctx, Envelope{
		Action: ActionCommand,
		Data: commandData{
			ID:         deviceID,
			Capability: capability,
			Command:    commandName{Name: command},
		},
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("Device command sent",
		logging.String("device_id", deviceID),
		logging.String("command", command))
	return resp.Body, nil
}

// Lock locks the device through the st.lock capability.
func (c *Client) Lock(ctx context.Context, deviceID string) (interface{}, error) {
	return c.SendCommand(ctx, deviceID, CapabilityLock, "lock")
}

// Unlock unlocks the device through the st.lock capability.
func (c *Client) Unlock(ctx context.Context, deviceID string) (interface{}, error) {
	return c.SendCommand(ctx, deviceID, CapabilityLock, "unlock")
}

// do posts an envelope to the action endpoint and maps non-2xx responses to
// upstream errors carrying the vendor's verbatim status and body.
func (c *Client) do(ctx context.Context, env Envelope) (*executor.Response, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return nil, errors.InternalError("encode request envelope", err)
	}

	s := c.settings()
	endpoint := strings.TrimRight(s.APIBaseURL, "/") + s.ActionPath

	resp, err := c.exec.Execute(ctx, nethttp.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, errors.UpstreamError(resp.StatusCode, string(resp.RawBody)).
			WithContext("action", env.Action).
			WithContext("endpoint", endpoint)
	}
	return resp, nil
}

// Endpoint returns the fully resolved action endpoint, useful for logs and
// the control panel.
func (c *Client) Endpoint() string {
	s := c.settings()
	return strings.TrimRight(s.APIBaseURL, "/") + s.ActionPath
}
