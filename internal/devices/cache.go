// Package devices maintains the polled view of the account's devices. A
// single poller builds immutable snapshots and swaps them in atomically, so
// readers never block and never see a half-updated view.
package devices

import (
	"sync/atomic"
	"time"

	"utec-gateway/internal/uhome"
)

// State pairs a discovered device with its most recent status. Status is
// nil when the last status query did not cover the device.
type State struct {
	Device uhome.Device `json:"device"`
	Status interface{}  `json:"status,omitempty"`
}

// Snapshot is one immutable poll result. The raw status response is kept
// alongside the merged view because API consumers expect the vendor's shape
// verbatim.
type Snapshot struct {
	Devices   []State     `json:"devices"`
	RawStatus interface{} `json:"raw_status,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Cache holds the current snapshot behind an atomic pointer.
type Cache struct {
	current atomic.Pointer[Snapshot]
}

// NewCache returns an empty cache. Snapshot returns nil until the first
// commit.
func NewCache() *Cache {
	return &Cache{}
}

// Snapshot returns the latest committed snapshot, or nil before the first
// successful poll. The returned value must be treated as read-only.
func (c *Cache) Snapshot() *Snapshot {
	return c.current.Load()
}

// Commit replaces the current snapshot.
func (c *Cache) Commit(s *Snapshot) {
	c.current.Store(s)
}

// Merge joins discovery results with a status response. Every discovered
// device appears in the output exactly once; devices missing from the
// status response keep a nil Status instead of being dropped.
func Merge(discovered []uhome.Device, statusResp interface{}) []State {
	statusByID := statusIndex(statusResp)

	out := make([]State, 0, len(discovered))
	for _, d := range discovered {
		out = append(out, State{
			Device: d,
			Status: statusByID[d.ID],
		})
	}
	return out
}

// statusIndex extracts per-device entries from a vendor status response,
// keyed by device id. Unrecognized shapes yield an empty index.
func statusIndex(statusResp interface{}) map[string]interface{} {
	index := make(map[string]interface{})

	root, ok := statusResp.(map[string]interface{})
	if !ok {
		return index
	}
	payload, ok := root["payload"].(map[string]interface{})
	if !ok {
		return index
	}
	list, ok := payload["devices"].([]interface{})
	if !ok {
		return index
	}

	for _, entry := range list {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		id, ok := m["id"].(string)
		if !ok || id == "" {
			continue
		}
		index[id] = entry
	}
	return index
}
