package devices

import (
	"context"
	"time"

	"utec-gateway/internal/common/errors"
	"utec-gateway/internal/common/logging"
	"utec-gateway/internal/uhome"
)

// Poller refreshes the cache from the vendor API. It is the cache's only
// writer; the scheduler drives it on an interval and handlers may trigger it
// on demand.
type Poller struct {
	client *uhome.Client
	cache  *Cache
	logger logging.Logger
}

// NewPoller wires a poller to its vendor client and cache.
func NewPoller(client *uhome.Client, cache *Cache, logger logging.Logger) *Poller {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Poller{client: client, cache: cache, logger: logger}
}

// Poll runs one discovery and status cycle. On discovery failure the
// previous snapshot is retained untouched. On status failure the snapshot
// is still committed with discovery data only, so device lists stay fresh
// even when status queries misbehave.
func (p *Poller) Poll(ctx context.Context) error {
	start := time.Now()

	discovered, err := p.client.Discover(ctx)
	if err != nil {
		if errors.IsType(err, errors.ErrTypeAuthUnavailable) {
			p.logger.Debug("Skipping device poll, gateway not authorized")
			return err
		}
		p.logger.Warn("Device discovery failed, keeping previous snapshot", logging.Err(err))
		return err
	}

	var rawStatus interface{}
	if len(discovered) > 0 {
		ids := make([]string, 0, len(discovered))
		for _, d := range discovered {
			if d.ID != "" {
				ids = append(ids, d.ID)
			}
		}
		if len(ids) > 0 {
			rawStatus, err = p.client.QueryStatus(ctx, ids)
			if err != nil {
				p.logger.Warn("Status query failed, committing discovery data only", logging.Err(err))
				rawStatus = nil
			}
		}
	}

	p.cache.Commit(&Snapshot{
		Devices:   Merge(discovered, rawStatus),
		RawStatus: rawStatus,
		UpdatedAt: time.Now(),
	})

	p.logger.Info("Device poll complete",
		logging.Int("devices", len(discovered)),
		logging.Bool("with_status", rawStatus != nil),
		logging.Duration("duration", time.Since(start)))
	return nil
}
