package adapters

import (
	"fmt"
	"sync"
	"time"

	"mqtt-relay-bridge/application"

	"github.com/beevik/ntp"
	"github.com/rs/zerolog"
)

const (
	NTPDefaultServer         = "pool.ntp.org"
	NTPDefaultUpdateInterval = 60 * time.Second
	NTPDefaultTimeout        = 5 * time.Second
)

type NTPClockParams struct {
	Server         string
	UpdateInterval time.Duration
	Timeout        time.Duration

	// QueryFunc returns the offset of the local clock. Replaced in tests.
	QueryFunc func(server string, timeout time.Duration) (time.Duration, error)
	NowFunc   func() time.Time

	Log zerolog.Logger
}

func (p *NTPClockParams) EnsureDefaults() {
	if p.Server == "" {
		p.Server = NTPDefaultServer
	}
	if p.UpdateInterval == 0 {
		p.UpdateInterval = NTPDefaultUpdateInterval
	}
	if p.Timeout == 0 {
		p.Timeout = NTPDefaultTimeout
	}
	if p.QueryFunc == nil {
		p.QueryFunc = queryNTPOffset
	}
	if p.NowFunc == nil {
		p.NowFunc = time.Now
	}
}

// NTPClock keeps an offset to an NTP server and refreshes it at most once
// per update interval.
type NTPClock struct {
	params NTPClockParams

	offset     time.Duration
	lastUpdate time.Time
	mu         sync.RWMutex

	log zerolog.Logger
}

func NewNTPClock(params NTPClockParams) *NTPClock {
	params.EnsureDefaults()
	return &NTPClock{params: params, log: params.Log}
}

func (c *NTPClock) Update() error {
	c.mu.RLock()
	lastUpdate := c.lastUpdate
	c.mu.RUnlock()

	if !lastUpdate.IsZero() && c.params.NowFunc().Sub(lastUpdate) < c.params.UpdateInterval {
		return nil
	}
	return c.ForceUpdate()
}

func (c *NTPClock) ForceUpdate() error {
	offset, err := c.params.QueryFunc(c.params.Server, c.params.Timeout)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrClockNotSynced, c.params.Server, err)
	}

	c.mu.Lock()
	c.offset = offset
	c.lastUpdate = c.params.NowFunc()
	c.mu.Unlock()

	c.log.Debug().Dur("offset", offset).Str("server", c.params.Server).Msg("clock synced")
	return nil
}

func (c *NTPClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.params.NowFunc().Add(c.offset)
}

func queryNTPOffset(server string, timeout time.Duration) (time.Duration, error) {
	resp, err := ntp.QueryWithOptions(server, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return 0, err
	}
	if err := resp.Validate(); err != nil {
		return 0, err
	}
	return resp.ClockOffset, nil
}

var _ application.TimeSync = &NTPClock{}
