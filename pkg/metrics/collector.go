package metrics

import (
	"context"
	"time"

	"github.com/cuemby/lookout/pkg/log"
	"github.com/cuemby/lookout/pkg/types"
)

// ServerLister builds the reconciled server list
type ServerLister interface {
	BuildServerList(ctx context.Context) ([]*types.ServerView, error)
}

// Collector periodically refreshes the inventory gauges
type Collector struct {
	lister   ServerLister
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewCollector creates a new inventory collector
func NewCollector(lister ServerLister, interval, timeout time.Duration) *Collector {
	if interval <= 0 {
		interval = time.Minute
	}
	if timeout <= 0 {
		timeout = interval
	}
	return &Collector{
		lister:   lister,
		interval: interval,
		timeout:  timeout,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		defer close(c.doneCh)
		defer ticker.Stop()

		c.Collect()

		for {
			select {
			case <-ticker.C:
				c.Collect()
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Stop stops the collector and waits for the loop to exit
func (c *Collector) Stop() {
	close(c.stopCh)
	<-c.doneCh
}

// Collect runs a single refresh of the inventory gauges
func (c *Collector) Collect() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	servers, err := c.lister.BuildServerList(ctx)
	if err != nil {
		logger := log.WithComponent("collector")
		logger.Warn().Err(err).Msg("Failed to refresh inventory metrics")
		return
	}

	online, offline := 0, 0
	for _, s := range servers {
		if s.Online() {
			online++
		} else {
			offline++
		}
	}

	InventoryServers.WithLabelValues("online").Set(float64(online))
	InventoryServers.WithLabelValues("offline").Set(float64(offline))
}
