package metrics

import "time"

// QueueLen reports the current total number of pending tasks, e.g.
// pkg/store.Store.Len.
type QueueLen func() (int, error)

// SiteCount reports the number of currently configured sites, e.g.
// pkg/config.Table.Len.
type SiteCount func() int

// Collector periodically samples queue depth and site count into the
// corresponding gauges, the way a dashboard expects those numbers to
// move even between dispatch events.
type Collector struct {
	queueLen  QueueLen
	siteCount SiteCount
	interval  time.Duration
	stopCh    chan struct{}
}

// NewCollector creates a collector sampling every interval.
func NewCollector(queueLen QueueLen, siteCount SiteCount, interval time.Duration) *Collector {
	return &Collector{
		queueLen:  queueLen,
		siteCount: siteCount,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start begins collecting metrics in a background goroutine.
func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	if n, err := c.queueLen(); err == nil {
		QueueDepth.Set(float64(n))
	}
	SitesConfigured.Set(float64(c.siteCount()))
}
