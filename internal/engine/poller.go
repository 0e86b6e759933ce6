package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// DefaultMinPollInterval is the shortest time between two device polls.
const DefaultMinPollInterval = time.Second

// DefaultResolveInterval is how often the interface table is walked again
// while a configured interface is missing or unmonitored ones may appear.
const DefaultResolveInterval = time.Minute

// PollerOptions configures a Poller.
type PollerOptions struct {
	// Router names the polled device in snapshots and logs.
	Router string
	// Interfaces lists the interface names to monitor. Empty means every
	// interface the device reports.
	Interfaces []string
	// MinInterval throttles device polls. Calls arriving sooner are answered
	// from the last snapshot.
	MinInterval time.Duration
	// ResolveInterval paces interface table re-walks.
	ResolveInterval time.Duration
	Clock           clock.Clock
	Logger          *slog.Logger
}

// Poller turns on-demand poll requests into counter samples for every
// monitored interface of one router and feeds them to an Estimator.
type Poller struct {
	conn    Conn
	est     *Estimator
	router  string
	names   []string
	clock   clock.Clock
	logger  *slog.Logger
	limiter *rate.Limiter
	group   singleflight.Group
	resolve time.Duration

	mu         sync.Mutex
	ifaces     []monitoredInterface
	resolvedAt time.Time
	stale      bool
	last       *Snapshot
	pollCount  int
	errorCount int
	lastPoll   time.Time
}

type monitoredInterface struct {
	DiscoveredInterface
	missing bool
}

// NewPoller creates a Poller that reads counters over conn.
func NewPoller(conn Conn, est *Estimator, opts PollerOptions) *Poller {
	if opts.MinInterval <= 0 {
		opts.MinInterval = DefaultMinPollInterval
	}
	if opts.ResolveInterval <= 0 {
		opts.ResolveInterval = DefaultResolveInterval
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Poller{
		conn:    conn,
		est:     est,
		router:  opts.Router,
		names:   opts.Interfaces,
		clock:   opts.Clock,
		logger:  opts.Logger.With("router", opts.Router),
		limiter: rate.NewLimiter(rate.Every(opts.MinInterval), 1),
		resolve: opts.ResolveInterval,
	}
}

// Poll samples every monitored interface and returns the resulting rates.
// Concurrent callers share a single device poll. Within MinInterval of the
// previous poll the last snapshot is returned with Throttled set.
func (p *Poller) Poll(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ch := p.group.DoChan("poll", func() (interface{}, error) {
		return p.poll()
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot).clone(), nil
	}
}

// Last returns the most recent snapshot without polling, or nil before the
// first poll.
func (p *Poller) Last() *Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return nil
	}
	return p.last.clone()
}

// Info returns summary information about this poller.
func (p *Poller) Info() PollerInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PollerInfo{
		Router:     p.router,
		LastPoll:   p.lastPoll,
		PollCount:  p.pollCount,
		ErrorCount: p.errorCount,
	}
}

// Close releases the device connection if it can be closed.
func (p *Poller) Close() error {
	if c, ok := p.conn.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (p *Poller) poll() (*Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	if !p.limiter.AllowN(now, 1) && p.last != nil {
		snap := p.last.clone()
		snap.Throttled = true
		return snap, nil
	}

	if p.ifaces == nil {
		if err := p.resolveLocked(now); err != nil {
			p.errorCount++
			return nil, err
		}
	} else if p.needsResolveLocked(now) {
		if err := p.resolveLocked(now); err != nil {
			p.logger.Warn("re-resolving interfaces failed, keeping previous mapping", "err", err)
		}
	}

	indexes := make([]int, 0, len(p.ifaces))
	for _, iface := range p.ifaces {
		if !iface.missing {
			indexes = append(indexes, iface.IfIndex)
		}
	}
	counters, err := fetchCounters(p.conn, indexes)
	if err != nil {
		p.errorCount++
		return nil, fmt.Errorf("poll %s: %w: %w", p.router, ErrDevice, err)
	}

	nowMillis := now.UnixMilli()
	snap := &Snapshot{
		Router:     p.router,
		PolledAt:   now,
		Interfaces: make([]InterfaceRate, 0, len(p.ifaces)),
	}
	var errs error
	p.stale = false
	for _, iface := range p.ifaces {
		ir := InterfaceRate{
			Name:        iface.Name,
			IfIndex:     iface.IfIndex,
			Description: iface.Description,
			SpeedMbps:   iface.Speed,
			Status:      "unknown",
			Timestamp:   nowMillis,
		}
		if err := p.sampleLocked(iface, counters, &ir); err != nil {
			ir.Error = err.Error()
			errs = multierr.Append(errs, err)
		}
		snap.Interfaces = append(snap.Interfaces, ir)
	}

	if errs != nil {
		p.errorCount += len(multierr.Errors(errs))
		p.logger.Warn("partial poll", "failed", len(multierr.Errors(errs)), "err", errs)
	}
	p.pollCount++
	p.lastPoll = now
	snap.PollCount = p.pollCount
	p.last = snap
	return snap, nil
}

// ErrDevice marks poll failures caused by the router being unreachable or
// answering with an error.
var ErrDevice = errors.New("device error")

var errInterfaceMissing = errors.New("interface not found on device")

func (p *Poller) sampleLocked(iface monitoredInterface, counters map[int]*ifaceCounters, ir *InterfaceRate) error {
	if iface.missing {
		p.stale = true
		return fmt.Errorf("%s: %w", iface.Name, errInterfaceMissing)
	}
	c, ok := counters[iface.IfIndex]
	if !ok || !c.haveIn || !c.haveOut {
		// The ifIndex may have been renumbered.
		p.stale = true
		return fmt.Errorf("%s: no HC octet counters for ifIndex %d", iface.Name, iface.IfIndex)
	}
	if c.status != "" {
		ir.Status = c.status
	}
	res, err := p.est.Sample(iface.Name, c.in, c.out, ir.Timestamp)
	if err != nil {
		return fmt.Errorf("%s: %w", iface.Name, err)
	}
	ir.RateResult = res
	ir.Utilization = CalculateUtilization(res.Download, res.Upload, iface.Speed)
	return nil
}

// needsResolveLocked reports whether the interface table should be walked
// again: some interface could not be read on the last poll, or every device
// interface is monitored and new ones may have appeared.
func (p *Poller) needsResolveLocked(now time.Time) bool {
	if !p.stale && len(p.names) > 0 {
		return false
	}
	return now.Sub(p.resolvedAt) >= p.resolve
}

// resolveLocked maps the configured interface names to ifIndex values. The
// caller must hold p.mu.
func (p *Poller) resolveLocked(now time.Time) error {
	p.resolvedAt = now
	resolved, err := ResolveInterfaces(p.conn)
	if err != nil {
		return fmt.Errorf("resolve interfaces on %s: %w: %w", p.router, ErrDevice, err)
	}

	ifaces := make([]monitoredInterface, 0, len(p.names))
	if len(p.names) == 0 {
		seen := make(map[int]bool)
		for _, iface := range resolved {
			if !seen[iface.IfIndex] {
				seen[iface.IfIndex] = true
				ifaces = append(ifaces, monitoredInterface{DiscoveredInterface: iface})
			}
		}
		sort.Slice(ifaces, func(i, j int) bool {
			return ifaces[i].IfIndex < ifaces[j].IfIndex
		})
	} else {
		for _, name := range p.names {
			iface, ok := resolved[name]
			if !ok {
				p.logger.Warn("configured interface not found", "interface", name)
				ifaces = append(ifaces, monitoredInterface{
					DiscoveredInterface: DiscoveredInterface{Name: name},
					missing:             true,
				})
				continue
			}
			// Track under the configured name so history keys stay stable.
			iface.Name = name
			ifaces = append(ifaces, monitoredInterface{DiscoveredInterface: iface})
		}
	}
	p.ifaces = ifaces
	p.stale = false
	p.logger.Info("resolved interfaces", "count", len(ifaces))
	return nil
}
