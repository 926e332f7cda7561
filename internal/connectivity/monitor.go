// Package connectivity tracks whether the backend is reachable. Status is
// a tri-state: the network interface being up is necessary but not
// sufficient, so "checking" covers the window between an interface-up
// signal and the first successful backend probe.
package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shipshape-app/shipshape/internal/metrics"
)

type Status string

const (
	StatusOnline   Status = "online"
	StatusOffline  Status = "offline"
	StatusChecking Status = "checking"
)

// Prober performs a cheap authenticated round-trip to the backend.
type Prober interface {
	Ping(ctx context.Context) error
}

// NetworkSignal reports whether the device's network interface is up and
// notifies on changes. It says nothing about backend reachability.
type NetworkSignal interface {
	Up() bool
	Subscribe(fn func(up bool)) func()
}

const probeTimeout = 10 * time.Second

// Monitor maintains the process-wide connectivity status. Construct one
// per process and inject it wherever reads or syncs need to branch on
// reachability.
type Monitor struct {
	mu        sync.RWMutex
	signal    NetworkSignal
	prober    Prober
	interval  time.Duration
	status    Status
	listeners map[int]func(Status)
	nextID    int
	logger    *slog.Logger

	unsubscribe func()
	stopCh      chan struct{}
	stopped     chan struct{}
}

// NewMonitor creates a monitor. Initial status is offline when the
// interface is down, otherwise checking until the first probe resolves.
func NewMonitor(signal NetworkSignal, prober Prober, interval time.Duration, logger *slog.Logger) *Monitor {
	if interval == 0 {
		interval = 30 * time.Second
	}

	status := StatusChecking
	if !signal.Up() {
		status = StatusOffline
	}

	return &Monitor{
		signal:    signal,
		prober:    prober,
		interval:  interval,
		status:    status,
		listeners: make(map[int]func(Status)),
		logger:    logger,
		stopCh:    make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// Start subscribes to interface changes, runs an initial probe, and then
// probes on the fixed cadence while the interface is up.
func (m *Monitor) Start(ctx context.Context) {
	m.unsubscribe = m.signal.Subscribe(func(up bool) {
		if up {
			go m.Probe(ctx)
		} else {
			// Interface down means definitely offline; no probe needed.
			m.setStatus(StatusOffline)
		}
	})

	go m.Probe(ctx)

	go func() {
		defer close(m.stopped)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if m.signal.Up() {
					m.Probe(ctx)
				}
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the probe loop and detaches from the interface signal.
func (m *Monitor) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	close(m.stopCh)
	<-m.stopped
}

// Probe runs one backend reachability check and updates the status.
// Failures resolve to offline and are logged, never returned.
func (m *Monitor) Probe(ctx context.Context) {
	if !m.signal.Up() {
		m.setStatus(StatusOffline)
		return
	}

	m.setStatus(StatusChecking)

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := m.prober.Ping(ctx); err != nil {
		m.logger.Debug("backend probe failed", "error", err)
		metrics.ProbesTotal.WithLabelValues("offline").Inc()
		m.setStatus(StatusOffline)
		return
	}

	metrics.ProbesTotal.WithLabelValues("online").Inc()
	m.setStatus(StatusOnline)
}

// Status returns the last known status without blocking.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// IsOnline reports whether the backend was reachable at the last check.
func (m *Monitor) IsOnline() bool {
	return m.Status() == StatusOnline
}

// Subscribe registers a callback invoked on every status transition and
// returns an unsubscribe function.
func (m *Monitor) Subscribe(fn func(Status)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *Monitor) setStatus(status Status) {
	m.mu.Lock()
	if m.status == status {
		m.mu.Unlock()
		return
	}
	m.status = status
	listeners := make([]func(Status), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(status)
	}
}
