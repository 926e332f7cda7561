package connectivity

import (
	"context"
	"net"
	"sync"
	"time"
)

// InterfaceSignal is the default NetworkSignal: it polls the OS interface
// table and reports up when any non-loopback interface is up. This is the
// closest Go equivalent of a platform "is the network up" flag.
type InterfaceSignal struct {
	mu        sync.Mutex
	interval  time.Duration
	up        bool
	listeners map[int]func(bool)
	nextID    int
	stopCh    chan struct{}
	stopped   chan struct{}
}

func NewInterfaceSignal(interval time.Duration) *InterfaceSignal {
	if interval == 0 {
		interval = 5 * time.Second
	}
	return &InterfaceSignal{
		interval:  interval,
		up:        interfacesUp(),
		listeners: make(map[int]func(bool)),
		stopCh:    make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

func (s *InterfaceSignal) Up() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.up
}

func (s *InterfaceSignal) Subscribe(fn func(up bool)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Start begins polling for interface state changes.
func (s *InterfaceSignal) Start(ctx context.Context) {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.refresh()
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *InterfaceSignal) Stop() {
	close(s.stopCh)
	<-s.stopped
}

func (s *InterfaceSignal) refresh() {
	up := interfacesUp()

	s.mu.Lock()
	if up == s.up {
		s.mu.Unlock()
		return
	}
	s.up = up
	listeners := make([]func(bool), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(up)
	}
}

func interfacesUp() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		// Can't read the table; assume up and let the probe decide.
		return true
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagLoopback == 0 {
			return true
		}
	}
	return false
}
