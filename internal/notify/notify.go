// Package notify carries "something changed, reload" signals between the
// check-in manager and the insight loop.
//
// A Publisher holds a version number and a broadcast channel. Publish bumps
// the version, closes the current channel and installs a fresh one, so every
// waiter wakes exactly once per bump. Subscribers remember the last version
// they acted on and pull again whenever the published version moves past it.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Publisher announces changes to any number of subscribers.
type Publisher struct {
	mu      sync.Mutex
	version uint64
	changed chan struct{}
	closed  bool
	timers  map[*time.Timer]struct{}
}

// NewPublisher returns a publisher at version 0.
func NewPublisher() *Publisher {
	return &Publisher{
		changed: make(chan struct{}),
		timers:  make(map[*time.Timer]struct{}),
	}
}

// Version returns the current version.
func (p *Publisher) Version() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.version
}

// Publish bumps the version and wakes every waiter. It returns the new
// version; after Close it is a no-op returning the last version.
func (p *Publisher) Publish() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return p.version
	}
	p.version++
	close(p.changed)
	p.changed = make(chan struct{})
	return p.version
}

// PublishAfter publishes once d has elapsed. The returned function cancels
// the pending publish and reports whether it was still pending.
func (p *Publisher) PublishAfter(d time.Duration) (cancel func() bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return func() bool { return false }
	}

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		p.mu.Lock()
		delete(p.timers, t)
		p.mu.Unlock()
		p.Publish()
	})
	p.timers[t] = struct{}{}

	return func() bool {
		p.mu.Lock()
		delete(p.timers, t)
		p.mu.Unlock()
		return t.Stop()
	}
}

// Pending returns the number of delayed publishes not yet fired.
func (p *Publisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.timers)
}

// Close cancels delayed publishes and releases waiters for good.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for t := range p.timers {
		t.Stop()
	}
	clear(p.timers)
	close(p.changed)
}

// watch returns the current version with the channel that closes on the next bump.
func (p *Publisher) watch() (uint64, <-chan struct{}, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.version, p.changed, p.closed
}

// Subscribe returns a subscriber that has already seen the current version.
func (p *Publisher) Subscribe() *Subscriber {
	return &Subscriber{pub: p, seen: p.Version()}
}

// Subscriber tracks the last version it consumed.
type Subscriber struct {
	pub  *Publisher
	mu   sync.Mutex
	seen uint64
}

// Changed reports whether a newer version exists and marks it seen.
func (s *Subscriber) Changed() bool {
	current := s.pub.Version()
	s.mu.Lock()
	defer s.mu.Unlock()
	if current == s.seen {
		return false
	}
	s.seen = current
	return true
}

// Seen returns the last version the subscriber consumed.
func (s *Subscriber) Seen() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen
}

// ErrClosed is returned by Wait once the publisher is closed.
var ErrClosed = errors.New("notify: publisher closed")

// Wait blocks until a version newer than the last seen one is published,
// marks it seen and returns it.
func (s *Subscriber) Wait(ctx context.Context) (uint64, error) {
	for {
		version, changed, closed := s.pub.watch()

		s.mu.Lock()
		if version != s.seen {
			s.seen = version
			s.mu.Unlock()
			return version, nil
		}
		s.mu.Unlock()

		if closed {
			return version, ErrClosed
		}

		select {
		case <-ctx.Done():
			return version, ctx.Err()
		case <-changed:
		}
	}
}
