package sqlite

import (
	"context"
	"sync"
)

// topic identifies one subscribable scope. Every mutation publishes to the
// topic of the scope it touched; every subscription listens on exactly one.
type topic string

func projectsTopic(ownerID string) topic {
	return topic("projects/" + ownerID)
}

func transactionsTopic(ownerID, projectID string) topic {
	return topic("transactions/" + ownerID + "/" + projectID)
}

func reportsTopic(ownerID, projectID string) topic {
	return topic("daily_reports/" + ownerID + "/" + projectID)
}

// subscriber is a live query handle. Change signals coalesce in a 1-buffered
// channel, so a slow consumer sees fewer, newer snapshots rather than a
// backlog; deliver re-queries the store when a signal lands.
type subscriber struct {
	topic   topic
	deliver func()

	signal chan struct{}
	done   chan struct{}
	once   sync.Once
}

// Cancel stops delivery and releases the subscription. Safe to call more
// than once.
func (s *subscriber) Cancel() {
	s.once.Do(func() {
		close(s.done)
	})
}

// notifier fans mutation signals out to subscribers. It never invokes a
// subscriber callback while holding its lock; delivery happens on each
// subscriber's own goroutine.
type notifier struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[*subscriber]struct{})}
}

// subscribe registers a subscriber for t and starts its delivery loop.
// An initial snapshot is scheduled immediately so the subscriber does not
// wait for the first mutation to see current state.
func (n *notifier) subscribe(ctx context.Context, t topic, deliver func()) *subscriber {
	sub := &subscriber{
		topic:   t,
		deliver: deliver,
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		sub.Cancel()
		return sub
	}
	n.subs[sub] = struct{}{}
	n.mu.Unlock()

	sub.signal <- struct{}{}
	go sub.run(ctx, n)
	return sub
}

func (sub *subscriber) run(ctx context.Context, n *notifier) {
	defer n.remove(sub)
	for {
		select {
		case <-sub.done:
			return
		case <-ctx.Done():
			sub.Cancel()
			return
		case <-sub.signal:
			select {
			case <-sub.done:
				return
			default:
			}
			sub.deliver()
		}
	}
}

// publish signals every subscriber on t. Sends are non-blocking: a pending
// signal already covers the new change.
func (n *notifier) publish(t topic) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for sub := range n.subs {
		if sub.topic != t {
			continue
		}
		select {
		case sub.signal <- struct{}{}:
		default:
		}
	}
}

func (n *notifier) remove(sub *subscriber) {
	n.mu.Lock()
	delete(n.subs, sub)
	n.mu.Unlock()
}

// close cancels every remaining subscription.
func (n *notifier) close() {
	n.mu.Lock()
	n.closed = true
	subs := make([]*subscriber, 0, len(n.subs))
	for sub := range n.subs {
		subs = append(subs, sub)
	}
	n.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
}
