package session

import "sync"

// RawConsumer receives one fresh raw reading. Consumers run on the dispatch
// goroutine and must not block.
type RawConsumer func(r Reading)

// rawFeed is the single-consumer slot for raw readings. Subscriptions form
// a stack: the newest subscriber receives readings, and cancelling it
// restores whoever it shadowed. Cancellation is idempotent and works in any
// order, so a borrower can always guarantee restoration with a deferred
// Cancel.
type rawFeed struct {
	mu  sync.Mutex
	top *Subscription
}

// Subscription is a handle on the raw feed slot.
type Subscription struct {
	feed   *rawFeed
	fn     RawConsumer
	prev   *Subscription
	active bool
}

func (f *rawFeed) subscribe(fn RawConsumer) *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &Subscription{feed: f, fn: fn, prev: f.top, active: true}
	f.top = sub
	return sub
}

// Cancel removes the subscription from the slot, restoring the subscriber
// it shadowed when it was on top.
func (s *Subscription) Cancel() {
	f := s.feed
	f.mu.Lock()
	defer f.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	if f.top == s {
		f.top = s.prev
		return
	}
	for cur := f.top; cur != nil; cur = cur.prev {
		if cur.prev == s {
			cur.prev = s.prev
			return
		}
	}
}

// deliver hands one reading to the current subscriber, if any. The consumer
// runs outside the feed lock so it may subscribe or cancel.
func (f *rawFeed) deliver(r Reading) {
	f.mu.Lock()
	var fn RawConsumer
	if f.top != nil {
		fn = f.top.fn
	}
	f.mu.Unlock()
	if fn != nil {
		fn(r)
	}
}
