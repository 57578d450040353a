package locsource

import "sync"

// Feed is an in-process source: fixes are pushed into it, for example by an HTTP handler
// relaying the browser's geolocation watch.
type Feed struct {
	mu      sync.Mutex
	current *watch
}

// NewFeed returns a feed without a subscriber.
func NewFeed() *Feed {
	return &Feed{}
}

// Subscribe registers the single subscriber of the feed.
func (f *Feed) Subscribe(onFix FixHandler, onError ErrorHandler, opts Options) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current != nil {
		return nil, ErrAlreadySubscribed
	}
	f.current = newWatch(onFix, onError, opts)

	return &feedSubscription{feed: f, watch: f.current}, nil
}

// Publish delivers a fix to the subscriber.
func (f *Feed) Publish(fix Fix) error {
	w := f.active()
	if w == nil {
		return ErrNoSubscriber
	}
	w.deliver(fix)

	return nil
}

// PublishMessage decodes a wire message and delivers the fix or the error it carries.
func (f *Feed) PublishMessage(msg Message) error {
	w := f.active()
	if w == nil {
		return ErrNoSubscriber
	}

	fix, locErr := msg.Decode()
	if locErr != nil {
		w.fail(locErr)
		return nil
	}
	w.deliver(fix)

	return nil
}

// Fail reports a location error to the subscriber.
func (f *Feed) Fail(code ErrorCode, message string) error {
	w := f.active()
	if w == nil {
		return ErrNoSubscriber
	}
	w.fail(&LocationError{Code: code, Message: message})

	return nil
}

// Active reports whether the feed currently has a subscriber.
func (f *Feed) Active() bool {
	return f.active() != nil
}

func (f *Feed) active() *watch {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.current
}

type feedSubscription struct {
	feed  *Feed
	watch *watch
}

func (s *feedSubscription) Unsubscribe() error {
	s.watch.cancel()

	s.feed.mu.Lock()
	defer s.feed.mu.Unlock()
	if s.feed.current == s.watch {
		s.feed.current = nil
	}

	return nil
}
