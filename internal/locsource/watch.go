package locsource

import (
	"sync"
	"time"
)

// watch gates delivery to one subscriber and enforces the subscription options.
// Callbacks run without the lock held so a handler may cancel its own watch.
type watch struct {
	mu        sync.Mutex
	onFix     FixHandler
	onError   ErrorHandler
	opts      Options
	timer     *time.Timer
	cancelled bool
	now       func() time.Time
}

func newWatch(onFix FixHandler, onError ErrorHandler, opts Options) *watch {
	w := &watch{onFix: onFix, onError: onError, opts: opts, now: time.Now}
	if opts.Timeout > 0 {
		w.timer = time.AfterFunc(opts.Timeout, w.expire)
	}

	return w
}

// deliver hands a fix to the subscriber unless the watch is cancelled or the fix is
// older than the maximum age.
func (w *watch) deliver(fix Fix) {
	w.mu.Lock()
	if w.cancelled {
		w.mu.Unlock()
		return
	}
	if w.opts.MaximumAge > 0 && !fix.Timestamp.IsZero() && w.now().Sub(fix.Timestamp) > w.opts.MaximumAge {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Reset(w.opts.Timeout)
	}
	onFix := w.onFix
	w.mu.Unlock()

	onFix(fix)
}

func (w *watch) fail(locErr *LocationError) {
	w.mu.Lock()
	if w.cancelled {
		w.mu.Unlock()
		return
	}
	onError := w.onError
	w.mu.Unlock()

	onError(locErr)
}

// expire reports a timeout and re-arms the timer, the watch keeps waiting for fixes.
func (w *watch) expire() {
	w.mu.Lock()
	if !w.cancelled {
		w.timer.Reset(w.opts.Timeout)
	}
	w.mu.Unlock()

	w.fail(&LocationError{Code: Timeout, Message: "Timeout expired"})
}

// cancel stops delivery. It reports false when the watch was already cancelled.
func (w *watch) cancel() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancelled {
		return false
	}
	w.cancelled = true
	if w.timer != nil {
		w.timer.Stop()
	}

	return true
}
