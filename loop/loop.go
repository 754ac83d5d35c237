// Package loop provides a single-consumer execution context: a goroutine that
// runs submitted functions one at a time, in submission order.
package loop

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("fino.loop")

// ErrStopped is returned by Do once the loop has been stopped.
var ErrStopped = errors.New("loop: stopped")

// request is a unit of work to be executed on the loop goroutine.
type request struct {
	fn   func() any
	done chan result
}

// result holds the return value of a request.
type result struct {
	value any
	err   error
}

// Loop serializes work through a single goroutine. Values owned by a loop
// (see introspect.Affine) must only be touched from functions it runs.
type Loop struct {
	name     string
	requests chan request
	quit     chan struct{}
	stop     sync.Once
}

// New creates a Loop and starts its goroutine.
func New(name string) *Loop {
	l := &Loop{
		name:     name,
		requests: make(chan request, 64),
		quit:     make(chan struct{}),
	}
	go l.run()
	return l
}

// Name returns the name the loop was created with.
func (l *Loop) Name() string {
	return l.name
}

func (l *Loop) run() {
	for {
		select {
		case req := <-l.requests:
			res := l.execute(req.fn)
			if req.done != nil {
				req.done <- res
			} else if res.err != nil {
				log.Debugf("%s: posted function failed: %v", l.name, res.err)
			}
		case <-l.quit:
			return
		}
	}
}

// execute runs fn, recovering from panics. A panic carrying an error keeps it
// wrapped so callers can match it with errors.Is.
func (l *Loop) execute(fn func() any) (res result) {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				res.err = fmt.Errorf("%s: %w", l.name, err)
			} else {
				res.err = fmt.Errorf("%s: %v", l.name, r)
			}
		}
	}()
	res.value = fn()
	return res
}

// Do runs fn on the loop goroutine and blocks until it completes. Returns
// the result and any panic as an error.
func (l *Loop) Do(fn func() any) (any, error) {
	select {
	case <-l.quit:
		return nil, ErrStopped
	default:
	}
	req := request{fn: fn, done: make(chan result, 1)}
	select {
	case l.requests <- req:
	case <-l.quit:
		return nil, ErrStopped
	}
	select {
	case res := <-req.done:
		return res.value, res.err
	case <-l.quit:
		return nil, ErrStopped
	}
}

// Post queues fn without waiting for it. It never blocks the caller, even
// when the queue is full or fn is posted from the loop itself. Posts after
// Stop are dropped.
func (l *Loop) Post(fn func()) {
	req := request{fn: func() any { fn(); return nil }}
	select {
	case l.requests <- req:
	case <-l.quit:
	default:
		go func() {
			select {
			case l.requests <- req:
			case <-l.quit:
			}
		}()
	}
}

// Stop shuts down the loop goroutine. Queued work that has not started is
// dropped.
func (l *Loop) Stop() {
	l.stop.Do(func() { close(l.quit) })
}
