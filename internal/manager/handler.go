package manager

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// Handler is a serial executor: a single goroutine draining a task queue.
// Listeners register with the Handler they want their callbacks on; dispatch
// runs a callback inline when it already executes on the target Handler, and
// posts it otherwise. Post-and-wait semantics are available via Call for the
// wait-for-destroyed-listeners configuration.
type Handler struct {
	name string
	ch   chan func()
	quit chan struct{}
	wg   sync.WaitGroup
	gid  atomic.Int64
}

// NewHandler starts a handler loop.
func NewHandler(name string) *Handler {
	h := &Handler{
		name: name,
		ch:   make(chan func(), 64),
		quit: make(chan struct{}),
	}
	h.wg.Add(1)
	go h.loop()
	return h
}

func (h *Handler) loop() {
	defer h.wg.Done()
	h.gid.Store(goroutineID())
	for {
		select {
		case fn := <-h.ch:
			fn()
		case <-h.quit:
			// drain anything already queued
			for {
				select {
				case fn := <-h.ch:
					fn()
				default:
					return
				}
			}
		}
	}
}

// RunsCurrent reports whether the caller is executing on this handler's
// goroutine.
func (h *Handler) RunsCurrent() bool {
	return h.gid.Load() == goroutineID()
}

// Post enqueues fn. When called from the handler's own goroutine, fn runs
// inline to preserve ordering relative to the current task.
func (h *Handler) Post(fn func()) {
	if h.RunsCurrent() {
		fn()
		return
	}
	select {
	case h.ch <- fn:
	case <-h.quit:
	}
}

// Call runs fn on the handler and blocks until it completes. Safe to call
// from the handler's own goroutine (runs inline).
func (h *Handler) Call(fn func()) {
	if h.RunsCurrent() {
		fn()
		return
	}
	done := make(chan struct{})
	h.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
	case <-h.quit:
	}
}

// Stop terminates the loop after draining queued tasks.
func (h *Handler) Stop() {
	close(h.quit)
	h.wg.Wait()
}

func (h *Handler) String() string { return "handler:" + h.name }

// goroutineID parses the current goroutine id from the runtime stack header
// ("goroutine N [running]:"). Used only for the inline-dispatch check.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return -1
	}
	id, err := strconv.ParseInt(string(fields[1]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
