// Package worker runs long image operations off the frame loop. Results come
// back over a channel that the frame loop drains without blocking; a result
// whose task was cancelled or superseded is dropped on arrival.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/golang/glog"

	"github.com/example/easel/internal/pixbuf"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("worker: pool closed")

// Func produces a buffer. It should return promptly once ctx is done.
type Func func(ctx context.Context) (*pixbuf.Buffer, error)

// Result is a finished task.
type Result struct {
	ID     uint64
	Kind   string
	Buffer *pixbuf.Buffer
	Err    error
}

type task struct {
	kind   string
	cancel context.CancelFunc
}

// Pool bounds the number of concurrently running tasks.
type Pool struct {
	sem     chan struct{}
	results chan Result
	done    chan struct{}
	wg      sync.WaitGroup

	mu     sync.Mutex
	nextID uint64
	live   map[uint64]task
	latest map[string]uint64
	closed bool
}

// DefaultWorkers is used when NewPool is given a non-positive count.
const DefaultWorkers = 2

// NewPool starts a pool that runs at most workers tasks at once.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Pool{
		sem:     make(chan struct{}, workers),
		results: make(chan Result, 64),
		done:    make(chan struct{}),
		live:    map[uint64]task{},
		latest:  map[string]uint64{},
	}
}

// Submit schedules fn. Any earlier task of the same kind is cancelled and its
// result will be dropped.
func (p *Pool) Submit(kind string, fn Func) (uint64, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, ErrClosed
	}
	if prev, ok := p.latest[kind]; ok {
		p.cancelLocked(prev)
	}
	p.nextID++
	id := p.nextID
	ctx, cancel := context.WithCancel(context.Background())
	p.live[id] = task{kind: kind, cancel: cancel}
	p.latest[kind] = id
	p.wg.Add(1)
	p.mu.Unlock()

	glog.V(1).Infof("worker: submit %s #%d", kind, id)
	go p.run(ctx, id, kind, fn)
	return id, nil
}

func (p *Pool) run(ctx context.Context, id uint64, kind string, fn Func) {
	defer p.wg.Done()
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}
	defer func() { <-p.sem }()
	var r Result
	if err := ctx.Err(); err != nil {
		r = Result{ID: id, Kind: kind, Err: err}
	} else {
		buf, err := fn(ctx)
		r = Result{ID: id, Kind: kind, Buffer: buf, Err: err}
	}
	select {
	case p.results <- r:
	case <-p.done:
		r.Buffer.Release()
	}
}

// Cancel abandons task id. Its result, if it still arrives, is dropped.
func (p *Pool) Cancel(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelLocked(id)
}

func (p *Pool) cancelLocked(id uint64) {
	t, ok := p.live[id]
	if !ok {
		return
	}
	t.cancel()
	delete(p.live, id)
	if p.latest[t.kind] == id {
		delete(p.latest, t.kind)
	}
	glog.V(1).Infof("worker: cancelled %s #%d", t.kind, id)
}

// Pending reports how many tasks have not yet been collected.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

// accept reports whether r is still wanted and forgets the task.
func (p *Pool) accept(r Result) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.live[r.ID]
	if !ok {
		return false
	}
	t.cancel()
	delete(p.live, r.ID)
	if p.latest[t.kind] == r.ID {
		delete(p.latest, t.kind)
	}
	return true
}

// Poll returns every result that has arrived, without blocking.
func (p *Pool) Poll() []Result {
	var out []Result
	for {
		select {
		case r := <-p.results:
			if p.accept(r) {
				out = append(out, r)
			} else {
				glog.V(1).Infof("worker: dropped late %s #%d", r.Kind, r.ID)
				r.Buffer.Release()
			}
		default:
			return out
		}
	}
}

// Wait blocks for the next wanted result or until ctx is done.
func (p *Pool) Wait(ctx context.Context) (Result, error) {
	for {
		select {
		case r := <-p.results:
			if p.accept(r) {
				return r, nil
			}
			r.Buffer.Release()
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
}

// Close cancels every task and waits for the goroutines to exit.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for id := range p.live {
		p.cancelLocked(id)
	}
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}
