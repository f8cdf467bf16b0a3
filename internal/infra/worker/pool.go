// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

type Task func(ctx context.Context) error

var ErrPoolStopped = errors.New("worker pool stopped")

// Pool runs tasks on a fixed set of lanes. Tasks submitted with the same key
// share a lane, so they run one at a time in submission order.
type Pool struct {
	wg    sync.WaitGroup
	lanes []chan Task
	quit  chan struct{}
	once  sync.Once
	log   *zerolog.Logger
}

func NewPool(workers, queue int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queue <= 0 {
		queue = 16
	}
	p := &Pool{lanes: make([]chan Task, workers), quit: make(chan struct{}), log: logger}
	for i := range p.lanes {
		p.lanes[i] = make(chan Task, queue)
	}
	return p
}

func (p *Pool) Size() int { return len(p.lanes) }

// Start launches one goroutine per lane. Queued tasks still run after ctx is
// cancelled; they see the cancelled ctx and are expected to return quickly.
func (p *Pool) Start(ctx context.Context) {
	for i, lane := range p.lanes {
		p.wg.Add(1)
		go func(id int, in <-chan Task) {
			defer p.wg.Done()
			for {
				select {
				case <-p.quit:
					p.drain(ctx, id, in)
					return
				case task := <-in:
					p.run(ctx, id, task)
				}
			}
		}(i, lane)
	}
}

func (p *Pool) drain(ctx context.Context, id int, in <-chan Task) {
	for {
		select {
		case task := <-in:
			p.run(ctx, id, task)
		default:
			return
		}
	}
}

func (p *Pool) run(ctx context.Context, id int, task Task) {
	if task == nil {
		return
	}
	if err := task(ctx); err != nil && p.log != nil {
		p.log.Error().Err(err).Int("worker", id).Msg("worker task error")
	}
}

// Stop lets the lanes finish what is queued and waits for them. It is idempotent.
func (p *Pool) Stop() {
	p.once.Do(func() { close(p.quit) })
	p.wg.Wait()
}

// Submit queues task on the lane for key, blocking while that lane is full.
func (p *Pool) Submit(ctx context.Context, key int64, task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	lane := p.lanes[laneFor(key, len(p.lanes))]
	select {
	case <-p.quit:
		return ErrPoolStopped
	default:
	}
	select {
	case lane <- task:
		return nil
	case <-p.quit:
		return ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func laneFor(key int64, n int) int {
	if key < 0 {
		key = -key
	}
	return int(key % int64(n))
}
