package pool

import "go.uber.org/zap"

// asyncQueueCapacity sizes the reinitialization queue. The queue must absorb
// return bursts without ever blocking Put, so bounded pools get twice their
// capacity (returns beyond that are over-capacity anyway) and unbounded
// pools a fixed window.
func asyncQueueCapacity(maximumSize int) int {
	const (
		minCapacity       = 64
		unboundedCapacity = 1024
	)
	if maximumSize <= 0 {
		return unboundedCapacity
	}
	if c := 2 * maximumSize; c > minCapacity {
		return c
	}
	return minCapacity
}

// enqueue hands a returned value to the reinitialization worker and reports
// whether it was accepted. The read lock orders the send against the
// queue-closed transition in Close; a Put that loaded the open pool state but
// lost the race to Close observes queueClosed here and disposes the value
// instead of sending on the closed channel. A full queue sheds the value like
// an over-capacity return, because Put must never block.
func (p *Pool[T]) enqueue(v T) bool {
	p.queueMu.RLock()
	defer p.queueMu.RUnlock()

	if p.queueClosed {
		dispose(v)
		return false
	}

	select {
	case p.queue <- v:
		return true
	default:
		p.discard(v)
		return false
	}
}

// reinitializeLoop is the single background consumer for Async timing, one
// goroutine per pool. It suspends on the channel receive when the queue is
// empty; closing the queue is the only way to unblock it, which Close does.
// After the close it keeps ranging until the buffered remainder is drained,
// disposing every value because the pool is already marked closed, then
// terminates.
func (p *Pool[T]) reinitializeLoop() {
	defer close(p.done)

	for v := range p.queue {
		if p.closed.Load() {
			dispose(v)
			continue
		}

		if p.policy.Reinitialize != nil {
			if err := p.policy.Reinitialize(v); err != nil {
				p.stats.reinitFailures.Add(1)
				p.discard(v)
				p.reportReinitFailure(err)
				continue
			}
		}

		// Same admission as Put, re-run because the pool state may have
		// moved while the value sat in the queue.
		if p.eq != nil && p.idle.Contains(v, p.eq) {
			p.discard(v)
			continue
		}
		if !p.hasIdleCapacity() {
			p.discard(v)
			continue
		}

		p.idle.Push(v)
	}
}

// reportReinitFailure surfaces a worker-side reinitializer error. No caller
// is waiting synchronously, so the error goes to the policy callback when
// set, otherwise to the pool logger.
func (p *Pool[T]) reportReinitFailure(err error) {
	if p.policy.OnReinitializeError != nil {
		p.policy.OnReinitializeError(reinitError(err))
		return
	}
	p.log.Error("async reinitialize failed, value dropped", zap.Error(err))
}
