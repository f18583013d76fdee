package worker

import (
	"sync"

	"github.com/chenzhangda16/payments-engine/internal/engine/event"
)

// mailbox is an unbounded FIFO. push never blocks, so the dispatcher is never
// held up by a slow account.
type mailbox struct {
	mu     sync.Mutex
	q      []event.Tx
	closed bool

	// 容量 1：有待处理消息时最多挂一个信号
	notify chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

func (m *mailbox) push(tx event.Tx) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.q = append(m.q, tx)
	m.mu.Unlock()

	m.signal()
	return true
}

func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.signal()
}

// drain takes everything queued so far. closed=true means nothing else will
// ever arrive.
func (m *mailbox) drain() (batch []event.Tx, closed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	batch, m.q = m.q, nil
	return batch, m.closed
}

func (m *mailbox) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.q)
}

func (m *mailbox) signal() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}
