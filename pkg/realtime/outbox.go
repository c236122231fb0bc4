package realtime

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/valyala/bytebufferpool"
)

// ErrOutboxFull is returned by TryEnqueue when the queue is at capacity.
var ErrOutboxFull = errors.New("realtime outbox full")

// Frame is one outbound payload destined for a single connection. The
// payload may be backed by a pooled buffer; the hub calls Done() exactly
// once after the write finishes.
type Frame struct {
	ConnID  string
	Payload []byte

	buf  *bytebufferpool.ByteBuffer
	once sync.Once
}

// Done releases the pooled buffer back to the pool.
func (f *Frame) Done() {
	f.once.Do(func() {
		if f.buf != nil {
			// avoid retaining huge buffers in the pool
			if cap(f.buf.B) <= maxPooledBuffer {
				bytebufferpool.Put(f.buf)
			}
			f.buf = nil
		}
		f.Payload = nil
		framePool.Put(f)
	})
}

var framePool = sync.Pool{New: func() any { return &Frame{} }}

// maxPooledBuffer is the largest buffer returned to the pool; bigger
// ones are dropped so resident memory stays bounded.
var maxPooledBuffer = 256 * 1024

// Outbox is the bounded queue between the emit path and the hub's
// dispatch loop. Producers never block; a full queue drops the frame.
type Outbox struct {
	ch       chan *Frame
	capacity int
	dropped  uint64
	enqueued uint64
}

func NewOutbox(capacity int) *Outbox {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Outbox{ch: make(chan *Frame, capacity), capacity: capacity}
}

// Out returns the consumer channel. Do not close it from callers.
func (o *Outbox) Out() <-chan *Frame { return o.ch }

// TryEnqueue copies payload into a pooled buffer and queues a frame for
// the connection. Returns ErrOutboxFull when at capacity.
func (o *Outbox) TryEnqueue(connID string, payload []byte) error {
	f := framePool.Get().(*Frame)
	f.once = sync.Once{}
	f.ConnID = connID
	var bb *bytebufferpool.ByteBuffer
	if len(payload) > 0 {
		bb = bytebufferpool.Get()
		bb.B = append(bb.B[:0], payload...)
		f.Payload = bb.B[:len(payload)]
	} else {
		f.Payload = nil
	}
	f.buf = bb

	select {
	case o.ch <- f:
		atomic.AddUint64(&o.enqueued, 1)
		return nil
	default:
		if bb != nil {
			bytebufferpool.Put(bb)
		}
		f.buf = nil
		f.Payload = nil
		framePool.Put(f)
		atomic.AddUint64(&o.dropped, 1)
		return ErrOutboxFull
	}
}

// Dropped returns how many frames were lost to backpressure.
func (o *Outbox) Dropped() uint64 { return atomic.LoadUint64(&o.dropped) }
