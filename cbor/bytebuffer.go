package cbor

import "sync"

// ByteBuffer is a pooled, growable byte slice backing the Encoder. It is
// safe to use concurrently only through the pool (Get/Put) — a single
// *ByteBuffer must not be shared across goroutines.
type ByteBuffer struct {
	b []byte
}

var bbPool = sync.Pool{New: func() any { return &ByteBuffer{b: make([]byte, 0, 1024)} }}

// GetByteBuffer obtains a pooled ByteBuffer reset to zero length.
func GetByteBuffer() *ByteBuffer {
	bb := bbPool.Get().(*ByteBuffer)
	bb.Reset()
	return bb
}

// PutByteBuffer returns bb to the pool after resetting its length to zero.
func PutByteBuffer(bb *ByteBuffer) { bb.Reset(); bbPool.Put(bb) }

// Bytes returns the underlying bytes.
func (bb *ByteBuffer) Bytes() []byte { return bb.b }

// Len returns the current length.
func (bb *ByteBuffer) Len() int { return len(bb.b) }

// Reset truncates the buffer to zero length; capacity is unchanged.
func (bb *ByteBuffer) Reset() { bb.b = bb.b[:0] }

// Truncate drops the buffer back to length n. It is used to discard bytes
// written by an array/map scope that was aborted by a caller error, so a
// failed Encoder call never leaves partial, non-canonical bytes behind.
func (bb *ByteBuffer) Truncate(n int) { bb.b = bb.b[:n] }

// Ensure grows the buffer's capacity, if needed, to hold n more bytes
// without reallocating again.
func (bb *ByteBuffer) Ensure(n int) {
	need := len(bb.b) + n
	if cap(bb.b) >= need {
		return
	}
	c := cap(bb.b)
	if c == 0 {
		c = 1024
	}
	for c < need {
		c <<= 1
	}
	nb := make([]byte, len(bb.b), c)
	copy(nb, bb.b)
	bb.b = nb
}

// Write implements io.Writer.
func (bb *ByteBuffer) Write(p []byte) (int, error) {
	bb.Ensure(len(p))
	bb.b = append(bb.b, p...)
	return len(p), nil
}

// WriteByte appends a single byte.
func (bb *ByteBuffer) WriteByte(c byte) error {
	bb.Ensure(1)
	bb.b = append(bb.b, c)
	return nil
}

// WriteString implements io.StringWriter.
func (bb *ByteBuffer) WriteString(s string) (int, error) {
	bb.Ensure(len(s))
	bb.b = append(bb.b, s...)
	return len(s), nil
}
