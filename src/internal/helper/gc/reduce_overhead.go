// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package gc

import (
	"errors"
	"fmt"
	"io"

	"github.com/valyala/bytebufferpool"
)

// ErrTooLarge is returned by [ReadLimited] when the input exceeds the limit.
var ErrTooLarge = errors.New("input exceeds size limit")

// Buffer defines the interface for a reusable byte buffer.
// It abstracts the [bytebufferpool.ByteBuffer] type to avoid direct dependencies.
type Buffer interface {
	Write(p []byte) (int, error)
	WriteString(s string) (int, error)
	WriteByte(c byte) error
	WriteTo(w io.Writer) (int64, error)
	ReadFrom(r io.Reader) (int64, error)
	Bytes() []byte
	String() string
	Len() int
	Set(p []byte)
	SetString(s string)
	Reset()
}

// Pool defines the interface for buffer pooling.
// It abstracts the [bytebufferpool.Pool] type to avoid direct dependencies.
//
// Pool implementations must be safe for concurrent use by multiple goroutines.
type Pool interface {
	Get() Buffer
	Put(b Buffer)
}

// pool wraps [bytebufferpool.Pool] to implement Pool interface.
type pool struct{ p *bytebufferpool.Pool }

// Get returns a buffer from the pool.
func (p *pool) Get() Buffer { return p.p.Get() }

// Put returns a buffer to the pool. Buffers not obtained from a bytebufferpool are dropped.
func (p *pool) Put(b Buffer) {
	if buf, ok := b.(*bytebufferpool.ByteBuffer); ok {
		p.p.Put(buf)
	}
}

// Default is the default buffer pool used for keybox uploads, revocation
// responses and rendered reports.
//
// Example usage for reading an HTTP response body:
//
//	buf := gc.Default.Get()
//
//	defer func() {
//		buf.Reset()         // Reset the buffer to prevent data leaks
//		gc.Default.Put(buf) // Return the buffer to the pool for reuse
//	}()
//
//	if _, err := buf.ReadFrom(resp.Body); err != nil {
//		return fmt.Errorf("error reading response body: %w", err)
//	}
//
//	if err := json.Unmarshal(buf.Bytes(), &list); err != nil {
//		return fmt.Errorf("error decoding response: %w", err)
//	}
//
// Example usage for rendering a report:
//
//	buf := gc.Default.Get()
//	defer func() {
//		buf.Reset()
//		gc.Default.Put(buf)
//	}()
//
//	table := tablewriter.NewTable(buf)
//	table.Header("Field", "Value")
//	table.Render()
//
//	return buf.String()
var Default Pool = &pool{p: &bytebufferpool.Pool{}}

// ReadLimited reads r into a pooled buffer and returns a copy of the data.
// When more than limit bytes are available it returns [ErrTooLarge].
// A limit of zero or less disables the check.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	buf := Default.Get()
	defer func() {
		buf.Reset()
		Default.Put(buf)
	}()

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}

	if _, err := buf.ReadFrom(src); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	if limit > 0 && int64(buf.Len()) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}
