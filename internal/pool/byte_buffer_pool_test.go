package pool

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errorWriter struct {
	err error
}

func (w *errorWriter) Write([]byte) (int, error) { return 0, w.err }

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(1024)

	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, 1024, bb.Cap())
}

func TestByteBuffer_Write(t *testing.T) {
	bb := NewByteBuffer(HeapBufferDefaultSize)

	n, err := bb.Write([]byte("BSJB"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	bb.MustWrite([]byte{1, 0})
	assert.Equal(t, []byte("BSJB\x01\x00"), bb.Bytes())

	bb.Reset()
	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, HeapBufferDefaultSize, bb.Cap())
}

func TestByteBuffer_WriteTo(t *testing.T) {
	bb := NewByteBuffer(HeapBufferDefaultSize)
	bb.MustWrite([]byte("#Strings"))

	var buf bytes.Buffer
	n, err := bb.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
	assert.Equal(t, "#Strings", buf.String())

	_, err = bb.WriteTo(&errorWriter{err: io.ErrShortWrite})
	require.ErrorIs(t, err, io.ErrShortWrite)
}

func TestByteBuffer_ExtendOrGrow(t *testing.T) {
	t.Run("zeroes the extension", func(t *testing.T) {
		bb := NewByteBuffer(8)
		bb.MustWrite([]byte{0xAA, 0xBB, 0xCC, 0xDD})
		bb.SetLength(1)

		bb.ExtendOrGrow(3)
		assert.Equal(t, []byte{0xAA, 0, 0, 0}, bb.Bytes())
	})

	t.Run("grows past capacity", func(t *testing.T) {
		bb := NewByteBuffer(2)
		bb.MustWrite([]byte{1, 2})

		bb.ExtendOrGrow(100)
		assert.Equal(t, 102, bb.Len())
		assert.Equal(t, []byte{1, 2}, bb.Bytes()[:2])
	})
}

func TestByteBuffer_Grow(t *testing.T) {
	t.Run("sufficient capacity", func(t *testing.T) {
		bb := NewByteBuffer(HeapBufferDefaultSize)
		bb.Grow(100)
		assert.Equal(t, HeapBufferDefaultSize, bb.Cap())
	})

	t.Run("small buffer grows by default size", func(t *testing.T) {
		bb := NewByteBuffer(HeapBufferDefaultSize)
		bb.MustWrite(make([]byte, HeapBufferDefaultSize))

		bb.Grow(1)
		assert.Equal(t, 2*HeapBufferDefaultSize, bb.Cap())
		assert.Equal(t, HeapBufferDefaultSize, bb.Len())
	})

	t.Run("large buffer grows by a quarter", func(t *testing.T) {
		size := 8 * HeapBufferDefaultSize
		bb := &ByteBuffer{B: make([]byte, size)}

		bb.Grow(1)
		assert.Equal(t, size+size/4, bb.Cap())
	})

	t.Run("huge request", func(t *testing.T) {
		bb := NewByteBuffer(16)
		bb.MustWrite([]byte("data"))

		bb.Grow(10 * HeapBufferDefaultSize)
		assert.GreaterOrEqual(t, bb.Cap(), 4+10*HeapBufferDefaultSize)
		assert.Equal(t, []byte("data"), bb.Bytes())
	})
}

func TestSetLength_Panics(t *testing.T) {
	bb := NewByteBuffer(4)
	assert.Panics(t, func() { bb.SetLength(5) })
	assert.Panics(t, func() { bb.SetLength(-1) })
}

func TestImageAndHeapPools(t *testing.T) {
	img := GetImageBuffer()
	require.NotNil(t, img)
	assert.Equal(t, 0, img.Len())
	assert.GreaterOrEqual(t, img.Cap(), ImageBufferDefaultSize)
	img.MustWrite([]byte("metadata"))
	PutImageBuffer(img)
	assert.Equal(t, 0, img.Len(), "Put should reset the buffer")

	h := GetHeapBuffer()
	require.NotNil(t, h)
	assert.GreaterOrEqual(t, h.Cap(), HeapBufferDefaultSize)
	PutHeapBuffer(h)

	assert.NotPanics(t, func() {
		PutImageBuffer(nil)
		PutHeapBuffer(nil)
	})
}

func TestByteBufferPool_MaxThreshold(t *testing.T) {
	p := NewByteBufferPool(1024, 4096)

	bb := p.Get()
	bb.Grow(10000)
	bb.MustWrite([]byte("x"))
	p.Put(bb)

	assert.Equal(t, 1, bb.Len(), "oversized buffer is dropped without reset")
}

func TestByteBufferPool_Concurrent(t *testing.T) {
	const goroutines = 32

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			for range 500 {
				bb := GetHeapBuffer()
				bb.MustWrite([]byte("#GUID"))
				assert.Equal(t, 5, bb.Len())
				PutHeapBuffer(bb)
			}
		}()
	}
	wg.Wait()
}
