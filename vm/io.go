package vm

import (
	"io"
)

// ByteSource supplies program input one byte at a time. io.EOF marks the
// end of input; any other error is fatal to the run.
type ByteSource interface {
	ReadByte() (byte, error)
}

// ByteSink receives program output one byte at a time. Flush is called
// exactly once, after a run completes normally.
type ByteSink interface {
	WriteByte(c byte) error
	Flush() error
}

// NewSource adapts r to a ByteSource. Readers that already implement
// io.ByteReader (bufio.Reader, bytes.Reader, strings.Reader) are used
// directly; others are read one byte per call.
func NewSource(r io.Reader) ByteSource {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return &singleByteReader{r: r}
}

type singleByteReader struct {
	r   io.Reader
	buf [1]byte
}

func (s *singleByteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(s.r, s.buf[:]); err != nil {
		return 0, err
	}
	return s.buf[0], nil
}

// NoInput is a ByteSource that is always at end of input.
var NoInput ByteSource = emptySource{}

type emptySource struct{}

func (emptySource) ReadByte() (byte, error) { return 0, io.EOF }

// flusher is implemented by buffered writers.
type flusher interface {
	Flush() error
}

// NewSink adapts w to a ByteSink. Writers that implement both WriteByte
// and Flush (bufio.Writer) are used directly. Otherwise each byte is
// written as it is produced and Flush is forwarded when w supports it.
func NewSink(w io.Writer) ByteSink {
	if s, ok := w.(ByteSink); ok {
		return s
	}
	return &writerSink{w: w}
}

type writerSink struct {
	w   io.Writer
	buf [1]byte
}

func (s *writerSink) WriteByte(c byte) error {
	if bw, ok := s.w.(io.ByteWriter); ok {
		return bw.WriteByte(c)
	}
	s.buf[0] = c
	_, err := s.w.Write(s.buf[:])
	return err
}

func (s *writerSink) Flush() error {
	if f, ok := s.w.(flusher); ok {
		return f.Flush()
	}
	return nil
}
