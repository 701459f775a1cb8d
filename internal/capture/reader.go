// Package capture reads frames from a pcap byte stream.
package capture

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/google/gopacket/layers"

	"firestige.xyz/microburst/internal/core"
	"firestige.xyz/microburst/internal/log"
)

const (
	// UnboundedLength is the declared length of a stream with no known size.
	UnboundedLength int64 = math.MaxInt64
	// DefaultMaxRecordBytes sizes the scratch buffer when Options leaves it zero.
	DefaultMaxRecordBytes = 262144

	readBufferSize = 1 << 20
)

// Options tunes a Reader.
type Options struct {
	// LocalOffsetNS is added to every frame timestamp.
	LocalOffsetNS int64
	// MaxRecordBytes bounds the captured length of a single frame.
	MaxRecordBytes int
}

// Frame is one captured record. Data is only valid until the next call to
// Next.
type Frame struct {
	Sec     uint32
	Subsec  uint32
	CapLen  uint32
	OrigLen uint32
	Data    []byte
}

// Reader iterates over the records of a capture stream.
type Reader struct {
	name    string
	src     io.Reader
	closer  io.Closer
	length  int64
	offset  int64
	header  GlobalHeader
	scale   int64
	opts    Options
	hdr     [recordHeaderLen]byte
	scratch []byte

	truncErr error
}

// Open opens the capture file at path.
func Open(path string, opts Options) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrIO, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", core.ErrIO, path, err)
	}

	r, err := newReader(path, bufio.NewReaderSize(f, readBufferSize), info.Size(), opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// OpenStdin reads the capture from standard input.
func OpenStdin(opts Options) (*Reader, error) {
	return newReader("stdin", bufio.NewReaderSize(os.Stdin, readBufferSize), UnboundedLength, opts)
}

// NewReader reads a capture from r whose total size is length bytes. Pass
// UnboundedLength when the size is unknown.
func NewReader(r io.Reader, length int64, opts Options) (*Reader, error) {
	return newReader("stream", r, length, opts)
}

func newReader(name string, src io.Reader, length int64, opts Options) (*Reader, error) {
	if opts.MaxRecordBytes <= 0 {
		opts.MaxRecordBytes = DefaultMaxRecordBytes
	}

	var buf [globalHeaderLen]byte
	if _, err := io.ReadFull(src, buf[:]); err != nil {
		return nil, fmt.Errorf("%w: read global header: %v", core.ErrIO, err)
	}
	header, err := decodeGlobalHeader(buf[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrIO, err)
	}
	scale, err := scaleFor(header.Magic)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		name:    name,
		src:     src,
		length:  length,
		offset:  globalHeaderLen,
		header:  header,
		scale:   scale,
		opts:    opts,
		scratch: make([]byte, opts.MaxRecordBytes),
	}

	log.GetLogger().WithFields(map[string]interface{}{
		"source":   name,
		"linktype": layers.LinkType(header.Network).String(),
		"snaplen":  header.Snaplen,
		"scale":    scale,
	}).Debug("capture opened")
	return r, nil
}

// Next returns the next frame. It returns io.EOF at the end of the stream,
// including when the final record is cut short.
func (r *Reader) Next() (Frame, error) {
	if _, err := io.ReadFull(r.src, r.hdr[:]); err != nil {
		return Frame{}, r.endOfStream(err, "record header")
	}
	rec := decodeRecordHeader(r.hdr[:])

	if int64(rec.CapLen) > r.length-r.offset-recordHeaderLen {
		return Frame{}, r.truncate(fmt.Errorf("%w: record at offset %d claims %d bytes past declared length %d",
			core.ErrTruncatedRecord, r.offset, rec.CapLen, r.length))
	}
	if int(rec.CapLen) > len(r.scratch) {
		return Frame{}, r.truncate(fmt.Errorf("%w: record at offset %d claims %d bytes, limit %d",
			core.ErrTruncatedRecord, r.offset, rec.CapLen, len(r.scratch)))
	}

	data := r.scratch[:rec.CapLen]
	if _, err := io.ReadFull(r.src, data); err != nil {
		return Frame{}, r.endOfStream(err, "record payload")
	}
	r.offset += recordHeaderLen + int64(rec.CapLen)

	return Frame{
		Sec:     rec.Sec,
		Subsec:  rec.Subsec,
		CapLen:  rec.CapLen,
		OrigLen: rec.OrigLen,
		Data:    data,
	}, nil
}

func (r *Reader) endOfStream(err error, what string) error {
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return r.truncate(fmt.Errorf("%w: short %s at offset %d", core.ErrTruncatedRecord, what, r.offset))
	}
	return fmt.Errorf("%w: read %s: %v", core.ErrIO, what, err)
}

func (r *Reader) truncate(err error) error {
	r.truncErr = err
	log.GetLogger().WithError(err).Debug("capture ended on a truncated record")
	return io.EOF
}

// Timestamp converts the frame time to nanoseconds, shifted by the local
// offset.
func (r *Reader) Timestamp(f Frame) int64 {
	return r.opts.LocalOffsetNS + int64(f.Sec)*core.NanosPerSecond + int64(f.Subsec)*r.scale
}

// Scale is the number of nanoseconds per sub-second unit.
func (r *Reader) Scale() int64 { return r.scale }

func (r *Reader) LinkType() layers.LinkType { return layers.LinkType(r.header.Network) }

func (r *Reader) Snaplen() uint32 { return r.header.Snaplen }

// Offset is the number of bytes consumed so far.
func (r *Reader) Offset() int64 { return r.offset }

func (r *Reader) Length() int64 { return r.length }

func (r *Reader) Name() string { return r.name }

// Truncated reports whether iteration stopped on an incomplete record.
func (r *Reader) Truncated() bool { return r.truncErr != nil }

// TruncationErr describes the incomplete record that ended iteration. It
// wraps core.ErrTruncatedRecord and is nil when the stream ended cleanly.
func (r *Reader) TruncationErr() error { return r.truncErr }

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}
