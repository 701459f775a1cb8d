package capture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/microburst/internal/core"
)

// writeCapture builds a microsecond capture with one frame per timestamp.
func writeCapture(t *testing.T, stamps []time.Time, size int) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := pcapgo.NewWriter(&buf)
	require.NoError(t, w.WriteFileHeader(65535, layers.LinkTypeEthernet))
	for i, ts := range stamps {
		data := bytes.Repeat([]byte{byte(i)}, size)
		ci := gopacket.CaptureInfo{Timestamp: ts, CaptureLength: size, Length: size}
		require.NoError(t, w.WritePacket(ci, data))
	}
	return buf.Bytes()
}

// rawCapture builds a capture by hand with the given magic.
func rawCapture(magic uint32, records ...[]uint32) []byte {
	var buf bytes.Buffer
	hdr := make([]byte, globalHeaderLen)
	binary.LittleEndian.PutUint32(hdr[0:4], magic)
	binary.LittleEndian.PutUint16(hdr[4:6], 2)
	binary.LittleEndian.PutUint16(hdr[6:8], 4)
	binary.LittleEndian.PutUint32(hdr[16:20], 65535)
	binary.LittleEndian.PutUint32(hdr[20:24], 1)
	buf.Write(hdr)
	for _, rec := range records {
		// sec, subsec, caplen, origlen; payload is caplen zero bytes
		rh := make([]byte, recordHeaderLen)
		for i, v := range rec {
			binary.LittleEndian.PutUint32(rh[i*4:], v)
		}
		buf.Write(rh)
		buf.Write(make([]byte, rec[2]))
	}
	return buf.Bytes()
}

func readAll(t *testing.T, r *Reader) []Frame {
	t.Helper()
	var frames []Frame
	for {
		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			return frames
		}
		require.NoError(t, err)
		f.Data = append([]byte(nil), f.Data...)
		frames = append(frames, f)
	}
}

func TestReaderFromWriter(t *testing.T) {
	base := time.Unix(1700000000, 0)
	stamps := []time.Time{base, base.Add(10 * time.Microsecond), base.Add(2 * time.Second)}
	data := writeCapture(t, stamps, 60)

	r, err := NewReader(bytes.NewReader(data), int64(len(data)), Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), r.Scale())
	assert.Equal(t, layers.LinkTypeEthernet, r.LinkType())
	assert.Equal(t, uint32(65535), r.Snaplen())

	frames := readAll(t, r)
	require.Len(t, frames, 3)
	for i, f := range frames {
		assert.Equal(t, uint32(60), f.CapLen)
		assert.Equal(t, uint32(60), f.OrigLen)
		assert.Equal(t, byte(i), f.Data[0])
		assert.Equal(t, stamps[i].UnixNano(), r.Timestamp(f))
	}
	assert.Equal(t, int64(len(data)), r.Offset())
	assert.False(t, r.Truncated())
	assert.NoError(t, r.TruncationErr())
}

func TestReaderMagicDispatch(t *testing.T) {
	rec := []uint32{5, 250, 4, 4}

	micros, err := NewReader(bytes.NewReader(rawCapture(MagicMicros, rec)), UnboundedLength, Options{})
	require.NoError(t, err)
	nanos, err := NewReader(bytes.NewReader(rawCapture(MagicNanos, rec)), UnboundedLength, Options{})
	require.NoError(t, err)

	fm, err := micros.Next()
	require.NoError(t, err)
	fn, err := nanos.Next()
	require.NoError(t, err)

	assert.Equal(t, fm.Subsec, fn.Subsec)
	assert.Equal(t, int64(5_000_250_000), micros.Timestamp(fm))
	assert.Equal(t, int64(5_000_000_250), nanos.Timestamp(fn))
	assert.Equal(t, micros.Timestamp(fm)-5*core.NanosPerSecond, 1000*(nanos.Timestamp(fn)-5*core.NanosPerSecond))
}

func TestReaderRejectsUnknownMagic(t *testing.T) {
	for _, magic := range []uint32{0xd4c3b2a1, 0x4d3cb2a1, 0x0a0d0d0a, 0} {
		_, err := NewReader(bytes.NewReader(rawCapture(magic)), UnboundedLength, Options{})
		assert.ErrorIs(t, err, core.ErrFormat, "magic 0x%08x", magic)
	}
}

func TestReaderShortHeader(t *testing.T) {
	data := rawCapture(MagicMicros)[:10]
	_, err := NewReader(bytes.NewReader(data), int64(len(data)), Options{})
	assert.ErrorIs(t, err, core.ErrIO)
}

func TestReaderLocalOffset(t *testing.T) {
	data := rawCapture(MagicNanos, []uint32{1, 7, 0, 0})
	r, err := NewReader(bytes.NewReader(data), int64(len(data)), Options{LocalOffsetNS: -3600 * core.NanosPerSecond})
	require.NoError(t, err)

	f, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000_007-3600_000_000_000), r.Timestamp(f))
}

func TestReaderTruncatedLastRecord(t *testing.T) {
	data := rawCapture(MagicMicros, []uint32{1, 0, 100, 100}, []uint32{2, 0, 100, 100}, []uint32{3, 0, 100, 100})

	t.Run("declared length", func(t *testing.T) {
		// Last record header is present but its payload is cut by 40 bytes.
		cut := data[:len(data)-40]
		r, err := NewReader(bytes.NewReader(cut), int64(len(cut)), Options{})
		require.NoError(t, err)

		frames := readAll(t, r)
		assert.Len(t, frames, 2)
		assert.True(t, r.Truncated())
		assert.ErrorIs(t, r.TruncationErr(), core.ErrTruncatedRecord)
	})

	t.Run("unbounded stream", func(t *testing.T) {
		cut := data[:len(data)-40]
		r, err := NewReader(bytes.NewReader(cut), UnboundedLength, Options{})
		require.NoError(t, err)

		frames := readAll(t, r)
		assert.Len(t, frames, 2)
		assert.True(t, r.Truncated())
	})

	t.Run("partial record header", func(t *testing.T) {
		cut := data[:len(data)-100-8]
		r, err := NewReader(bytes.NewReader(cut), UnboundedLength, Options{})
		require.NoError(t, err)

		assert.Len(t, readAll(t, r), 2)
	})
}

func TestReaderOversizeRecord(t *testing.T) {
	data := rawCapture(MagicMicros, []uint32{1, 0, 64, 64}, []uint32{2, 0, 512, 512})
	r, err := NewReader(bytes.NewReader(data), int64(len(data)), Options{MaxRecordBytes: 256})
	require.NoError(t, err)

	assert.Len(t, readAll(t, r), 1)
	assert.True(t, r.Truncated())
	assert.ErrorIs(t, r.TruncationErr(), core.ErrTruncatedRecord)
	assert.Contains(t, r.TruncationErr().Error(), "limit 256")
}

func TestReaderHugeCapLenDoesNotOverflow(t *testing.T) {
	data := rawCapture(MagicMicros)
	rh := make([]byte, recordHeaderLen)
	binary.LittleEndian.PutUint32(rh[8:12], 0xffffffff)
	data = append(data, rh...)

	r, err := NewReader(bytes.NewReader(data), UnboundedLength, Options{})
	require.NoError(t, err)
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

type failingReader struct {
	data []byte
}

func (f *failingReader) Read(p []byte) (int, error) {
	if len(f.data) == 0 {
		return 0, errors.New("device gone")
	}
	n := copy(p, f.data)
	f.data = f.data[n:]
	return n, nil
}

func TestReaderIOError(t *testing.T) {
	r, err := NewReader(&failingReader{data: rawCapture(MagicMicros)}, UnboundedLength, Options{})
	require.NoError(t, err)

	_, err = r.Next()
	assert.ErrorIs(t, err, core.ErrIO)
	assert.NotErrorIs(t, err, io.EOF)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.pcap")
	data := writeCapture(t, []time.Time{time.Unix(10, 0), time.Unix(11, 0)}, 42)
	require.NoError(t, os.WriteFile(path, data, 0644))

	r, err := Open(path, Options{})
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, path, r.Name())
	assert.Equal(t, int64(len(data)), r.Length())
	assert.Len(t, readAll(t, r), 2)
	assert.NoError(t, r.Close())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.pcap"), Options{})
	assert.ErrorIs(t, err, core.ErrIO)
}
