package frame

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// Magic opens every frame stream.
const Magic = "TSF1"

// maxDimension guards allocations when decoding untrusted headers.
const maxDimension = 1024

var (
	ErrBadMagic   = errors.New("frame: bad stream magic")
	ErrDimensions = errors.New("frame: invalid dimensions")
)

type streamHeader struct {
	Width  uint16
	Height uint16
}

type recordHeader struct {
	Index     uint32
	UnixNanos int64
	Min       float32
	Max       float32
	Threshold float32
	HasMask   uint8
	HasEdges  uint8
}

// Writer encodes frames to a stream. The stream is little-endian: the magic,
// a width/height header, then one record per frame.
type Writer struct {
	w      *bufio.Writer
	width  int
	height int
}

// NewWriter writes the stream header and returns a Writer.
func NewWriter(w io.Writer, width, height int) (*Writer, error) {
	if width <= 0 || height <= 0 || width > maxDimension || height > maxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensions, width, height)
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(Magic); err != nil {
		return nil, fmt.Errorf("failed to write magic: %w", err)
	}
	hdr := streamHeader{Width: uint16(width), Height: uint16(height)}
	if err := binary.Write(bw, binary.LittleEndian, hdr); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return &Writer{w: bw, width: width, height: height}, nil
}

// Write appends one frame record.
func (w *Writer) Write(f *Frame) error {
	n := w.width * w.height
	if f.Width != w.width || f.Height != w.height || len(f.Smoothed) != n {
		return fmt.Errorf("%w: frame %d is %dx%d, stream is %dx%d",
			ErrDimensions, f.Index, f.Width, f.Height, w.width, w.height)
	}
	rec := recordHeader{
		Index:     uint32(f.Index),
		Min:       f.Stats.Min,
		Max:       f.Stats.Max,
		Threshold: f.Stats.Threshold,
	}
	if !f.Time.IsZero() {
		rec.UnixNanos = f.Time.UnixNano()
	}
	if len(f.Mask) == n {
		rec.HasMask = 1
	}
	if len(f.EdgeSource) == n {
		rec.HasEdges = 1
	}
	if err := binary.Write(w.w, binary.LittleEndian, rec); err != nil {
		return fmt.Errorf("failed to write frame %d header: %w", f.Index, err)
	}
	if err := binary.Write(w.w, binary.LittleEndian, f.Smoothed); err != nil {
		return fmt.Errorf("failed to write frame %d values: %w", f.Index, err)
	}
	if rec.HasEdges == 1 {
		if err := binary.Write(w.w, binary.LittleEndian, f.EdgeSource); err != nil {
			return fmt.Errorf("failed to write frame %d edges: %w", f.Index, err)
		}
	}
	if rec.HasMask == 1 {
		if _, err := w.w.Write(f.Mask); err != nil {
			return fmt.Errorf("failed to write frame %d mask: %w", f.Index, err)
		}
	}
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Reader decodes a frame stream.
type Reader struct {
	r      *bufio.Reader
	width  int
	height int
}

// NewReader reads and validates the stream header.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if string(magic) != Magic {
		return nil, fmt.Errorf("%w: %q", ErrBadMagic, magic)
	}
	var hdr streamHeader
	if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	w, h := int(hdr.Width), int(hdr.Height)
	if w == 0 || h == 0 || w > maxDimension || h > maxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensions, w, h)
	}
	return &Reader{r: br, width: w, height: h}, nil
}

// Size returns the frame dimensions of the stream.
func (r *Reader) Size() (width, height int) { return r.width, r.height }

// Next decodes the next frame. It returns io.EOF at a clean end of stream
// and io.ErrUnexpectedEOF for a truncated record.
func (r *Reader) Next() (*Frame, error) {
	var rec recordHeader
	if err := binary.Read(r.r, binary.LittleEndian, &rec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read frame header: %w", err)
	}

	f := New(r.width, r.height)
	f.Index = int(rec.Index)
	if rec.UnixNanos != 0 {
		f.Time = time.Unix(0, rec.UnixNanos).UTC()
	}
	f.Stats = Stats{Min: rec.Min, Max: rec.Max, Threshold: rec.Threshold}

	if err := binary.Read(r.r, binary.LittleEndian, f.Smoothed); err != nil {
		return nil, fmt.Errorf("failed to read frame %d values: %w", f.Index, unexpected(err))
	}
	if rec.HasEdges == 1 {
		f.EdgeSource = make([]float32, r.width*r.height)
		if err := binary.Read(r.r, binary.LittleEndian, f.EdgeSource); err != nil {
			return nil, fmt.Errorf("failed to read frame %d edges: %w", f.Index, unexpected(err))
		}
	}
	if rec.HasMask == 1 {
		if _, err := io.ReadFull(r.r, f.Mask); err != nil {
			return nil, fmt.Errorf("failed to read frame %d mask: %w", f.Index, unexpected(err))
		}
	} else {
		f.Mask = nil
	}
	return f, nil
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
