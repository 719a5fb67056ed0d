package textdata

import (
	"encoding/binary"
	"fmt"
	"io"
)

// frameHeaderSize is the fixed length prefix preceding every payload.
const frameHeaderSize = 4

// Writer appends length-prefixed record frames to an output stream. It does
// not buffer; every Append issues one write of header plus payload so a
// killed process can lose at most the frame in flight.
type Writer struct {
	w io.Writer
}

// NewWriter wraps an output stream in a frame writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Append writes one record as a single frame.
func (fw *Writer) Append(rec *Record) error {
	return fw.AppendPayload(rec.Marshal())
}

// AppendPayload writes one pre-marshaled payload as a single frame. Workers
// marshal records off the driver goroutine and hand the bytes over.
func (fw *Writer) AppendPayload(payload []byte) error {
	frame := make([]byte, frameHeaderSize+len(payload))
	binary.LittleEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[frameHeaderSize:], payload)
	if _, err := fw.w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Reader walks the frames of a packed corpus sequentially.
type Reader struct {
	r      io.Reader
	header [frameHeaderSize]byte
}

// NewReader wraps an input stream in a frame reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next returns the next record, or io.EOF when the stream ends. A truncated
// final frame (short header or short payload) is reported as io.EOF, not as
// an error: files cut off mid-write are valid up to the last whole frame.
func (fr *Reader) Next() (*Record, error) {
	if _, err := io.ReadFull(fr.r, fr.header[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame header: %w", err)
	}

	length := binary.LittleEndian.Uint32(fr.header[:])
	payload := make([]byte, length)
	if _, err := io.ReadFull(fr.r, payload); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame payload: %w", err)
	}

	rec := new(Record)
	if err := rec.Unmarshal(payload); err != nil {
		return nil, err
	}
	return rec, nil
}
