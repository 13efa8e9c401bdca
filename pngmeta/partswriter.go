package pngmeta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

type Writer struct {
	w io.Writer
}

// NewPNGWriter writes the signature and returns a writer for the chunks.
func NewPNGWriter(w io.Writer) (*Writer, error) {
	if _, err := io.WriteString(w, header); err != nil {
		return nil, err
	}
	return &Writer{w}, nil
}

// WriteChunk emits one chunk with a freshly computed CRC; c.CRC is ignored.
func (w *Writer) WriteChunk(c Chunk) error {
	if len(c.Type) != 4 {
		return fmt.Errorf("chunk type must be 4 bytes, got %q", c.Type)
	}
	if uint64(len(c.Data)) > maxChunkLength {
		return &ChunkTooLargeError{Type: c.Type, Length: uint64(len(c.Data))}
	}
	if err := binary.Write(w.w, binary.BigEndian, uint32(len(c.Data))); err != nil {
		return err
	}
	if _, err := io.WriteString(w.w, c.Type); err != nil {
		return err
	}
	if _, err := w.w.Write(c.Data); err != nil {
		return err
	}
	return binary.Write(w.w, binary.BigEndian, c.Checksum())
}

// Write assembles a PNG byte stream from chunks in the given order.
// Placement rules are the caller's business.
func Write(chunks []Chunk) ([]byte, error) {
	var out bytes.Buffer
	pngw, err := NewPNGWriter(&out)
	if err != nil {
		return nil, err
	}
	for i, c := range chunks {
		if err := pngw.WriteChunk(c); err != nil {
			return nil, fmt.Errorf("write chunk %d: %w", i, err)
		}
	}
	return out.Bytes(), nil
}
