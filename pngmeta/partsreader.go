package pngmeta

import (
	"encoding/binary"
	"hash/crc32"
	"io"
)

const (
	header = "\x89PNG\r\n\x1a\n"
	IHDR   = "IHDR"
	IDAT   = "IDAT"
	IEND   = "IEND"
)

// maxChunkLength is the largest data length PNG allows (2^31-1).
var maxChunkLength uint64 = 1<<31 - 1

// Chunk is one length-prefixed, checksummed PNG segment. CRC is what was
// read from the stream; writers always recompute it.
type Chunk struct {
	Type string
	Data []byte
	CRC  uint32
}

func (c Chunk) Checksum() uint32 {
	checksummer := crc32.NewIEEE()
	checksummer.Write([]byte(c.Type))
	checksummer.Write(c.Data)
	return checksummer.Sum32()
}

// Reader steps through the chunks of an in-memory PNG.
type Reader struct {
	data   []byte
	offset int
	index  int
	done   bool
}

func NewPNGStepReader(data []byte) (*Reader, error) {
	if len(data) < len(header) || string(data[:len(header)]) != header {
		return nil, ErrNotPNG
	}
	return &Reader{data: data, offset: len(header)}, nil
}

// Next returns the next verified chunk. It returns io.EOF once IEND has been
// consumed; bytes after IEND are never looked at.
func (r *Reader) Next() (Chunk, error) {
	if r.done {
		return Chunk{}, io.EOF
	}
	start := r.offset
	head, err := r.take(8)
	if err != nil {
		return Chunk{}, err
	}
	length := binary.BigEndian.Uint32(head[:4])
	typ := string(head[4:8])
	if uint64(length) > maxChunkLength {
		return Chunk{}, &ChunkTooLargeError{Type: typ, Length: uint64(length)}
	}
	data, err := r.take(int(length))
	if err != nil {
		return Chunk{}, err
	}
	rawCRC, err := r.take(4)
	if err != nil {
		return Chunk{}, err
	}
	chunk := Chunk{
		Type: typ,
		Data: append([]byte(nil), data...),
		CRC:  binary.BigEndian.Uint32(rawCRC),
	}
	if chunk.CRC != chunk.Checksum() {
		return Chunk{}, &CorruptChunkError{Index: r.index, Type: typ, Offset: start}
	}
	r.index++
	if typ == IEND {
		r.done = true
	}
	return chunk, nil
}

func (r *Reader) take(n int) ([]byte, error) {
	have := len(r.data) - r.offset
	if n > have {
		return nil, &TruncatedStreamError{Offset: r.offset, Need: n, Have: have}
	}
	b := r.data[r.offset : r.offset+n]
	r.offset += n
	return b, nil
}

// Parse splits a PNG byte stream into its chunks, verifying every checksum.
// The stream must end with IEND; anything after it is ignored.
func Parse(data []byte) ([]Chunk, error) {
	r, err := NewPNGStepReader(data)
	if err != nil {
		return nil, err
	}
	chunks := []Chunk{}
	for {
		chunk, err := r.Next()
		if err == io.EOF {
			return chunks, nil
		}
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
}
