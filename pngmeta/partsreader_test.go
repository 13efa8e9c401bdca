package pngmeta

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"testing"
)

func TestParseWriteRoundTrip(t *testing.T) {
	src := createTestImage(t)
	chunks := mustParse(t, src)
	if chunks[0].Type != IHDR {
		t.Fatalf("first chunk = %q, want IHDR", chunks[0].Type)
	}
	if chunks[len(chunks)-1].Type != IEND {
		t.Fatalf("last chunk = %q, want IEND", chunks[len(chunks)-1].Type)
	}
	out := mustWrite(t, chunks)
	if !bytes.Equal(out, src) {
		t.Errorf("write(parse(png)) differs from the original")
	}
	again := mustParse(t, out)
	if len(again) != len(chunks) {
		t.Fatalf("chunk count: want %d, got %d", len(chunks), len(again))
	}
	for i := range chunks {
		if again[i].Type != chunks[i].Type || !bytes.Equal(again[i].Data, chunks[i].Data) || again[i].CRC != chunks[i].CRC {
			t.Errorf("chunk %d differs after round trip", i)
		}
	}
}

func TestParseNotPNG(t *testing.T) {
	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, image.NewRGBA(image.Rect(0, 0, 4, 4)), nil); err != nil {
		t.Fatal(err)
	}
	cases := [][]byte{
		nil,
		[]byte("\x89PNG"),
		jpg.Bytes(),
		[]byte("GIF89a........"),
	}
	for i, tc := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			if _, err := Parse(tc); !errors.Is(err, ErrNotPNG) {
				t.Errorf("want ErrNotPNG, got %v", err)
			}
		})
	}
}

func TestParseBitFlip(t *testing.T) {
	src := createTestImage(t)
	// IHDR type starts right after the signature and the length field.
	typeStart := len(header) + 4
	ihdrEnd := typeStart + 4 + 13
	for pos := typeStart; pos < ihdrEnd; pos++ {
		for bit := 0; bit < 8; bit++ {
			corrupt := bytes.Clone(src)
			corrupt[pos] ^= 1 << bit
			_, err := Parse(corrupt)
			var ce *CorruptChunkError
			if !errors.As(err, &ce) {
				t.Fatalf("byte %d bit %d: want CorruptChunkError, got %v", pos, bit, err)
			}
			if ce.Index != 0 {
				t.Errorf("byte %d bit %d: want chunk index 0, got %d", pos, bit, ce.Index)
			}
			if !errors.Is(err, ErrCRC32Mismatch) {
				t.Errorf("error does not unwrap to ErrCRC32Mismatch")
			}
		}
	}
}

func TestParseTruncated(t *testing.T) {
	src := createTestImage(t)
	for n := len(header); n < len(src); n++ {
		_, err := Parse(src[:n])
		if !errors.Is(err, ErrTruncated) {
			t.Fatalf("cut at %d: want ErrTruncated, got %v", n, err)
		}
	}
}

func TestParseIgnoresTrailingBytes(t *testing.T) {
	src := createTestImage(t)
	want := mustParse(t, src)
	got := mustParse(t, append(bytes.Clone(src), []byte("trailing garbage")...))
	if len(got) != len(want) {
		t.Errorf("want %d chunks, got %d", len(want), len(got))
	}
}

func TestChunkTooLarge(t *testing.T) {
	old := maxChunkLength
	maxChunkLength = 10
	t.Cleanup(func() { maxChunkLength = old })
	if _, err := Write([]Chunk{{Type: "tEXt", Data: make([]byte, 11)}}); !errors.Is(err, ErrChunkTooLarge) {
		t.Errorf("Write: want ErrChunkTooLarge, got %v", err)
	}
	// IHDR carries 13 data bytes.
	_, err := Parse(createTestImage(t))
	var tl *ChunkTooLargeError
	if !errors.As(err, &tl) || tl.Type != IHDR {
		t.Errorf("Parse: want ChunkTooLargeError for IHDR, got %v", err)
	}
}

func TestWriteRecomputesCRC(t *testing.T) {
	chunks := mustParse(t, createTestImage(t))
	chunks[0].CRC = 0xdeadbeef
	chunks[0].Data[0] ^= 0x01
	got := mustParse(t, mustWrite(t, chunks))
	if got[0].CRC != chunks[0].Checksum() {
		t.Errorf("crc not recomputed: got %08x want %08x", got[0].CRC, chunks[0].Checksum())
	}
}

func TestStepReaderEOF(t *testing.T) {
	r, err := NewPNGStepReader(createTestImage(t))
	if err != nil {
		t.Fatal(err)
	}
	var last Chunk
	for {
		c, err := r.Next()
		if err != nil {
			break
		}
		last = c
	}
	if last.Type != IEND {
		t.Errorf("last chunk = %q, want IEND", last.Type)
	}
	if _, err := r.Next(); err == nil {
		t.Errorf("Next after IEND should keep failing")
	}
}
