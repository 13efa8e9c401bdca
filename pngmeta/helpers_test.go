package pngmeta

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"testing"
)

// createTestImage encodes a small image with a red square on white.
func createTestImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.White)
		}
	}
	for y := 8; y < 24; y++ {
		for x := 8; x < 24; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Error encoding PNG: %v", err)
	}
	return buf.Bytes()
}

func mustParse(t *testing.T, data []byte) []Chunk {
	t.Helper()
	chunks, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return chunks
}

func mustWrite(t *testing.T, chunks []Chunk) []byte {
	t.Helper()
	data, err := Write(chunks)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return data
}

func textChunk(t *testing.T, tc TextChunk) Chunk {
	t.Helper()
	c, err := EncodeText(tc)
	if err != nil {
		t.Fatalf("EncodeText failed: %v", err)
	}
	return c
}

// withChunk inserts c right after IHDR without touching other chunks.
func withChunk(t *testing.T, data []byte, c Chunk) []byte {
	t.Helper()
	chunks := mustParse(t, data)
	out := append([]Chunk{chunks[0], c}, chunks[1:]...)
	return mustWrite(t, out)
}

func countType(chunks []Chunk, typ string) int {
	n := 0
	for _, c := range chunks {
		if c.Type == typ {
			n++
		}
	}
	return n
}

func imageData(chunks []Chunk) []byte {
	var buf bytes.Buffer
	for _, c := range chunks {
		if c.Type == IDAT {
			buf.Write(c.Data)
		}
	}
	return buf.Bytes()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
