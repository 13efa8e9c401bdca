package pngmeta

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/text/encoding/charmap"
)

const (
	tEXt = "tEXt"
	iTXt = "iTXt"

	maxKeywordLen = 79
)

// maxInflatedText caps the decompressed size of an iTXt payload.
var maxInflatedText int64 = 64 << 20

// TextForm selects between the two keyworded text chunk layouts.
type TextForm uint8

const (
	FormPlain         TextForm = iota // tEXt: latin-1, uncompressed
	FormInternational                 // iTXt: utf-8, optionally deflated
)

func (f TextForm) ChunkType() string {
	if f == FormInternational {
		return iTXt
	}
	return tEXt
}

// TextChunk is the decoded payload of a tEXt or iTXt chunk. Compressed,
// Language and TranslatedKeyword only apply to FormInternational.
type TextChunk struct {
	Form              TextForm
	Keyword           string
	Text              string
	Compressed        bool
	Language          string
	TranslatedKeyword string
}

// DecodeText extracts keyword and text from a text chunk. ok is false for
// any other chunk type.
func DecodeText(c Chunk) (tc TextChunk, ok bool, err error) {
	switch c.Type {
	case tEXt:
		tc, err = decodePlain(c.Data)
		return tc, true, err
	case iTXt:
		tc, err = decodeInternational(c.Data)
		return tc, true, err
	default:
		return TextChunk{}, false, nil
	}
}

func decodePlain(data []byte) (TextChunk, error) {
	keyword, text, err := splitKeyword(tEXt, data)
	if err != nil {
		return TextChunk{}, err
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(text)
	if err != nil {
		return TextChunk{}, &MalformedTextChunkError{Type: tEXt, Reason: "text", Err: err}
	}
	return TextChunk{Form: FormPlain, Keyword: keyword, Text: string(decoded)}, nil
}

func decodeInternational(data []byte) (TextChunk, error) {
	keyword, rest, err := splitKeyword(iTXt, data)
	if err != nil {
		return TextChunk{}, err
	}
	if len(rest) < 2 {
		return TextChunk{}, &MalformedTextChunkError{Type: iTXt, Reason: "missing compression flag and method"}
	}
	flag, method := rest[0], rest[1]
	lang, rest, ok := bytes.Cut(rest[2:], []byte{0})
	if !ok {
		return TextChunk{}, &MalformedTextChunkError{Type: iTXt, Reason: "missing language tag terminator"}
	}
	translated, text, ok := bytes.Cut(rest, []byte{0})
	if !ok {
		return TextChunk{}, &MalformedTextChunkError{Type: iTXt, Reason: "missing translated keyword terminator"}
	}
	tc := TextChunk{
		Form:              FormInternational,
		Keyword:           keyword,
		Language:          string(lang),
		TranslatedKeyword: string(translated),
	}
	switch flag {
	case 0:
	case 1:
		if method != 0 {
			return TextChunk{}, &MalformedTextChunkError{Type: iTXt, Reason: fmt.Sprintf("unsupported compression method %d", method)}
		}
		text, err = inflate(text)
		if err != nil {
			return TextChunk{}, &MalformedTextChunkError{Type: iTXt, Reason: "inflate", Err: err}
		}
		tc.Compressed = true
	default:
		return TextChunk{}, &MalformedTextChunkError{Type: iTXt, Reason: fmt.Sprintf("invalid compression flag %d", flag)}
	}
	if !utf8.Valid(text) || !utf8.Valid(translated) {
		return TextChunk{}, &MalformedTextChunkError{Type: iTXt, Reason: "text is not valid utf-8"}
	}
	tc.Text = string(text)
	return tc, nil
}

func splitKeyword(typ string, data []byte) (string, []byte, error) {
	keyword, rest, ok := bytes.Cut(data, []byte{0})
	if !ok {
		return "", nil, &MalformedTextChunkError{Type: typ, Reason: "missing keyword terminator"}
	}
	if len(keyword) == 0 || len(keyword) > maxKeywordLen {
		return "", nil, &MalformedTextChunkError{Type: typ, Reason: fmt.Sprintf("keyword length %d out of range", len(keyword))}
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(keyword)
	if err != nil {
		return "", nil, &MalformedTextChunkError{Type: typ, Reason: "keyword", Err: err}
	}
	return string(decoded), rest, nil
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, maxInflatedText+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > maxInflatedText {
		return nil, fmt.Errorf("inflated text exceeds %d bytes", maxInflatedText)
	}
	return out, nil
}

// EncodeText builds a tEXt or iTXt chunk. Plain form fails with
// UnrepresentableTextError when the text has runes outside latin-1.
func EncodeText(tc TextChunk) (Chunk, error) {
	typ := tc.Form.ChunkType()
	if len(tc.Keyword) == 0 {
		return Chunk{}, &MalformedTextChunkError{Type: typ, Reason: "empty keyword"}
	}
	keyword, err := toLatin1(tc.Keyword)
	if err != nil {
		return Chunk{}, &UnrepresentableTextError{Keyword: tc.Keyword, Offset: firstNonLatin1(tc.Keyword)}
	}
	if len(keyword) > maxKeywordLen || bytes.IndexByte(keyword, 0) >= 0 {
		return Chunk{}, &MalformedTextChunkError{Type: typ, Reason: fmt.Sprintf("invalid keyword %q", tc.Keyword)}
	}
	var data bytes.Buffer
	data.Write(keyword)
	data.WriteByte(0)
	switch tc.Form {
	case FormPlain:
		text, err := toLatin1(tc.Text)
		if err != nil {
			return Chunk{}, &UnrepresentableTextError{Keyword: tc.Keyword, Offset: firstNonLatin1(tc.Text)}
		}
		data.Write(text)
	case FormInternational:
		if !utf8.ValidString(tc.Text) {
			return Chunk{}, &MalformedTextChunkError{Type: typ, Reason: "text is not valid utf-8"}
		}
		if tc.Compressed {
			data.Write([]byte{1, 0})
		} else {
			data.Write([]byte{0, 0})
		}
		data.WriteString(tc.Language)
		data.WriteByte(0)
		data.WriteString(tc.TranslatedKeyword)
		data.WriteByte(0)
		if !tc.Compressed {
			data.WriteString(tc.Text)
			break
		}
		zw := zlib.NewWriter(&data)
		if _, err := io.WriteString(zw, tc.Text); err != nil {
			return Chunk{}, err
		}
		if err := zw.Close(); err != nil {
			return Chunk{}, err
		}
	default:
		return Chunk{}, fmt.Errorf("unknown text form %d", tc.Form)
	}
	return Chunk{Type: typ, Data: data.Bytes()}, nil
}

func toLatin1(s string) ([]byte, error) {
	return charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
}

func firstNonLatin1(s string) int {
	for i, r := range s {
		if r > 0xFF {
			return i
		}
	}
	return -1
}
