package pngmeta

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotPNG              = errors.New("not png")
	ErrTruncated           = errors.New("truncated png stream")
	ErrCRC32Mismatch       = errors.New("crc32 mismatch")
	ErrChunkTooLarge       = errors.New("chunk too large")
	ErrMalformedText       = errors.New("malformed text chunk")
	ErrUnrepresentableText = errors.New("text not representable in latin-1")
	ErrMissingCard         = errors.New("no character card in png")
	ErrInvalidBase64       = errors.New("invalid base64 card payload")
	ErrInvalidJSON         = errors.New("invalid json card payload")
	ErrSchemaValidation    = errors.New("card schema validation failed")
)

// TruncatedStreamError reports a read past the end of the buffer.
type TruncatedStreamError struct {
	Offset int
	Need   int
	Have   int
}

func (e *TruncatedStreamError) Error() string {
	return fmt.Sprintf("%s: need %d bytes at offset %d, have %d", ErrTruncated, e.Need, e.Offset, e.Have)
}

func (e *TruncatedStreamError) Unwrap() error { return ErrTruncated }

type CorruptChunkError struct {
	Index  int
	Type   string
	Offset int
}

func (e *CorruptChunkError) Error() string {
	return fmt.Sprintf("%s: chunk %d (%q) at offset %d", ErrCRC32Mismatch, e.Index, e.Type, e.Offset)
}

func (e *CorruptChunkError) Unwrap() error { return ErrCRC32Mismatch }

type ChunkTooLargeError struct {
	Type   string
	Length uint64
}

func (e *ChunkTooLargeError) Error() string {
	return fmt.Sprintf("%s: %q has %d data bytes, limit %d", ErrChunkTooLarge, e.Type, e.Length, maxChunkLength)
}

func (e *ChunkTooLargeError) Unwrap() error { return ErrChunkTooLarge }

type MalformedTextChunkError struct {
	Type   string
	Reason string
	Err    error
}

func (e *MalformedTextChunkError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", ErrMalformedText, e.Type, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedTextChunkError) Unwrap() []error { return causes(ErrMalformedText, e.Err) }

// UnrepresentableTextError carries the byte offset of the first rune that
// has no latin-1 form.
type UnrepresentableTextError struct {
	Keyword string
	Offset  int
}

func (e *UnrepresentableTextError) Error() string {
	return fmt.Sprintf("%s: keyword %q, offset %d", ErrUnrepresentableText, e.Keyword, e.Offset)
}

func (e *UnrepresentableTextError) Unwrap() error { return ErrUnrepresentableText }

type InvalidBase64Error struct {
	Err error
}

func (e *InvalidBase64Error) Error() string {
	return fmt.Sprintf("%s: %v", ErrInvalidBase64, e.Err)
}

func (e *InvalidBase64Error) Unwrap() []error { return causes(ErrInvalidBase64, e.Err) }

type InvalidJSONError struct {
	Err error
}

func (e *InvalidJSONError) Error() string {
	return fmt.Sprintf("%s: %v", ErrInvalidJSON, e.Err)
}

func (e *InvalidJSONError) Unwrap() []error { return causes(ErrInvalidJSON, e.Err) }

// SchemaValidationError lists the required fields that were missing or had
// the wrong type, using dotted paths such as "data.name".
type SchemaValidationError struct {
	Fields []string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("%s: missing or invalid fields: %s", ErrSchemaValidation, strings.Join(e.Fields, ", "))
}

func (e *SchemaValidationError) Unwrap() error { return ErrSchemaValidation }

func causes(sentinel, err error) []error {
	if err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, err}
}
