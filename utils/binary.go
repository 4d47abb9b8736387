package utils

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteLengthPrefixed writes a uint32 little-endian length prefix followed
// by data, the deterministic wire layout spec section 6 requires for
// on-chain intent records (ScheduledCommitIntent): unlike a JSON encoding,
// this never varies with struct field order or map iteration.
func WriteLengthPrefixed(w io.Writer, data []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("utils: failed to write length prefix: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("utils: failed to write payload: %w", err)
	}
	return nil
}

// ReadLengthPrefixed reads one WriteLengthPrefixed-encoded record from r,
// rejecting declared lengths over maxLen to bound allocation from untrusted
// input.
func ReadLengthPrefixed(r io.Reader, maxLen uint32) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("utils: failed to read length prefix: %w", err)
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > maxLen {
		return nil, fmt.Errorf("utils: declared length %d exceeds limit %d", n, maxLen)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("utils: failed to read payload: %w", err)
	}
	return buf, nil
}
