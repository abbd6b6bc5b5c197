// Package stream turns a streaming response body into a sequence of decoded
// text increments.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// ErrInterrupted indicates the stream ended abruptly before the server closed
// it, or the caller's context was cancelled mid-stream.
var ErrInterrupted = errors.New("stream interrupted")

const readBufferSize = 4096

// Consume reads r to completion, decoding UTF-8 incrementally and invoking fn
// with each text increment. A multi-byte sequence split across reads is held
// back until its remaining bytes arrive, so fn never observes a torn rune.
//
// fn is called synchronously before the next read: the consumer never reads
// ahead of the caller's processing. A non-nil error from fn stops consumption
// and is returned as-is. Any read failure other than a clean EOF is reported
// once as ErrInterrupted. Consume is not restartable; r is fully drained or
// abandoned.
func Consume(ctx context.Context, r io.Reader, fn func(text string) error) error {
	buf := make([]byte, readBufferSize)
	var carry []byte

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrInterrupted, ctx.Err())
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			carry = append(carry, buf[:n]...)
			boundary := completeBoundary(carry)
			if boundary > 0 {
				if cbErr := fn(string(carry[:boundary])); cbErr != nil {
					return cbErr
				}
				carry = append([]byte(nil), carry[boundary:]...)
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			// Trailing partial sequence at clean EOF: flush as-is rather
			// than dropping bytes.
			if len(carry) > 0 {
				return fn(string(carry))
			}
			return nil
		default:
			return fmt.Errorf("%w: %v", ErrInterrupted, err)
		}
	}
}

// completeBoundary returns the length of the longest prefix of b that ends on
// a UTF-8 rune boundary. Bytes past the boundary belong to a rune whose
// encoding has not fully arrived yet.
func completeBoundary(b []byte) int {
	j := len(b) - 1
	for j >= 0 && !utf8.RuneStart(b[j]) {
		if len(b)-j >= utf8.UTFMax {
			// Too many continuation bytes to be a valid rune; not worth
			// holding back.
			return len(b)
		}
		j--
	}
	if j < 0 {
		return len(b)
	}
	if utf8.FullRune(b[j:]) {
		return len(b)
	}
	return j
}
