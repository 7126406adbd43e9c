package compress

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ErrUnknownCodec is returned for an unrecognised codec name.
var ErrUnknownCodec = errors.New("compress: unknown codec")

// Codec selects a stream compression format.
type Codec uint8

const (
	// None leaves the stream untouched.
	None Codec = iota
	// LZ4 uses lz4 frames (fast).
	LZ4
	// ZSTD uses zstd frames (better ratio).
	ZSTD
)

const (
	suffixLZ4  = ".lz4"
	suffixZSTD = ".zst"
)

func (c Codec) String() string {
	switch c {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Unknown(%d)", c)
	}
}

// Suffix returns the file name suffix for the codec, empty for None.
func (c Codec) Suffix() string {
	switch c {
	case LZ4:
		return suffixLZ4
	case ZSTD:
		return suffixZSTD
	default:
		return ""
	}
}

// Parse resolves a codec name. The empty string means None.
func Parse(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd", "zst":
		return ZSTD, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// Detect returns the codec implied by the suffix of name.
func Detect(name string) Codec {
	switch {
	case strings.HasSuffix(name, suffixZSTD):
		return ZSTD
	case strings.HasSuffix(name, suffixLZ4):
		return LZ4
	default:
		return None
	}
}

// NewReader decompresses r. Closing the result also closes r.
func NewReader(r io.ReadCloser, c Codec) (io.ReadCloser, error) {
	switch c {
	case None:
		return r, nil
	case LZ4:
		return &readCloser{Reader: lz4.NewReader(r), src: r}, nil
	case ZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return &readCloser{Reader: dec, src: r, release: dec.Close}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCodec, c)
	}
}

// NewWriter compresses into w. Closing the result flushes the frame and then
// closes w.
func NewWriter(w io.WriteCloser, c Codec) (io.WriteCloser, error) {
	switch c {
	case None:
		return w, nil
	case LZ4:
		return &writeCloser{enc: lz4.NewWriter(w), dst: w}, nil
	case ZSTD:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		return &writeCloser{enc: enc, dst: w}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCodec, c)
	}
}

type readCloser struct {
	io.Reader
	src     io.Closer
	release func()
}

func (r *readCloser) Close() error {
	if r.release != nil {
		r.release()
	}
	return r.src.Close()
}

type writeCloser struct {
	enc io.WriteCloser
	dst io.Closer
}

func (w *writeCloser) Write(p []byte) (int, error) {
	return w.enc.Write(p)
}

func (w *writeCloser) Close() error {
	err := w.enc.Close()
	if cerr := w.dst.Close(); err == nil {
		err = cerr
	}
	return err
}
