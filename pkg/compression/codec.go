// Package compression selects the codec applied to dataset table files.
// Codecs wrap the file stream on both the write and the read path, so
// the dataset layer never branches on the algorithm in use.
//
// Supported codecs:
//   - none: plain files, no suffix
//   - gzip: wide compatibility, good ratio (.gz)
//   - zstd: best ratio at comparable speed (.zst)
//   - lz4: fastest, lighter ratio (.lz4)
//
// The codec name is recorded in the dataset manifest, so a directory
// written with one codec is always read back with the same one.
package compression

import (
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/forklift/pkg/errors"
)

// Codec names as they appear in configuration and manifests
const (
	None = "none"
	Gzip = "gzip"
	Zstd = "zstd"
	LZ4  = "lz4"
)

// Codec layers one compression algorithm over dataset file streams.
// Implementations are stateless; the returned writers and readers are
// not safe for concurrent use.
type Codec interface {
	// Name returns the codec name used in configuration and manifests
	Name() string

	// Ext returns the filename suffix including the dot, empty for none
	Ext() string

	// WrapWriter layers compression over w. Closing the result flushes
	// the codec frame without closing w.
	WrapWriter(w io.Writer) (io.WriteCloser, error)

	// WrapReader layers decompression over r. Closing the result
	// releases codec state without closing r.
	WrapReader(r io.Reader) (io.ReadCloser, error)
}

// Names lists the supported codec names
func Names() []string {
	return []string{None, Gzip, Zstd, LZ4}
}

// ForName resolves a codec by name. The empty string selects none.
func ForName(name string) (Codec, error) {
	switch name {
	case "", None:
		return noneCodec{}, nil
	case Gzip:
		return gzipCodec{}, nil
	case Zstd:
		return zstdCodec{}, nil
	case LZ4:
		return lz4Codec{}, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported compression codec: %s", name)
	}
}

type noneCodec struct{}

func (noneCodec) Name() string { return None }
func (noneCodec) Ext() string  { return "" }

func (noneCodec) WrapWriter(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

func (noneCodec) WrapReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

type gzipCodec struct{}

func (gzipCodec) Name() string { return Gzip }
func (gzipCodec) Ext() string  { return ".gz" }

func (gzipCodec) WrapWriter(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriter(w), nil
}

func (gzipCodec) WrapReader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

type zstdCodec struct{}

func (zstdCodec) Name() string { return Zstd }
func (zstdCodec) Ext() string  { return ".zst" }

func (zstdCodec) WrapWriter(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w)
}

func (zstdCodec) WrapReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}

type lz4Codec struct{}

func (lz4Codec) Name() string { return LZ4 }
func (lz4Codec) Ext() string  { return ".lz4" }

func (lz4Codec) WrapWriter(w io.Writer) (io.WriteCloser, error) {
	return lz4.NewWriter(w), nil
}

func (lz4Codec) WrapReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
