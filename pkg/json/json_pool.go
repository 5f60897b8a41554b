// Package json provides high-performance JSON serialization with object pooling
package json

import (
	"bytes"
	"io"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/forklift/pkg/pool"
)

// pooledEncoder wraps a JSON encoder with a reusable buffer
type pooledEncoder struct {
	encoder *gojson.Encoder
	buffer  *bytes.Buffer
}

// pooledDecoder wraps a JSON decoder
type pooledDecoder struct {
	decoder *gojson.Decoder
}

// Shared pools for encoders, decoders and scratch buffers
var (
	encoderPool = pool.New(
		func() *pooledEncoder {
			return &pooledEncoder{buffer: bytes.NewBuffer(make([]byte, 0, 4096))}
		},
		nil,
	)
	decoderPool = pool.New(
		func() *pooledDecoder { return &pooledDecoder{} },
		nil,
	)
	bufferPool = pool.New(
		func() *bytes.Buffer { return bytes.NewBuffer(make([]byte, 0, 4096)) },
		func(b *bytes.Buffer) { b.Reset() },
	)
)

// GetEncoder gets a pooled JSON encoder
func GetEncoder(w io.Writer) *gojson.Encoder {
	pe := encoderPool.Get()
	pe.buffer.Reset()

	// Always create a new encoder with the specified writer
	pe.encoder = gojson.NewEncoder(w)
	pe.encoder.SetEscapeHTML(false)

	return pe.encoder
}

// PutEncoder returns an encoder to the pool
func PutEncoder(enc *gojson.Encoder) {
	encoderPool.Put(&pooledEncoder{
		encoder: enc,
		buffer:  bytes.NewBuffer(make([]byte, 0, 4096)),
	})
}

// GetDecoder gets a pooled JSON decoder
func GetDecoder(r io.Reader) *gojson.Decoder {
	pd := decoderPool.Get()

	// Always create a new decoder with the specified reader
	pd.decoder = gojson.NewDecoder(r)

	// UseNumber keeps int64 surrogate keys exact instead of float64
	pd.decoder.UseNumber()

	return pd.decoder
}

// PutDecoder returns a decoder to the pool
func PutDecoder(dec *gojson.Decoder) {
	decoderPool.Put(&pooledDecoder{decoder: dec})
}

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	return bufferPool.Get()
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1024*1024 { // Don't pool very large buffers
		return
	}
	bufferPool.Put(buf)
}

// Marshal is a high-performance drop-in replacement for json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a high-performance drop-in replacement for json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// MarshalIndent is a high-performance replacement for json.MarshalIndent
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// MarshalToWriter marshals v directly to a writer using a pooled encoder
func MarshalToWriter(w io.Writer, v interface{}) error {
	enc := GetEncoder(w)
	defer PutEncoder(enc)

	return enc.Encode(v)
}

// LineEncoder writes newline-delimited JSON, one value per line. It is
// the codec behind the ndjson dataset format.
type LineEncoder struct {
	encoder *gojson.Encoder
}

// NewLineEncoder creates a line-delimited encoder over w
func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{encoder: GetEncoder(w)}
}

// Encode writes one value followed by a newline
func (le *LineEncoder) Encode(v interface{}) error {
	return le.encoder.Encode(v)
}

// Close returns the underlying encoder to the pool
func (le *LineEncoder) Close() error {
	PutEncoder(le.encoder)
	return nil
}
