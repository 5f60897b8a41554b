package json

import (
	"bytes"
	"strings"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRow struct {
	ID    string `json:"id"`
	Count int64  `json:"count"`
	Price string `json:"price"`
	Flag  bool   `json:"flag"`
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	in := sampleRow{ID: "ord-1", Count: 9007199254740993, Price: "12.99", Flag: true}

	data, err := Marshal(in)
	require.NoError(t, err)

	var out sampleRow
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestDecoderUseNumber(t *testing.T) {
	// 2^53+1 is not representable as float64; UseNumber must keep it exact
	dec := GetDecoder(strings.NewReader(`{"key": 9007199254740993}`))
	defer PutDecoder(dec)

	var m map[string]interface{}
	require.NoError(t, dec.Decode(&m))

	n, ok := m["key"].(gojson.Number)
	require.True(t, ok, "expected json.Number, got %T", m["key"])

	v, err := n.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), v)
}

func TestMarshalToWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MarshalToWriter(&buf, map[string]string{"table": "orders"}))
	assert.JSONEq(t, `{"table":"orders"}`, strings.TrimSpace(buf.String()))
}

func TestLineEncoder(t *testing.T) {
	var buf bytes.Buffer
	enc := NewLineEncoder(&buf)

	require.NoError(t, enc.Encode(sampleRow{ID: "a", Count: 1}))
	require.NoError(t, enc.Encode(sampleRow{ID: "b", Count: 2}))
	require.NoError(t, enc.Close())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"id":"a"`)
	assert.Contains(t, lines[1], `"id":"b"`)
}

func TestBufferPoolReuse(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("scratch")
	PutBuffer(buf)

	buf2 := GetBuffer()
	assert.Zero(t, buf2.Len())
	PutBuffer(buf2)
}
