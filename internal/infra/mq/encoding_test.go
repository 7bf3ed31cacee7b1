package mq

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Mode  uint8   `json:"mode"`
	Speed float32 `json:"speed"`
	Skip  []byte  `json:"-"`
}

func TestParseEncoding(t *testing.T) {
	for in, want := range map[string]Encoding{"": EncodingJSON, "json": EncodingJSON, "cbor": EncodingCBOR} {
		got, err := ParseEncoding(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseEncoding("xml")
	assert.ErrorContains(t, err, "xml")
}

func TestEncoding_Marshal(t *testing.T) {
	in := sample{Mode: 2, Speed: 0.5, Skip: []byte{1}}

	body, err := EncodingJSON.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":2,"speed":0.5}`, string(body))
	assert.Equal(t, "application/json", EncodingJSON.ContentType())

	body, err = EncodingCBOR.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, "application/cbor", EncodingCBOR.ContentType())

	var decoded map[string]interface{}
	require.NoError(t, cbor.Unmarshal(body, &decoded))
	assert.Len(t, decoded, 2)
	assert.EqualValues(t, 2, decoded["mode"])
	assert.EqualValues(t, 0.5, decoded["speed"])

	var back sample
	require.NoError(t, cbor.Unmarshal(body, &back))
	assert.Equal(t, sample{Mode: 2, Speed: 0.5}, back)
}

func TestEncoding_MarshalNaN(t *testing.T) {
	// json 不支持 NaN, cbor 支持
	_, err := EncodingJSON.Marshal(sample{Speed: float32(math.NaN())})
	var unsupported *json.UnsupportedValueError
	assert.ErrorAs(t, err, &unsupported)

	_, err = EncodingCBOR.Marshal(sample{Speed: float32(math.NaN())})
	assert.NoError(t, err)
}

func TestNoOpProducer(t *testing.T) {
	p := NewNoOpProducer()
	assert.NoError(t, p.Produce(context.Background(), "t", "k", sample{}))
	p.Close()
}
