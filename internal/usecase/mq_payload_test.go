package usecase

import (
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMQPayload_MarshalJSON(t *testing.T) {
	p := MQPayload{
		Type:   "HIGH_STATE",
		Serial: "0403010203040000",
		Data: struct {
			Mode uint8 `json:"mode"`
		}{Mode: 2},
	}
	body, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "HIGH_STATE",
		"serial": "0403010203040000",
		"data": {"mode": 2, "msgType": "HIGH_STATE", "serial": "0403010203040000"}
	}`, string(body))
	assert.Equal(t, "0403010203040000", p.Key())
}

func TestMQPayload_MarshalJSON_NonObject(t *testing.T) {
	body, err := json.Marshal(MQPayload{Type: "RAW", Serial: "x", Data: []int{1, 2}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"RAW","serial":"x","data":[1,2]}`, string(body))

	body, err = json.Marshal(MQPayload{Type: "RAW"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"RAW","serial":"","data":null}`, string(body))
}

func TestMQPayload_MarshalCBOR(t *testing.T) {
	p := MQPayload{
		Type:   "HIGH_STATE",
		Serial: "0403010203040000",
		Data: struct {
			Mode       uint8   `json:"mode"`
			BodyHeight float32 `json:"bodyHeight"`
		}{Mode: 2, BodyHeight: 0.28},
	}
	body, err := cbor.Marshal(p)
	require.NoError(t, err)

	var got struct {
		Type   string `cbor:"type"`
		Serial string `cbor:"serial"`
		Data   struct {
			Mode       uint8   `cbor:"mode"`
			BodyHeight float32 `cbor:"bodyHeight"`
			MsgType    string  `cbor:"msgType"`
			Serial     string  `cbor:"serial"`
		} `cbor:"data"`
	}
	require.NoError(t, cbor.Unmarshal(body, &got))

	assert.Equal(t, "HIGH_STATE", got.Type)
	assert.Equal(t, "0403010203040000", got.Serial)
	assert.Equal(t, uint8(2), got.Data.Mode)
	assert.Equal(t, float32(0.28), got.Data.BodyHeight)
	assert.Equal(t, "HIGH_STATE", got.Data.MsgType)
	assert.Equal(t, "0403010203040000", got.Data.Serial)
}

func TestMQPayload_MarshalCBOR_NonObject(t *testing.T) {
	body, err := cbor.Marshal(MQPayload{Type: "RAW", Serial: "x", Data: []int{1, 2}})
	require.NoError(t, err)

	var got struct {
		Type string `cbor:"type"`
		Data []int  `cbor:"data"`
	}
	require.NoError(t, cbor.Unmarshal(body, &got))
	assert.Equal(t, "RAW", got.Type)
	assert.Equal(t, []int{1, 2}, got.Data)
}
