package usecase

import (
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
)

// MQPayload 包装遥测消息, 增加类型和机器人序列号
type MQPayload struct {
	Type   string      `json:"type"`
	Serial string      `json:"serial"`
	Data   interface{} `json:"data"`
}

// Key 按序列号分区
func (p MQPayload) Key() string {
	return p.Serial
}

// MarshalJSON 在 data 为对象时额外注入 msgType 和 serial, 便于下游只读取 data
func (p MQPayload) MarshalJSON() ([]byte, error) {
	dataBytes, err := json.Marshal(p.Data)
	if err != nil {
		return nil, err
	}

	var dataMap map[string]interface{}
	if err := json.Unmarshal(dataBytes, &dataMap); err != nil || dataMap == nil {
		// 非对象, 原样输出
		type Alias MQPayload
		return json.Marshal(Alias(p))
	}

	dataMap["msgType"] = p.Type
	dataMap["serial"] = p.Serial
	return json.Marshal(&struct {
		Type   string                 `json:"type"`
		Serial string                 `json:"serial"`
		Data   map[string]interface{} `json:"data"`
	}{
		Type:   p.Type,
		Serial: p.Serial,
		Data:   dataMap,
	})
}

// MarshalCBOR 与 MarshalJSON 输出相同的结构, 两种编码的消费者看到同样的字段
func (p MQPayload) MarshalCBOR() ([]byte, error) {
	dataBytes, err := cbor.Marshal(p.Data)
	if err != nil {
		return nil, err
	}

	// 保留原始编码, 避免浮点被放宽成 float64
	var dataMap map[string]cbor.RawMessage
	if err := cbor.Unmarshal(dataBytes, &dataMap); err != nil || dataMap == nil {
		type Alias MQPayload
		return cbor.Marshal(Alias(p))
	}

	msgType, err := cbor.Marshal(p.Type)
	if err != nil {
		return nil, err
	}
	serial, err := cbor.Marshal(p.Serial)
	if err != nil {
		return nil, err
	}
	dataMap["msgType"] = msgType
	dataMap["serial"] = serial

	return cbor.Marshal(&struct {
		Type   string                     `json:"type"`
		Serial string                     `json:"serial"`
		Data   map[string]cbor.RawMessage `json:"data"`
	}{
		Type:   p.Type,
		Serial: p.Serial,
		Data:   dataMap,
	})
}
