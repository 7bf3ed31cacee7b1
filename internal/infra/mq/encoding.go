package mq

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Encoding 消息体编码
type Encoding string

const (
	EncodingJSON Encoding = "json"
	// EncodingCBOR 紧凑二进制编码, 字段名沿用 json 标签。
	// usecase.MQPayload 在两种编码下输出相同的结构。
	EncodingCBOR Encoding = "cbor"
)

// ParseEncoding 空字符串视为 json
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case "", EncodingJSON:
		return EncodingJSON, nil
	case EncodingCBOR:
		return EncodingCBOR, nil
	default:
		return "", fmt.Errorf("unsupported message encoding %q", s)
	}
}

func (e Encoding) ContentType() string {
	if e == EncodingCBOR {
		return "application/cbor"
	}
	return "application/json"
}

// Marshal 按编码序列化消息体
func (e Encoding) Marshal(data interface{}) ([]byte, error) {
	var (
		body []byte
		err  error
	)
	if e == EncodingCBOR {
		body, err = cbor.Marshal(data)
	} else {
		body, err = json.Marshal(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data as %s: %w", e, err)
	}
	return body, nil
}
