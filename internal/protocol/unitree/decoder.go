package unitree

import "fmt"

// Kind 报文类型
type Kind int

const (
	KindUnknown Kind = iota
	KindHighCmd
	KindHighState
	KindLowCmd
	KindLowState
)

func (k Kind) String() string {
	switch k {
	case KindHighCmd:
		return "HighCmd"
	case KindHighState:
		return "HighState"
	case KindLowCmd:
		return "LowCmd"
	case KindLowState:
		return "LowState"
	default:
		return "Unknown"
	}
}

// Length 报文类型的固定长度, 未知类型为 0
func (k Kind) Length() int {
	switch k {
	case KindHighCmd:
		return HighCmdLength
	case KindHighState:
		return HighStateLength
	case KindLowCmd:
		return LowCmdLength
	case KindLowState:
		return LowStateLength
	default:
		return 0
	}
}

// IsState 报告是否为机器人上报的状态报文
func (k Kind) IsState() bool {
	return k == KindHighState || k == KindLowState
}

// Packet 四种报文的公共视图
type Packet interface {
	Kind() Kind
	Head() Header
	Check() Integrity
}

var (
	_ Packet = (*HighCmd)(nil)
	_ Packet = (*HighState)(nil)
	_ Packet = (*LowCmd)(nil)
	_ Packet = (*LowState)(nil)
)

// DetectKind 根据长度和起始符判断数据报的类型。
// 四种报文长度互不相同, UDP 数据报总是完整的一帧。
func DetectKind(data []byte) (Kind, error) {
	var kind Kind
	switch len(data) {
	case HighCmdLength:
		kind = KindHighCmd
	case HighStateLength:
		kind = KindHighState
	case LowCmdLength:
		kind = KindLowCmd
	case LowStateLength:
		kind = KindLowState
	default:
		return KindUnknown, fmt.Errorf("%w: %d", ErrUnknownLength, len(data))
	}

	if data[0] != MagicHi || data[1] != MagicLo {
		return kind, fmt.Errorf("%w: %02X%02X", ErrInvalidHeader, data[0], data[1])
	}
	return kind, nil
}

// DecodeDatagram 判断类型并用对应的解析器解析。
// 校验失败不是错误, 见返回值的 Check().Valid。
func DecodeDatagram(data []byte) (Packet, error) {
	kind, err := DetectKind(data)
	if err != nil {
		return nil, err
	}

	var pkt Packet
	switch kind {
	case KindHighCmd:
		pkt, err = ParseHighCmd(data)
	case KindHighState:
		pkt, err = ParseHighState(data)
	case KindLowCmd:
		pkt, err = ParseLowCmd(data)
	default:
		pkt, err = ParseLowState(data)
	}
	if err != nil {
		return nil, err
	}
	return pkt, nil
}
