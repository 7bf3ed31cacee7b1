package unitree

import "encoding/binary"

const (
	// BmsStateSize 版本(2) + 状态(1) + SOC(1) + 电流(4) + 循环(2) + NTC(2+2) + 电芯(10*2) = 34
	BmsStateSize = 34
	// BmsCommandSize 关机标识(1) + 保留(3)
	BmsCommandSize = 4
	// BmsCells 电芯个数
	BmsCells = 10
)

// BmsState 电池管理系统状态
type BmsState struct {
	VersionH byte     `json:"versionH"`
	VersionL byte     `json:"versionL"`
	Status   byte     `json:"status"`
	SOC      uint8    `json:"soc"`     // 剩余电量 (%) 0-100
	Current  int32    `json:"current"` // 电流 (mA), 负值为放电
	Cycle    uint16   `json:"cycle"`   // 充电循环次数
	BqNTC    [2]int8  `json:"bqNtc"`   // BQ 芯片温度 (℃)
	McuNTC   [2]int8  `json:"mcuNtc"`  // MCU 温度 (℃)
	CellVol  []uint16 `json:"cellVol"` // 电芯电压 (mV)
}

// Voltage 电芯电压之和 (mV)
func (b BmsState) Voltage() uint32 {
	var sum uint32
	for _, v := range b.CellVol {
		sum += uint32(v)
	}
	return sum
}

// put 超过 10 个电芯时截断, 不足时补 0
func (b BmsState) put(buf []byte) {
	buf[0] = b.VersionH
	buf[1] = b.VersionL
	buf[2] = b.Status
	buf[3] = b.SOC
	binary.LittleEndian.PutUint32(buf[4:8], uint32(b.Current))
	binary.LittleEndian.PutUint16(buf[8:10], b.Cycle)
	buf[10] = byte(b.BqNTC[0])
	buf[11] = byte(b.BqNTC[1])
	buf[12] = byte(b.McuNTC[0])
	buf[13] = byte(b.McuNTC[1])
	for i := 0; i < BmsCells; i++ {
		var v uint16
		if i < len(b.CellVol) {
			v = b.CellVol[i]
		}
		binary.LittleEndian.PutUint16(buf[14+i*2:16+i*2], v)
	}
}

// Bytes 序列化为 34 字节
func (b BmsState) Bytes() []byte {
	buf := make([]byte, BmsStateSize)
	b.put(buf)
	return buf
}

// ParseBmsState 从 34 字节解析电池状态
func ParseBmsState(data []byte) (BmsState, error) {
	if len(data) != BmsStateSize {
		return BmsState{}, lengthError("bms state", BmsStateSize, len(data))
	}
	b := BmsState{
		VersionH: data[0],
		VersionL: data[1],
		Status:   data[2],
		SOC:      data[3],
		Current:  int32(binary.LittleEndian.Uint32(data[4:8])),
		Cycle:    binary.LittleEndian.Uint16(data[8:10]),
		BqNTC:    [2]int8{int8(data[10]), int8(data[11])},
		McuNTC:   [2]int8{int8(data[12]), int8(data[13])},
		CellVol:  make([]uint16, BmsCells),
	}
	for i := range b.CellVol {
		b.CellVol[i] = binary.LittleEndian.Uint16(data[14+i*2 : 16+i*2])
	}
	return b, nil
}

// BmsCommand 电池管理命令
type BmsCommand struct {
	Off     byte    `json:"off"` // 0xA5 关机
	Reserve [3]byte `json:"-"`
}

func (c BmsCommand) put(buf []byte) {
	buf[0] = c.Off
	copy(buf[1:4], c.Reserve[:])
}

// Bytes 序列化为 4 字节
func (c BmsCommand) Bytes() []byte {
	buf := make([]byte, BmsCommandSize)
	c.put(buf)
	return buf
}

// ParseBmsCommand 从 4 字节解析电池命令
func ParseBmsCommand(data []byte) (BmsCommand, error) {
	if len(data) != BmsCommandSize {
		return BmsCommand{}, lengthError("bms command", BmsCommandSize, len(data))
	}
	c := BmsCommand{Off: data[0]}
	copy(c.Reserve[:], data[1:4])
	return c, nil
}
