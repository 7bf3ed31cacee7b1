package unitree

import (
	"encoding/binary"
	"fmt"
)

const (
	// MotorCommandSize 单个电机命令长度
	// 模式(1) + q(4) + dq(4) + tau(2) + kp(2) + kd(2) + 保留(12) = 27
	MotorCommandSize = 27
	// MotorCommandArraySize 20 个槽位
	MotorCommandArraySize = MotorSlots * MotorCommandSize

	// MotorStateSize 单个电机状态长度
	// 模式(1) + 7 个浮点(28) + 温度(1) + 保留(2) = 32
	MotorStateSize = 32
	// motorStateStride 状态报文中每个电机槽位的跨度, 末尾 6 字节为空隙
	motorStateStride = 38
	motorStateBlock  = MotorSlots * motorStateStride
)

// MotorCommand 单个关节的目标
type MotorCommand struct {
	Mode    MotorMode `json:"mode"`
	Q       float32   `json:"q"`   // 目标角度 (rad)
	Dq      float32   `json:"dq"`  // 目标角速度 (rad/s)
	Tau     float32   `json:"tau"` // 前馈力矩 (N·m), 精度 1/256
	Kp      float32   `json:"kp"`  // 位置刚度, 精度 0.1
	Kd      float32   `json:"kd"`  // 速度刚度, 精度 0.1
	Reserve [3]uint32 `json:"-"`
}

// DefaultMotorCommand 伺服模式, 所有目标为 0
func DefaultMotorCommand() MotorCommand {
	return MotorCommand{Mode: MotorModeServo}
}

func (c MotorCommand) put(buf []byte) {
	buf[0] = byte(c.Mode)
	putFloat32(buf[1:5], c.Q)
	putFloat32(buf[5:9], c.Dq)
	tau := EncodeTorque(c.Tau)
	copy(buf[9:11], tau[:])
	kp := EncodeKp(c.Kp)
	copy(buf[11:13], kp[:])
	kd := EncodeKd(c.Kd)
	copy(buf[13:15], kd[:])
	for i, r := range c.Reserve {
		binary.LittleEndian.PutUint32(buf[15+i*4:19+i*4], r)
	}
}

// Bytes 序列化为 27 字节
func (c MotorCommand) Bytes() []byte {
	buf := make([]byte, MotorCommandSize)
	c.put(buf)
	return buf
}

// ParseMotorCommand 从 27 字节解析电机命令
func ParseMotorCommand(data []byte) (MotorCommand, error) {
	if len(data) != MotorCommandSize {
		return MotorCommand{}, lengthError("motor command", MotorCommandSize, len(data))
	}
	c := MotorCommand{
		Mode: ParseMotorMode(data[0]),
		Q:    DecodeFloat32(data[1:5]),
		Dq:   DecodeFloat32(data[5:9]),
		Tau:  DecodeTorque(data[9:11]),
		Kp:   DecodeKp(data[11:13]),
		Kd:   DecodeKd(data[13:15]),
	}
	for i := range c.Reserve {
		c.Reserve[i] = binary.LittleEndian.Uint32(data[15+i*4 : 19+i*4])
	}
	return c, nil
}

// MotorCommandArray 20 个槽位的电机命令, 按 MotorIndex 顺序序列化
type MotorCommandArray [MotorSlots]MotorCommand

// NewMotorCommandArray 所有槽位为 DefaultMotorCommand
func NewMotorCommandArray() MotorCommandArray {
	var a MotorCommandArray
	for i := range a {
		a[i] = DefaultMotorCommand()
	}
	return a
}

// Set 写入指定槽位。索引越界时返回 ErrInvalidIndex 且不做修改。
func (a *MotorCommandArray) Set(idx MotorIndex, cmd MotorCommand) error {
	if !idx.Valid() {
		return fmt.Errorf("set %d: %w", int(idx), ErrInvalidIndex)
	}
	a[idx] = cmd
	return nil
}

// Get 读取指定槽位
func (a *MotorCommandArray) Get(idx MotorIndex) (MotorCommand, error) {
	if !idx.Valid() {
		return MotorCommand{}, fmt.Errorf("get %d: %w", int(idx), ErrInvalidIndex)
	}
	return a[idx], nil
}

// Legs 返回 12 个腿部关节的命令
func (a *MotorCommandArray) Legs() []MotorCommand {
	return a[:LegJoints]
}

func (a *MotorCommandArray) put(buf []byte) {
	for i := range a {
		a[i].put(buf[i*MotorCommandSize : (i+1)*MotorCommandSize])
	}
}

// Bytes 序列化为 540 字节
func (a *MotorCommandArray) Bytes() []byte {
	buf := make([]byte, MotorCommandArraySize)
	a.put(buf)
	return buf
}

// ParseMotorCommandArray 从 540 字节解析全部槽位
func ParseMotorCommandArray(data []byte) (MotorCommandArray, error) {
	var a MotorCommandArray
	if len(data) != MotorCommandArraySize {
		return a, lengthError("motor command array", MotorCommandArraySize, len(data))
	}
	for i := range a {
		cmd, err := ParseMotorCommand(data[i*MotorCommandSize : (i+1)*MotorCommandSize])
		if err != nil {
			return a, fmt.Errorf("slot %s: %w", MotorIndex(i), err)
		}
		a[i] = cmd
	}
	return a, nil
}

// MotorState 单个关节的实测状态。全部为普通浮点, 无量化。
type MotorState struct {
	Mode        MotorMode `json:"mode"`
	Q           float32   `json:"q"`
	Dq          float32   `json:"dq"`
	Ddq         float32   `json:"ddq"`
	TauEst      float32   `json:"tauEst"`
	QRaw        float32   `json:"qRaw"`
	DqRaw       float32   `json:"dqRaw"`
	DdqRaw      float32   `json:"ddqRaw"`
	Temperature float32   `json:"temperature"` // ℃
	Reserve     [2]byte   `json:"-"`
}

func (s MotorState) put(buf []byte) {
	buf[0] = byte(s.Mode)
	for i, f := range [...]float32{s.Q, s.Dq, s.Ddq, s.TauEst, s.QRaw, s.DqRaw, s.DdqRaw} {
		putFloat32(buf[1+i*4:5+i*4], f)
	}
	buf[29] = temperatureByte(s.Temperature)
	copy(buf[30:32], s.Reserve[:])
}

// Bytes 序列化为 32 字节
func (s MotorState) Bytes() []byte {
	buf := make([]byte, MotorStateSize)
	s.put(buf)
	return buf
}

// ParseMotorState 从 32 字节解析电机状态
func ParseMotorState(data []byte) (MotorState, error) {
	if len(data) != MotorStateSize {
		return MotorState{}, lengthError("motor state", MotorStateSize, len(data))
	}
	s := MotorState{
		Mode:        ParseMotorMode(data[0]),
		Q:           DecodeFloat32(data[1:5]),
		Dq:          DecodeFloat32(data[5:9]),
		Ddq:         DecodeFloat32(data[9:13]),
		TauEst:      DecodeFloat32(data[13:17]),
		QRaw:        DecodeFloat32(data[17:21]),
		DqRaw:       DecodeFloat32(data[21:25]),
		DdqRaw:      DecodeFloat32(data[25:29]),
		Temperature: float32(int8(data[29])),
	}
	copy(s.Reserve[:], data[30:32])
	return s, nil
}

// putMotorStates 写入状态报文中的 20 个电机槽位
func putMotorStates(buf []byte, states *[MotorSlots]MotorState) {
	for i := range states {
		off := i * motorStateStride
		states[i].put(buf[off : off+MotorStateSize])
	}
}

func parseMotorStates(data []byte) [MotorSlots]MotorState {
	var states [MotorSlots]MotorState
	for i := range states {
		off := i * motorStateStride
		// 长度固定, 不会出错
		states[i], _ = ParseMotorState(data[off : off+MotorStateSize])
	}
	return states
}
