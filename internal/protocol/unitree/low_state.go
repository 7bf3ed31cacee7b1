package unitree

import "encoding/binary"

// LowState 底层状态报文 (937 字节)
//
//	[头部 22][IMU 53][电机状态 20*38][BMS 34][足端力 4*2][足端力估计 4*2][tick 4][遥控 40][保留 4][校验 4]
type LowState struct {
	Header         Header                     `json:"-"`
	IMU            IMU                        `json:"imu"`
	MotorState     [MotorSlots]MotorState     `json:"motorState"`
	Bms            BmsState                   `json:"bms"`
	FootForce      [Legs]int16                `json:"footForce"`
	FootForceEst   [Legs]int16                `json:"footForceEst"`
	Tick           uint32                     `json:"tick"` // 控制器时间戳 (ms)
	WirelessRemote [WirelessRemoteLength]byte `json:"-"`
	Reserve        uint32                     `json:"-"`

	Integrity Integrity `json:"-"`
}

const (
	lowStateIMU          = 22
	lowStateMotors       = lowStateIMU + IMUSize                 // 75
	lowStateBms          = lowStateMotors + motorStateBlock      // 835
	lowStateFootForce    = lowStateBms + BmsStateSize            // 869
	lowStateFootForceEst = lowStateFootForce + Legs*2            // 877
	lowStateTick         = lowStateFootForceEst + Legs*2         // 885
	lowStateRemote       = lowStateTick + 4                      // 889
	lowStateReserve      = lowStateRemote + WirelessRemoteLength // 929
)

func NewLowState() *LowState {
	return &LowState{Header: NewHeader(LowLevelFlag)}
}

func (s *LowState) Kind() Kind       { return KindLowState }
func (s *LowState) Head() Header     { return s.Header }
func (s *LowState) Check() Integrity { return s.Integrity }

// Build 序列化为 937 字节
func (s *LowState) Build(opts ...BuildOption) []byte {
	cfg := newBuildConfig(false, opts)

	buf := make([]byte, LowStateLength)
	s.Header.put(buf)
	s.IMU.put(buf[lowStateIMU:lowStateMotors])
	putMotorStates(buf[lowStateMotors:lowStateBms], &s.MotorState)
	s.Bms.put(buf[lowStateBms:lowStateFootForce])
	putInt16s(buf[lowStateFootForce:], s.FootForce[:])
	putInt16s(buf[lowStateFootForceEst:], s.FootForceEst[:])
	binary.LittleEndian.PutUint32(buf[lowStateTick:lowStateRemote], s.Tick)
	copy(buf[lowStateRemote:lowStateReserve], s.WirelessRemote[:])
	binary.LittleEndian.PutUint32(buf[lowStateReserve:lowStateReserve+4], s.Reserve)

	return cfg.finish(KindLowState, buf)
}

// ParseLowState 解析底层状态
func ParseLowState(data []byte) (*LowState, error) {
	if len(data) != LowStateLength {
		return nil, lengthError("low state", LowStateLength, len(data))
	}

	s := &LowState{
		Header:     parseHeader(data),
		MotorState: parseMotorStates(data[lowStateMotors:lowStateBms]),
		Tick:       binary.LittleEndian.Uint32(data[lowStateTick:lowStateRemote]),
		Reserve:    binary.LittleEndian.Uint32(data[lowStateReserve : lowStateReserve+4]),
		Integrity:  checkIntegrity(data),
	}
	s.IMU, _ = ParseIMU(data[lowStateIMU:lowStateMotors])
	s.Bms, _ = ParseBmsState(data[lowStateBms:lowStateFootForce])
	parseInt16s(data[lowStateFootForce:], s.FootForce[:])
	parseInt16s(data[lowStateFootForceEst:], s.FootForceEst[:])
	copy(s.WirelessRemote[:], data[lowStateRemote:lowStateReserve])
	return s, nil
}
