package unitree

import "encoding/binary"

// HighState 高层状态报文 (1087 字节)
type HighState struct {
	Header          Header                     `json:"-"`
	IMU             IMU                        `json:"imu"`
	MotorState      [MotorSlots]MotorState     `json:"motorState"`
	Bms             BmsState                   `json:"bms"`
	FootForce       [Legs]int16                `json:"footForce"`
	FootForceEst    [Legs]int16                `json:"footForceEst"`
	Mode            HighMode                   `json:"mode"`
	Progress        float32                    `json:"progress"`
	GaitType        GaitType                   `json:"gaitType"`
	FootRaiseHeight float32                    `json:"footRaiseHeight"`
	Position        [3]float32                 `json:"position"`
	BodyHeight      float32                    `json:"bodyHeight"`
	Velocity        [3]float32                 `json:"velocity"`
	YawSpeed        float32                    `json:"yawSpeed"`
	RangeObstacle   [4]float32                 `json:"rangeObstacle"`
	FootPosition    [Legs]Cartesian            `json:"footPosition2Body"`
	FootSpeed       [Legs]Cartesian            `json:"footSpeed2Body"`
	WirelessRemote  [WirelessRemoteLength]byte `json:"-"`
	Reserve         uint32                     `json:"-"`

	Integrity Integrity `json:"-"`
}

// 字段偏移。position/velocity 各为 3 个浮点, 因此 907、923 之前看起来有 4 字节空隙。
const (
	highStateIMU          = 22
	highStateMotors       = highStateIMU + IMUSize                 // 75
	highStateBms          = highStateMotors + motorStateBlock      // 835
	highStateFootForce    = highStateBms + BmsStateSize            // 869
	highStateFootForceEst = highStateFootForce + Legs*2            // 877
	highStateMode         = highStateFootForceEst + Legs*2         // 885
	highStateProgress     = 886
	highStateGait         = 890
	highStateRaise        = 891
	highStatePosition     = 895
	highStateHeight       = 907
	highStateVelocity     = 911
	highStateYawSpeed     = 923
	highStateRange        = 927
	highStateFootPos      = 943
	highStateFootSpeed    = highStateFootPos + Legs*CartesianSize   // 991
	highStateRemote       = highStateFootSpeed + Legs*CartesianSize // 1039
	highStateReserve      = highStateRemote + WirelessRemoteLength  // 1079
)

func NewHighState() *HighState {
	return &HighState{Header: NewHeader(HighLevelFlag)}
}

func (s *HighState) Kind() Kind       { return KindHighState }
func (s *HighState) Head() Header     { return s.Header }
func (s *HighState) Check() Integrity { return s.Integrity }

// Build 序列化为 1087 字节, 主要用于模拟器和测试
func (s *HighState) Build(opts ...BuildOption) []byte {
	cfg := newBuildConfig(false, opts)

	buf := make([]byte, HighStateLength)
	s.Header.put(buf)
	s.IMU.put(buf[highStateIMU : highStateIMU+IMUSize])
	putMotorStates(buf[highStateMotors:highStateMotors+motorStateBlock], &s.MotorState)
	s.Bms.put(buf[highStateBms : highStateBms+BmsStateSize])
	putInt16s(buf[highStateFootForce:], s.FootForce[:])
	putInt16s(buf[highStateFootForceEst:], s.FootForceEst[:])
	buf[highStateMode] = byte(s.Mode)
	putFloat32(buf[highStateProgress:], s.Progress)
	buf[highStateGait] = byte(s.GaitType)
	putFloat32(buf[highStateRaise:], s.FootRaiseHeight)
	putFloats(buf[highStatePosition:], s.Position[:])
	putFloat32(buf[highStateHeight:], s.BodyHeight)
	putFloats(buf[highStateVelocity:], s.Velocity[:])
	putFloat32(buf[highStateYawSpeed:], s.YawSpeed)
	putFloats(buf[highStateRange:], s.RangeObstacle[:])
	putCartesians(buf[highStateFootPos:], &s.FootPosition)
	putCartesians(buf[highStateFootSpeed:], &s.FootSpeed)
	copy(buf[highStateRemote:highStateRemote+WirelessRemoteLength], s.WirelessRemote[:])
	binary.LittleEndian.PutUint32(buf[highStateReserve:highStateReserve+4], s.Reserve)

	return cfg.finish(KindHighState, buf)
}

// ParseHighState 解析高层状态。每次解析都完整覆盖所有字段。
func ParseHighState(data []byte) (*HighState, error) {
	if len(data) != HighStateLength {
		return nil, lengthError("high state", HighStateLength, len(data))
	}

	s := &HighState{
		Header:          parseHeader(data),
		MotorState:      parseMotorStates(data[highStateMotors : highStateMotors+motorStateBlock]),
		Mode:            ParseHighMode(data[highStateMode]),
		Progress:        DecodeFloat32(data[highStateProgress:]),
		GaitType:        ParseGaitType(data[highStateGait]),
		FootRaiseHeight: DecodeFloat32(data[highStateRaise:]),
		BodyHeight:      DecodeFloat32(data[highStateHeight:]),
		YawSpeed:        DecodeFloat32(data[highStateYawSpeed:]),
		FootPosition:    parseCartesians(data[highStateFootPos:highStateFootSpeed]),
		FootSpeed:       parseCartesians(data[highStateFootSpeed:highStateRemote]),
		Reserve:         binary.LittleEndian.Uint32(data[highStateReserve : highStateReserve+4]),
		Integrity:       checkIntegrity(data),
	}
	s.IMU, _ = ParseIMU(data[highStateIMU : highStateIMU+IMUSize])
	s.Bms, _ = ParseBmsState(data[highStateBms : highStateBms+BmsStateSize])
	parseInt16s(data[highStateFootForce:], s.FootForce[:])
	parseInt16s(data[highStateFootForceEst:], s.FootForceEst[:])
	parseFloats(data[highStatePosition:], s.Position[:])
	parseFloats(data[highStateVelocity:], s.Velocity[:])
	parseFloats(data[highStateRange:], s.RangeObstacle[:])
	copy(s.WirelessRemote[:], data[highStateRemote:highStateRemote+WirelessRemoteLength])
	return s, nil
}
