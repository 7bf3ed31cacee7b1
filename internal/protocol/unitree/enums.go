package unitree

import "fmt"

// HighMode 高层运动模式
type HighMode uint8

const (
	HighModeIdle HighMode = iota
	HighModeForceStand
	HighModeVelWalk
	HighModePosWalk
	HighModePath
	HighModeStandDown
	HighModeStandUp
	HighModeDamping
	HighModeRecovery
	HighModeBackflip
	HighModeJumpYaw
	HighModeStraightHand
	HighModeDance1
	HighModeDance2

	HighModeUnknown HighMode = 0xFF
)

var highModeNames = [...]string{
	"Idle", "ForceStand", "VelWalk", "PosWalk", "Path", "StandDown", "StandUp",
	"Damping", "Recovery", "Backflip", "JumpYaw", "StraightHand", "Dance1", "Dance2",
}

// ParseHighMode 未知的字节值映射为 HighModeUnknown
func ParseHighMode(b byte) HighMode {
	if int(b) < len(highModeNames) {
		return HighMode(b)
	}
	return HighModeUnknown
}

func (m HighMode) String() string {
	if int(m) < len(highModeNames) {
		return highModeNames[m]
	}
	return "Unknown"
}

// GaitType 步态
type GaitType uint8

const (
	GaitIdle GaitType = iota
	GaitTrot
	GaitTrotRunning
	GaitClimbStair
	GaitTrotObstacle

	GaitUnknown GaitType = 0xFF
)

var gaitNames = [...]string{"Idle", "Trot", "TrotRunning", "ClimbStair", "TrotObstacle"}

func ParseGaitType(b byte) GaitType {
	if int(b) < len(gaitNames) {
		return GaitType(b)
	}
	return GaitUnknown
}

func (g GaitType) String() string {
	if int(g) < len(gaitNames) {
		return gaitNames[g]
	}
	return "Unknown"
}

// SpeedLevel 速度档位
type SpeedLevel uint8

const (
	SpeedLow SpeedLevel = iota
	SpeedMedium
	SpeedHigh

	SpeedUnknown SpeedLevel = 0xFF
)

var speedNames = [...]string{"Low", "Medium", "High"}

func ParseSpeedLevel(b byte) SpeedLevel {
	if int(b) < len(speedNames) {
		return SpeedLevel(b)
	}
	return SpeedUnknown
}

func (s SpeedLevel) String() string {
	if int(s) < len(speedNames) {
		return speedNames[s]
	}
	return "Unknown"
}

// MotorMode 底层电机模式
type MotorMode uint8

const (
	MotorModeDamping  MotorMode = 0x00
	MotorModeOverheat MotorMode = 0x08
	MotorModeServo    MotorMode = 0x0A

	MotorModeUnknown MotorMode = 0xFF
)

func ParseMotorMode(b byte) MotorMode {
	switch m := MotorMode(b); m {
	case MotorModeDamping, MotorModeOverheat, MotorModeServo:
		return m
	default:
		return MotorModeUnknown
	}
}

func (m MotorMode) String() string {
	switch m {
	case MotorModeDamping:
		return "Damping"
	case MotorModeOverheat:
		return "Overheat"
	case MotorModeServo:
		return "Servo"
	default:
		return "Unknown"
	}
}

// MotorIndex 电机槽位。前 12 个为腿部关节, 后 8 个保留。
type MotorIndex int

const (
	FR0 MotorIndex = iota // 右前 髋
	FR1                   // 右前 大腿
	FR2                   // 右前 小腿
	FL0
	FL1
	FL2
	RR0
	RR1
	RR2
	RL0
	RL1
	RL2
	Reserved1
	Reserved2
	Reserved3
	Reserved4
	Reserved5
	Reserved6
	Reserved7
	Reserved8

	// MotorSlots 槽位总数
	MotorSlots = 20
	// LegJoints 有名字的腿部关节数
	LegJoints = 12
)

var legJointNames = [LegJoints]string{
	"FR_0", "FR_1", "FR_2",
	"FL_0", "FL_1", "FL_2",
	"RR_0", "RR_1", "RR_2",
	"RL_0", "RL_1", "RL_2",
}

// Valid 报告索引是否在 [0, 20) 内
func (i MotorIndex) Valid() bool {
	return i >= 0 && i < MotorSlots
}

// IsReserved 报告是否为保留槽位
func (i MotorIndex) IsReserved() bool {
	return i >= Reserved1 && i < MotorSlots
}

func (i MotorIndex) String() string {
	switch {
	case i >= 0 && i < LegJoints:
		return legJointNames[i]
	case i.IsReserved():
		return fmt.Sprintf("Reserved%d", int(i-Reserved1)+1)
	default:
		return fmt.Sprintf("MotorIndex(%d)", int(i))
	}
}
