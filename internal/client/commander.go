package client

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	protocol "quadruped-gateway/internal/protocol/unitree"
)

// ErrInvalidLED LED 下标越界
var ErrInvalidLED = errors.New("invalid led index")

// Commander 保存当前的高层/底层命令, 每个控制周期输出一帧报文。
// 方法可以在不同协程中调用。
type Commander struct {
	mu   sync.Mutex
	high *protocol.HighCmd
	low  *protocol.LowCmd

	lowLevel bool
	encrypt  bool
	debug    *zap.Logger
}

// NewCommander lowLevel 决定 Packet 输出哪一种命令。
// encrypt 只作用于高层命令, 底层命令固件要求混淆校验, 始终加密。
func NewCommander(lowLevel, encrypt bool) *Commander {
	return &Commander{
		high:     protocol.NewHighCmd(),
		low:      protocol.NewLowCmd(),
		lowLevel: lowLevel,
		encrypt:  encrypt,
	}
}

// SetDebug 每帧报文以 debug 级别输出, nil 关闭
func (c *Commander) SetDebug(logger *zap.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debug = logger
}

// Idle 空闲, 清空速度
func (c *Commander) Idle() {
	c.setMode(protocol.HighModeIdle)
}

// Stand 强制站立, 可配合 SetEuler 调整姿态
func (c *Commander) Stand() {
	c.setMode(protocol.HighModeForceStand)
}

// StandDown 趴下
func (c *Commander) StandDown() {
	c.setMode(protocol.HighModeStandDown)
}

// Recover 摔倒后恢复站立
func (c *Commander) Recover() {
	c.setMode(protocol.HighModeRecovery)
}

func (c *Commander) setMode(mode protocol.HighMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.high.Mode = mode
	c.high.GaitType = protocol.GaitIdle
	c.high.Velocity = [2]float32{}
	c.high.YawSpeed = 0
}

// Walk 速度行走, vx 前进 vy 侧移 (m/s), yaw 偏航角速度 (rad/s)
func (c *Commander) Walk(gait protocol.GaitType, vx, vy, yaw float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.high.Mode = protocol.HighModeVelWalk
	c.high.GaitType = gait
	c.high.Velocity = [2]float32{vx, vy}
	c.high.YawSpeed = yaw
}

// SetEuler 站立时的机身姿态 (rad)
func (c *Commander) SetEuler(roll, pitch, yaw float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.high.Euler = [3]float32{roll, pitch, yaw}
}

// SetBodyHeight 相对默认高度的偏移 (m)
func (c *Commander) SetBodyHeight(h float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.high.BodyHeight = h
}

// SetFootRaiseHeight 抬腿高度偏移 (m)
func (c *Commander) SetFootRaiseHeight(h float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.high.FootRaiseHeight = h
}

// SetSpeedLevel 速度档位
func (c *Commander) SetSpeedLevel(level protocol.SpeedLevel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.high.SpeedLevel = level
}

// SetLED 设置第 i 个灯的颜色
func (c *Commander) SetLED(i int, led protocol.LED) error {
	if i < 0 || i >= protocol.LEDCount {
		return fmt.Errorf("led %d: %w", i, ErrInvalidLED)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.high.LED[i] = led
	return nil
}

// PowerOff 通过 BMS 命令请求关机
func (c *Commander) PowerOff(off bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var v byte
	if off {
		v = 0xA5
	}
	c.high.Bms.Off = v
	c.low.Bms.Off = v
}

// SetJoint 关节位置控制
func (c *Commander) SetJoint(idx protocol.MotorIndex, q, kp, kd float32) error {
	return c.setMotor(idx, protocol.MotorCommand{
		Mode: protocol.MotorModeServo,
		Q:    q,
		Kp:   kp,
		Kd:   kd,
	})
}

// SetTorque 关节前馈力矩控制
func (c *Commander) SetTorque(idx protocol.MotorIndex, tau float32) error {
	return c.setMotor(idx, protocol.MotorCommand{
		Mode: protocol.MotorModeServo,
		Tau:  tau,
	})
}

func (c *Commander) setMotor(idx protocol.MotorIndex, cmd protocol.MotorCommand) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.low.MotorCmd.Set(idx, cmd)
}

// Damp 所有腿部关节进入阻尼模式
func (c *Commander) Damp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := protocol.MotorIndex(0); i < protocol.LegJoints; i++ {
		_ = c.low.MotorCmd.Set(i, protocol.MotorCommand{Mode: protocol.MotorModeDamping})
	}
	c.high.Mode = protocol.HighModeDamping
}

// Joint 读取当前的关节目标
func (c *Commander) Joint(idx protocol.MotorIndex) (protocol.MotorCommand, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.low.MotorCmd.Get(idx)
}

// HighCmd 当前高层命令的副本
func (c *Commander) HighCmd() protocol.HighCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.high
}

// HighPacket 序列化高层命令
func (c *Commander) HighPacket() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.high.Build(c.buildOptions(protocol.WithEncrypt(c.encrypt))...)
}

// LowPacket 序列化底层命令
func (c *Commander) LowPacket() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.low.Build(c.buildOptions()...)
}

// Packet 按配置的等级输出一帧命令
func (c *Commander) Packet() []byte {
	if c.lowLevel {
		return c.LowPacket()
	}
	return c.HighPacket()
}

func (c *Commander) buildOptions(opts ...protocol.BuildOption) []protocol.BuildOption {
	if c.debug != nil {
		opts = append(opts, protocol.WithDebug(c.debug))
	}
	return opts
}
