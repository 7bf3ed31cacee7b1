package server

import (
	"sync"
	"time"

	protocol "quadruped-gateway/internal/protocol/unitree"
)

const (
	// 关节跟踪目标的比例, 每收到一条命令向目标移动一半
	jointTracking = 0.5
	// 电量每分钟下降 1%
	socDrainPerMinute = 1
)

// SimRobot 极简的机器人模型: 高层命令积分出位姿, 底层命令让关节跟随目标。
// 同时服务高层和底层端口, 所有方法并发安全。
type SimRobot struct {
	mu    sync.Mutex
	high  *protocol.HighState
	low   *protocol.LowState
	start time.Time
	last  time.Time
	now   func() time.Time
}

func NewSimRobot(sn, version [8]byte) *SimRobot {
	high := protocol.NewHighState()
	low := protocol.NewLowState()
	for _, h := range []*protocol.Header{&high.Header, &low.Header} {
		h.SN = sn
		h.Version = version
	}

	bms := protocol.BmsState{
		VersionH: 1, VersionL: 2, Status: 8, SOC: 100, Current: -1200, Cycle: 12,
		BqNTC: [2]int8{25, 25}, McuNTC: [2]int8{30, 30},
		CellVol: []uint16{4100, 4100, 4100, 4100, 4100, 4100, 4100, 4100, 0, 0},
	}
	imu := protocol.IMU{Quaternion: [4]float32{1, 0, 0, 0}, Accelerometer: [3]float32{0, 0, 9.81}, Temperature: 35}

	high.Bms, low.Bms = bms, bms
	high.IMU, low.IMU = imu, imu
	high.BodyHeight = 0.28
	for i := range high.MotorState {
		ms := protocol.MotorState{Temperature: 30}
		if protocol.MotorIndex(i) < protocol.LegJoints {
			ms.Mode = protocol.MotorModeServo
		}
		high.MotorState[i], low.MotorState[i] = ms, ms
	}

	now := time.Now()
	return &SimRobot{high: high, low: low, start: now, last: now, now: time.Now}
}

// advance 推进时间: 位置按速度积分, 电量缓慢下降
func (r *SimRobot) advance() float32 {
	now := r.now()
	dt := float32(now.Sub(r.last).Seconds())
	r.last = now

	elapsed := now.Sub(r.start)
	soc := 100 - int(elapsed.Minutes())*socDrainPerMinute
	if soc < 0 {
		soc = 0
	}
	r.high.Bms.SOC = uint8(soc)
	r.low.Bms.SOC = uint8(soc)
	r.low.Tick = uint32(elapsed.Milliseconds())
	return dt
}

// ApplyHighCmd 执行高层命令
func (r *SimRobot) ApplyHighCmd(c *protocol.HighCmd) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dt := r.advance()
	s := r.high
	s.Mode = c.Mode
	s.GaitType = c.GaitType
	s.FootRaiseHeight = c.FootRaiseHeight
	s.YawSpeed = 0
	s.Velocity = [3]float32{}

	switch c.Mode {
	case protocol.HighModeVelWalk:
		s.Velocity = [3]float32{c.Velocity[0], c.Velocity[1], 0}
		s.YawSpeed = c.YawSpeed
		s.Position[0] += c.Velocity[0] * dt
		s.Position[1] += c.Velocity[1] * dt
		s.IMU.RPY[2] += c.YawSpeed * dt
	case protocol.HighModePosWalk:
		s.Position[0], s.Position[1] = c.Position[0], c.Position[1]
	case protocol.HighModeForceStand:
		s.IMU.RPY = c.Euler
	}
	if c.Mode == protocol.HighModeStandDown {
		s.BodyHeight = 0.08
	} else {
		s.BodyHeight = 0.28 + c.BodyHeight
	}
}

// ApplyLowCmd 执行底层命令。伺服模式的关节跟随目标角度, 阻尼模式的关节速度归零。
func (r *SimRobot) ApplyLowCmd(c *protocol.LowCmd) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advance()
	for i := protocol.FR0; i < protocol.LegJoints; i++ {
		cmd, _ := c.MotorCmd.Get(i)
		ms := &r.low.MotorState[i]
		ms.Mode = cmd.Mode
		switch cmd.Mode {
		case protocol.MotorModeServo:
			ms.Q += (cmd.Q - ms.Q) * jointTracking
			ms.Dq = cmd.Dq
			ms.TauEst = cmd.Tau + cmd.Kp*(cmd.Q-ms.Q) + cmd.Kd*(cmd.Dq-ms.Dq)
		default:
			ms.Dq = 0
			ms.TauEst = 0
		}
		ms.QRaw, ms.DqRaw = ms.Q, ms.Dq
		r.high.MotorState[i] = *ms
	}
}

// HighStateBytes 当前高层状态报文
func (r *SimRobot) HighStateBytes(opts ...protocol.BuildOption) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advance()
	return r.high.Build(opts...)
}

// LowStateBytes 当前底层状态报文
func (r *SimRobot) LowStateBytes(opts ...protocol.BuildOption) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advance()
	return r.low.Build(opts...)
}
