package client

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	protocol "quadruped-gateway/internal/protocol/unitree"
	"quadruped-gateway/internal/transport"
)

// Link 与机器人之间的数据报通道, 由 transport.UDP 实现
type Link interface {
	Send(b []byte) error
	ReceiveBatch() [][]byte
}

// SessionStats 会话计数
type SessionStats struct {
	Ticks    uint64
	Sent     uint64
	Received uint64
	Invalid  uint64 // 校验失败
	Unknown  uint64 // 无法识别的数据报
}

// Session 固定周期的控制循环: 收取状态, 发送当前命令, 每 N 个周期输出一次状态摘要。
type Session struct {
	link        Link
	cmd         *Commander
	interval    time.Duration
	reportEvery int
	logger      *zap.Logger

	// OnState 每解析出一条状态报文回调一次, 可为 nil
	OnState func(tick int, pkt protocol.Packet)

	ticks, sent, received, invalid, unknown atomic.Uint64
}

func NewSession(link Link, cmd *Commander, interval time.Duration, reportEvery int, logger *zap.Logger) *Session {
	if interval <= 0 {
		interval = 2 * time.Millisecond
	}
	if reportEvery <= 0 {
		reportEvery = 100
	}
	return &Session{
		link:        link,
		cmd:         cmd,
		interval:    interval,
		reportEvery: reportEvery,
		logger:      logger,
	}
}

// Run 先发送一帧初始命令, 之后每个周期收取状态并发送命令。
// maxTicks<=0 时一直运行到 ctx 取消。
func (s *Session) Run(ctx context.Context, maxTicks int) error {
	if err := s.send(); err != nil {
		return fmt.Errorf("send initial command: %w", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for tick := 1; maxTicks <= 0 || tick <= maxTicks; tick++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		s.ticks.Add(1)

		for _, data := range s.link.ReceiveBatch() {
			s.handle(tick, data)
		}

		if err := s.send(); err != nil {
			if errors.Is(err, transport.ErrClosed) {
				return err
			}
			s.logger.Warn("Failed to send command", zap.Int("tick", tick), zap.Error(err))
		}
	}
	return nil
}

func (s *Session) send() error {
	if err := s.link.Send(s.cmd.Packet()); err != nil {
		return err
	}
	s.sent.Add(1)
	return nil
}

func (s *Session) handle(tick int, data []byte) {
	pkt, err := protocol.DecodeDatagram(data)
	if err != nil {
		s.unknown.Add(1)
		s.logger.Debug("Unrecognized datagram", zap.Int("len", len(data)), zap.Error(err))
		return
	}
	if !pkt.Kind().IsState() {
		s.unknown.Add(1)
		return
	}

	s.received.Add(1)
	if !pkt.Check().Valid {
		s.invalid.Add(1)
		s.logger.Warn("State checksum mismatch", zap.Stringer("kind", pkt.Kind()), zap.Int("tick", tick))
	}

	if s.OnState != nil {
		s.OnState(tick, pkt)
	}
	if tick%s.reportEvery == 0 {
		s.report(pkt)
	}
}

// report 输出机器人标识、电池和足端力
func (s *Session) report(pkt protocol.Packet) {
	var (
		bms      protocol.BmsState
		ff, ffe  [protocol.Legs]int16
		imuTemp  float32
		extraLog []zap.Field
	)
	switch st := pkt.(type) {
	case *protocol.HighState:
		bms, ff, ffe, imuTemp = st.Bms, st.FootForce, st.FootForceEst, st.IMU.Temperature
		extraLog = append(extraLog,
			zap.Stringer("mode", st.Mode),
			zap.Float32s("position", st.Position[:]),
			zap.Float32("body_height", st.BodyHeight))
	case *protocol.LowState:
		bms, ff, ffe, imuTemp = st.Bms, st.FootForce, st.FootForceEst, st.IMU.Temperature
		extraLog = append(extraLog, zap.Uint32("tick", st.Tick))
	default:
		return
	}

	head := pkt.Head()
	product, id := protocol.DecodeSerial(head.SN)
	hw, sw := protocol.DecodeVersion(head.Version)

	fields := []zap.Field{
		zap.String("sn", protocol.SerialKey(head.SN)),
		zap.String("product", product),
		zap.String("id", id),
		zap.String("hardware", hw),
		zap.String("software", sw),
		zap.Uint8("soc", bms.SOC),
		zap.Uint32("voltage_mv", bms.Voltage()),
		zap.Int32("current_ma", bms.Current),
		zap.Uint16("cycles", bms.Cycle),
		zap.Int8s("bq_ntc", bms.BqNTC[:]),
		zap.Int8s("mcu_ntc", bms.McuNTC[:]),
		zap.Float32("imu_temp", imuTemp),
		zap.Int16s("foot_force", ff[:]),
		zap.Int16s("foot_force_est", ffe[:]),
	}
	s.logger.Info("Robot state", append(fields, extraLog...)...)
}

func (s *Session) Stats() SessionStats {
	return SessionStats{
		Ticks:    s.ticks.Load(),
		Sent:     s.sent.Load(),
		Received: s.received.Load(),
		Invalid:  s.invalid.Load(),
		Unknown:  s.unknown.Load(),
	}
}
