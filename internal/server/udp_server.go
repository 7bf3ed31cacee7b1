package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/panjf2000/gnet/v2"
	"go.uber.org/zap"

	protocol "quadruped-gateway/internal/protocol/unitree"
)

var (
	// ErrUnexpectedKind 模拟器只接受命令报文
	ErrUnexpectedKind = errors.New("unexpected packet kind")
	// ErrInvalidCommand 命令报文校验失败, 固件会直接丢弃
	ErrInvalidCommand = errors.New("command checksum mismatch")
)

// UDPServer 基于 gnet 的机器人模拟器。每收到一条命令报文就回复一条对应等级的状态报文。
type UDPServer struct {
	gnet.BuiltinEventEngine

	addr      string
	multicore bool
	logger    *zap.Logger
	robot     *SimRobot
	debug     bool
}

func NewUDPServer(host string, port int, multicore bool, robot *SimRobot, logger *zap.Logger) *UDPServer {
	return &UDPServer{
		addr:      fmt.Sprintf("udp://%s:%d", host, port),
		multicore: multicore,
		logger:    logger,
		robot:     robot,
	}
}

// SetDebug 回复的状态报文以 debug 级别输出
func (s *UDPServer) SetDebug(v bool) {
	s.debug = v
}

func (s *UDPServer) Addr() string {
	return s.addr
}

func (s *UDPServer) OnBoot(eng gnet.Engine) (action gnet.Action) {
	s.logger.Info("Robot simulator is booting", zap.String("address", s.addr))
	return
}

func (s *UDPServer) OnTraffic(c gnet.Conn) (action gnet.Action) {
	buf, _ := c.Next(-1)
	if len(buf) == 0 {
		return
	}

	resp, err := s.Respond(buf)
	if err != nil {
		s.logger.Warn("Command dropped",
			zap.Error(err),
			zap.Int("len", len(buf)),
			zap.String("remote_addr", c.RemoteAddr().String()))
		return
	}

	if _, err := c.Write(resp); err != nil {
		s.logger.Error("Failed to send state", zap.Error(err), zap.String("remote_addr", c.RemoteAddr().String()))
	}
	return
}

func (s *UDPServer) OnShutdown(eng gnet.Engine) {
	s.logger.Info("Robot simulator is shutting down", zap.String("address", s.addr))
}

// Respond 解析一条命令并返回状态报文。buf 在返回前已被完整复制, 可以复用。
func (s *UDPServer) Respond(buf []byte) ([]byte, error) {
	pkt, err := protocol.DecodeDatagram(buf)
	if err != nil {
		return nil, err
	}
	if !pkt.Check().Valid {
		return nil, fmt.Errorf("%s: %w", pkt.Kind(), ErrInvalidCommand)
	}

	var opts []protocol.BuildOption
	if s.debug {
		opts = append(opts, protocol.WithDebug(s.logger))
	}

	switch cmd := pkt.(type) {
	case *protocol.HighCmd:
		s.robot.ApplyHighCmd(cmd)
		return s.robot.HighStateBytes(opts...), nil
	case *protocol.LowCmd:
		s.robot.ApplyLowCmd(cmd)
		return s.robot.LowStateBytes(opts...), nil
	default:
		return nil, fmt.Errorf("%s: %w", pkt.Kind(), ErrUnexpectedKind)
	}
}

// Start 阻塞运行事件循环
func (s *UDPServer) Start(ctx context.Context) error {
	s.logger.Info("Starting robot simulator", zap.String("addr", s.addr))
	return gnet.Run(s, s.addr,
		gnet.WithMulticore(s.multicore),
		gnet.WithLogger(s.logger.Sugar()),
		gnet.WithReusePort(true),
	)
}

func (s *UDPServer) Stop(ctx context.Context) error {
	s.logger.Info("Stopping robot simulator", zap.String("addr", s.addr))
	return gnet.Stop(ctx, s.addr)
}
