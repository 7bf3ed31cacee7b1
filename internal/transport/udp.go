package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
)

// ErrClosed 在关闭后调用 Send 时返回
var ErrClosed = errors.New("transport closed")

const (
	// 最大的报文为 1087 字节
	readBufferSize = 2048
	// 默认最多缓存的未取走数据报
	defaultMaxPending = 4096
)

// Options UDP 连接参数
type Options struct {
	LocalAddr  string // 本地监听地址, 例如 0.0.0.0:8090
	RemoteAddr string // 机器人地址, 例如 192.168.123.161:8082
	// MaxPending 接收队列上限, 超出时丢弃最早的数据报。<=0 使用默认值。
	MaxPending int
}

// UDP 绑定本地端口, 向固定的机器人地址发送, 后台协程把收到的数据报放入队列。
type UDP struct {
	conn   *net.UDPConn
	remote *net.UDPAddr
	logger *zap.Logger

	mu         sync.Mutex
	pending    [][]byte
	maxPending int
	dropped    uint64

	closeOnce sync.Once
	closed    chan struct{}
	wg        sync.WaitGroup
}

// NewUDP 绑定本地地址并解析机器人地址
func NewUDP(opts Options, logger *zap.Logger) (*UDP, error) {
	local, err := net.ResolveUDPAddr("udp", opts.LocalAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve local addr %s: %w", opts.LocalAddr, err)
	}
	remote, err := net.ResolveUDPAddr("udp", opts.RemoteAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve remote addr %s: %w", opts.RemoteAddr, err)
	}

	conn, err := net.ListenUDP("udp", local)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", opts.LocalAddr, err)
	}

	maxPending := opts.MaxPending
	if maxPending <= 0 {
		maxPending = defaultMaxPending
	}

	return &UDP{
		conn:       conn,
		remote:     remote,
		logger:     logger,
		maxPending: maxPending,
		closed:     make(chan struct{}),
	}, nil
}

// LocalAddr 实际绑定的地址 (端口为 0 时由系统分配)
func (u *UDP) LocalAddr() net.Addr {
	return u.conn.LocalAddr()
}

// Start 启动接收协程。ctx 取消时关闭连接。
func (u *UDP) Start(ctx context.Context) {
	u.wg.Add(1)
	go u.receiveLoop()

	go func() {
		select {
		case <-ctx.Done():
			_ = u.Close()
		case <-u.closed:
		}
	}()

	u.logger.Info("UDP transport started",
		zap.String("local", u.conn.LocalAddr().String()),
		zap.String("remote", u.remote.String()))
}

func (u *UDP) receiveLoop() {
	defer u.wg.Done()
	buf := make([]byte, readBufferSize)
	for {
		n, addr, err := u.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-u.closed:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			u.logger.Warn("UDP read failed", zap.Error(err))
			continue
		}
		if n == 0 {
			continue
		}

		datagram := make([]byte, n)
		copy(datagram, buf[:n])
		u.push(datagram, addr)
	}
}

func (u *UDP) push(datagram []byte, addr *net.UDPAddr) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if len(u.pending) >= u.maxPending {
		u.pending = u.pending[1:]
		u.dropped++
		if u.dropped%1000 == 1 {
			u.logger.Warn("UDP receive queue full, dropping oldest datagram",
				zap.Uint64("dropped", u.dropped),
				zap.Stringer("from", addr))
		}
	}
	u.pending = append(u.pending, datagram)
}

// Send 向机器人发送一个完整的报文
func (u *UDP) Send(b []byte) error {
	select {
	case <-u.closed:
		return ErrClosed
	default:
	}

	if _, err := u.conn.WriteToUDP(b, u.remote); err != nil {
		return fmt.Errorf("send to %s: %w", u.remote, err)
	}
	return nil
}

// ReceiveBatch 非阻塞地取走所有已收到的数据报, 按到达顺序排列。没有数据时返回 nil。
func (u *UDP) ReceiveBatch() [][]byte {
	u.mu.Lock()
	defer u.mu.Unlock()

	batch := u.pending
	u.pending = nil
	return batch
}

// Dropped 因队列满而丢弃的数据报个数
func (u *UDP) Dropped() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.dropped
}

// Close 关闭连接并等待接收协程退出。可重复调用。
func (u *UDP) Close() error {
	var err error
	u.closeOnce.Do(func() {
		close(u.closed)
		err = u.conn.Close()
		u.wg.Wait()
		u.logger.Info("UDP transport closed")
	})
	return err
}
