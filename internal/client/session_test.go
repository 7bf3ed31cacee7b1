package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	protocol "quadruped-gateway/internal/protocol/unitree"
	"quadruped-gateway/internal/transport"
)

// fakeLink 每次 ReceiveBatch 返回一批预先排好的数据报
type fakeLink struct {
	mu      sync.Mutex
	sent    [][]byte
	batches [][][]byte
	sendErr error
}

func (l *fakeLink) Send(b []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sendErr != nil {
		return l.sendErr
	}
	l.sent = append(l.sent, b)
	return nil
}

func (l *fakeLink) ReceiveBatch() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.batches) == 0 {
		return nil
	}
	b := l.batches[0]
	l.batches = l.batches[1:]
	return b
}

func stateBytes(soc uint8) []byte {
	s := protocol.NewHighState()
	s.Header.SN = [8]byte{4, 3, 1, 2, 3, 4, 0, 0}
	s.Header.Version = [8]byte{1, 0, 0, 3, 2, 1, 0, 0}
	s.Bms.SOC = soc
	s.Bms.CellVol = []uint16{3300, 3300}
	s.FootForce = [protocol.Legs]int16{10, 20, 30, 40}
	return s.Build()
}

func TestSession_Run(t *testing.T) {
	corrupt := stateBytes(50)
	corrupt[100] ^= 0x01

	link := &fakeLink{batches: [][][]byte{
		{stateBytes(90)},
		{stateBytes(89), []byte("noise")},
		{corrupt, protocol.NewHighCmd().Build()},
	}}
	core, logs := observer.New(zapcore.InfoLevel)

	s := NewSession(link, NewCommander(false, false), time.Millisecond, 2, zap.New(core))
	var seen []int
	s.OnState = func(tick int, pkt protocol.Packet) { seen = append(seen, tick) }

	require.NoError(t, s.Run(context.Background(), 4))

	assert.Equal(t, SessionStats{Ticks: 4, Sent: 5, Received: 3, Invalid: 1, Unknown: 2}, s.Stats())
	assert.Equal(t, []int{1, 2, 3}, seen)
	assert.Len(t, link.sent, 5)
	for _, pkt := range link.sent {
		assert.Len(t, pkt, protocol.HighCmdLength)
	}

	reports := logs.FilterMessage("Robot state").All()
	require.Len(t, reports, 1)
	fields := reports[0].ContextMap()
	assert.Equal(t, "Go1_EDU", fields["product"])
	assert.Equal(t, "1-2-3[4]", fields["id"])
	assert.Equal(t, "3.2.1", fields["software"])
	assert.EqualValues(t, 89, fields["soc"])
	assert.EqualValues(t, 6600, fields["voltage_mv"])
	assert.Equal(t, 1, logs.FilterMessage("State checksum mismatch").Len())
}

func TestSession_LowLevel(t *testing.T) {
	state := protocol.NewLowState()
	state.Tick = 1234
	link := &fakeLink{batches: [][][]byte{{state.Build()}}}
	core, logs := observer.New(zapcore.InfoLevel)

	s := NewSession(link, NewCommander(true, false), time.Millisecond, 1, zap.New(core))
	require.NoError(t, s.Run(context.Background(), 1))

	assert.Len(t, link.sent[0], protocol.LowCmdLength)
	reports := logs.FilterMessage("Robot state").All()
	require.Len(t, reports, 1)
	assert.EqualValues(t, 1234, reports[0].ContextMap()["tick"])
}

func TestSession_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSession(&fakeLink{}, NewCommander(false, false), time.Hour, 0, zap.NewNop())
	assert.ErrorIs(t, s.Run(ctx, 0), context.Canceled)
	assert.EqualValues(t, 1, s.Stats().Sent)
}

func TestSession_SendErrors(t *testing.T) {
	s := NewSession(&fakeLink{sendErr: transport.ErrClosed}, NewCommander(false, false), time.Millisecond, 0, zap.NewNop())
	assert.ErrorIs(t, s.Run(context.Background(), 1), transport.ErrClosed)

	link := &fakeLink{}
	s = NewSession(link, NewCommander(false, false), time.Millisecond, 0, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 初始命令成功之后的发送失败只记录日志
	go func() {
		time.Sleep(5 * time.Millisecond)
		link.mu.Lock()
		link.sendErr = errors.New("network is unreachable")
		link.mu.Unlock()
	}()
	require.NoError(t, s.Run(ctx, 20))
	assert.EqualValues(t, 20, s.Stats().Ticks)
}
