package unitree

import (
	"context"
	"sync"

	protocol "quadruped-gateway/internal/protocol/unitree"
)

var (
	go1EDU  = [8]byte{4, 3, 1, 2, 3, 4, 0, 0}
	aliengo = [8]byte{2, 2, 9, 9, 9, 1, 0, 0}
	version = [8]byte{1, 0, 0, 3, 2, 1, 0, 0}
)

func highState(sn [8]byte, soc uint8) []byte {
	s := protocol.NewHighState()
	s.Header.SN = sn
	s.Header.Version = version
	s.Mode = protocol.HighModeVelWalk
	s.Bms.SOC = soc
	return s.Build()
}

func lowState(sn [8]byte, tick uint32) []byte {
	s := protocol.NewLowState()
	s.Header.SN = sn
	s.Header.Version = version
	s.Tick = tick
	return s.Build()
}

type produced struct {
	topic, key string
	data       interface{}
}

type recordingProducer struct {
	mu   sync.Mutex
	msgs []produced
}

func (p *recordingProducer) Produce(ctx context.Context, topic string, key string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, produced{topic, key, data})
	return nil
}

func (p *recordingProducer) snapshot() []produced {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]produced(nil), p.msgs...)
}
