package capture

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"go.uber.org/zap"

	protocol "quadruped-gateway/internal/protocol/unitree"
)

// pcapng 文件以 Section Header Block 开头
const pcapngMagic = 0x0A0D0D0A

// KindStats 单一报文类型的统计
type KindStats struct {
	Kind      protocol.Kind
	Packets   int
	Valid     int
	Encrypted int
	Invalid   int // 校验失败
	BadMagic  int
}

// Stats 一次回放的结果
type Stats struct {
	Frames        int // 抓包中的帧数
	UDP           int // 端口过滤后的 UDP 数据报
	UnknownLength map[int]int
	Kinds         map[protocol.Kind]*KindStats
	Serials       map[string]int
	First, Last   time.Time
}

func newStats() *Stats {
	return &Stats{
		UnknownLength: make(map[int]int),
		Kinds:         make(map[protocol.Kind]*KindStats),
		Serials:       make(map[string]int),
	}
}

func (s *Stats) kind(k protocol.Kind) *KindStats {
	ks, ok := s.Kinds[k]
	if !ok {
		ks = &KindStats{Kind: k}
		s.Kinds[k] = ks
	}
	return ks
}

// Sorted 按类型排序的统计
func (s *Stats) Sorted() []KindStats {
	out := make([]KindStats, 0, len(s.Kinds))
	for _, ks := range s.Kinds {
		out = append(out, *ks)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// Decoded 所有识别出类型的数据报个数
func (s *Stats) Decoded() int {
	n := 0
	for _, ks := range s.Kinds {
		n += ks.Packets
	}
	return n
}

// Options 回放参数
type Options struct {
	// Ports 只统计源或目的端口在其中的 UDP 数据报, 为空时统计全部
	Ports []uint16
	// OnPacket 每解析出一个报文回调一次, 可为 nil
	OnPacket func(meta gopacket.CaptureInfo, pkt protocol.Packet)
}

func (o Options) match(udp *layers.UDP) bool {
	if len(o.Ports) == 0 {
		return true
	}
	for _, p := range o.Ports {
		if uint16(udp.SrcPort) == p || uint16(udp.DstPort) == p {
			return true
		}
	}
	return false
}

// ReplayFile 打开 pcap 或 pcapng 文件并回放
func ReplayFile(ctx context.Context, path string, opts Options, logger *zap.Logger) (*Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture %s: %w", path, err)
	}
	defer f.Close()

	return Replay(ctx, f, opts, logger)
}

// Replay 读取抓包, 把每个 UDP 负载交给报文识别器, 统计长度/起始符/校验情况
func Replay(ctx context.Context, r io.Reader, opts Options, logger *zap.Logger) (*Stats, error) {
	source, err := openSource(r)
	if err != nil {
		return nil, err
	}

	stats := newStats()
	packetSource := gopacket.NewPacketSource(source, source.LinkType())
	packetSource.DecodeOptions = gopacket.DecodeOptions{Lazy: true}

	for {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		packet, err := packetSource.NextPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Warn("Skipping unreadable frame", zap.Int("frame", stats.Frames+1), zap.Error(err))
			if errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			continue
		}
		stats.Frames++

		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		udp, ok := udpLayer.(*layers.UDP)
		if !ok || !opts.match(udp) || len(udp.Payload) == 0 {
			continue
		}
		stats.UDP++

		meta := packet.Metadata().CaptureInfo
		if stats.First.IsZero() {
			stats.First = meta.Timestamp
		}
		stats.Last = meta.Timestamp

		record(stats, udp.Payload, meta, opts, logger)
	}

	logger.Info("Capture replay complete",
		zap.Int("frames", stats.Frames),
		zap.Int("udp", stats.UDP),
		zap.Int("decoded", stats.Decoded()))
	return stats, nil
}

func record(stats *Stats, payload []byte, meta gopacket.CaptureInfo, opts Options, logger *zap.Logger) {
	kind, err := protocol.DetectKind(payload)
	switch {
	case errors.Is(err, protocol.ErrUnknownLength):
		stats.UnknownLength[len(payload)]++
		return
	case errors.Is(err, protocol.ErrInvalidHeader):
		stats.kind(kind).Packets++
		stats.kind(kind).BadMagic++
		return
	}

	pkt, err := protocol.DecodeDatagram(payload)
	if err != nil {
		logger.Warn("Decode failed", zap.Stringer("kind", kind), zap.Error(err))
		return
	}

	ks := stats.kind(kind)
	ks.Packets++
	check := pkt.Check()
	switch {
	case !check.Valid:
		ks.Invalid++
		logger.Debug("Checksum mismatch",
			zap.Stringer("kind", kind),
			zap.Time("ts", meta.Timestamp),
			zap.Uint32("trailer", check.Checksum))
	case check.Encrypted:
		ks.Valid++
		ks.Encrypted++
	default:
		ks.Valid++
	}
	stats.Serials[protocol.SerialKey(pkt.Head().SN)]++

	if opts.OnPacket != nil {
		opts.OnPacket(meta, pkt)
	}
}

type captureSource interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

// openSource 按文件头区分 pcap 和 pcapng
func openSource(r io.Reader) (captureSource, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture header: %w", err)
	}

	if binary.LittleEndian.Uint32(head) == pcapngMagic {
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to open pcapng: %w", err)
		}
		return ng, nil
	}

	pr, err := pcapgo.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap: %w", err)
	}
	return pr, nil
}
