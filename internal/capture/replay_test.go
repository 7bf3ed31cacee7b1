package capture

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	protocol "quadruped-gateway/internal/protocol/unitree"
)

var (
	robotSN  = [8]byte{4, 3, 1, 2, 3, 4, 0, 0}
	captured = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

type frame struct {
	src, dst uint16
	payload  []byte
}

// udpFrame 组装 以太网/IPv4/UDP 帧
func udpFrame(t *testing.T, f frame) []byte {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 0x0e},
		DstMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 0xa1},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IPv4(192, 168, 123, 14),
		DstIP:    net.IPv4(192, 168, 123, 161),
	}
	udp := &layers.UDP{SrcPort: layers.UDPPort(f.src), DstPort: layers.UDPPort(f.dst)}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(f.payload)))
	return buf.Bytes()
}

func writePcap(t *testing.T, frames []frame) *bytes.Buffer {
	t.Helper()
	var out bytes.Buffer
	w := pcapgo.NewWriter(&out)
	require.NoError(t, w.WriteFileHeader(65536, layers.LinkTypeEthernet))
	for i, f := range frames {
		data := udpFrame(t, f)
		ci := gopacket.CaptureInfo{
			Timestamp:     captured.Add(time.Duration(i) * 2 * time.Millisecond),
			CaptureLength: len(data),
			Length:        len(data),
		}
		require.NoError(t, w.WritePacket(ci, data))
	}
	return &out
}

func sampleFrames() []frame {
	high := protocol.NewHighCmd()
	high.Header.SN = robotSN

	state := protocol.NewHighState()
	state.Header.SN = robotSN

	low := protocol.NewLowCmd()
	low.Header.SN = robotSN

	corrupt := state.Build()
	corrupt[200] ^= 0x04

	badMagic := protocol.NewLowState().Build()
	badMagic[0] = 0xAA

	return []frame{
		{8090, 8082, high.Build()},
		{8082, 8090, state.Build()},
		{8090, 8007, low.Build()},
		{8082, 8090, corrupt},
		{8007, 8090, badMagic},
		{8090, 8082, []byte("hello")},
		{9000, 9001, high.Build()},
	}
}

func TestReplay(t *testing.T) {
	var seen []protocol.Kind
	opts := Options{
		Ports:    []uint16{8082, 8007},
		OnPacket: func(_ gopacket.CaptureInfo, pkt protocol.Packet) { seen = append(seen, pkt.Kind()) },
	}

	stats, err := Replay(context.Background(), writePcap(t, sampleFrames()), opts, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 7, stats.Frames)
	assert.Equal(t, 6, stats.UDP)
	assert.Equal(t, map[int]int{5: 1}, stats.UnknownLength)
	assert.Equal(t, 5, stats.Decoded())
	assert.Equal(t, map[string]int{"0403010203040000": 4}, stats.Serials)
	assert.Equal(t, captured, stats.First.UTC())
	assert.Equal(t, captured.Add(10*time.Millisecond), stats.Last.UTC())

	assert.Equal(t, []KindStats{
		{Kind: protocol.KindHighCmd, Packets: 1, Valid: 1},
		{Kind: protocol.KindHighState, Packets: 2, Valid: 1, Invalid: 1},
		{Kind: protocol.KindLowCmd, Packets: 1, Valid: 1, Encrypted: 1},
		{Kind: protocol.KindLowState, Packets: 1, BadMagic: 1},
	}, stats.Sorted())

	assert.Equal(t, []protocol.Kind{
		protocol.KindHighCmd, protocol.KindHighState, protocol.KindLowCmd, protocol.KindHighState,
	}, seen)
}

func TestReplay_AllPorts(t *testing.T) {
	stats, err := Replay(context.Background(), writePcap(t, sampleFrames()), Options{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 7, stats.UDP)
	assert.Equal(t, 2, stats.Kinds[protocol.KindHighCmd].Packets)
}

func TestReplay_PcapNG(t *testing.T) {
	var out bytes.Buffer
	w, err := pcapgo.NewNgWriter(&out, layers.LinkTypeEthernet)
	require.NoError(t, err)

	data := udpFrame(t, frame{8082, 8090, protocol.NewLowState().Build()})
	require.NoError(t, w.WritePacket(gopacket.CaptureInfo{
		Timestamp: captured, CaptureLength: len(data), Length: len(data), InterfaceIndex: 0,
	}, data))
	require.NoError(t, w.Flush())

	stats, err := Replay(context.Background(), &out, Options{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Kinds[protocol.KindLowState].Valid)
}

func TestReplay_Errors(t *testing.T) {
	_, err := Replay(context.Background(), bytes.NewReader([]byte{1, 2}), Options{}, zap.NewNop())
	assert.Error(t, err)

	_, err = Replay(context.Background(), bytes.NewReader(make([]byte, 64)), Options{}, zap.NewNop())
	assert.ErrorContains(t, err, "pcap")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Replay(ctx, writePcap(t, sampleFrames()), Options{}, zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)

	_, err = ReplayFile(context.Background(), "/nonexistent/capture.pcap", Options{}, zap.NewNop())
	assert.Error(t, err)
}
