package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"quadruped-gateway/internal/capture"
	protocol "quadruped-gateway/internal/protocol/unitree"
)

func TestPortFilter(t *testing.T) {
	assert.Equal(t, []uint16{8007, 8082}, portFilter([]uint{8007, 8082}))
	assert.Nil(t, portFilter([]uint{8082, 0}))
	assert.Nil(t, portFilter(nil))
}

func TestSerialBytes(t *testing.T) {
	sn := [8]byte{4, 3, 1, 2, 3, 4, 0, 0}
	assert.Equal(t, sn, serialBytes(protocol.SerialKey(sn)))
	assert.Equal(t, [8]byte{}, serialBytes("zz"))
}

func TestPrintSummary(t *testing.T) {
	stats := &capture.Stats{
		Frames:        10,
		UDP:           8,
		UnknownLength: map[int]int{5: 2, 64: 1},
		Kinds: map[protocol.Kind]*capture.KindStats{
			protocol.KindHighState: {Kind: protocol.KindHighState, Packets: 5, Valid: 4, Invalid: 1},
		},
		Serials: map[string]int{"0403010203040000": 5},
	}

	var out bytes.Buffer
	printSummary(&out, "walk.pcap", stats)

	text := out.String()
	assert.Contains(t, text, "frames: 10  udp: 8  decoded: 5")
	assert.Contains(t, text, "HighState")
	assert.Contains(t, text, "    5 bytes: 2")
	assert.Contains(t, text, "robot 0403010203040000 (Go1_EDU 1-2-3[4]): 5 packets")
}
