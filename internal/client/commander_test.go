package client

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	protocol "quadruped-gateway/internal/protocol/unitree"
)

func TestCommander_HighPacket(t *testing.T) {
	c := NewCommander(false, false)
	c.Walk(protocol.GaitTrot, 0.4, -0.1, 0.5)
	c.SetBodyHeight(-0.05)
	c.SetSpeedLevel(protocol.SpeedMedium)
	require.NoError(t, c.SetLED(2, protocol.LED{G: 255}))

	data := c.Packet()
	require.Len(t, data, protocol.HighCmdLength)

	got, err := protocol.ParseHighCmd(data)
	require.NoError(t, err)
	assert.True(t, got.Integrity.Valid)
	assert.False(t, got.Integrity.Encrypted)

	want := c.HighCmd()
	if diff := cmp.Diff(want, *got, cmpopts.IgnoreFields(protocol.HighCmd{}, "Integrity")); diff != "" {
		t.Errorf("high command mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, protocol.HighModeVelWalk, got.Mode)
	assert.Equal(t, [2]float32{0.4, -0.1}, got.Velocity)
}

func TestCommander_EncryptHigh(t *testing.T) {
	c := NewCommander(false, true)
	got, err := protocol.ParseHighCmd(c.HighPacket())
	require.NoError(t, err)
	assert.True(t, got.Integrity.Valid)
	assert.True(t, got.Integrity.Encrypted)
}

func TestCommander_ModesResetMotion(t *testing.T) {
	c := NewCommander(false, false)
	c.Walk(protocol.GaitTrot, 1, 0, 1)

	c.Stand()
	cmd := c.HighCmd()
	assert.Equal(t, protocol.HighModeForceStand, cmd.Mode)
	assert.Equal(t, protocol.GaitIdle, cmd.GaitType)
	assert.Zero(t, cmd.Velocity)
	assert.Zero(t, cmd.YawSpeed)

	c.StandDown()
	assert.Equal(t, protocol.HighModeStandDown, c.HighCmd().Mode)
	c.Recover()
	assert.Equal(t, protocol.HighModeRecovery, c.HighCmd().Mode)
	c.Idle()
	assert.Equal(t, protocol.HighModeIdle, c.HighCmd().Mode)
}

func TestCommander_SetLEDOutOfRange(t *testing.T) {
	c := NewCommander(false, false)
	assert.ErrorIs(t, c.SetLED(protocol.LEDCount, protocol.LED{R: 1}), ErrInvalidLED)
	assert.ErrorIs(t, c.SetLED(-1, protocol.LED{R: 1}), ErrInvalidLED)
	assert.Equal(t, [protocol.LEDCount]protocol.LED{}, c.HighCmd().LED)
}

func TestCommander_LowPacket(t *testing.T) {
	c := NewCommander(true, false)
	require.NoError(t, c.SetJoint(protocol.FL1, 0.8, 20, 0.5))
	require.NoError(t, c.SetTorque(protocol.RR2, -3.5))
	assert.ErrorIs(t, c.SetJoint(protocol.MotorSlots, 0, 0, 0), protocol.ErrInvalidIndex)

	data := c.Packet()
	require.Len(t, data, protocol.LowCmdLength)

	got, err := protocol.ParseLowCmd(data)
	require.NoError(t, err)
	// encrypt 参数只影响高层命令
	assert.True(t, got.Integrity.Encrypted)

	joint := got.MotorCmd[protocol.FL1]
	assert.Equal(t, protocol.MotorModeServo, joint.Mode)
	assert.Equal(t, float32(0.8), joint.Q)
	assert.InDelta(t, 20, joint.Kp, 0.1)
	assert.InDelta(t, 0.5, joint.Kd, 0.1)
	assert.InDelta(t, -3.5, got.MotorCmd[protocol.RR2].Tau, 1.0/256)

	stored, err := c.Joint(protocol.FL1)
	require.NoError(t, err)
	assert.Equal(t, float32(0.8), stored.Q)
}

func TestCommander_DampAndPowerOff(t *testing.T) {
	c := NewCommander(true, false)
	c.Damp()
	c.PowerOff(true)

	got, err := protocol.ParseLowCmd(c.LowPacket())
	require.NoError(t, err)
	for i := protocol.MotorIndex(0); i < protocol.LegJoints; i++ {
		assert.Equal(t, protocol.MotorModeDamping, got.MotorCmd[i].Mode, i.String())
	}
	assert.Equal(t, protocol.MotorModeServo, got.MotorCmd[protocol.Reserved1].Mode)
	assert.Equal(t, byte(0xA5), got.Bms.Off)
	assert.Equal(t, protocol.HighModeDamping, c.HighCmd().Mode)
	assert.Equal(t, byte(0xA5), c.HighCmd().Bms.Off)

	c.PowerOff(false)
	assert.Zero(t, c.HighCmd().Bms.Off)
}

func TestCommander_Debug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := NewCommander(false, false)
	c.SetDebug(zap.New(core))
	c.HighPacket()
	c.LowPacket()
	assert.Equal(t, 2, logs.FilterMessage("Send Data").Len())

	c.SetDebug(nil)
	c.HighPacket()
	assert.Equal(t, 2, logs.Len())
}
