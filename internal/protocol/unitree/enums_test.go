package unitree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnums_Unknown(t *testing.T) {
	assert.Equal(t, HighModeUnknown, ParseHighMode(0xFF))
	assert.Equal(t, HighModeUnknown, ParseHighMode(14))
	assert.Equal(t, "Unknown", ParseHighMode(0xFF).String())
	assert.Equal(t, HighModeVelWalk, ParseHighMode(2))
	assert.Equal(t, "Dance2", ParseHighMode(13).String())

	assert.Equal(t, GaitUnknown, ParseGaitType(5))
	assert.Equal(t, GaitClimbStair, ParseGaitType(3))

	assert.Equal(t, SpeedUnknown, ParseSpeedLevel(3))
	assert.Equal(t, "Medium", ParseSpeedLevel(1).String())

	assert.Equal(t, MotorModeServo, ParseMotorMode(0x0A))
	assert.Equal(t, MotorModeOverheat, ParseMotorMode(0x08))
	assert.Equal(t, MotorModeDamping, ParseMotorMode(0x00))
	assert.Equal(t, MotorModeUnknown, ParseMotorMode(0x01))
}

func TestMotorIndex(t *testing.T) {
	assert.Equal(t, "FR_0", FR0.String())
	assert.Equal(t, "RL_2", RL2.String())
	assert.Equal(t, "Reserved1", Reserved1.String())
	assert.Equal(t, "Reserved8", Reserved8.String())
	assert.Equal(t, 19, int(Reserved8))

	assert.True(t, Reserved3.IsReserved())
	assert.False(t, RL2.IsReserved())
	assert.False(t, MotorIndex(20).Valid())
	assert.False(t, MotorIndex(-1).Valid())
}

func TestIdentity(t *testing.T) {
	product, id := DecodeSerial([8]byte{4, 3, 1, 2, 3, 4})
	assert.Equal(t, "Go1_EDU", product)
	assert.Equal(t, "1-2-3[4]", id)

	product, _ = DecodeSerial([8]byte{9, 9})
	assert.Equal(t, "UNKNOWN_UNKNOWN", product)

	hw, sw := DecodeVersion([8]byte{1, 2, 3, 4, 5, 6})
	assert.Equal(t, "1.2.3", hw)
	assert.Equal(t, "4.5.6", sw)

	assert.Equal(t, "0403010203040000", SerialKey([8]byte{4, 3, 1, 2, 3, 4}))
}
