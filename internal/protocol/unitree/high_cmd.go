package unitree

// HighCmd 高层命令报文 (129 字节)
//
//	[头部 22][模式 1][步态 1][速度档 1][抬腿高度 4][机身高度 4][位置 2*4][欧拉角 3*4]
//	[速度 2*4][偏航速度 4][BMS 4][LED 4*3][遥控 40][保留 4][校验 4]
type HighCmd struct {
	Header          Header                     `json:"-"`
	Mode            HighMode                   `json:"mode"`
	GaitType        GaitType                   `json:"gaitType"`
	SpeedLevel      SpeedLevel                 `json:"speedLevel"`
	FootRaiseHeight float32                    `json:"footRaiseHeight"` // (m)
	BodyHeight      float32                    `json:"bodyHeight"`      // (m)
	Position        [2]float32                 `json:"position"`
	Euler           [3]float32                 `json:"euler"`    // 横滚/俯仰/偏航 (rad)
	Velocity        [2]float32                 `json:"velocity"` // 前进/侧移 (m/s)
	YawSpeed        float32                    `json:"yawSpeed"` // (rad/s)
	Bms             BmsCommand                 `json:"bms"`
	LED             [LEDCount]LED              `json:"led"`
	WirelessRemote  [WirelessRemoteLength]byte `json:"-"`
	Reserve         [4]byte                    `json:"-"`

	// Integrity 仅在解析时填充
	Integrity Integrity `json:"-"`
}

const (
	highCmdMode     = 22
	highCmdGait     = 23
	highCmdSpeed    = 24
	highCmdRaise    = 25
	highCmdHeight   = 29
	highCmdPosition = 33
	highCmdEuler    = 41
	highCmdVelocity = 53
	highCmdYawSpeed = 61
	highCmdBms      = 65
	highCmdLED      = 69
	highCmdRemote   = 81
	highCmdReserve  = 121
)

// NewHighCmd 空闲模式的高层命令
func NewHighCmd() *HighCmd {
	return &HighCmd{Header: NewHeader(HighLevelFlag)}
}

func (c *HighCmd) Kind() Kind       { return KindHighCmd }
func (c *HighCmd) Head() Header     { return c.Header }
func (c *HighCmd) Check() Integrity { return c.Integrity }

// Build 序列化为 129 字节。默认不混淆校验。
func (c *HighCmd) Build(opts ...BuildOption) []byte {
	cfg := newBuildConfig(false, opts)

	buf := make([]byte, HighCmdLength)
	c.Header.put(buf)
	buf[highCmdMode] = byte(c.Mode)
	buf[highCmdGait] = byte(c.GaitType)
	buf[highCmdSpeed] = byte(c.SpeedLevel)
	putFloat32(buf[highCmdRaise:], c.FootRaiseHeight)
	putFloat32(buf[highCmdHeight:], c.BodyHeight)
	putFloats(buf[highCmdPosition:], c.Position[:])
	putFloats(buf[highCmdEuler:], c.Euler[:])
	putFloats(buf[highCmdVelocity:], c.Velocity[:])
	putFloat32(buf[highCmdYawSpeed:], c.YawSpeed)
	c.Bms.put(buf[highCmdBms : highCmdBms+BmsCommandSize])
	for i, led := range c.LED {
		copy(buf[highCmdLED+i*LEDSize:], led.Bytes())
	}
	copy(buf[highCmdRemote:highCmdRemote+WirelessRemoteLength], c.WirelessRemote[:])
	copy(buf[highCmdReserve:highCmdReserve+4], c.Reserve[:])

	return cfg.finish(KindHighCmd, buf)
}

// ParseHighCmd 解析高层命令。长度不符时报错; 校验不符时只设置 Integrity.Valid=false。
func ParseHighCmd(data []byte) (*HighCmd, error) {
	if len(data) != HighCmdLength {
		return nil, lengthError("high cmd", HighCmdLength, len(data))
	}

	c := &HighCmd{
		Header:          parseHeader(data),
		Mode:            ParseHighMode(data[highCmdMode]),
		GaitType:        ParseGaitType(data[highCmdGait]),
		SpeedLevel:      ParseSpeedLevel(data[highCmdSpeed]),
		FootRaiseHeight: DecodeFloat32(data[highCmdRaise:]),
		BodyHeight:      DecodeFloat32(data[highCmdHeight:]),
		YawSpeed:        DecodeFloat32(data[highCmdYawSpeed:]),
		Integrity:       checkIntegrity(data),
	}
	parseFloats(data[highCmdPosition:], c.Position[:])
	parseFloats(data[highCmdEuler:], c.Euler[:])
	parseFloats(data[highCmdVelocity:], c.Velocity[:])
	c.Bms, _ = ParseBmsCommand(data[highCmdBms : highCmdBms+BmsCommandSize])
	for i := range c.LED {
		off := highCmdLED + i*LEDSize
		c.LED[i], _ = ParseLED(data[off : off+LEDSize])
	}
	copy(c.WirelessRemote[:], data[highCmdRemote:highCmdRemote+WirelessRemoteLength])
	copy(c.Reserve[:], data[highCmdReserve:highCmdReserve+4])
	return c, nil
}
