package unitree

// LowCmd 底层命令报文 (614 字节)
//
//	[头部 22][电机命令 20*27][BMS 4][遥控 40][保留 4][校验 4]
type LowCmd struct {
	Header         Header                     `json:"-"`
	MotorCmd       MotorCommandArray          `json:"motorCmd"`
	Bms            BmsCommand                 `json:"bms"`
	WirelessRemote [WirelessRemoteLength]byte `json:"-"`
	Reserve        [4]byte                    `json:"-"`

	Integrity Integrity `json:"-"`
}

const (
	lowCmdMotors  = 22
	lowCmdBms     = lowCmdMotors + MotorCommandArraySize // 562
	lowCmdRemote  = lowCmdBms + BmsCommandSize           // 566
	lowCmdReserve = lowCmdRemote + WirelessRemoteLength  // 606

	// lowCmdBandWidth 固件期望的带宽字段 (线上字节 3A C0)
	lowCmdBandWidth = 0xC03A
)

// NewLowCmd 底层命令, 所有槽位伺服模式
func NewLowCmd() *LowCmd {
	h := NewHeader(LowLevelFlag)
	h.BandWidth = lowCmdBandWidth
	return &LowCmd{
		Header:   h,
		MotorCmd: NewMotorCommandArray(),
	}
}

func (c *LowCmd) Kind() Kind       { return KindLowCmd }
func (c *LowCmd) Head() Header     { return c.Header }
func (c *LowCmd) Check() Integrity { return c.Integrity }

// Build 序列化为 614 字节。底层命令默认混淆校验, 可用 WithEncrypt(false) 关闭。
func (c *LowCmd) Build(opts ...BuildOption) []byte {
	cfg := newBuildConfig(true, opts)

	buf := make([]byte, LowCmdLength)
	c.Header.put(buf)
	c.MotorCmd.put(buf[lowCmdMotors:lowCmdBms])
	c.Bms.put(buf[lowCmdBms:lowCmdRemote])
	copy(buf[lowCmdRemote:lowCmdReserve], c.WirelessRemote[:])
	copy(buf[lowCmdReserve:lowCmdReserve+4], c.Reserve[:])

	return cfg.finish(KindLowCmd, buf)
}

// ParseLowCmd 解析底层命令
func ParseLowCmd(data []byte) (*LowCmd, error) {
	if len(data) != LowCmdLength {
		return nil, lengthError("low cmd", LowCmdLength, len(data))
	}

	motors, err := ParseMotorCommandArray(data[lowCmdMotors:lowCmdBms])
	if err != nil {
		return nil, err
	}
	c := &LowCmd{
		Header:    parseHeader(data),
		MotorCmd:  motors,
		Integrity: checkIntegrity(data),
	}
	c.Bms, _ = ParseBmsCommand(data[lowCmdBms:lowCmdRemote])
	copy(c.WirelessRemote[:], data[lowCmdRemote:lowCmdReserve])
	copy(c.Reserve[:], data[lowCmdReserve:lowCmdReserve+4])
	return c, nil
}
