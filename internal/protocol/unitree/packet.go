package unitree

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// UCL 协议常量定义
const (
	MagicHi = 0xFE
	MagicLo = 0xEF

	// HeaderLength: 2(Magic) + 1(Level) + 1(FrameReserve) + 8(SN) + 8(Version) + 2(BandWidth) = 22
	HeaderLength = 22

	// 各类报文的固定总长度
	HighCmdLength   = 129
	HighStateLength = 1087
	LowCmdLength    = 614
	LowStateLength  = 937

	// 等级标识
	HighLevelFlag    = 0x00
	HighLevelFlagAlt = 0xEE
	LowLevelFlag     = 0xFF

	// 无线遥控原始数据长度
	WirelessRemoteLength = 40
)

var (
	// ErrLengthMismatch 当缓冲区长度与实体/报文的固定长度不一致时返回
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrInvalidIndex 当电机槽位索引越界时返回
	ErrInvalidIndex = errors.New("invalid motor index")
	// ErrInvalidHeader 当起始符不是 FE EF 时返回
	ErrInvalidHeader = errors.New("invalid header")
	// ErrUnknownLength 当数据报长度不属于任何已知报文类型时返回
	ErrUnknownLength = errors.New("unknown packet length")
)

func lengthError(what string, want, got int) error {
	return fmt.Errorf("%s: %w: want %d bytes, got %d", what, ErrLengthMismatch, want, got)
}

// Header 所有报文共有的 22 字节头部
type Header struct {
	Head         [2]byte
	LevelFlag    byte
	FrameReserve byte
	SN           [8]byte
	Version      [8]byte
	BandWidth    uint16
}

// NewHeader 返回带有标准起始符的头部
func NewHeader(level byte) Header {
	return Header{
		Head:      [2]byte{MagicHi, MagicLo},
		LevelFlag: level,
	}
}

// MagicOK 检查起始符
func (h Header) MagicOK() bool {
	return h.Head[0] == MagicHi && h.Head[1] == MagicLo
}

// IsLowLevel 报告头部是否声明为底层 (关节级) 报文
func (h Header) IsLowLevel() bool {
	return h.LevelFlag == LowLevelFlag
}

// put 将头部写入 buf[0:22]。起始符总是重新写入。
func (h Header) put(buf []byte) {
	buf[0] = MagicHi
	buf[1] = MagicLo
	buf[2] = h.LevelFlag
	buf[3] = h.FrameReserve
	copy(buf[4:12], h.SN[:])
	copy(buf[12:20], h.Version[:])
	binary.LittleEndian.PutUint16(buf[20:22], h.BandWidth)
}

func parseHeader(data []byte) Header {
	var h Header
	copy(h.Head[:], data[0:2])
	h.LevelFlag = data[2]
	h.FrameReserve = data[3]
	copy(h.SN[:], data[4:12])
	copy(h.Version[:], data[12:20])
	h.BandWidth = binary.LittleEndian.Uint16(data[20:22])
	return h
}

// Integrity 解析时恢复出的校验信息。
// Valid=false 时状态仍然返回，由调用方决定是否丢弃。
type Integrity struct {
	Checksum  uint32 // 报文末尾 4 字节 (LE)
	Valid     bool
	Encrypted bool // 末尾匹配的是混淆后的校验值
}

// coveredLength 校验覆盖的前缀长度: 除去末尾校验字以外的所有完整 32 位字
func coveredLength(total int) int {
	return (total/4 - 1) * 4
}

func checkIntegrity(data []byte) Integrity {
	trailer := binary.LittleEndian.Uint32(data[len(data)-4:])
	valid, encrypted := VerifyChecksum(data[:coveredLength(len(data))], trailer)
	return Integrity{Checksum: trailer, Valid: valid, Encrypted: encrypted}
}

// BuildOption 控制报文构建
type BuildOption func(*buildConfig)

type buildConfig struct {
	seal  SealFunc
	debug *zap.Logger
}

// WithEncrypt 选择混淆校验 (true) 或原始校验 (false)
func WithEncrypt(encrypt bool) BuildOption {
	return func(c *buildConfig) {
		if encrypt {
			c.seal = ObfuscatedSeal
		} else {
			c.seal = PlainSeal
		}
	}
}

// WithDebug 在构建完成后以 debug 级别输出原始字节。nil 表示关闭。
func WithDebug(logger *zap.Logger) BuildOption {
	return func(c *buildConfig) {
		c.debug = logger
	}
}

func newBuildConfig(defaultEncrypt bool, opts []BuildOption) buildConfig {
	cfg := buildConfig{seal: PlainSeal}
	if defaultEncrypt {
		cfg.seal = ObfuscatedSeal
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// seal 计算覆盖区的校验值并写入最后 4 字节
func (c buildConfig) finish(kind Kind, buf []byte) []byte {
	crc := c.seal(buf[:coveredLength(len(buf))])
	binary.LittleEndian.PutUint32(buf[len(buf)-4:], crc)

	if c.debug != nil {
		c.debug.Debug("Send Data",
			zap.Stringer("kind", kind),
			zap.Int("len", len(buf)),
			zap.String("hex", hex.EncodeToString(buf)))
	}
	return buf
}
