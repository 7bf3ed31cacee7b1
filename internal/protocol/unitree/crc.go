package unitree

import (
	"encoding/binary"
	"math/bits"
)

const (
	crcPolynomial = 0x04C11DB7
	crcInitial    = 0xFFFFFFFF

	// obfuscationKey 混淆时与校验值异或的常量
	obfuscationKey = 0xEDCAB9DE
)

// Checksum 计算 UCL 报文的 CRC-32。
// 按小端 32 位字处理, 每个字从最高位开始移 32 次, 无最终异或。
// 末尾不足 4 字节的部分被忽略, 调用方负责给出 4 的整数倍长度。
func Checksum(data []byte) uint32 {
	crc := uint32(crcInitial)
	for i := 0; i+4 <= len(data); i += 4 {
		word := binary.LittleEndian.Uint32(data[i : i+4])
		for b := 31; b >= 0; b-- {
			msb := crc >> 31
			crc <<= 1
			if msb^((word>>uint(b))&1) != 0 {
				crc ^= crcPolynomial
			}
		}
	}
	return crc
}

// Obfuscate 对校验值做异或后按字节轮转。
// 异或结果的小端字节 [b0 b1 b2 b3] 在线上变为 [b1 b2 b3 b0]。
func Obfuscate(crc uint32) uint32 {
	return bits.RotateLeft32(crc^obfuscationKey, -8)
}

// Deobfuscate 是 Obfuscate 的逆变换: 先反向轮转, 再异或。
func Deobfuscate(v uint32) uint32 {
	return bits.RotateLeft32(v, 8) ^ obfuscationKey
}

// SealFunc 由覆盖区计算写入报文末尾的校验值
type SealFunc func(covered []byte) uint32

// PlainSeal 原始校验
func PlainSeal(covered []byte) uint32 {
	return Checksum(covered)
}

// ObfuscatedSeal 混淆校验
func ObfuscatedSeal(covered []byte) uint32 {
	return Obfuscate(Checksum(covered))
}

// VerifyChecksum 将 trailer 与覆盖区的原始校验值及其混淆形式比较。
// encrypted 报告匹配的是哪一种; 两者都不匹配时 valid=false。
func VerifyChecksum(covered []byte, trailer uint32) (valid bool, encrypted bool) {
	crc := Checksum(covered)
	switch trailer {
	case crc:
		return true, false
	case Obfuscate(crc):
		return true, true
	default:
		return false, false
	}
}
