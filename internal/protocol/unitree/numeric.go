package unitree

import (
	"encoding/binary"
	"math"
)

// 数值编码
//
// 固件对不同字段使用四种自定义格式:
//   - float:  IEEE-754 位模式按字节翻转 (大端) 写入
//   - tau:    有符号 8.8 定点, [整数字节][小数字节]
//   - kp:     整数*32 + 小数位修正, 大端 uint16
//   - kd:     3 位十六进制整数 + 1 个查表得到的小数半字节, 小端 uint16

// EncodeFloat32 编码普通浮点字段
func EncodeFloat32(f float32) [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], math.Float32bits(f))
	return b
}

// DecodeFloat32 解码普通浮点字段, b 至少 4 字节
func DecodeFloat32(b []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b[:4]))
}

func putFloat32(buf []byte, f float32) {
	v := EncodeFloat32(f)
	copy(buf[:4], v[:])
}

// 解码时整数字节大于 126 视为负数, 所以正向上限是 126 而不是 127
const (
	torqueMin = -128.0
	torqueMax = 126.0 + 255.0/256.0
)

// EncodeTorque 编码力矩。
// 整数字节为有符号整数部分, 小数字节为 小数*256。
// 负值的小数字节取 256+value, 整数字节相应借位。超出 [-128, 126.996] 时饱和。
func EncodeTorque(tau float32) [2]byte {
	t := math.Max(torqueMin, math.Min(torqueMax, float64(tau)))
	v := int16(math.Round(t * 256))
	return [2]byte{byte(v >> 8), byte(v)}
}

func torqueInteger(b byte) (int, bool) {
	v := int(b)
	if v > 126 {
		return v - 256, true
	}
	return v, false
}

// DecodeTorque 解码力矩, 精度 1/256
func DecodeTorque(b []byte) float32 {
	i, _ := torqueInteger(b[0])
	return float32(i) + float32(b[1])/256
}

// DecodeTorqueRounded 旧版解码器: 小数部分四舍五入到 0 或 1, 负值再减 1。
// 只能恢复整数牛米, 与旧版固件工具的输出一致, 用于和旧抓包逐一对照。
// 新代码使用 DecodeTorque, 它是 EncodeTorque 的精确逆变换。
func DecodeTorqueRounded(b []byte) float32 {
	i, neg := torqueInteger(b[0])
	frac := math.Round(float64(b[1]) / 256)
	if neg {
		frac -= 1
	}
	return float32(i) + float32(frac)
}

// decimalDigit 返回 x 小数部分最接近的一位十进制数字 (0..10)
func decimalDigit(x float64) (int, int) {
	base := math.Trunc(x)
	return int(base), int(math.Round((x - base) * 10))
}

const kpMax = 2047.9

// EncodeKp 编码位置刚度
func EncodeKp(kp float32) [2]byte {
	k := math.Max(0, math.Min(kpMax, float64(kp)))
	base, frac := decimalDigit(k)

	var val int
	if frac < 5 {
		val = base*32 + frac*3
	} else {
		val = base*32 + (frac-1)*3 + 4
	}

	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(val))
	return b
}

// DecodeKp 解码位置刚度, 精度 0.1
func DecodeKp(b []byte) float32 {
	val := binary.BigEndian.Uint16(b[:2])
	base := val / 32
	rem := float32(val % 32)

	var frac float32
	if rem < 15 {
		frac = rem / 3
	} else {
		frac = (rem-4)/3 + 1
	}
	return float32(base) + frac/10
}

const kdMax = 4095.9

// kdNibbles 小数位 0..9 对应的十六进制半字节
var kdNibbles = [10]byte{0x0, 0x1, 0x3, 0x4, 0x6, 0x8, 0x9, 0xb, 0xc, 0xe}

// EncodeKd 编码速度刚度
func EncodeKd(kd float32) [2]byte {
	k := math.Max(0, math.Min(kdMax, float64(kd)))
	base, frac := decimalDigit(k)
	if frac == 10 && base < 0xFFF {
		base, frac = base+1, 0
	}

	val := uint16(base)<<4 | uint16(kdNibbles[frac%10])

	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], val)
	return b
}

// DecodeKd 解码速度刚度, 精度 0.1。表外的半字节按 0 处理。
func DecodeKd(b []byte) float32 {
	val := binary.LittleEndian.Uint16(b[:2])
	base := val >> 4
	nibble := byte(val & 0xF)

	var frac float32
	for digit, n := range kdNibbles {
		if n == nibble {
			frac = float32(digit) / 10
			break
		}
	}
	return float32(base) + frac
}

func putFloats(buf []byte, fs []float32) {
	for i, f := range fs {
		putFloat32(buf[i*4:i*4+4], f)
	}
}

func parseFloats(data []byte, dst []float32) {
	for i := range dst {
		dst[i] = DecodeFloat32(data[i*4 : i*4+4])
	}
}

func putInt16s(buf []byte, vs []int16) {
	for i, v := range vs {
		binary.LittleEndian.PutUint16(buf[i*2:i*2+2], uint16(v))
	}
}

func parseInt16s(data []byte, dst []int16) {
	for i := range dst {
		dst[i] = int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
	}
}
