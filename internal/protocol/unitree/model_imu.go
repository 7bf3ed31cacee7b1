package unitree

import "math"

// IMUSize 4+3+3+3 个浮点 + 温度(1) = 53
const IMUSize = 53

// IMU 惯性测量单元快照
type IMU struct {
	Quaternion    [4]float32 `json:"quaternion"`    // 归一化四元数 (w, x, y, z)
	Gyroscope     [3]float32 `json:"gyroscope"`     // 角速度 (rad/s)
	Accelerometer [3]float32 `json:"accelerometer"` // 加速度 (m/s²)
	RPY           [3]float32 `json:"rpy"`           // 横滚/俯仰/偏航 (rad)
	Temperature   float32    `json:"temperature"`
}

func (m IMU) put(buf []byte) {
	off := 0
	for _, group := range [][]float32{m.Quaternion[:], m.Gyroscope[:], m.Accelerometer[:], m.RPY[:]} {
		for _, f := range group {
			putFloat32(buf[off:off+4], f)
			off += 4
		}
	}
	buf[52] = temperatureByte(m.Temperature)
}

// Bytes 序列化为 53 字节
func (m IMU) Bytes() []byte {
	buf := make([]byte, IMUSize)
	m.put(buf)
	return buf
}

// ParseIMU 从 53 字节解析 IMU
func ParseIMU(data []byte) (IMU, error) {
	var m IMU
	if len(data) != IMUSize {
		return m, lengthError("imu", IMUSize, len(data))
	}
	off := 0
	for _, group := range [][]float32{m.Quaternion[:], m.Gyroscope[:], m.Accelerometer[:], m.RPY[:]} {
		for i := range group {
			group[i] = DecodeFloat32(data[off : off+4])
			off += 4
		}
	}
	m.Temperature = float32(int8(data[52]))
	return m, nil
}

// temperatureByte 温度以有符号单字节传输
func temperatureByte(t float32) byte {
	v := math.Max(math.MinInt8, math.Min(math.MaxInt8, math.Round(float64(t))))
	return byte(int8(v))
}
