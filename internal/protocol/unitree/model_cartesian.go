package unitree

const (
	CartesianSize = 12
	LEDSize       = 3
	// LEDCount 高层命令中的 LED 个数
	LEDCount = 4
	// Legs 足端个数
	Legs = 4
)

// Cartesian 相对机身坐标系的三维量
type Cartesian struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

func (c Cartesian) put(buf []byte) {
	putFloat32(buf[0:4], c.X)
	putFloat32(buf[4:8], c.Y)
	putFloat32(buf[8:12], c.Z)
}

func (c Cartesian) Bytes() []byte {
	buf := make([]byte, CartesianSize)
	c.put(buf)
	return buf
}

// ParseCartesian 从 12 字节解析
func ParseCartesian(data []byte) (Cartesian, error) {
	if len(data) != CartesianSize {
		return Cartesian{}, lengthError("cartesian", CartesianSize, len(data))
	}
	return Cartesian{
		X: DecodeFloat32(data[0:4]),
		Y: DecodeFloat32(data[4:8]),
		Z: DecodeFloat32(data[8:12]),
	}, nil
}

func putCartesians(buf []byte, cs *[Legs]Cartesian) {
	for i := range cs {
		cs[i].put(buf[i*CartesianSize : (i+1)*CartesianSize])
	}
}

func parseCartesians(data []byte) [Legs]Cartesian {
	var cs [Legs]Cartesian
	for i := range cs {
		cs[i], _ = ParseCartesian(data[i*CartesianSize : (i+1)*CartesianSize])
	}
	return cs
}

// LED 灯颜色
type LED struct {
	R byte `json:"r"`
	G byte `json:"g"`
	B byte `json:"b"`
}

func (l LED) Bytes() []byte {
	return []byte{l.R, l.G, l.B}
}

// ParseLED 从 3 字节解析
func ParseLED(data []byte) (LED, error) {
	if len(data) != LEDSize {
		return LED{}, lengthError("led", LEDSize, len(data))
	}
	return LED{R: data[0], G: data[1], B: data[2]}, nil
}
