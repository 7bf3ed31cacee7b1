package unitree

import "fmt"

var (
	productTypes  = map[byte]string{1: "Laikago", 2: "Aliengo", 3: "A1", 4: "Go1", 5: "B1"}
	productModels = map[byte]string{1: "AIR", 2: "PRO", 3: "EDU", 4: "PC", 5: "XX"}
)

// DecodeSerial 从序列号前 6 字节解析产品名和编号, 例如 ("Go1_EDU", "1-2-3[4]")
func DecodeSerial(sn [8]byte) (product string, id string) {
	typ, ok := productTypes[sn[0]]
	if !ok {
		typ = "UNKNOWN"
	}
	model, ok := productModels[sn[1]]
	if !ok {
		model = "UNKNOWN"
	}
	return typ + "_" + model, fmt.Sprintf("%d-%d-%d[%d]", sn[2], sn[3], sn[4], sn[5])
}

// DecodeVersion 解析硬件版本和软件版本
func DecodeVersion(v [8]byte) (hardware string, software string) {
	return fmt.Sprintf("%d.%d.%d", v[0], v[1], v[2]), fmt.Sprintf("%d.%d.%d", v[3], v[4], v[5])
}

// SerialKey 序列号的十六进制表示, 用作机器人标识
func SerialKey(sn [8]byte) string {
	return fmt.Sprintf("%X", sn[:])
}
