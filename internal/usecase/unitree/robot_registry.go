package unitree

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	protocol "quadruped-gateway/internal/protocol/unitree"
)

// RobotInfo 一台机器人的在线信息快照
type RobotInfo struct {
	Serial     string        `json:"serial"`
	Product    string        `json:"product"`
	ID         string        `json:"id"`
	Hardware   string        `json:"hardware"`
	Software   string        `json:"software"`
	LastKind   protocol.Kind `json:"-"`
	SOC        uint8         `json:"soc"`
	Packets    uint64        `json:"packets"`
	Invalid    uint64        `json:"invalid"` // 校验失败的报文数
	FirstSeen  time.Time     `json:"firstSeen"`
	LastActive time.Time     `json:"lastActive"`
}

type robotEntry struct {
	mu   sync.Mutex
	info RobotInfo
}

// RobotRegistry 按序列号跟踪在线的机器人
type RobotRegistry struct {
	robots sync.Map // map[string]*robotEntry (serial -> entry)
	logger *zap.Logger
	now    func() time.Time
}

func NewRobotRegistry(logger *zap.Logger) *RobotRegistry {
	return &RobotRegistry{
		logger: logger,
		now:    time.Now,
	}
}

// Touch 记录一个报文, 首次出现的序列号会新建条目。返回最新快照以及是否为新机器人。
func (r *RobotRegistry) Touch(pkt protocol.Packet) (RobotInfo, bool) {
	head := pkt.Head()
	serial := protocol.SerialKey(head.SN)
	now := r.now()

	fresh := &robotEntry{info: RobotInfo{Serial: serial, FirstSeen: now}}
	val, loaded := r.robots.LoadOrStore(serial, fresh)
	entry := val.(*robotEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	info := &entry.info
	info.Product, info.ID = protocol.DecodeSerial(head.SN)
	info.Hardware, info.Software = protocol.DecodeVersion(head.Version)
	info.LastKind = pkt.Kind()
	info.LastActive = now
	info.Packets++
	if !pkt.Check().Valid {
		info.Invalid++
	}
	switch s := pkt.(type) {
	case *protocol.HighState:
		info.SOC = s.Bms.SOC
	case *protocol.LowState:
		info.SOC = s.Bms.SOC
	}

	if !loaded {
		r.logger.Info("[RobotRegistry] Robot Added",
			zap.String("serial", serial),
			zap.String("product", info.Product),
			zap.String("id", info.ID),
			zap.String("software", info.Software))
	}
	return *info, !loaded
}

// Get 获取机器人快照
func (r *RobotRegistry) Get(serial string) (RobotInfo, bool) {
	val, ok := r.robots.Load(serial)
	if !ok {
		return RobotInfo{}, false
	}
	entry := val.(*robotEntry)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.info, true
}

// Remove 删除机器人
func (r *RobotRegistry) Remove(serial string) {
	if _, ok := r.robots.LoadAndDelete(serial); ok {
		r.logger.Info("[RobotRegistry] Robot Removed", zap.String("serial", serial))
	}
}

// List 按序列号排序的全部快照
func (r *RobotRegistry) List() []RobotInfo {
	var out []RobotInfo
	r.robots.Range(func(key, value interface{}) bool {
		entry := value.(*robotEntry)
		entry.mu.Lock()
		out = append(out, entry.info)
		entry.mu.Unlock()
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Serial < out[j].Serial })
	return out
}

// CheckHeartbeat 移除超过 timeout 没有上报的机器人, 返回被移除的序列号
func (r *RobotRegistry) CheckHeartbeat(timeout time.Duration) []string {
	now := r.now()
	var expired []string
	for _, info := range r.List() {
		if idle := now.Sub(info.LastActive); idle > timeout {
			r.logger.Info("[RobotRegistry] Robot Timeout",
				zap.String("serial", info.Serial),
				zap.Duration("inactive_duration", idle))
			r.Remove(info.Serial)
			expired = append(expired, info.Serial)
		}
	}
	return expired
}
