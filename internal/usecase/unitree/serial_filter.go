package unitree

import (
	"errors"
	"fmt"
	"strings"

	"quadruped-gateway/internal/config"
)

// ErrRobotNotAllowed 序列号不在允许列表中
var ErrRobotNotAllowed = errors.New("robot not allowed")

// SerialFilter 决定是否接收某台机器人的数据
type SerialFilter interface {
	Allow(serial string) error
}

// AllowList 基于配置的序列号白名单。列表为空时允许所有机器人。
type AllowList struct {
	allowed map[string]struct{}
}

func NewAllowList(cfg config.RobotsConfig) *AllowList {
	allowed := make(map[string]struct{}, len(cfg.Allowed))
	for _, sn := range cfg.Allowed {
		sn = strings.ToUpper(strings.TrimSpace(sn))
		if sn != "" {
			allowed[sn] = struct{}{}
		}
	}
	return &AllowList{allowed: allowed}
}

func (a *AllowList) Allow(serial string) error {
	if len(a.allowed) == 0 {
		return nil
	}
	if _, ok := a.allowed[strings.ToUpper(serial)]; !ok {
		return fmt.Errorf("%w: %s", ErrRobotNotAllowed, serial)
	}
	return nil
}
