package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Robot        RobotConfig        `mapstructure:"robot"`
	Simulator    SimulatorConfig    `mapstructure:"simulator"`
	Log          LogConfig          `mapstructure:"log"`
	MessageQueue MessageQueueConfig `mapstructure:"message_queue"`
	Dispatcher   DispatcherConfig   `mapstructure:"dispatcher"`
	Robots       RobotsConfig       `mapstructure:"robots"`
}

// RobotConfig 与机器人运动控制器的 UDP 连接
type RobotConfig struct {
	// Preset 非空时覆盖 local_ip/robot_ip/send_port/level, 见 Presets
	Preset     string        `mapstructure:"preset"`
	LocalIP    string        `mapstructure:"local_ip"`
	ListenPort int           `mapstructure:"listen_port"`
	RobotIP    string        `mapstructure:"robot_ip"`
	SendPort   int           `mapstructure:"send_port"`
	Level      string        `mapstructure:"level"` // high | low
	Encrypt    bool          `mapstructure:"encrypt"`
	Debug      bool          `mapstructure:"debug"`
	Interval   time.Duration `mapstructure:"interval"`
	// HeartbeatTimeout 超过该时间未收到状态的机器人从注册表移除
	HeartbeatTimeout time.Duration `mapstructure:"heartbeat_timeout"`
	// DropInvalid 丢弃校验失败的状态报文, 默认只计数
	DropInvalid bool `mapstructure:"drop_invalid"`
}

// LocalAddr 本地监听地址
func (r RobotConfig) LocalAddr() string {
	return net.JoinHostPort(r.LocalIP, strconv.Itoa(r.ListenPort))
}

// RemoteAddr 机器人地址
func (r RobotConfig) RemoteAddr() string {
	return net.JoinHostPort(r.RobotIP, strconv.Itoa(r.SendPort))
}

// IsLowLevel 是否为关节级控制
func (r RobotConfig) IsLowLevel() bool {
	return r.Level == LevelLow
}

type SimulatorConfig struct {
	Host      string `mapstructure:"host"`
	HighPort  int    `mapstructure:"high_port"`
	LowPort   int    `mapstructure:"low_port"`
	Multicore bool   `mapstructure:"multicore"`
}

type MessageQueueConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Type     string         `mapstructure:"type"`     // kafka | rabbitmq
	Encoding string         `mapstructure:"encoding"` // json | cbor
	Topic    string         `mapstructure:"topic"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
}

type RabbitMQConfig struct {
	URL         string `mapstructure:"url"`
	VirtualHost string `mapstructure:"virtual_host"`
	Exchange    string `mapstructure:"exchange"`
	RoutingKey  string `mapstructure:"routing_key"`
	QueueName   string `mapstructure:"queue_name"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
}

type DispatcherConfig struct {
	Workers int `mapstructure:"workers"`
	Buffer  int `mapstructure:"buffer"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// RobotsConfig 允许接入的机器人序列号 (十六进制), 为空时不限制
type RobotsConfig struct {
	Allowed []string `mapstructure:"allowed"`
}

const (
	LevelHigh = "high"
	LevelLow  = "low"
)

// Preset 常用的连接参数组合
type Preset struct {
	LocalIP  string
	RobotIP  string
	SendPort int
	Level    string
}

// Presets 机器人端口: 底层 8007, 高层 8082。本地统一监听 8090。
var Presets = map[string]Preset{
	"wifi_high":  {LocalIP: "192.168.12.14", RobotIP: "192.168.12.1", SendPort: 8082, Level: LevelHigh},
	"wifi_low":   {LocalIP: "192.168.12.14", RobotIP: "192.168.12.1", SendPort: 8007, Level: LevelLow},
	"wired_high": {LocalIP: "192.168.123.14", RobotIP: "192.168.123.161", SendPort: 8082, Level: LevelHigh},
	"wired_low":  {LocalIP: "192.168.123.14", RobotIP: "192.168.123.10", SendPort: 8007, Level: LevelLow},
}

// ApplyPreset 用预设覆盖连接参数
func (r *RobotConfig) ApplyPreset() error {
	if r.Preset == "" {
		return nil
	}
	p, ok := Presets[r.Preset]
	if !ok {
		return fmt.Errorf("unknown robot preset %q", r.Preset)
	}
	r.LocalIP = p.LocalIP
	r.RobotIP = p.RobotIP
	r.SendPort = p.SendPort
	r.Level = p.Level
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("robot.listen_port", 8090)
	v.SetDefault("robot.local_ip", "0.0.0.0")
	v.SetDefault("robot.robot_ip", "192.168.123.161")
	v.SetDefault("robot.send_port", 8082)
	v.SetDefault("robot.level", LevelHigh)
	v.SetDefault("robot.interval", 2*time.Millisecond)
	v.SetDefault("robot.heartbeat_timeout", 5*time.Second)

	v.SetDefault("simulator.host", "127.0.0.1")
	v.SetDefault("simulator.high_port", 8082)
	v.SetDefault("simulator.low_port", 8007)
	v.SetDefault("simulator.multicore", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 30)

	v.SetDefault("message_queue.type", "kafka")
	v.SetDefault("message_queue.encoding", "json")
	v.SetDefault("message_queue.topic", "robot_telemetry")

	v.SetDefault("dispatcher.workers", 4)
	v.SetDefault("dispatcher.buffer", 10000)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Robot.ApplyPreset(); err != nil {
		return nil, err
	}
	if cfg.Robot.Level != LevelHigh && cfg.Robot.Level != LevelLow {
		return nil, fmt.Errorf("robot.level must be %q or %q, got %q", LevelHigh, LevelLow, cfg.Robot.Level)
	}

	return &cfg, nil
}
