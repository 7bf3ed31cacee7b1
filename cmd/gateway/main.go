package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"quadruped-gateway/internal/client"
	"quadruped-gateway/internal/config"
	"quadruped-gateway/internal/infra/kafka"
	"quadruped-gateway/internal/infra/mq"
	"quadruped-gateway/internal/infra/rabbitmq"
	"quadruped-gateway/internal/transport"
	"quadruped-gateway/internal/usecase"
	unitree "quadruped-gateway/internal/usecase/unitree"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "config file")
	flag.Parse()

	// 1. 配置加载
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}

	logger := config.NewLogger(cfg.Log)
	defer logger.Sync()

	// 2. 基础设施层 (消息队列)
	producer := newProducer(cfg.MessageQueue, logger)
	defer producer.Close()

	// 3. 业务逻辑层 (分发器 & 注册表 & 处理器)
	dispatcher := usecase.NewDataDispatcher(producer, cfg.MessageQueue.Topic, cfg.Dispatcher.Workers, cfg.Dispatcher.Buffer, logger)
	dispatcher.Start()
	defer dispatcher.Stop()

	registry := unitree.NewRobotRegistry(logger)
	h := unitree.NewHandler(registry, dispatcher, unitree.NewAllowList(cfg.Robots), cfg.Robot.DropInvalid, logger)

	// 4. 传输层
	link, err := transport.NewUDP(transport.Options{
		LocalAddr:  cfg.Robot.LocalAddr(),
		RemoteAddr: cfg.Robot.RemoteAddr(),
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open robot link", zap.Error(err))
	}
	defer link.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	link.Start(ctx)

	commander := client.NewCommander(cfg.Robot.IsLowLevel(), cfg.Robot.Encrypt)
	if cfg.Robot.Debug {
		commander.SetDebug(logger)
	}

	// 5. 控制循环: 发送保持命令, 收到的状态交给处理器
	go controlLoop(ctx, link, commander, h, cfg.Robot.Interval, logger)
	go heartbeatLoop(ctx, registry, cfg.Robot.HeartbeatTimeout, logger)

	logger.Info("Gateway started",
		zap.String("local", cfg.Robot.LocalAddr()),
		zap.String("robot", cfg.Robot.RemoteAddr()),
		zap.String("level", cfg.Robot.Level))

	// 优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...",
		zap.Any("stats", h.Stats()),
		zap.Uint64("dispatch_dropped", dispatcher.Dropped()),
		zap.Uint64("link_dropped", link.Dropped()))
}

func newProducer(cfg config.MessageQueueConfig, logger *zap.Logger) mq.Producer {
	if !cfg.Enabled {
		logger.Info("Message queue disabled")
		return mq.NewNoOpProducer()
	}

	encoding, err := mq.ParseEncoding(cfg.Encoding)
	if err != nil {
		logger.Fatal("Invalid message encoding", zap.Error(err))
	}

	switch cfg.Type {
	case "rabbitmq":
		p, err := rabbitmq.NewRabbitMQProducer(cfg.RabbitMQ, encoding, logger)
		if err != nil {
			logger.Fatal("Failed to initialize RabbitMQ producer", zap.Error(err))
		}
		return p
	case "kafka", "":
		p, err := kafka.NewKafkaProducer(cfg.Kafka, encoding, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Kafka producer", zap.Error(err))
		}
		return p
	default:
		logger.Fatal("Unsupported message queue type", zap.String("type", cfg.Type))
		return nil
	}
}

func controlLoop(ctx context.Context, link *transport.UDP, commander *client.Commander, h *unitree.Handler, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = 2 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if failed := h.HandleBatch(link.ReceiveBatch()); failed > 0 {
			logger.Debug("Datagrams rejected", zap.Int("count", failed))
		}
		if err := link.Send(commander.Packet()); err != nil {
			logger.Warn("Failed to send command", zap.Error(err))
			return
		}
	}
}

func heartbeatLoop(ctx context.Context, registry *unitree.RobotRegistry, timeout time.Duration, logger *zap.Logger) {
	if timeout <= 0 {
		return
	}
	ticker := time.NewTicker(timeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if expired := registry.CheckHeartbeat(timeout); len(expired) > 0 {
				logger.Warn("Robots went offline", zap.Strings("serials", expired), zap.Int("online", len(registry.List())))
			}
		}
	}
}
