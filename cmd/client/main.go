package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"quadruped-gateway/internal/client"
	"quadruped-gateway/internal/config"
	protocol "quadruped-gateway/internal/protocol/unitree"
	"quadruped-gateway/internal/transport"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "config file")
	ticks := flag.Int("ticks", 24000, "control cycles to run, 0 runs until interrupted")
	report := flag.Int("report", 100, "log a state summary every N cycles")
	scripted := flag.Bool("script", false, "run the stand / walk / stand down demo")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}
	logger := config.NewLogger(cfg.Log)
	defer logger.Sync()

	link, err := transport.NewUDP(transport.Options{
		LocalAddr:  cfg.Robot.LocalAddr(),
		RemoteAddr: cfg.Robot.RemoteAddr(),
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open robot link", zap.Error(err))
	}
	defer link.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	link.Start(ctx)

	commander := client.NewCommander(cfg.Robot.IsLowLevel(), cfg.Robot.Encrypt)
	if cfg.Robot.Debug {
		commander.SetDebug(logger)
	}
	if *scripted {
		go runScript(ctx, commander, cfg.Robot.IsLowLevel(), logger)
	}

	session := client.NewSession(link, commander, cfg.Robot.Interval, *report, logger)
	logger.Info("Client started",
		zap.String("robot", cfg.Robot.RemoteAddr()),
		zap.String("level", cfg.Robot.Level),
		zap.Int("ticks", *ticks))

	if err := session.Run(ctx, *ticks); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Session stopped", zap.Error(err))
	}
	logger.Info("Client finished", zap.Any("stats", session.Stats()))
}

type step struct {
	after  time.Duration
	name   string
	action func(c *client.Commander)
}

// 高层: 站立 -> 慢速前进 -> 原地转向 -> 趴下
var highScript = []step{
	{time.Second, "stand", func(c *client.Commander) { c.Stand() }},
	{3 * time.Second, "walk", func(c *client.Commander) { c.Walk(protocol.GaitTrot, 0.2, 0, 0) }},
	{6 * time.Second, "turn", func(c *client.Commander) { c.Walk(protocol.GaitTrot, 0, 0, 0.5) }},
	{9 * time.Second, "stand down", func(c *client.Commander) { c.StandDown() }},
}

// 底层: 右前小腿缓慢屈伸, 最后进入阻尼
var lowScript = []step{
	{time.Second, "hold", func(c *client.Commander) { _ = c.SetJoint(protocol.FR2, -1.6, 5, 1) }},
	{3 * time.Second, "flex", func(c *client.Commander) { _ = c.SetJoint(protocol.FR2, -2.2, 5, 1) }},
	{5 * time.Second, "extend", func(c *client.Commander) { _ = c.SetJoint(protocol.FR2, -1.2, 5, 1) }},
	{7 * time.Second, "damp", func(c *client.Commander) { c.Damp() }},
}

func runScript(ctx context.Context, c *client.Commander, lowLevel bool, logger *zap.Logger) {
	script := highScript
	if lowLevel {
		script = lowScript
	}

	start := time.Now()
	for _, s := range script {
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(start.Add(s.after))):
		}
		s.action(c)
		logger.Info("Script step", zap.String("step", s.name), zap.Duration("at", s.after))
	}
}
