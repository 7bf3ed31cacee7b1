package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"quadruped-gateway/internal/config"
	"quadruped-gateway/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}
	logger := config.NewLogger(cfg.Log)
	defer logger.Sync()

	// 两个端口共享同一台模拟机器人: 高层 8082, 底层 8007
	robot := server.NewSimRobot(
		[8]byte{4, 3, 1, 2, 3, 4, 0, 0},
		[8]byte{1, 0, 0, 3, 2, 1, 0, 0},
	)

	sc := cfg.Simulator
	servers := []*server.UDPServer{
		server.NewUDPServer(sc.Host, sc.HighPort, sc.Multicore, robot, logger.Named("high")),
		server.NewUDPServer(sc.Host, sc.LowPort, sc.Multicore, robot, logger.Named("low")),
	}

	for _, srv := range servers {
		srv.SetDebug(cfg.Robot.Debug)
		go func(srv *server.UDPServer) {
			if err := srv.Start(context.Background()); err != nil {
				logger.Fatal("Simulator failed", zap.String("addr", srv.Addr()), zap.Error(err))
			}
		}(srv)
	}

	// 优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Stop(ctx); err != nil {
			logger.Warn("Failed to stop simulator", zap.String("addr", srv.Addr()), zap.Error(err))
		}
	}
}
