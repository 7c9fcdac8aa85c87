// Command server runs the snake game server: the TCP connection layer,
// the authoritative game loop and the score store behind them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/KhangNguyen2005/SnakeGame/game"
	"github.com/KhangNguyen2005/SnakeGame/logger"
	"github.com/KhangNguyen2005/SnakeGame/scorestore"
	"github.com/KhangNguyen2005/SnakeGame/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		addr      string
		size      int
		tick      time.Duration
		powerUps  int
		maxConns  int
		redisAddr string
		verbose   bool
	)

	fs := flag.NewFlagSet("snake-server", flag.ContinueOnError)
	fs.StringVarP(&addr, "addr", "a", ":9000", "Address to listen on")
	fs.IntVarP(&size, "size", "s", 40, "Board edge length in cells")
	fs.DurationVarP(&tick, "tick", "t", 200*time.Millisecond, "Game tick interval")
	fs.IntVar(&powerUps, "power-ups", 3, "Power-ups kept on the board")
	fs.IntVarP(&maxConns, "max-conns", "m", 0, "Connection cap (0 = unlimited)")
	fs.StringVar(&redisAddr, "redis", "", "Redis address for the score store (empty = in-memory)")
	fs.BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log := logger.NewConsole(os.Stdout, "server", level)

	var store scorestore.Store
	if redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: redisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return fmt.Errorf("redis unreachable at %s: %w", redisAddr, err)
		}
		store = scorestore.NewRedisStore(client)
		log.Info("using redis score store", logger.Field{Key: "addr", Value: redisAddr})
	} else {
		store = scorestore.NewMemoryStore()
	}

	engine := game.NewEngine(game.Config{
		Size:         size,
		TickInterval: tick,
		PowerUps:     powerUps,
	}, store, log)

	srv := server.New(server.Config{Addr: addr, MaxConns: maxConns}, engine, log)
	engine.AttachBroadcaster(srv)

	if err := srv.Start(); err != nil {
		return err
	}
	engine.Run()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	engine.Stop()
	srv.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if scores, err := store.TopScores(ctx, 10); err == nil {
		for i, s := range scores {
			log.Info("final standing",
				logger.Field{Key: "rank", Value: i + 1},
				logger.Field{Key: "name", Value: s.Name},
				logger.Field{Key: "score", Value: s.Score})
		}
	}

	return nil
}
