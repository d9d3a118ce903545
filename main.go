package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"mazerace/client"
	"mazerace/config"
	"mazerace/game"
	"mazerace/logger"
	"mazerace/server"
)

// mazerace 入口：创建或加入对局，通过 stdin 行命令操作
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var (
		mode    string
		addr    string
		wsURL   string
		level   string
		console bool
	)
	flag.StringVar(&mode, "mode", "host", "host or join")
	flag.StringVar(&addr, "addr", "", "host: listen address (default :port); join: host:port to dial")
	flag.StringVar(&wsURL, "ws", "", "join over websocket instead, e.g. ws://localhost:8080/ws")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "maze seed, 0 derives one from the clock")
	flag.StringVar(&cfg.AdminAddr, "admin", cfg.AdminAddr, "admin HTTP listen address, e.g. :8080")
	flag.StringVar(&cfg.LogFile, "log", cfg.LogFile, "rotating log file")
	flag.StringVar(&level, "level", cfg.LogLevel, "log level")
	flag.BoolVar(&console, "console", false, "also log to stderr")
	flag.IntVar(&cfg.Width, "width", cfg.Width, "maze width")
	flag.IntVar(&cfg.Height, "height", cfg.Height, "maze height")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "host port")
	flag.IntVar(&cfg.VisibilityRadius, "radius", cfg.VisibilityRadius, "fog radius of the text view")
	flag.Parse()
	cfg.LogLevel = level

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := logger.Init(cfg.LogFile, cfg.LogLevel, console); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "host":
		err = runHost(ctx, cfg, addr)
	case "join":
		err = runJoin(ctx, cfg, addr, wsURL)
	default:
		err = fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil && !errors.Is(err, server.ErrServerClosed) {
		logger.Log.Errorw("exiting", "err", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Log.Info("Shutting down...")
}

func runHost(ctx context.Context, cfg config.Config, addr string) error {
	srv, err := server.New(server.Config{Game: cfg})
	if err != nil {
		return err
	}
	defer srv.Close()

	if addr == "" {
		addr = cfg.ListenAddr()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if cfg.AdminAddr != "" {
		go func() {
			if err := srv.ServeAdmin(cfg.AdminAddr); err != nil {
				logger.Log.Errorw("admin server", "err", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ctx, ln) }()

	room := srv.Room()
	fmt.Printf("hosting on %s, waiting for the other player\n", ln.Addr())
	go render(ctx, room.Events(), room.State, func() int { return game.HostPlayerID }, cfg.VisibilityRadius)
	go func() {
		control(ctx, os.Stdin, hostControls{room: room})
		cancel()
	}()

	return <-errc
}

func runJoin(ctx context.Context, cfg config.Config, addr, wsURL string) error {
	var (
		sess *client.Session
		err  error
	)
	ccfg := client.Config{Game: cfg}
	if wsURL != "" {
		sess, err = client.DialWS(ctx, wsURL, ccfg)
	} else {
		if addr == "" {
			addr = cfg.Addr()
		}
		sess, err = client.Dial(ctx, addr, ccfg)
	}
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = sess.Close()
	}()

	fmt.Println("connected, waiting for GAME_START")
	go render(ctx, sess.Events(), sess.State, sess.PlayerID, cfg.VisibilityRadius)
	go func() {
		control(ctx, os.Stdin, joinControls{sess: sess})
		cancel()
	}()

	return sess.Run()
}
