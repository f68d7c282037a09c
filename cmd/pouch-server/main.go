package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/pouchkv/pouch/internal/config"
	"github.com/pouchkv/pouch/internal/discovery"
	"github.com/pouchkv/pouch/internal/engine"
	"github.com/pouchkv/pouch/internal/server"
	"github.com/pouchkv/pouch/internal/wal"
	"github.com/pouchkv/pouch/pkg/command"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	handleVersion()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, "pouch.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := buildLogger()
	defer log.Sync()
	log = log.Named("pouch")

	journal, err := wal.Open(log, cfg.WALFile)
	if err != nil {
		log.Fatal("wal open failed", zap.Error(err))
	}
	defer journal.Close()

	eng := engine.New(log)

	// Rebuild the dictionary before accepting any traffic. Replay
	// passes a nil journal so no record is appended twice.
	count, err := journal.Replay(func(cmd command.Command) {
		eng.Apply(cmd, nil)
	})
	switch {
	case errors.Is(err, wal.ErrEmptyLog):
		log.Info("empty WAL; starting fresh", zap.String("file", cfg.WALFile))
	case err != nil:
		log.Fatal("wal replay failed", zap.Int("replayed", count), zap.Error(err))
	default:
		log.Info("restored entries from WAL", zap.Int("count", count))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.New(log, eng, journal, cfg).Run(ctx)
	})
	if cfg.EnableDiscovery {
		nodeID := cfg.NodeID
		if nodeID == "" {
			nodeID = uuid.New().String()
		}
		beacon := discovery.New(log, nodeID, cfg.DiscoveryAddr, cfg.TCPAddr(), cfg.PeerAddr)
		g.Go(func() error { return beacon.Run(ctx) })
	}

	if err := g.Wait(); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
	log.Info("server closed")
}

// handleVersion prints build metadata and exits when -v/--version is
// provided.
func handleVersion() {
	v := flag.Bool("v", false, "print version and exit")
	flag.BoolVar(v, "version", false, "print version and exit")
	flag.Parse()

	if *v {
		fmt.Printf("pouch %s (commit %s, built %s)\n", config.Version, config.GitCommit, config.BuildDate)
		os.Exit(0)
	}
}

func buildLogger() *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	logConfig.Level.SetLevel(zap.DebugLevel)
	return zap.Must(logConfig.Build())
}
