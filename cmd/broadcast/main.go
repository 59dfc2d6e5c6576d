package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tailored-agentic-units/broadcast/broadcast"
)

type rootOptions struct {
	configFile string
	verbose    bool
	logFile    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "broadcast",
		Short:        "Post messages to a topic and watch its subscribers pull them",
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "Path to a JSON or YAML config file")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging")
	flags.StringVar(&opts.logFile, "log-file", "", "Write logs to a rotating file instead of stderr")

	cmd.AddCommand(
		newDemoCommand(opts),
		newServeCommand(opts),
		newPostCommand(opts),
		newGetCommand(opts),
	)

	return cmd
}

func (o *rootOptions) loadConfig() (*broadcast.Config, error) {
	cfg, err := broadcast.LoadConfig(o.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func (o *rootOptions) logger() *slog.Logger {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	if o.logFile != "" {
		w = &lumberjack.Logger{
			Filename:   o.logFile,
			MaxSize:    100, // megabytes
			MaxAge:     7,
			MaxBackups: 5,
			LocalTime:  true,
		}
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
