// Command workspacerpc serves one workspace directory over JSON-RPC 2.0,
// either on stdin/stdout or on a WebSocket listener.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Cyclone1070/workspacerpc/internal/config"
	"github.com/Cyclone1070/workspacerpc/internal/policy"
	"github.com/Cyclone1070/workspacerpc/internal/server"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/path"
	"github.com/Cyclone1070/workspacerpc/internal/transport"
)

// Transport names accepted by --transport.
const (
	transportStdio  = "stdio"
	transportSocket = "socket"
)

type options struct {
	root       string
	transport  string
	host       string
	port       int
	configPath string
	debug      bool
}

func (o *options) validate() error {
	switch o.transport {
	case transportStdio:
	case transportSocket:
		if o.port < 0 || o.port > 65535 {
			return fmt.Errorf("invalid port %d", o.port)
		}
	default:
		return fmt.Errorf("unknown transport %q (want %s or %s)", o.transport, transportStdio, transportSocket)
	}
	return nil
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "workspacerpc",
		Short:         "Policy-enforced workspace RPC server",
		Long:          "workspacerpc exposes file, search, edit and command operations on one workspace root over JSON-RPC 2.0. Every call is checked against the workspace policy file.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			logger := newLogger(stderr, opts.debug)
			defer func() { _ = logger.Sync() }()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return run(ctx, opts, stdin, stdout, logger)
		},
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVar(&opts.root, "root", ".", "workspace root directory")
	f.StringVar(&opts.transport, "transport", transportStdio, "transport to serve: stdio or socket")
	f.StringVar(&opts.host, "host", "127.0.0.1", "listen host for the socket transport")
	f.IntVar(&opts.port, "port", 8765, "listen port for the socket transport (0 picks a free port)")
	f.StringVar(&opts.configPath, "config", "", "path to a JSON runtime config file")
	f.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	return cmd
}

// newLogger writes JSON logs to w. Stdout is reserved for protocol frames.
func newLogger(w io.Writer, debug bool) *zap.Logger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}

func run(ctx context.Context, opts *options, stdin io.Reader, stdout io.Writer, logger *zap.Logger) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	root, err := path.CanonicaliseRoot(opts.root)
	if err != nil {
		return fmt.Errorf("workspace root: %w", err)
	}
	pol, err := policy.Load(root, cfg.Server.PolicyFile)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}

	srv, err := server.New(server.Options{Root: root, Config: cfg, Policy: pol, Logger: logger})
	if err != nil {
		return err
	}
	defer srv.Shutdown()

	logger.Info("server starting",
		zap.String("root", root),
		zap.String("transport", opts.transport),
		zap.Int("allowed_commands", len(pol.AllowedCommands)))

	switch opts.transport {
	case transportSocket:
		addr := net.JoinHostPort(opts.host, strconv.Itoa(opts.port))
		err = transport.NewSocket(srv, cfg.Server.MaxFrameSize, logger.Named("socket")).ListenAndServe(ctx, addr)
	default:
		err = transport.NewStream(stdin, stdout, srv, cfg.Server.MaxFrameSize, logger.Named("stream")).Serve(ctx)
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info("server stopped")
	return err
}

func main() {
	cmd := newRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "workspacerpc: %v\n", err)
		os.Exit(1)
	}
}
