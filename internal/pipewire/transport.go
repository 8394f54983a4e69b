package pipewire

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/linkctl/internal/graph"
	"github.com/danmuck/linkctl/internal/session"
	"github.com/danmuck/linkctl/internal/tools"
	"github.com/rs/zerolog"
)

const (
	DefaultDumpBinary = "pw-dump"
	DefaultCLIBinary  = "pw-cli"
	LinkFactory       = "link-factory"
)

var (
	ErrStreamEnded   = errors.New("pipewire: registry stream ended")
	ErrConnectFailed = errors.New("pipewire: link creation failed")
)

// Config selects the tool binaries and the remote daemon to talk to.
type Config struct {
	DumpBinary string
	CLIBinary  string
	// Remote is passed as `-r` when set; empty means the default daemon.
	Remote string
}

func (c Config) WithDefaults() Config {
	if strings.TrimSpace(c.DumpBinary) == "" {
		c.DumpBinary = DefaultDumpBinary
	}
	if strings.TrimSpace(c.CLIBinary) == "" {
		c.CLIBinary = DefaultCLIBinary
	}
	return c
}

type Transport struct {
	cfg      Config
	runner   tools.CommandRunner
	streamer tools.Streamer
}

var _ session.Transport = (*Transport)(nil)

func New(cfg Config) *Transport {
	return NewWithRunners(cfg, tools.ExecRunner{}, tools.ExecRunner{})
}

func NewWithRunners(cfg Config, runner tools.CommandRunner, streamer tools.Streamer) *Transport {
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	if streamer == nil {
		streamer = tools.ExecRunner{}
	}
	return &Transport{cfg: cfg.WithDefaults(), runner: runner, streamer: streamer}
}

// Watch runs pw-dump in monitor mode and feeds the decoded registry changes
// to sink. It only returns once the child process has exited.
func (t *Transport) Watch(ctx context.Context, sink session.Sink) error {
	childCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	args := t.remoteArgs("--monitor", "--no-colors")
	zerolog.Ctx(ctx).Debug().
		Str("binary", t.cfg.DumpBinary).
		Strs("args", args).
		Msg("pipewire.Transport.Watch starting")

	stdout, wait, err := t.streamer.Stream(childCtx, t.cfg.DumpBinary, args...)
	if err != nil {
		return err
	}
	decodeErr := NewDecoder(stdout).Run(sink)
	if decodeErr != nil {
		// the child may still be writing; stop it before reaping
		cancel()
	}
	_ = stdout.Close()
	waitErr := wait()

	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case decodeErr != nil:
		return decodeErr
	case waitErr != nil:
		return fmt.Errorf("%w: %w", ErrStreamEnded, waitErr)
	default:
		return ErrStreamEnded
	}
}

// Connect asks the daemon to create a lingering link from output to input.
func (t *Transport) Connect(ctx context.Context, output, input graph.Port) error {
	args := t.remoteArgs("create-object", LinkFactory, linkProps(output, input))
	logger := zerolog.Ctx(ctx)
	logger.Debug().
		Str("binary", t.cfg.CLIBinary).
		Strs("args", args).
		Msg("pipewire.Transport.Connect")

	stdout, stderr, code, err := t.runner.Run(ctx, t.cfg.CLIBinary, args...)
	if err != nil {
		return fmt.Errorf("%w: %s exit=%d: %v: %s", ErrConnectFailed, t.cfg.CLIBinary, code, err, strings.TrimSpace(string(stderr)))
	}
	// pw-cli reports factory errors on stdout with a zero exit status
	if msg := strings.TrimSpace(string(stdout)); strings.HasPrefix(strings.ToLower(msg), "error") {
		return fmt.Errorf("%w: %s", ErrConnectFailed, msg)
	}
	return nil
}

func (t *Transport) remoteArgs(args ...string) []string {
	if t.cfg.Remote == "" {
		return args
	}
	return append([]string{"-r", t.cfg.Remote}, args...)
}

func linkProps(output, input graph.Port) string {
	return fmt.Sprintf("{ %s=%s %s=%s %s=%s %s=%s object.linger=true }",
		graph.PropLinkOutputNode, output.Node,
		graph.PropLinkOutputPort, output.ID,
		graph.PropLinkInputNode, input.Node,
		graph.PropLinkInputPort, input.ID,
	)
}
