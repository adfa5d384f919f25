package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/littlstar/lstar/internal/adapter"
	"github.com/littlstar/lstar/internal/domain"
	"github.com/littlstar/lstar/internal/notify"
	"github.com/littlstar/lstar/internal/sdk"
	"github.com/urfave/cli/v3"
)

// eventBuffer must hold every event a single command can produce between reads
const eventBuffer = 1024

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *adapter.Config
	logger *slog.Logger
	output io.Writer

	sdk      *sdk.SDK
	events   chan domain.Event
	observer *notify.ChannelObserver
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *adapter.Config
	Logger *slog.Logger
	Output io.Writer
}

// NewRunner creates a new Runner. The configuration is loaded by Setup
// unless one is given.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	events := make(chan domain.Event, eventBuffer)
	return &Runner{
		config:   opts.Config,
		logger:   opts.Logger,
		output:   opts.Output,
		events:   events,
		observer: notify.NewChannelObserver(events),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) []*cli.Command){
		authCommands, catalogCommands, engagementCommands, downloadCommands, browseCommands,
	} {
		commands = append(commands, fn(r)...)
	}
	return commands
}

// Setup loads the configuration and logger before any command runs
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.config == nil {
		cfg, err := adapter.LoadConfig()
		if err != nil {
			return ctx, fmt.Errorf("failed to load config: %w", err)
		}
		r.config = cfg
	}
	if level := cmd.String("log-level"); level != "" {
		r.config.Logging.Level = level
	}

	if r.logger == nil {
		logger, err := adapter.SetupLogger(&r.config.Logging)
		if err != nil {
			logger = adapter.NullLogger()
		}
		r.logger = logger
	}
	slog.SetDefault(r.logger)
	return ctx, nil
}

// open builds the SDK on first use
func (r *Runner) open() (*sdk.SDK, error) {
	if r.sdk != nil {
		return r.sdk, nil
	}
	s, err := sdk.New(r.config, sdk.WithLogger(r.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to start: %w", err)
	}
	s.Register(r.observer)
	r.sdk = s
	return s, nil
}

// Close shuts the SDK down, if it was started
func (r *Runner) Close() {
	if r.sdk == nil {
		return
	}
	if err := r.sdk.Close(); err != nil {
		r.logger.Error("failed to close", "error", err)
	}
	r.sdk = nil
}

// await reads events until match accepts one
func (r *Runner) await(ctx context.Context, match func(domain.Event) bool) (domain.Event, error) {
	for {
		select {
		case ev := <-r.events:
			if match(ev) {
				return ev, nil
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// awaitList waits for the page answering request id
func awaitList[T any](ctx context.Context, r *Runner, id string) (*domain.Page[T], error) {
	ev, err := r.await(ctx, func(ev domain.Event) bool {
		res, ok := ev.(domain.ListResult[T])
		return ok && res.RequestID == id
	})
	if err != nil {
		r.sdk.Catalog.Cancel(id)
		return nil, err
	}
	res := ev.(domain.ListResult[T])
	return res.Page, res.Err
}

// awaitItem waits for the item answering request id
func awaitItem[T any](ctx context.Context, r *Runner, id string) (*T, error) {
	ev, err := r.await(ctx, func(ev domain.Event) bool {
		res, ok := ev.(domain.ItemResult[T])
		return ok && res.RequestID == id
	})
	if err != nil {
		r.sdk.Catalog.Cancel(id)
		return nil, err
	}
	res := ev.(domain.ItemResult[T])
	return res.Item, res.Err
}

// fetchVideo loads one video, annotated with its download state
func (r *Runner) fetchVideo(ctx context.Context, id uint64) (*domain.Video, error) {
	s, err := r.open()
	if err != nil {
		return nil, err
	}
	return awaitItem[domain.Video](ctx, r, s.Catalog.Video(id))
}

func (r *Runner) writeJSON(data any) error {
	enc := json.NewEncoder(r.output)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) {
	fmt.Fprintf(r.output, format, args...)
}

func (r *Runner) writePlainln(format string, args ...any) {
	fmt.Fprintf(r.output, format+"\n", args...)
}

func (r *Runner) writePageFooter(current, count, total int) {
	if count == 0 {
		r.writePlainln("No results")
		return
	}
	r.writePlainln("\nPage %d of %d (%d total)", current, count, total)
}

// idArg parses a required numeric argument
func idArg(cmd *cli.Command, name string) (uint64, error) {
	return parseID(cmd.Name, name, cmd.StringArg(name))
}

func parseID(op, name, raw string) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, domain.ValidationError(op, fmt.Errorf("%s is required", name))
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, domain.ValidationError(op, fmt.Errorf("invalid %s %q", name, raw))
	}
	return id, nil
}

func pageFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "page",
		Aliases: []string{"p"},
		Usage:   "Page number",
		Value:   1,
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output JSON",
	}
}
