// Command research-agent answers one research question with a tool-using
// model and prints the structured result.
//
// Exit status is 0 on success, 2 when the final reply could not be parsed and
// 1 for every other failure.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	research "github.com/IronClad1607/research-agent"
	"github.com/IronClad1607/research-agent/events"
	"github.com/IronClad1607/research-agent/internal/broker"
	"github.com/IronClad1607/research-agent/internal/config"
	"github.com/IronClad1607/research-agent/internal/console"
	"github.com/IronClad1607/research-agent/pkg/natsx"
	"github.com/IronClad1607/research-agent/pkg/slogx"
	"github.com/IronClad1607/research-agent/pkg/uuidx"
	"github.com/IronClad1607/research-agent/provider/models"
	"github.com/IronClad1607/research-agent/tool"
	"github.com/IronClad1607/research-agent/tools/savefile"
	"github.com/IronClad1607/research-agent/tools/search"
	"github.com/IronClad1607/research-agent/tools/wikipedia"
	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
)

const (
	exitOK           = 0
	exitFailure      = 1
	exitParseFailure = 2

	queryPrompt = "What can I help you research? "

	// traceTimeout bounds how long the trace may lag behind the run.
	traceTimeout = time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type cliFlags struct {
	envFile string
	verbose bool
	format  console.Format
	query   string
}

func parseFlags(args []string, stderr io.Writer) (cliFlags, error) {
	var (
		f      cliFlags
		format string
	)
	fs := flag.NewFlagSet("research-agent", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.envFile, "env", config.DefaultEnvFile, "dotenv file applied over the environment")
	fs.BoolVar(&f.verbose, "v", false, "trace tool calls and log at debug level")
	fs.StringVar(&format, "format", string(console.Pretty), "output format: pretty, json or pp")
	fs.StringVar(&f.query, "query", "", "research question; read from stdin when empty")
	if err := fs.Parse(args); err != nil {
		return cliFlags{}, err
	}
	if fs.NArg() > 0 {
		return cliFlags{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	var err error
	if f.format, err = console.ParseFormat(format); err != nil {
		return cliFlags{}, err
	}
	return f, nil
}

func setupLogging(w io.Writer, level slog.Level) {
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Stamp}
	log := zerolog.New(output).With().Timestamp().Logger()
	slog.SetDefault(slog.New(
		zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: level}),
	))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}

	cfg, err := config.Load(flags.envFile)
	if err != nil {
		fmt.Fprintf(stderr, "invalid configuration:\n%v\n", err)
		return exitFailure
	}

	level := cfg.LogLevel
	if flags.verbose {
		level = slog.LevelDebug
	}
	setupLogging(stderr, level)

	assistant, flush, cleanup, err := buildAssistant(ctx, cfg, flags, stdout)
	if err != nil {
		slog.Error("failed to start", slogx.Error(err))
		return exitFailure
	}
	defer cleanup()

	printer, err := console.NewPrinter(stdout, flags.format)
	if err != nil {
		slog.Error("failed to create printer", slogx.Error(err))
		return exitFailure
	}

	query := flags.query
	if query == "" {
		if query, err = readQuery(stdin, stdout); err != nil {
			fmt.Fprintln(stderr, err)
			return exitFailure
		}
	}
	return answer(ctx, assistant, query, printer, stderr, flush)
}

// buildAssistant wires the model, the tools and the hooks. flush blocks until
// the trace has printed every event of the run.
func buildAssistant(ctx context.Context, cfg config.Config, flags cliFlags, trace io.Writer) (*research.Assistant, func(), func(), error) {
	flush, cleanup := func() {}, func() {}

	model, err := models.Resolve(cfg.Backend, cfg.Model, cfg.ModelOptions())
	if err != nil {
		return nil, flush, cleanup, err
	}
	tools, err := buildTools(cfg)
	if err != nil {
		return nil, flush, cleanup, err
	}
	ag, err := research.NewAgent(model, tools...)
	if err != nil {
		return nil, flush, cleanup, err
	}

	hooks := []events.Hook{events.Logging(slog.Default())}
	if flags.verbose {
		hook, traceFlush, err := traceRun(ctx, trace)
		if err != nil {
			return nil, flush, cleanup, err
		}
		hooks = append(hooks, hook)
		flush = traceFlush
	}
	if cfg.NATSURL != "" {
		conn, err := natsx.Connect(cfg.NATSURL)
		if err != nil {
			return nil, flush, cleanup, err
		}
		cleanup = func() {
			if err := conn.Drain(); err != nil {
				conn.Close()
			}
		}
		topic := broker.NATS(conn).WithSubjectPrefix(cfg.NATSSubjectPrefix).Topic(ctx, uuidx.NewString())
		hooks = append(hooks, broker.Hook(topic))
		slog.Info("publishing run events", slog.String("url", cfg.NATSURL), slog.String("prefix", cfg.NATSSubjectPrefix))
	}

	assistant, err := research.New(
		research.WithAgent(ag),
		research.WithMaxTurns(cfg.MaxTurns),
		research.WithStream(cfg.Stream),
		research.WithHook(events.Multi(hooks...)),
	)
	if err != nil {
		cleanup()
		return nil, func() {}, func() {}, err
	}
	return assistant, flush, cleanup, nil
}

// traceRun prints the run on w through an in-process topic so tool calls and
// streamed chunks never wait on the terminal.
func traceRun(ctx context.Context, w io.Writer) (events.Hook, func(), error) {
	topic := broker.Local().WithSlowSubscriberTimeout(traceTimeout).Topic(ctx, uuidx.NewString())
	sub, err := topic.Subscribe(ctx, console.Trace(w))
	if err != nil {
		return nil, nil, err
	}
	flush := func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), traceTimeout)
		defer cancel()
		if err := sub.Drain(ctx); err != nil {
			slog.Warn("trace output incomplete", slogx.Error(err))
		}
	}
	return broker.Hook(topic), flush, nil
}

func buildTools(cfg config.Config) ([]tool.Definition, error) {
	ddg, err := search.New(search.WithTimeout(cfg.SearchTimeout))
	if err != nil {
		return nil, fmt.Errorf("search tool: %w", err)
	}
	wiki, err := wikipedia.New(
		wikipedia.WithLang(cfg.WikipediaLang),
		wikipedia.WithTopK(cfg.WikipediaTopK),
		wikipedia.WithMaxChars(cfg.WikipediaMaxChars),
	)
	if err != nil {
		return nil, fmt.Errorf("wikipedia tool: %w", err)
	}
	saver, err := savefile.New(savefile.WithPath(cfg.OutputFile))
	if err != nil {
		return nil, fmt.Errorf("save tool: %w", err)
	}
	slog.Debug("research notes are appended", slog.String("path", saver.Path()))
	return []tool.Definition{ddg.Tool(), wiki.Tool(), saver.Tool()}, nil
}

// readQuery prompts on out and returns the first non-blank line of in.
func readQuery(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, queryPrompt)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if q := strings.TrimSpace(scanner.Text()); q != "" {
			return q, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read query: %w", err)
	}
	return "", errors.New("no query given")
}

func answer(ctx context.Context, assistant *research.Assistant, query string, printer *console.Printer, stderr io.Writer, flush func()) int {
	result, err := assistant.Research(ctx, query)
	flush()
	switch {
	case err == nil:
		slog.Debug("research finished",
			slogx.Stringer("run_id", result.RunID),
			slog.Int64("total_tokens", result.Usage.TotalTokens),
			slog.Any("tools", result.ObservedTools()),
		)
		if err := printer.Result(result); err != nil {
			slog.Error("failed to print result", slogx.Error(err))
			return exitFailure
		}
		return exitOK
	case errors.Is(err, research.ErrParse):
		if err := printer.ParseFailure(result.Raw, err); err != nil {
			slog.Error("failed to print parse failure", slogx.Error(err))
		}
		return exitParseFailure
	default:
		fmt.Fprintf(stderr, "research failed: %v\n", err)
		return exitFailure
	}
}
