// Command runbot runs external commands, captures their output, and can
// escalate failures to a notification channel.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/deixis/runbot"
	"github.com/deixis/runbot/internal/assert"
	"github.com/deixis/runbot/internal/config"
	runbotmcp "github.com/deixis/runbot/internal/mcp"
	"github.com/deixis/runbot/internal/notify"
	"github.com/deixis/runbot/internal/runner"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("runbot: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "run":
		err = runMain(args)
	case "mcp":
		err = mcpMain(args)
	case "version":
		fmt.Println(runbot.Version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "runbot: unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: runbot <command> [flags] -- <cmdline>

Commands:
  run         Run a command and print its captured output
  mcp         Start the MCP server
  version     Print the version
  help        Show this help

Use "runbot <command> -h" for command-specific flags.`)
}

// --- run ---

func runMain(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	dir := fs.String("C", "", "working directory for the command")
	realtime := fs.Bool("realtime", false, "drain output incrementally instead of waiting for exit")
	jsonFlag := fs.Bool("json", false, "output the result as JSON")
	notifyFlag := fs.Bool("notify", false, "escalate failures through the conversation layer")
	verbose := fs.Bool("v", false, "debug logging")

	env := map[string]string{}
	fs.Func("e", "KEY=VAL environment override for the child (repeatable)", func(s string) error {
		k, v, ok := strings.Cut(s, "=")
		if !ok || k == "" {
			return fmt.Errorf("expected KEY=VAL, got %q", s)
		}
		env[k] = v
		return nil
	})
	_ = fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("no command given")
	}

	var spec runner.CommandSpec
	var err error
	if fs.NArg() == 1 {
		spec, err = runner.Command(fs.Arg(0))
		if err != nil {
			return err
		}
	} else {
		spec = runner.Args(fs.Args()...)
	}
	spec.Dir = *dir
	spec.Env = env
	spec.Realtime = *realtime

	logger := newLogger(*verbose, *realtime)

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determining workspace: %w", err)
	}
	loaded, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config

	r := &runner.Runner{
		Log:         logger,
		ChunkSize:   cfg.ChunkSize(),
		PollTimeout: cfg.PollTimeout(),
		Locale:      cfg.Locale(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var res *runner.Result
	if *notifyFlag {
		conv := &notify.Console{Out: os.Stdout, Log: logger, UserID: os.Getenv("USER")}
		a := &assert.Asserter{
			Runner:         r,
			Conv:           conv,
			Log:            logger,
			FilenamePrefix: cfg.MonitoringPrefix(),
		}
		res, err = a.Run(ctx, spec)
		if errors.Is(err, assert.ErrCommandFailed) {
			os.Exit(1)
		}
		if err != nil {
			// Process-management and unexpected failures carry no
			// user-facing message of their own; hand the details over
			// before giving up.
			notify.ReportError(conv, err.Error())
			return err
		}
	} else {
		res, err = r.Gather(ctx, spec)
	}
	if err != nil {
		return err
	}

	if *jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		fmt.Fprint(os.Stdout, res.Stdout)
		fmt.Fprint(os.Stderr, res.Stderr)
	}

	switch {
	case res.ExitCode > 0:
		os.Exit(res.ExitCode)
	case res.ExitCode < 0:
		os.Exit(1)
	}
	return nil
}

// --- mcp ---

func mcpMain(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	instructions := fs.Bool("instructions", false, "print model instructions and exit")
	httpAddr := fs.String("http", "", "start HTTP server on address (e.g. :9090)")
	_ = fs.Parse(args)

	if *instructions {
		fmt.Print(runbotmcp.Instructions)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return serve(ctx, *httpAddr)
}

func serve(ctx context.Context, httpAddr string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determining workspace: %w", err)
	}

	loaded, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config

	r := &runner.Runner{
		Log:         newLogger(false, false),
		ChunkSize:   cfg.ChunkSize(),
		PollTimeout: cfg.PollTimeout(),
		Locale:      cfg.Locale(),
	}

	server := runbotmcp.NewServer(r)

	if httpAddr != "" {
		return serveHTTP(ctx, server, httpAddr)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// newLogger builds the console logger. Realtime runs log at info so stream
// chunks are visible; otherwise only warnings and errors surface unless -v.
func newLogger(verbose, realtime bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if realtime {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(output).With().Timestamp().Str("app", "runbot").Logger().Level(level)
}
