package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gosimple/slug"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ByLCY/quire/config"
	"github.com/ByLCY/quire/document"
	"github.com/ByLCY/quire/dsl"
	"github.com/ByLCY/quire/layout"
	textrenderer "github.com/ByLCY/quire/renderer/text"
	"github.com/ByLCY/quire/session"
	"github.com/ByLCY/quire/watch"
)

const appName = "quire"

// initializeAppContext prepares configuration and logging after the command
// line has been parsed.
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	env := envFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		env.Cfg.Logging.ConsoleLogger.Level = "debug"
	}
	log, closeLog, err := env.Cfg.Logging.Prepare()
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.Log, env.closeLog = log, closeLog
	env.redirectStdLog()

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("runtime", runtime.Version()))
	if len(configFile) == 0 {
		env.Log.Debug("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	env.Log.Debug("Program ended", zap.Duration("elapsed", env.uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	if err := env.restoreStd(); err != nil {
		return fmt.Errorf("unable to close log: %w", err)
	}
	return nil
}

var errWasHandled bool

// exitErrHandler runs before the app context is destroyed, so the error can
// still go through the logger.
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := envFromContext(ctx)
	if env.Cfg != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(contextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            appName,
		Usage:           "paginates block documents into fixed-size pages",
		Version:         runtime.Version(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log debug messages to console"},
		},
		Commands: []*cli.Command{
			{
				Name:         "paginate",
				Usage:        "Paginates document and prints a text preview",
				OnUsageError: usageErrorHandler,
				Action:       runPaginate,
				ArgsUsage:    "SOURCE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "json", Usage: "write pagination result as JSON to `FILE`"},
					&cli.BoolFlag{Name: "heights", Usage: "show measured block heights"},
				},
			},
			{
				Name:         "export",
				Usage:        "Renders document to PDF",
				OnUsageError: usageErrorHandler,
				Action:       runExport,
				ArgsUsage:    "SOURCE [DESTINATION]",
			},
			{
				Name:         "watch",
				Usage:        "Re-renders PDF every time the document source changes",
				OnUsageError: usageErrorHandler,
				Action:       runWatch,
				ArgsUsage:    "SOURCE [DESTINATION]",
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "[DESTINATION]",
			},
		},
	}

	var err error
	// os.Exit is called at the end of main, no deferred functions may follow
	defer func() {
		stop()
		if err != nil {
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

func sourceArg(cmd *cli.Command) (string, error) {
	src := cmd.Args().Get(0)
	if src == "" {
		return "", errors.New("missing document path SOURCE")
	}
	return src, nil
}

func runPaginate(ctx context.Context, cmd *cli.Command) (err error) {
	env := envFromContext(ctx)
	src, err := sourceArg(cmd)
	if err != nil {
		return err
	}
	doc, _, err := dsl.LoadFile(src)
	if err != nil {
		return err
	}
	p, err := newPipeline(ctx, env.Cfg, env.Log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, p.Close()) }()

	res, err := p.paginate(ctx, doc)
	if err != nil {
		return err
	}
	if name := cmd.String("json"); name != "" {
		if err := writeDebug(res, name); err != nil {
			return err
		}
		env.Log.Info("Pagination result written", zap.String("file", name))
	}
	preview, err := (&textrenderer.Renderer{ShowHeights: cmd.Bool("heights")}).Render(res)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(preview)
	return err
}

func runExport(ctx context.Context, cmd *cli.Command) (err error) {
	env := envFromContext(ctx)
	src, err := sourceArg(cmd)
	if err != nil {
		return err
	}
	doc, title, err := dsl.LoadFile(src)
	if err != nil {
		return err
	}
	p, err := newPipeline(ctx, env.Cfg, env.Log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, p.Close()) }()

	res, err := p.paginate(ctx, doc)
	if err != nil {
		return err
	}
	dst := outputPath(src, title, cmd.Args().Get(1))
	if err := writePDF(p, res, title, dst); err != nil {
		return err
	}
	env.Log.Info("PDF exported", zap.String("file", dst), zap.Int("pages", len(res.Pages)))
	return nil
}

func runWatch(ctx context.Context, cmd *cli.Command) (err error) {
	env := envFromContext(ctx)
	src, err := sourceArg(cmd)
	if err != nil {
		return err
	}
	p, err := newPipeline(ctx, env.Cfg, env.Log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, p.Close()) }()

	opts, err := p.scheduleOptions(env.Cfg.Schedule)
	if err != nil {
		return err
	}
	var (
		mu     sync.Mutex
		title  string
		loaded bool
		dst    string
	)
	opts.OnPublish = func(res *layout.Result) {
		mu.Lock()
		defer mu.Unlock()
		if !loaded {
			// source not loaded yet, skip the session's initial empty document
			return
		}
		if dst == "" {
			dst = outputPath(src, title, cmd.Args().Get(1))
		}
		if err := writePDF(p, res, title, dst); err != nil {
			env.Log.Error("PDF export failed", zap.Error(err))
			return
		}
		env.Log.Info("PDF updated", zap.String("file", dst), zap.Int("pages", len(res.Pages)))
	}
	opts.OnError = func(err error) {
		env.Log.Warn("Pagination failed, previous PDF kept", zap.Error(err))
	}
	sess := session.New(opts)
	defer sess.Close()

	w, err := watch.New(src, func(doc *document.Document, t string) {
		mu.Lock()
		title, loaded = t, true
		mu.Unlock()
		sess.Replace(doc)
	}, env.Log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, w.Close()) }()

	env.Log.Info("Watching document", zap.String("file", src))
	if err := w.Run(ctx); err != nil {
		return err
	}

	// let the last pass write its PDF
	drain, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := sess.Wait(drain); err != nil {
		env.Log.Warn("Last pagination pass did not finish", zap.Error(err))
	}
	return nil
}

// outputPath returns dst when given, otherwise a file named after the title
// (or the source file) next to the source. A dst that is an existing
// directory gets the derived name inside it.
func outputPath(src, title, dst string) string {
	base := slug.Make(title)
	if base == "" {
		base = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	}
	name := base + ".pdf"
	if dst == "" {
		return filepath.Join(filepath.Dir(src), name)
	}
	if fi, err := os.Stat(dst); err == nil && fi.IsDir() {
		return filepath.Join(dst, name)
	}
	return dst
}

func writePDF(p *pipeline, res *layout.Result, title, dst string) error {
	p.pdf.SetTitle(title)
	data, err := p.pdf.Render(res)
	if err != nil {
		return fmt.Errorf("unable to render PDF: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("unable to write PDF file: %w", err)
	}
	return nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("unable to create debug directory: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("unable to write debug JSON: %w", err)
	}
	return nil
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) (err error) {
	env := envFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)
	out := os.Stdout
	if len(fname) > 0 {
		out, err = os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer func() { err = multierr.Append(err, out.Close()) }()
	}

	var (
		data  []byte
		state string
	)
	if cmd.Bool("default") {
		state = "default"
		data = config.Prepare()
	} else {
		state = "actual"
		if data, err = config.Dump(env.Cfg); err != nil {
			return fmt.Errorf("unable to get configuration: %w", err)
		}
	}

	if len(fname) == 0 {
		fname = "STDOUT"
	}
	env.Log.Debug("Outputting configuration", zap.String("state", state), zap.String("file", fname))

	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
