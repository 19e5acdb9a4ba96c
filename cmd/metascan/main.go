package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jward/metascan"
	"github.com/jward/metascan/internal/javasrc"
	"github.com/jward/metascan/internal/meta"
	"github.com/jward/metascan/internal/runtime"
	"github.com/jward/metascan/internal/scanner"
	"github.com/jward/metascan/scripts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		stop()
		os.Exit(1)
	}
}

// cli holds the flags and configuration of one invocation.
type cli struct {
	stdout io.Writer
	stderr io.Writer

	format     string
	configFile string
	logLevel   string

	cfg    *Config
	logger *slog.Logger

	// wrapReader, when set, wraps the source reader handed to scans.
	wrapReader func(meta.Reader) meta.Reader
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	return (&cli{stdout: stdout, stderr: stderr}).rootCmd()
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "metascan",
		Short:         "Index structural metadata of Java sources and query it",
		Long:          "Metascan scans Java sources into a fact index (subtypes, annotations, member signatures), saves it as a snapshot, and answers reverse lookups over it.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		// No Run: prints help.
	}
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&c.format, "format", "json", "output format: json|text")
	pf.StringVar(&c.configFile, "config", "", "config file (default: ./metascan.yaml when present)")
	pf.StringVar(&c.logLevel, "log-level", "", "log level: debug|info|warn|error (overrides log.level)")

	root.AddCommand(c.scanCmd())
	root.AddCommand(c.mergeCmd())
	root.AddCommand(c.resolveCmd())
	root.AddCommand(c.queryCmd())
	return root
}

func (c *cli) setup() error {
	if err := validateFormat(c.format); err != nil {
		return err
	}
	cfg, err := loadConfig(c.configFile)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	logger, err := newLogger(cfg.Log.Level, c.stderr)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = logger
	return nil
}

func (c *cli) output(command string, results any) error {
	return outputResult(c.stdout, c.format, CLIResult{Command: command, Results: results})
}

// newEngine builds an engine running every built-in scanner plus the
// requested script scanners. Script specs are "category=path" for files on
// disk or a bundled script name.
func (c *cli) newEngine(scriptsDir string, specs []string) (*metascan.Engine, error) {
	scanners := scanner.All()
	if len(specs) > 0 {
		disk := runtime.NewRuntime(scriptsDir, runtime.WithLogger(c.logger))
		bundled := runtime.NewRuntime("", runtime.WithRuntimeFS(scripts.FS), runtime.WithLogger(c.logger))
		for _, spec := range specs {
			var (
				s   *scanner.Script
				err error
			)
			if category, path, ok := strings.Cut(spec, "="); ok {
				s, err = scanner.NewScript(category, disk, path)
			} else if category, known := scripts.Builtin[spec]; known {
				s, err = scanner.NewScript(category, bundled, runtime.ScannerScriptPath(spec))
			} else {
				return nil, fmt.Errorf("invalid --script %q: want category=path or a bundled script name", spec)
			}
			if err != nil {
				return nil, err
			}
			scanners = append(scanners, s)
		}
	}

	return metascan.New(
		metascan.WithScanners(scanners...),
		metascan.WithParallel(c.cfg.Scan.Parallel),
		metascan.WithWorkers(c.cfg.Scan.Workers),
		metascan.WithLogger(c.logger),
	)
}

// loadSources parses every .java file under dir.
func (c *cli) loadSources(ctx context.Context, dir string) (*javasrc.Reader, error) {
	reader := javasrc.NewReader(javasrc.WithLogger(c.logger))
	if err := reader.LoadDir(ctx, dir); err != nil {
		return nil, err
	}
	return reader, nil
}

// sourceReader returns the reader scans read units through.
func (c *cli) sourceReader(reader *javasrc.Reader) meta.Reader {
	if c.wrapReader != nil {
		return c.wrapReader(reader)
	}
	return reader
}

// resolveTargetDir returns the absolute path of the directory to scan.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}
