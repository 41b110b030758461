package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/alecthomas/kingpin/v2"
	json "github.com/goccy/go-json"

	"github.com/jacoelho/yang"
	"github.com/jacoelho/yang/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	return runWithArgs(os.Args[1:], os.Stdout, os.Stderr)
}

type flags struct {
	schemaPath     string
	documentPath   string
	format         string
	unknown        string
	maxDepth       int
	logLevel       string
	cpuProfilePath string
	memProfilePath string
}

func parseFlags(args []string, stderr io.Writer) (flags, error) {
	var f flags
	app := kingpin.New("yanglint", "Validates an XML document against a YANG module.")
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)
	app.Terminate(nil)
	app.HelpFlag.Short('h')

	app.Flag("schema", "Path to the YANG module.").Short('s').Required().StringVar(&f.schemaPath)
	app.Flag("format", "Output format.").Default("text").EnumVar(&f.format, "text", "json")
	app.Flag("unknown", "Handling of nodes missing from the schema.").Default("error").EnumVar(&f.unknown, "error", "warn", "ignore")
	app.Flag("max-depth", "Document nesting limit (0 uses the default).").Default("0").IntVar(&f.maxDepth)
	app.Flag("log-level", "Log level for diagnostics on stderr.").Default("warn").EnumVar(&f.logLevel, "debug", "info", "warn", "error")
	app.Flag("cpuprofile", "Write CPU profile to file.").StringVar(&f.cpuProfilePath)
	app.Flag("memprofile", "Write memory profile to file.").StringVar(&f.memProfilePath)
	app.Arg("document", "Path to the XML document.").Required().StringVar(&f.documentPath)

	if _, err := app.Parse(args); err != nil {
		app.Usage(args)
		return flags{}, err
	}
	return f, nil
}

func runWithArgs(args []string, stdout, stderr io.Writer) int {
	f, err := parseFlags(args, stderr)
	if err != nil {
		_ = writef(stderr, "error: %v\n", err)
		return 2
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = f.logLevel
	logCfg.Format = "console"
	logging.InitWriter(logCfg, stderr)

	if f.cpuProfilePath != "" {
		stopCPUProfile, err := startCPUProfile(f.cpuProfilePath)
		if err != nil {
			_ = writef(stderr, "error starting CPU profile: %v\n", err)
			return 1
		}
		defer func() {
			if err := stopCPUProfile(); err != nil {
				_ = writef(stderr, "error stopping CPU profile: %v\n", err)
			}
		}()
	}

	if f.memProfilePath != "" {
		defer func() {
			if err := writeMemProfile(f.memProfilePath); err != nil {
				_ = writef(stderr, "error writing memory profile: %v\n", err)
			}
		}()
	}

	schemaText, err := os.ReadFile(f.schemaPath)
	if err != nil {
		_ = writef(stderr, "error reading schema: %v\n", err)
		return 1
	}
	documentText, err := os.ReadFile(f.documentPath)
	if err != nil {
		_ = writef(stderr, "error reading document: %v\n", err)
		return 1
	}

	policy, err := yang.ParseUnknownNodePolicy(f.unknown)
	if err != nil {
		_ = writef(stderr, "error: %v\n", err)
		return 2
	}
	opts := yang.NewOptions().
		WithMaxDepth(f.maxDepth).
		WithUnknownNodes(policy).
		WithLogger(logging.WithComponent("yanglint"))

	res := yang.ValidateWithOptions(string(schemaText), string(documentText), opts)
	if f.format == "json" {
		return writeJSON(stdout, stderr, res)
	}
	return writeText(stdout, stderr, f.documentPath, res)
}

func writeJSON(stdout, stderr io.Writer, res yang.Result) int {
	out, err := json.Marshal(res)
	if err != nil {
		_ = writef(stderr, "error encoding result: %v\n", err)
		return 1
	}
	if err := writeln(stdout, string(out)); err != nil {
		return 1
	}
	return exitCode(res)
}

func writeText(stdout, stderr io.Writer, documentPath string, res yang.Result) int {
	switch res.Outcome {
	case yang.Internal:
		_ = writef(stderr, "error validating: %v\n", res.Err)
		return 1
	case yang.LoadFailure:
		_ = writef(stderr, "error: %v\n", res.Err)
		return 1
	}

	var errs []error
	for i := range res.Diagnostics {
		errs = append(errs, writeln(stderr, res.Diagnostics[i].Error()))
	}
	if res.Outcome == yang.Failure {
		errs = append(errs, writef(stderr, "%s fails to validate\n", documentPath))
	} else {
		errs = append(errs, writef(stdout, "%s validates\n", documentPath))
	}
	if errors.Join(errs...) != nil {
		return 1
	}
	return exitCode(res)
}

func exitCode(res yang.Result) int {
	if res.Valid() {
		return 0
	}
	return 1
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}

func startCPUProfile(path string) (func() error, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create cpu profile %s: %w", path, err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		if closeErr := f.Close(); closeErr != nil {
			return nil, fmt.Errorf("start cpu profile %s: %w (close failed: %w)", path, err, closeErr)
		}
		return nil, fmt.Errorf("start cpu profile %s: %w", path, err)
	}
	return func() error {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			return fmt.Errorf("close cpu profile %s: %w", path, err)
		}
		return nil
	}, nil
}

func writeMemProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create mem profile %s: %w", path, err)
	}
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		if closeErr := f.Close(); closeErr != nil {
			return fmt.Errorf("write mem profile %s: %w (close failed: %w)", path, err, closeErr)
		}
		return fmt.Errorf("write mem profile %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close mem profile %s: %w", path, err)
	}
	return nil
}
