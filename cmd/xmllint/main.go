// Command xmllint checks XML files for well-formedness through the hardened
// document factory. Files declaring a DOCTYPE are rejected.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/jacoelho/xmlfactory"
	xferrors "github.com/jacoelho/xmlfactory/errors"
)

func main() {
	os.Exit(run())
}

func run() int {
	return runWithArgs(os.Args[1:], os.Stdout, os.Stderr)
}

func runWithArgs(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("xmllint", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML configuration file")
	contextSwitch := fs.Bool("context-switch", false, "install a dedicated resolution context while the factory is built")
	maxDepth := fs.Int("max-depth", 0, "maximum element depth (0 uses default)")
	maxTokenSize := fs.Int("max-token-size", 0, "maximum text or attribute size in bytes (0 uses default)")
	verbose := fs.Bool("v", false, "log factory construction and rejections")
	cpuProfilePath := fs.String("cpuprofile", "", "write CPU profile to file")
	memProfilePath := fs.String("memprofile", "", "write memory profile to file")
	var usageErr error
	fs.Usage = func() {
		usageErr = errors.Join(
			usageErr,
			writef(stderr, "Usage: %s [options] <document.xml>...\n\n", fs.Name()),
			writeln(stderr, "Checks XML documents for well-formedness with DTDs and external entities disabled."),
			writeln(stderr),
			writeln(stderr, "Options:"),
		)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	paths := fs.Args()
	if len(paths) == 0 {
		if err := writeln(stderr, "error: at least one XML file argument is required"); err != nil {
			return 1
		}
		fs.Usage()
		if usageErr != nil {
			return 1
		}
		return 2
	}

	prof, err := startProfiling(*cpuProfilePath, *memProfilePath)
	if err != nil {
		_ = writef(stderr, "error starting profile: %v\n", err)
		return 1
	}
	defer func() {
		if err := prof.stop(); err != nil {
			_ = writef(stderr, "error writing profile: %v\n", err)
		}
	}()

	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetLevel(logrus.ErrorLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	opts := xmlfactory.NewProviderOptions().
		WithLogger(logger.WithField("component", "xmllint")).
		WithMaxDepth(*maxDepth).
		WithMaxTokenSize(*maxTokenSize)
	if *configPath != "" {
		opts = opts.WithConfigFile(*configPath)
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "context-switch" {
			opts = opts.WithContextSwitch(*contextSwitch)
		}
	})
	if err := opts.Validate(); err != nil {
		_ = writef(stderr, "error: %v\n", err)
		return 2
	}

	worker := xmlfactory.NewBuilderCache(xmlfactory.NewFactoryProvider(opts)).NewWorker()
	defer worker.Close()

	status := 0
	for _, path := range paths {
		code, err := check(worker, path, stdout, stderr)
		if err != nil {
			return 1
		}
		status = max(status, code)
	}
	return status
}

// check reports on one file. The error is non-nil only when output fails.
func check(worker *xmlfactory.Worker, path string, stdout, stderr io.Writer) (int, error) {
	b, err := worker.AcquireBuilder()
	if err != nil {
		return 1, writef(stderr, "error: %v\n", err)
	}
	if _, err := b.ParseFile(path); err != nil {
		if perr, ok := xferrors.AsParse(err); ok {
			return 1, writef(stderr, "%s: %s\n", path, describe(perr))
		}
		return 1, writef(stderr, "error: %v\n", err)
	}
	return 0, writef(stdout, "%s is well-formed\n", path)
}

func describe(perr *xferrors.ParseError) string {
	msg := perr.Error()
	switch {
	case errors.Is(perr, xferrors.ErrDoctypeDisallowed):
		return msg + " (DOCTYPE declarations are rejected to prevent XXE)"
	case errors.Is(perr, xferrors.ErrLimitExceeded):
		return msg + " (raise the limit with --max-depth or --max-token-size)"
	default:
		return msg
	}
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}
