package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
	flag "github.com/spf13/pflag"

	"github.com/rgonek/html2md/converter"
	"github.com/rgonek/html2md/internal/yamlutil"
)

// cliFlags holds the parsed command line.
type cliFlags struct {
	dialect      string
	config       string
	strictConfig bool
	fragment     bool
	fragmentRoot string
	baseURL      string
	headingStyle string
	bullet       string
	codeStyle    string
	linkStyle    string
	breakStyle   string
	html         bool
	output       string
	logLevel     string
	logFormat    string
	printOptions bool
}

var errUsage = errors.New("usage")

func parseFlags(args []string, stderr io.Writer) (*cliFlags, *flag.FlagSet, error) {
	f := &cliFlags{}
	fs := flag.NewFlagSet("h2m", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVarP(&f.dialect, "dialect", "d", "", "Dialect: github|commonmark|traditional|custom")
	fs.StringVarP(&f.config, "config", "c", "", "YAML options file")
	fs.BoolVar(&f.strictConfig, "strict-config", false, "Reject unknown keys in the options file")
	fs.BoolVarP(&f.fragment, "fragment", "f", false, "Treat input as a fragment instead of a full document")
	fs.StringVar(&f.fragmentRoot, "fragment-root", "", "Element that wraps fragment input (default div)")
	fs.StringVar(&f.baseURL, "base-url", "", "Resolve relative links and images against this URL")
	fs.StringVar(&f.headingStyle, "heading-style", "", "Heading style: atx|setext")
	fs.StringVar(&f.bullet, "bullet", "", "Bullet list marker: -|*|+")
	fs.StringVar(&f.codeStyle, "code-style", "", "Code block style: fenced|indented")
	fs.StringVar(&f.linkStyle, "link-style", "", "Link style: inlined|referenced")
	fs.StringVar(&f.breakStyle, "break-style", "", "Line break style: backslash|spaces")
	fs.BoolVar(&f.html, "html", false, "Keep unsupported elements as raw HTML")
	fs.StringVarP(&f.output, "output", "o", "", "Write Markdown to this file instead of stdout")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug|info|warn|error (off when empty)")
	fs.StringVar(&f.logFormat, "log-format", "console", "Log format: console|json")
	fs.BoolVar(&f.printOptions, "print-options", false, "Print the resolved options as YAML and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: h2m [options] [input-file]\n\nReads stdin when no input file is given.\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return nil, nil, errUsage
	}
	return f, fs, nil
}

// loadOptions reads a YAML options file. Unknown keys are ignored unless strict.
func loadOptions(path string, strict bool) (converter.Options, error) {
	var opts converter.Options
	if path == "" {
		return opts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("reading options file: %w", err)
	}

	decode := yamlutil.Unmarshal
	if strict {
		decode = yamlutil.UnmarshalStrict
	}
	if err := decode(data, &opts); err != nil {
		return opts, fmt.Errorf("parsing options file %s: %w", path, err)
	}
	return opts, nil
}

// flagOptions collects the options set on the command line. Flags left at
// their defaults do not override the options file.
func flagOptions(f *cliFlags, fs *flag.FlagSet) converter.Options {
	opts := converter.Options{
		Dialect:          converter.Dialect(strings.ToLower(strings.TrimSpace(f.dialect))),
		FragmentRoot:     f.fragmentRoot,
		BaseURL:          f.baseURL,
		HeadingStyle:     converter.HeadingStyle(f.headingStyle),
		BulletListMarker: f.bullet,
		CodeBlockStyle:   converter.CodeBlockStyle(f.codeStyle),
		LinkStyle:        converter.LinkStyle(f.linkStyle),
		BreakStyle:       converter.BreakStyle(f.breakStyle),
	}
	if fs.Changed("html") {
		opts.UseHTMLTags = converter.Bool(f.html)
	}
	return opts
}

func newLogger(level, format string) (converter.Logger, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" || level == "off" {
		return converter.NoOpLogger(), nil
	}

	var options []glog.Option
	switch level {
	case "debug":
		options = append(options, glog.WithLevel(glog.Debug))
	case "info":
		options = append(options, glog.WithLevel(glog.Info))
	case "warn", "warning":
		options = append(options, glog.WithLevel(glog.Warn))
	case "error":
		options = append(options, glog.WithLevel(glog.Error))
	default:
		return nil, fmt.Errorf("unsupported log level %q", level)
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console":
		options = append(options, glog.WithLoggerTypeConsole())
	case "json":
		options = append(options, glog.WithLoggerTypeJSON())
	default:
		return nil, fmt.Errorf("unsupported log format %q", format)
	}

	return glog.NewLogger(options...), nil
}

func readInput(fs *flag.FlagSet, stdin io.Reader) ([]byte, string, error) {
	if fs.NArg() == 0 || fs.Arg(0) == "-" {
		data, err := io.ReadAll(stdin)
		return data, "", err
	}
	path := fs.Arg(0)
	data, err := os.ReadFile(path)
	return data, path, err
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	f, fs, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}

	fileOpts, err := loadOptions(f.config, f.strictConfig)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid options: %v\n", err)
		return 1
	}

	logger, err := newLogger(f.logLevel, f.logFormat)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid logging flags: %v\n", err)
		return 1
	}

	opts := converter.Merge(fileOpts, flagOptions(f, fs))
	opts.Logger = logger

	conv, err := converter.New(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid options: %v\n", err)
		return 1
	}

	if f.printOptions {
		out, err := yamlutil.Marshal(conv.Options())
		if err != nil {
			fmt.Fprintf(stderr, "Error formatting options: %v\n", err)
			return 1
		}
		fmt.Fprint(stdout, string(out))
		return 0
	}

	data, source, err := readInput(fs, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading input: %v\n", err)
		return 1
	}

	ctx := context.Background()
	copts := converter.ConvertOptions{SourcePath: source}
	var result converter.Result
	if f.fragment {
		result, err = conv.ConvertFragmentWithContext(ctx, string(data), copts)
	} else {
		result, err = conv.ConvertWithContext(ctx, data, copts)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error converting input: %v\n", err)
		return 1
	}

	for _, w := range result.Warnings {
		if w.Path != "" {
			fmt.Fprintf(stderr, "warning: %s at %s: %s\n", w.Type, w.Path, w.Message)
			continue
		}
		fmt.Fprintf(stderr, "warning: %s: %s\n", w.Type, w.Message)
	}

	markdown := result.Markdown
	if markdown != "" {
		markdown += "\n"
	}
	if f.output != "" {
		if err := os.WriteFile(f.output, []byte(markdown), 0o644); err != nil {
			fmt.Fprintf(stderr, "Error writing output: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Fprint(stdout, markdown)
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
