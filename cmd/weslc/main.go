// Command weslc compiles WESL shader source code to WGSL.
//
// Usage:
//
//	weslc [options] <files or globs...>
//	cat input.wesl | weslc [options]
//
// Options:
//
//	-o <path>               Write output to file, or to a directory for several inputs
//	--feature name[=bool]   Set a feature flag (repeatable; a bare name is true)
//	--strict                Treat feature flags that are not set as errors
//	--keep <names>          Comma-separated @const functions to keep
//	--no-lower              Only resolve @if attributes
//	--minify                Remove unnecessary whitespace
//	--source-map            Write <output>.map, or inline the map when writing to stdout
//	--diff                  Print a unified diff of input and output instead
//	--list-features         Print the feature flags each input references
//	--config <file>         Use specific config file
//	--no-config             Ignore config files
//	-v                      Log pipeline stages to stderr
//	--version               Print version and exit
//	--help                  Print help and exit
//
// Config file:
//
//	weslc looks for weslc.yaml, .weslc.yaml or .weslrc in the directory of
//	the first input and its parents. Config file options are overridden by
//	CLI flags.
//
// Example weslc.yaml:
//
//	features:
//	  shadows: true
//	keep: [lighting]
//	minify: true
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"go.uber.org/multierr"

	"codeberg.org/saruga/weslc/internal/compiler"
	"codeberg.org/saruga/weslc/internal/condcomp"
	"codeberg.org/saruga/weslc/internal/config"
	"codeberg.org/saruga/weslc/internal/parser"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Fprintf(os.Stderr, "error: %v\n", e)
		}
		os.Exit(1)
	}
}

// listFlag collects the values of a repeatable flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(s string) error {
	*l = append(*l, s)
	return nil
}

type cli struct {
	outputPath   string
	configFile   string
	noConfig     bool
	features     listFlag
	keep         listFlag
	strict       bool
	noLower      bool
	minify       bool
	sourceMap    bool
	diff         bool
	listFeatures bool
	verbose      bool
	showVersion  bool
	showHelp     bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var c cli
	fs := flag.NewFlagSet("weslc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&c.outputPath, "o", "", "Write output to `path` (a directory for several inputs)")
	fs.StringVar(&c.configFile, "config", "", "Use specific config `file`")
	fs.BoolVar(&c.noConfig, "no-config", false, "Ignore config files")
	fs.Var(&c.features, "feature", "Set a feature flag as `name[=bool]` (repeatable)")
	fs.Var(&c.keep, "keep", "Comma-separated @const function `names` to keep")
	fs.BoolVar(&c.strict, "strict", false, "Treat feature flags that are not set as errors")
	fs.BoolVar(&c.noLower, "no-lower", false, "Only resolve @if attributes")
	fs.BoolVar(&c.minify, "minify", false, "Remove unnecessary whitespace")
	fs.BoolVar(&c.sourceMap, "source-map", false, "Write <output>.map, or inline the map on stdout")
	fs.BoolVar(&c.diff, "diff", false, "Print a unified diff of input and output")
	fs.BoolVar(&c.listFeatures, "list-features", false, "Print the feature flags each input references")
	fs.BoolVar(&c.verbose, "v", false, "Log pipeline stages to stderr")
	fs.BoolVar(&c.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&c.showHelp, "help", false, "Print help and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "weslc - WESL compiler v%s\n\n", version)
		fmt.Fprintf(stderr, "Usage: weslc [options] <files or globs...>\n")
		fmt.Fprintf(stderr, "       cat input.wesl | weslc [options]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nConfig file:\n")
		fmt.Fprintf(stderr, "  Searches for weslc.yaml, .weslc.yaml or .weslrc in the input directory and its parents.\n")
		fmt.Fprintf(stderr, "  CLI flags override config file settings.\n")
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  weslc --feature shadows shader.wesl -o shader.wgsl\n")
		fmt.Fprintf(stderr, "  weslc 'shaders/**/*.wesl' -o build/\n")
		fmt.Fprintf(stderr, "  cat shader.wesl | weslc --minify > shader.wgsl\n")
	}

	// Flags may follow the inputs.
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if err == flag.ErrHelp {
				return nil
			}
			return err
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}

	if c.showHelp {
		fs.Usage()
		return nil
	}
	if c.showVersion {
		fmt.Fprintf(stdout, "weslc v%s (%s)\n", version, commit)
		return nil
	}

	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	inputs, err := expandInputs(positional)
	if err != nil {
		return err
	}

	opts, err := c.options(inputs, logger)
	if err != nil {
		return err
	}

	if len(inputs) == 0 {
		if f, ok := stdin.(*os.File); ok {
			if stat, err := f.Stat(); err == nil && stat.Mode()&os.ModeCharDevice != 0 {
				fs.Usage()
				return errors.New("no input file specified")
			}
		}
		source, err := io.ReadAll(stdin)
		if err != nil {
			return errors.Wrap(err, "reading stdin")
		}
		opts.Filename = "<stdin>"
		return c.process("<stdin>", string(source), c.outputPath, opts, stdout, stderr)
	}

	outDir := ""
	if len(inputs) > 1 && !c.diff && !c.listFeatures {
		if c.outputPath == "" {
			return errors.New("-o <directory> is required with several inputs")
		}
		outDir = c.outputPath
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return errors.Wrap(err, "creating output directory")
		}
	}

	var errs error
	for _, path := range inputs {
		source, err := os.ReadFile(path)
		if err != nil {
			errs = multierr.Append(errs, errors.Wrap(err, "reading input"))
			continue
		}
		output := c.outputPath
		if outDir != "" {
			output = filepath.Join(outDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+".wgsl")
		}
		fileOpts := opts
		fileOpts.Filename = path
		if len(inputs) > 1 && c.listFeatures {
			fmt.Fprintf(stdout, "%s:\n", path)
		}
		errs = multierr.Append(errs, c.process(path, string(source), output, fileOpts, stdout, stderr))
	}
	return errs
}

// expandInputs expands glob patterns. A pattern without glob syntax names a
// file that must exist.
func expandInputs(args []string) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			inputs = append(inputs, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Wrapf(err, "expanding %s", arg)
		}
		if len(matches) == 0 {
			return nil, errors.Errorf("no files match %s", arg)
		}
		inputs = append(inputs, matches...)
	}
	return inputs, nil
}

// options loads the config file and overlays the command-line flags.
func (c *cli) options(inputs []string, logger *slog.Logger) (compiler.Options, error) {
	var cfg *config.Config
	if !c.noConfig {
		var configPath string
		var err error
		if c.configFile != "" {
			cfg, err = config.LoadFile(c.configFile)
			configPath = c.configFile
		} else {
			startDir, _ := os.Getwd()
			if len(inputs) > 0 {
				startDir = filepath.Dir(inputs[0])
			}
			cfg, configPath, err = config.Load(startDir)
		}
		if err != nil {
			return compiler.Options{}, errors.Wrap(err, "loading config")
		}
		if configPath != "" {
			logger.Debug("using config", slog.String("path", configPath))
		}
	}

	var keep []string
	for _, k := range c.keep {
		for _, name := range strings.Split(k, ",") {
			if name = strings.TrimSpace(name); name != "" {
				keep = append(keep, name)
			}
		}
	}

	opts, err := cfg.Merge(config.MergeOptions{
		Features: c.features,
		Keep:     keep,
		Strict:   c.strict,
		NoLower:  c.noLower,
		Minify:   c.minify,
	})
	if err != nil {
		return opts, err
	}
	opts.Logger = logger
	return opts, nil
}

// process compiles one source and writes the result to output, or to
// stdout when output is empty.
func (c *cli) process(name, source, output string, opts compiler.Options, stdout, stderr io.Writer) error {
	if c.listFeatures {
		m, errs := parser.New(source).Parse()
		if len(errs) > 0 {
			return errors.Errorf("%s: %v", name, errs[0])
		}
		for _, f := range condcomp.Flags(m) {
			fmt.Fprintln(stdout, f)
		}
		return nil
	}

	if c.sourceMap && !c.diff {
		opts.SourceMap = true
		if output != "" {
			opts.SourceMapOptions.File = filepath.Base(output)
		}
	}

	result := compiler.New(opts).Compile(source)
	if len(result.Errors) > 0 {
		io.WriteString(stderr, result.Report)
		return errors.Errorf("%s: compilation failed with %d error(s)", name, len(result.Errors))
	}

	if c.diff {
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(source),
			B:        difflib.SplitLines(result.Code),
			FromFile: name,
			ToFile:   name + " (compiled)",
			Context:  3,
		})
		if err != nil {
			return errors.Wrap(err, "diffing output")
		}
		_, err = io.WriteString(stdout, diff)
		return errors.Wrap(err, "writing diff")
	}

	code := result.Code
	if result.SourceMap != nil {
		url := ""
		if output != "" {
			mapPath := output + ".map"
			if err := os.WriteFile(mapPath, []byte(result.SourceMap.JSON()), 0644); err != nil {
				return errors.Wrap(err, "writing source map")
			}
			url = filepath.Base(mapPath)
		}
		if code != "" && !strings.HasSuffix(code, "\n") {
			code += "\n"
		}
		code += result.SourceMap.Comment(url) + "\n"
	}

	var w io.Writer = stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return errors.Wrap(err, "creating output file")
		}
		defer f.Close()
		w = f
	}

	if _, err := io.WriteString(w, code); err != nil {
		return errors.Wrap(err, "writing output")
	}

	// Print stats to stderr if output is to file
	if output != "" {
		s := result.Stats
		ratio := float64(s.OutputSize) / float64(max(s.OriginalSize, 1)) * 100
		fmt.Fprintf(stderr, "Compiled %s: %d -> %d bytes (%.1f%%), %d declarations removed\n",
			name, s.OriginalSize, s.OutputSize, ratio, s.DeclarationsRemoved)
	}
	return nil
}
