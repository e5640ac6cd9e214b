package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/endfgo/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

const usage = `
endfc - Read and write ENDF-6 tapes with declarative recipes.

Usage:
  endfc parse [options] TAPE       Parse an ENDF-6 tape into YAML or JSON.
  endfc write [options] MAPPING    Write a YAML or JSON mapping as an ENDF-6 tape.
  endfc get -path P [options] MAPPING
                                   Print the value at a slash-separated path.
  endfc show [-path P] [-level N] MAPPING
                                   List the entries of a mapping, N levels deep.

Options:
`

// Parse processes command-line arguments. The first argument names the
// command. It returns a populated app.Config, a boolean indicating if the
// program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("endfc", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, usage)
		flagSet.PrintDefaults()
	}

	recipesFlag := flagSet.String("recipes", "", "Recipe file or directory. Defaults to the built-in recipes.")
	optionsFlag := flagSet.String("options", "", "HCL file with an options block controlling validation.")
	formatFlag := flagSet.String("format", "yaml", "Output format for parse and get. Options: 'yaml' or 'json'.")
	pathFlag := flagSet.String("path", "", "Mapping path for get and show, e.g. 3/1/xstable/E.")
	levelFlag := flagSet.Int("level", 0, "Mapping levels show expands.")
	interpretFlag := flagSet.Bool("interpret", false, "Interpret recipes directly instead of compiling them.")
	workersFlag := flagSet.Int("workers", 4, "Number of sections processed concurrently.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if len(args) == 0 || args[0] == "help" {
		flagSet.Usage()
		return nil, true, nil
	}

	command := args[0]
	if strings.HasPrefix(command, "-") {
		// Flags before the command only make sense for -h.
		command = ""
	} else {
		args = args[1:]
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.", "command", command)

	if flagSet.NArg() != 1 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("expected exactly one input file, got %d", flagSet.NArg())}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		Command:     command,
		InputPath:   flagSet.Arg(0),
		RecipesPath: *recipesFlag,
		OptionsPath: *optionsFlag,
		Format:      strings.ToLower(*formatFlag),
		Path:        *pathFlag,
		Level:       *levelFlag,
		Interpret:   *interpretFlag,
		WorkerCount: *workersFlag,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
