package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/EightFlix/Error/internal/config"
	"github.com/EightFlix/Error/internal/logger"
	"github.com/EightFlix/Error/internal/mcp"
	"github.com/EightFlix/Error/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// HomeEnv overrides the base directory holding config.json and the SQLite file.
const HomeEnv = "EIGHTFLIX_HOME"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"search": true, "page": true, "get": true, "save": true,
	"update-caption": true, "update-quality": true, "delete": true,
	"health": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	return isHelpOrVersion()
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func printBanner() {
	fmt.Println(`
  eightflix - media catalogue search

  Usage: eightflix <command> [options]
         eightflix --help

  MCP server mode requires piped input.`)
}

// baseDir resolves where config and data live.
func baseDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".eightflix"), nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before opening the store
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil, nil)
		if err := app.Run(os.Args); err != nil {
			fatal("%v", err)
		}
		return
	}

	if len(os.Args) >= 2 && !isCLIMode() && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'eightflix --help' for usage.\n")
		os.Exit(1)
	}

	dir, err := baseDir()
	if err != nil {
		fatal("%v", err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		log.Warn("unknown tools in disabled_tools", "tools", unknown)
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		log.Warn("unknown types in disabled_types", "types", unknown)
	}

	store, err := openStore(context.Background(), dir, cfg, log)
	if err != nil {
		fatal("failed to open %s store: %v", cfg.Backend, err)
	}
	catalog := ops.NewCatalog(store, cfg, log)
	defer catalog.Close()

	if isCLIMode() {
		app := newCLIApp(catalog, cfg, log)
		if err := app.Run(os.Args); err != nil {
			catalog.Close()
			// Commands that already printed their result exit with an empty message.
			var exit cli.ExitCoder
			if stderrors.As(err, &exit) && err.Error() == "" {
				os.Exit(exit.ExitCode())
			}
			fatal("%v", err)
		}
		return
	}

	// MCP server mode (default)
	if err := mcp.Run(catalog, cfg, Version); err != nil {
		catalog.Close()
		fatal("%v", err)
	}
}
