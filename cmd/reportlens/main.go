// main.go - command line entry point for reportlens
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"reportlens/internal"
)

// Command defines the interface for all command implementations
type Command interface {
	// Name returns the command name
	Name() string
	// Description returns the command description
	Description() string
	// Execute runs the command with the given app and args
	Execute(ctx context.Context, app *internal.Application, args []string) error
}

// stdout receives command output; tests swap it.
var stdout io.Writer = os.Stdout

// The set of available commands
var commands []Command

func init() {
	commands = []Command{
		&AnalyzeCommand{},
		&ImportCommand{},
		&CompareCommand{},
		&SnapshotsCommand{},
		&MigrateCommand{},
		&ServeCommand{},
		&WatchCommand{},
		&HelpCommand{},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmdName, args := parseArgs(os.Args[1:])

	cmd := findCommand(cmdName)
	if cmd == nil {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	var app *internal.Application
	if cmd.Name() != "help" {
		var err error
		app, err = internal.NewApp()
		if err != nil {
			log.Fatalf("Failed to initialize app: %v", err)
		}
	}

	if err := cmd.Execute(ctx, app, args); err != nil {
		log.Fatalf("Command %s failed: %v", cmd.Name(), err)
	}
}

// parseArgs parses the command name and arguments
func parseArgs(args []string) (string, []string) {
	if len(args) == 0 {
		return "help", []string{}
	}
	return args[0], args[1:]
}

// findCommand finds a command by name
func findCommand(name string) Command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: reportlens [command] [args...]")
	fmt.Fprintln(w, "Available commands:")

	for _, cmd := range commands {
		fmt.Fprintf(w, "  %s: %s\n", cmd.Name(), cmd.Description())
	}
}
