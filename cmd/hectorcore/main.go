// Command hectorcore is the CLI for the orchestration core.
//
// Usage:
//
//	hectorcore ask "what files are in this repo?"
//	hectorcore chat --session my-session
//	hectorcore info
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/hectorcore/hectorcore/internal/config"
	"github.com/hectorcore/hectorcore/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hectorcore",
		Short: "Multi-agent orchestration core: router, reasoning loop, memory, safety guard",
	}

	root.PersistentFlags().String("config", "", "path to YAML config file (empty: built-in defaults)")
	root.PersistentFlags().String("project-dir", ".", "root directory the project-context loader and filesystem tools are scoped to")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-file", "", "log file path (empty: stderr)")

	root.AddCommand(newAskCmd(), newChatCmd(), newInfoCmd(), newVersionCmd())
	return root
}

// buildAppFromRootFlags loads config and wires every subsystem, using
// whatever persistent flags were set on the invoked command's root.
func buildAppFromRootFlags(cmd *cobra.Command) (*app, error) {
	flags := cmd.Root().PersistentFlags()
	configPath, _ := flags.GetString("config")
	projectDir, _ := flags.GetString("project-dir")
	logLevel, _ := flags.GetString("log-level")
	logFile, _ := flags.GetString("log-file")

	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("hectorcore: invalid log level %q: %w", logLevel, err)
	}
	output := os.Stderr
	if logFile != "" {
		f, _, err := logging.OpenLogFile(logFile)
		if err != nil {
			return nil, fmt.Errorf("hectorcore: open log file: %w", err)
		}
		output = f
	}
	logging.Init(level, output)

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("hectorcore: load config: %w", err)
	}

	return buildApp(cfg, projectDir)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			version := "dev"
			if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
				version = info.Main.Version
			}
			fmt.Printf("hectorcore version %s\n", version)
			return nil
		},
	}
}
