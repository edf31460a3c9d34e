package main

import (
	"fmt"
	"io"
	"os"

	"github.com/HendryAvila/rulewright/internal/config"
	"github.com/HendryAvila/rulewright/internal/logging"
	rwserver "github.com/HendryAvila/rulewright/internal/server"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	verbosity int
	baseDir   string

	rootCmd = &cobra.Command{
		Use:   "rulewright",
		Short: "Generate and deploy Cursor rules through an MCP workflow",
		Long: `rulewright is an MCP server that turns a repository description into a
deployed set of Cursor rule documents. Every side effect is returned to the
caller as data; the exec command applies those operations locally.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().StringVar(&baseDir, "base", "", "Repository root (default: current directory)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(previewCmd)
}

// loadConfig resolves configuration for --base and sets up logging. The
// verbose flag overrides the configured level.
func loadConfig(logOut io.Writer, withFile bool) (*config.Config, error) {
	cfg, err := config.Load(baseDir)
	if err != nil {
		return nil, err
	}
	logging.Setup(levelFor(verbosity, cfg.LogLevel), logOut, withFile)
	log.Debug().Str("base_dir", cfg.BaseDir).Str("data_dir", cfg.DataDir).Msg("configuration loaded")
	return cfg, nil
}

func levelFor(verbosity int, configured string) string {
	switch {
	case verbosity >= 3:
		return "trace"
	case verbosity == 2:
		return "debug"
	case verbosity == 1:
		return "info"
	default:
		return configured
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "rulewright v%s\n", rwserver.Version)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout is the MCP transport, so logs go to stderr only.
		cfg, err := loadConfig(os.Stderr, true)
		if err != nil {
			return err
		}

		s, cleanup, err := rwserver.New(cfg)
		if err != nil {
			return fmt.Errorf("creating server: %w", err)
		}
		defer cleanup()

		log.Info().Str("version", rwserver.Version).Msg("serving MCP on stdio")
		return server.ServeStdio(s)
	},
}
