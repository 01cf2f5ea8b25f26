package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"querydesk-api/config"
	"querydesk-api/pkg/logger"
)

type cmdGlobal struct {
	flagHelp     bool
	flagLogLevel string
}

func main() {
	app := newApp(os.Stdin, os.Stdout)

	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func newApp(stdin io.Reader, stdout io.Writer) *cobra.Command {
	app := &cobra.Command{}
	app.Use = "querydesk"
	app.Short = "SQL query proxy for registered external databases"
	app.Long = `Description:
  SQL query proxy for registered external databases

  Runs statement batches against PostgreSQL and MySQL databases,
  optionally through an SSH tunnel, and pages or exports their results.
`
	app.SilenceUsage = true
	app.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}

	// Global flags.
	globalCmd := cmdGlobal{}
	app.PersistentFlags().BoolVarP(&globalCmd.flagHelp, "help", "h", false, "Print help")
	app.PersistentFlags().StringVar(&globalCmd.flagLogLevel, "log-level", "", "Override LOG_LEVEL"+"``")
	app.PersistentPreRunE = globalCmd.PreRun

	// Help handling.
	app.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	// serve sub-command.
	serveCmd := cmdServe{global: &globalCmd}
	app.AddCommand(serveCmd.Command())

	// split sub-command.
	splitCmd := cmdSplit{global: &globalCmd, in: stdin, out: stdout}
	app.AddCommand(splitCmd.Command())

	// token sub-command.
	tokenCmd := cmdToken{global: &globalCmd, out: stdout}
	app.AddCommand(tokenCmd.Command())

	return app
}

// PreRun loads the environment and sets up logging for every sub-command.
func (c *cmdGlobal) PreRun(cmd *cobra.Command, args []string) error {
	err := config.LoadEnv()
	if err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}

	level := config.Env.LogLevel
	if c.flagLogLevel != "" {
		level = c.flagLogLevel
	}

	return logger.InitLogger(level, config.Env.IsProduction(), nil)
}

// CheckArgs validates the number of arguments passed to the function and shows the help if incorrect.
func (c *cmdGlobal) CheckArgs(cmd *cobra.Command, args []string, minArgs int, maxArgs int) (bool, error) {
	if len(args) < minArgs || (maxArgs != -1 && len(args) > maxArgs) {
		_ = cmd.Help()

		if len(args) == 0 {
			return true, nil
		}

		return true, fmt.Errorf("Invalid number of arguments")
	}

	return false, nil
}
