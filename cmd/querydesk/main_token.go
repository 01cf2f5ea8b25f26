package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"querydesk-api/config"
	"querydesk-api/internal/utils"
)

type cmdToken struct {
	global *cmdGlobal
	out    io.Writer

	flagUser     string
	flagDuration time.Duration
}

// Command generates the command definition.
func (c *cmdToken) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "token"
	cmd.Short = "Mint a bearer token"
	cmd.Long = `Description:
  Mint a bearer token

  Signs a token for the given principal with JWT_SECRET. The principal
  is recorded as the actor of query history and execution logs.
`
	cmd.RunE = c.Run
	cmd.Flags().StringVarP(&c.flagUser, "user", "u", "", "Principal to embed in the token"+"``")
	cmd.Flags().DurationVar(&c.flagDuration, "duration", 0, "Token lifetime (defaults to JWT_EXPIRATION_MILLISECONDS)"+"``")

	return cmd
}

// Run runs the actual command logic.
func (c *cmdToken) Run(cmd *cobra.Command, args []string) error {
	exit, err := c.global.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	if c.flagUser == "" {
		return fmt.Errorf("--user is required")
	}

	duration := c.flagDuration
	if duration <= 0 {
		duration = time.Duration(config.Env.JWTExpirationMilliseconds) * time.Millisecond
	}

	token, err := utils.NewJWTService(config.Env.JWTSecret, duration).GenerateToken(c.flagUser)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, *token)
	return nil
}
