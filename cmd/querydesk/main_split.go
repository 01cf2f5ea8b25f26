package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"querydesk-api/pkg/dbmanager"
)

type cmdSplit struct {
	global *cmdGlobal
	in     io.Reader
	out    io.Writer

	flagSkipComments bool
}

// Command generates the command definition.
func (c *cmdSplit) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "split"
	cmd.Short = "Split a SQL block read from stdin"
	cmd.Long = `Description:
  Split a SQL block read from stdin

  Prints every statement with its ordinal, leading verb and the
  object name and action it would be reported under. Nothing is
  executed.
`
	cmd.RunE = c.Run
	cmd.Flags().BoolVar(&c.flagSkipComments, "skip-comments", false, "Hide comment-only statements")

	return cmd
}

// Run runs the actual command logic.
func (c *cmdSplit) Run(cmd *cobra.Command, args []string) error {
	exit, err := c.global.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	raw, err := io.ReadAll(c.in)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	data := [][]string{}
	for _, stmt := range dbmanager.Split(string(raw)) {
		ordinal := strconv.Itoa(stmt.Ordinal)
		if dbmanager.IsOnlyComment(stmt.Text) {
			if !c.flagSkipComments {
				data = append(data, []string{ordinal, "-", "-", "-", summarize(stmt.Text)})
			}
			continue
		}

		name, action := "?", "?"
		class, ok := dbmanager.Classify(stmt.Text)
		if ok {
			name, action = class.Name, class.Action
		}
		data = append(data, []string{ordinal, dbmanager.Verb(stmt.Text), name, action, summarize(stmt.Text)})
	}

	table := tablewriter.NewWriter(c.out)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"#", "VERB", "NAME", "ACTION", "STATEMENT"})
	table.AppendBulk(data)
	table.Render()

	return nil
}

func summarize(text string) string {
	const limit = 60
	line := []rune(text)
	for i, r := range line {
		if r == '\n' || r == '\r' || r == '\t' {
			line[i] = ' '
		}
	}
	if len(line) > limit {
		return string(line[:limit-3]) + "..."
	}
	return string(line)
}
