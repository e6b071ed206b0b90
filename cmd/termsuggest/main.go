// Command termsuggest completes shell command lines from the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atinylittleshell/termsuggest/internal/core"
	"github.com/atinylittleshell/termsuggest/internal/history"
	"github.com/atinylittleshell/termsuggest/internal/prompt"
	"github.com/atinylittleshell/termsuggest/internal/styles"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

var BUILD_VERSION = "dev"

func main() {
	styled := term.IsTerminal(int(os.Stdout.Fd()))
	if err := newApp(os.Stdout, os.Stderr, styled).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, styles.ERROR("termsuggest: "+err.Error()))
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer, styled bool) *cli.Command {
	lineFlags := func(extra cli.Flag) []cli.Flag {
		return []cli.Flag{
			&cli.IntFlag{
				Name:  "cursor",
				Value: -1,
				Usage: "Cursor byte offset in the line, -1 for the end",
			},
			&cli.StringFlag{
				Name:  "ghost",
				Usage: "Ghost text the shell shows after the line",
			},
			&cli.BoolFlag{
				Name:  "explicit",
				Usage: "Invoke completion directly instead of as-you-type",
			},
			extra,
		}
	}

	return &cli.Command{
		Name:    "termsuggest",
		Usage:   "Complete shell command lines",
		Version: BUILD_VERSION,
		Writer:  stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   core.ConfigFile(),
				Usage:   "Path to the YAML settings file",
				Sources: cli.EnvVars("TERMSUGGEST_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error), overrides the settings file",
				Sources: cli.EnvVars("TERMSUGGEST_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:  "log-file",
				Value: core.LogFile(),
				Usage: "Path to the log file",
			},
			&cli.StringFlag{
				Name:    "shell",
				Value:   "bash",
				Usage:   "Shell dialect: bash, zsh, fish, sh, pwsh, cmd, gitbash or python",
				Sources: cli.EnvVars("TERMSUGGEST_SHELL"),
			},
			&cli.StringFlag{
				Name:  "cwd",
				Usage: "Directory relative paths complete from, defaults to the working directory",
			},
			&cli.StringFlag{
				Name:  "rc",
				Usage: "Bash script declaring completion specs with the complete builtin",
			},
			&cli.StringFlag{
				Name:  "history",
				Value: core.HistoryFile(),
				Usage: "Path to the command history database, empty to disable",
			},
			&cli.BoolFlag{
				Name:  "builtin-only",
				Usage: "Only query built-in providers",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "complete",
				Usage:     "Print the ranked candidates for a command line",
				ArgsUsage: "LINE",
				Flags: lineFlags(&cli.IntFlag{
					Name:  "limit",
					Usage: "Print at most this many candidates, 0 for all",
				}),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					e, err := newEngine(ctx, optionsFrom(cmd, stderr))
					if err != nil {
						return err
					}
					defer e.Close()

					items, err := e.complete(ctx, stateFrom(cmd), cmd.Bool("explicit"))
					if err != nil {
						return err
					}
					if limit := cmd.Int("limit"); limit > 0 && len(items) > limit {
						items = items[:limit]
					}
					return renderItems(stdout, items, styled)
				},
			},
			{
				Name:      "accept",
				Usage:     "Print the keys that accept a candidate and the resulting line",
				ArgsUsage: "LINE",
				Flags: lineFlags(&cli.IntFlag{
					Name:  "index",
					Usage: "Index of the candidate as printed by complete",
				}),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					e, err := newEngine(ctx, optionsFrom(cmd, stderr))
					if err != nil {
						return err
					}
					defer e.Close()

					edits, buffer, err := e.accept(ctx, stateFrom(cmd), cmd.Bool("explicit"), cmd.Int("index"))
					if err != nil {
						return err
					}
					return renderAccepted(stdout, edits, buffer.Text(), edits.Submits(), styled)
				},
			},
			{
				Name:      "record",
				Usage:     "Add an executed command line to the history",
				ArgsUsage: "COMMAND",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "exit-code",
						Usage: "Exit code of the command",
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					command := strings.Join(cmd.Args().Slice(), " ")
					if strings.TrimSpace(command) == "" {
						return fmt.Errorf("no command to record")
					}
					path := cmd.String("history")
					if path == "" {
						return fmt.Errorf("history is disabled")
					}
					cwd := cmd.String("cwd")
					if cwd == "" {
						cwd, _ = os.Getwd()
					}

					manager, err := history.NewHistoryManager(path, nil)
					if err != nil {
						return err
					}
					defer manager.Close()
					if _, err := manager.RecordCommand(command, cwd, cmd.Int("exit-code")); err != nil {
						return err
					}
					return renderRecorded(stdout, command, styled)
				},
			},
			{
				Name:      "specs",
				Usage:     "Print the completion specs declared by the rc script",
				ArgsUsage: "[COMMAND...]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					e, err := newEngine(ctx, optionsFrom(cmd, stderr))
					if err != nil {
						return err
					}
					defer e.Close()

					out, err := e.specs.Describe(ctx, cmd.Args().Slice()...)
					if err != nil {
						return err
					}
					_, err = io.WriteString(stdout, out)
					return err
				},
			},
		},
	}
}

func optionsFrom(cmd *cli.Command, stderr io.Writer) engineOptions {
	return engineOptions{
		Stderr:      stderr,
		ConfigFile:  cmd.String("config"),
		LogFile:     cmd.String("log-file"),
		LogLevel:    cmd.String("log-level"),
		Shell:       cmd.String("shell"),
		Cwd:         cmd.String("cwd"),
		RCFile:      cmd.String("rc"),
		HistoryFile: cmd.String("history"),
		BuiltinOnly: cmd.Bool("builtin-only"),
	}
}

// stateFrom builds the prompt from the line arguments. Ghost text is
// appended after the line and never contains the cursor.
func stateFrom(cmd *cli.Command) prompt.State {
	line := strings.Join(cmd.Args().Slice(), " ")
	cursor := cmd.Int("cursor")
	if cursor < 0 || cursor > len(line) {
		cursor = len(line)
	}

	ghost := cmd.String("ghost")
	if ghost == "" {
		return prompt.NewState(line, cursor, -1)
	}
	return prompt.NewState(line+ghost, cursor, len(line))
}
