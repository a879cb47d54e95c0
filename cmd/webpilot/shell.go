package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"webpilot-go/presentation"
)

const shellHelp = `Commands:
  open <url>    open a web page
  help          show this help
  exit          leave the shell
Any other line is pursued as an objective on the current page.`

var shellURL string

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive session: open pages and pursue objectives line by line",
	RunE:  runShellCmd,
}

func init() {
	shellCmd.Flags().StringVarP(&shellURL, "url", "u", "", "web page to open on start")
}

func runShellCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := startApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	bridge := presentation.NewProgressBridge(&presentation.BridgeConfig{
		EventBus: a.eventBus,
		AgentID:  a.coordinator.AgentID(),
		Logger:   a.logger,
	})
	bridge.SetCallbacks(progressCallbacks(cmd.ErrOrStderr()))

	out := cmd.OutOrStdout()
	if shellURL != "" {
		fmt.Fprintln(out, a.coordinator.OpenPage(ctx, shellURL))
	}
	return runShell(ctx, a.coordinator, cmd.InOrStdin(), out)
}

// runShell reads one command per line from in until EOF, exit or ctx is done.
func runShell(ctx context.Context, pilot presentation.Pilot, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	prompt := func() { fmt.Fprint(out, "webpilot> ") }

	prompt()
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "exit" || line == "quit":
			return nil
		case line == "help":
			fmt.Fprintln(out, shellHelp)
		case line == "open":
			fmt.Fprintln(out, "usage: open <url>")
		case strings.HasPrefix(line, "open "):
			fmt.Fprintln(out, pilot.OpenPage(ctx, strings.TrimSpace(strings.TrimPrefix(line, "open "))))
		default:
			fmt.Fprintln(out, pilot.PerformAction(ctx, line))
		}
		prompt()
	}
	return scanner.Err()
}
