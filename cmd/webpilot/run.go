package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"webpilot-go/application/agent"
	"webpilot-go/presentation"
)

var (
	runURL       string
	runObjective string
	runQuiet     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open a page and pursue one objective",
	Example: `  webpilot run --url https://example.com --objective "find the contact email"`,
	RunE: runOnce,
}

func init() {
	runCmd.Flags().StringVarP(&runURL, "url", "u", "", "web page to open")
	runCmd.Flags().StringVarP(&runObjective, "objective", "o", "", "objective to pursue on the page")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "print only the final message")
	_ = runCmd.MarkFlagRequired("url")
	_ = runCmd.MarkFlagRequired("objective")
}

func runOnce(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := startApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if !runQuiet {
		bridge := presentation.NewProgressBridge(&presentation.BridgeConfig{
			EventBus: a.eventBus,
			AgentID:  a.coordinator.AgentID(),
			Logger:   a.logger,
		})
		// Left subscribed so events still queued are printed when the bus drains.
		bridge.SetCallbacks(progressCallbacks(cmd.ErrOrStderr()))
	}

	opened := a.coordinator.OpenPage(ctx, runURL)
	if opened != agent.PageOpenedMessage {
		return errors.New(opened)
	}

	fmt.Fprintln(cmd.OutOrStdout(), a.coordinator.PerformAction(ctx, runObjective))
	return nil
}
