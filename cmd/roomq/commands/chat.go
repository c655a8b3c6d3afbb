package commands

import (
	"bufio"
	"context"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/roomq/logger"
)

// ChatCmd answers questions read from stdin until EOF or "exit"
var ChatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions interactively",
	Long: `Read questions line by line and answer each one. When timeseries.watch
is set the tables are reloaded as sensor files change.

Type "exit" or press Ctrl-D to leave.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	if a.store != nil && a.cfg.Timeseries.Watch {
		if err := a.store.Watch(ctx); err != nil {
			a.log.Warnw("File watching disabled", logger.FieldDir, a.store.Dir(), logger.FieldError, err.Error())
		}
	}

	verbose, _ := cmd.Flags().GetCount("verbose")
	pterm.DefaultHeader.Println("roomq chat")
	pterm.Info.Println(`Ask about rooms, AC units or occupancy. Type "exit" to quit.`)

	in := bufio.NewScanner(cmd.InOrStdin())
	for {
		pterm.Print(pterm.Cyan("? "))
		if !in.Scan() {
			break
		}
		question := strings.TrimSpace(in.Text())
		switch question {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		renderOutcome(a.resolver.Resolve(ctx, question), verbose > 0)
	}
	return in.Err()
}
