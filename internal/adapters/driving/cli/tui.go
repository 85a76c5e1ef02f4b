package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/diligence/internal/adapters/driving/tui"
	"github.com/custodia-labs/diligence/internal/connectors/filesystem"
	"github.com/custodia-labs/diligence/internal/logger"
)

var (
	chatWatchDir string
	chatTier     string
)

var errNotTerminal = errors.New("chat needs an interactive terminal; use 'diligence ask' in scripts")

// chatCmd starts an interactive session.
var chatCmd = &cobra.Command{
	Use:   "chat [files...]",
	Short: "Start an interactive diligence session",
	Long: `Start an interactive session over the given documents.

Type a question and press Enter to get a cited answer. Documents can be
added while chatting with /upload <path>, or by dropping them into the
folder given with --watch.

Controls:
  Enter    - Ask / run command
  Ctrl+G   - Write the investment memo
  Ctrl+T   - Switch between fast and thorough
  Ctrl+R   - Show indexing status
  PgUp/Dn  - Scroll
  F1       - Toggle help
  Ctrl+C   - Quit`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatWatchDir, "watch", "w", "", "upload documents dropped into this folder")
	chatCmd.Flags().StringVar(&chatTier, "tier", "", "model tier for questions (fast or thorough)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errNotTerminal
	}

	ctx := cmd.Context()
	session, closeSession, err := openSession(ctx, chatTier)
	if err != nil {
		return err
	}
	defer closeSession()

	if err := uploadFiles(ctx, cmd, session, args); err != nil {
		return err
	}

	ports := &tui.Ports{Session: session}
	if chatWatchDir != "" {
		watcher, err := filesystem.NewWatcher(chatWatchDir, session.Corpus(), watchSettle)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", chatWatchDir, err)
		}
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.Warn("closing watcher: %v", err)
			}
		}()
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to watch %s: %w", chatWatchDir, err)
		}
		ports.Watch = watcher
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(ctx)

	// The TUI owns the terminal; pipeline logs would corrupt it.
	logger.SetVerbose(false)

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
