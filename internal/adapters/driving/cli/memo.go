package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/diligence/internal/adapters/driving/report"
)

var memoOutput string

var memoCmd = &cobra.Command{
	Use:   "memo [files...]",
	Short: "Write an investment memo for a property",
	Long: `Uploads the given documents and writes an investment memo in Markdown.

The memo asks one grounded question per dimension (property condition,
financial, legal and title, HOA), labels each with a risk level and ends
with a Buy, Cautious Buy or Pass recommendation. Every finding cites its
source documents.

Examples:
  diligence memo inspection.pdf appraisal.pdf hoa.pdf
  diligence memo *.pdf -o memo.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMemo,
}

func init() {
	memoCmd.Flags().StringVarP(&memoOutput, "output", "o", "", "write the memo to a file instead of stdout")
	rootCmd.AddCommand(memoCmd)
}

func runMemo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	session, closeSession, err := openSession(ctx, "")
	if err != nil {
		return err
	}
	defer closeSession()

	if err := uploadFiles(ctx, cmd, session, args); err != nil {
		return err
	}
	if err := waitForCorpus(ctx, cmd, session); err != nil {
		return describeError(err)
	}

	cmd.PrintErrln("Writing memo...")
	memo, err := session.GenerateMemo(ctx)
	if err != nil {
		return describeError(err)
	}

	text := report.Memo(memo)
	if memoOutput == "" {
		cmd.Print(text)
		return nil
	}
	if err := os.WriteFile(memoOutput, []byte(text), 0o600); err != nil {
		return fmt.Errorf("failed to write memo: %w", err)
	}
	cmd.Printf("Memo written to %s (%s)\n", memoOutput, memo.Verdict.Title())
	return nil
}
