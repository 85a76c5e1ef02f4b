package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/diligence/internal/adapters/driving/report"
	"github.com/custodia-labs/diligence/internal/core/domain"
)

var (
	askFiles []string
	askTier  string
	askJSON  bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about diligence documents",
	Long: `Uploads the given documents, waits for them to be indexed and answers the
question using only their content. Every claim in the answer cites the
document and page it came from. When the documents do not cover the
question the answer says so instead of guessing.

Examples:
  diligence ask "How old is the roof?" -f inspection.pdf -f disclosure.docx
  diligence ask "What are the monthly HOA dues?" -f hoa.pdf --tier thorough`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringSliceVarP(&askFiles, "file", "f", nil, "document to upload (repeatable)")
	askCmd.Flags().StringVar(&askTier, "tier", "", "model tier: fast or thorough")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	session, closeSession, err := openSession(ctx, askTier)
	if err != nil {
		return err
	}
	defer closeSession()

	if err := uploadFiles(ctx, cmd, session, askFiles); err != nil {
		return err
	}
	if err := waitForCorpus(ctx, cmd, session); err != nil {
		return describeError(err)
	}

	turn, err := session.Ask(ctx, args[0])
	if err != nil {
		return describeError(err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, turn.Answer)
	}
	cmd.Print(report.Answer(turn.Answer, session.IsStale(turn.Answer.CorpusVersion)))
	return nil
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.GroundedAnswer) error {
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
