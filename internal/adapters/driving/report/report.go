// Package report renders answers, memos and corpus status as markdown for
// the CLI, TUI and MCP surfaces.
package report

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

// StaleNote is appended to answers produced before the latest upload.
const StaleNote = "_Documents were added after this answer. Ask again to include them._"

// timeLayout formats generation times.
const timeLayout = "2006-01-02 15:04 MST"

// Answer renders a grounded answer followed by its numbered sources.
func Answer(answer *domain.GroundedAnswer, stale bool) string {
	if answer == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(answer.Answer))
	b.WriteString("\n")

	if len(answer.Citations) > 0 {
		b.WriteString("\nSources:\n")
		for i, c := range answer.Citations {
			fmt.Fprintf(&b, "  [%d] %s\n", i+1, citationSource(c))
			if c.Excerpt != "" {
				fmt.Fprintf(&b, "      %q\n", c.Excerpt)
			}
		}
	}
	if stale {
		b.WriteString("\n")
		b.WriteString(StaleNote)
		b.WriteString("\n")
	}
	return b.String()
}

func citationSource(c domain.Citation) string {
	if c.Locator.IsZero() {
		return c.DocumentName
	}
	return fmt.Sprintf("%s (%s)", c.DocumentName, c.Locator)
}

// Memo renders the investment memo: overview, per-dimension findings,
// risks by severity, the recommendation and the sources consulted.
func Memo(memo *domain.InvestmentMemo) string {
	if memo == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("# Investment Memo\n\n")

	b.WriteString("## Overview\n\n")
	fmt.Fprintf(&b, "**Recommendation: %s**\n\n", memo.Verdict.Title())
	if !memo.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "Generated %s from corpus version %d.\n\n",
			memo.GeneratedAt.Format(timeLayout), memo.CorpusVersion)
	}
	b.WriteString("| Dimension | Risk |\n|---|---|\n")
	for _, s := range memo.Sections {
		fmt.Fprintf(&b, "| %s | %s |\n", s.Dimension.Title(), s.Risk.Title())
	}
	b.WriteString("\n")

	b.WriteString("## Findings\n\n")
	for _, s := range memo.Sections {
		fmt.Fprintf(&b, "### %s\n\n", s.Dimension.Title())
		b.WriteString(strings.TrimSpace(s.Answer.Answer))
		b.WriteString("\n\n")
		if sources := s.Answer.Sources(); len(sources) > 0 {
			fmt.Fprintf(&b, "_Cited: %s_\n\n", strings.Join(sources, ", "))
		}
	}

	b.WriteString("## Risks\n\n")
	risks := 0
	for _, label := range []domain.RiskLabel{domain.RiskHigh, domain.RiskMedium, domain.RiskUnknown} {
		for _, s := range memo.Sections {
			if s.Risk != label {
				continue
			}
			risks++
			fmt.Fprintf(&b, "- **%s** %s\n", label.Title(), s.Justification)
		}
	}
	if risks == 0 {
		b.WriteString("No material risks identified.\n")
	}
	b.WriteString("\n")

	b.WriteString("## Recommendation\n\n")
	fmt.Fprintf(&b, "**%s**\n\n", memo.Verdict.Title())
	for _, line := range strings.Split(memo.Rationale, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}
	b.WriteString("\n")

	b.WriteString("## Sources\n\n")
	sources := memo.Sources()
	if len(sources) == 0 {
		b.WriteString("None.\n")
	}
	for _, name := range sources {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	return b.String()
}

// Status renders the corpus readiness and one line per document.
func Status(status domain.CorpusStatus) string {
	var b strings.Builder
	counts := status.Counts()
	fmt.Fprintf(&b, "Corpus: %s (%d indexed, %d pending, %d failed, version %d)\n",
		status.Readiness, counts[domain.IndexIndexed], counts[domain.IndexPending],
		counts[domain.IndexFailed], status.Version)
	for i := range status.Documents {
		doc := &status.Documents[i]
		fmt.Fprintf(&b, "  %-8s %s", doc.Status, doc.Name)
		if doc.Failure != "" {
			fmt.Fprintf(&b, ": %s", doc.Failure)
		}
		b.WriteString("\n")
	}
	return b.String()
}
