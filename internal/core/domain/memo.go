package domain

import "time"

// Dimension is a named diligence dimension covered by the investor memo.
type Dimension string

// Memo dimensions, in memo order.
const (
	DimensionCondition Dimension = "condition"
	DimensionFinancial Dimension = "financial"
	DimensionLegal     Dimension = "legal"
	DimensionHOA       Dimension = "hoa"
)

// AllDimensions returns the memo dimensions in memo order.
func AllDimensions() []Dimension {
	return []Dimension{
		DimensionCondition,
		DimensionFinancial,
		DimensionLegal,
		DimensionHOA,
	}
}

// String returns the string representation.
func (d Dimension) String() string {
	return string(d)
}

// Title returns the section heading for the dimension.
func (d Dimension) Title() string {
	switch d {
	case DimensionCondition:
		return "Property Condition"
	case DimensionFinancial:
		return "Financial Risk"
	case DimensionLegal:
		return "Legal & Title Risk"
	case DimensionHOA:
		return "HOA Risk"
	default:
		return unknownDescription
	}
}

// RiskLabel is the derived risk of one memo section.
type RiskLabel string

// Risk labels.
const (
	RiskUnknown RiskLabel = "unknown"
	RiskLow     RiskLabel = "low"
	RiskMedium  RiskLabel = "medium"
	RiskHigh    RiskLabel = "high"
)

// String returns the string representation.
func (r RiskLabel) String() string {
	return string(r)
}

// Title returns the capitalised label for display.
func (r RiskLabel) Title() string {
	switch r {
	case RiskLow:
		return "Low"
	case RiskMedium:
		return "Medium"
	case RiskHigh:
		return "High"
	default:
		return unknownDescription
	}
}

// Verdict is the final investment recommendation.
type Verdict string

// Investment verdicts.
const (
	VerdictBuy         Verdict = "buy"
	VerdictCautiousBuy Verdict = "cautious_buy"
	VerdictPass        Verdict = "pass"
)

// String returns the string representation.
func (v Verdict) String() string {
	return string(v)
}

// Title returns the verdict as shown to analysts.
func (v Verdict) Title() string {
	switch v {
	case VerdictBuy:
		return "Buy"
	case VerdictCautiousBuy:
		return "Cautious Buy"
	case VerdictPass:
		return "Pass"
	default:
		return unknownDescription
	}
}

// MemoSection is one diligence dimension of the investor memo.
type MemoSection struct {
	// Dimension names the section.
	Dimension Dimension

	// Question is the template question asked for the section.
	Question string

	// Answer is the grounded answer to Question.
	Answer GroundedAnswer

	// Risk is derived from Answer by the risk classifier.
	Risk RiskLabel

	// Justification is a one-line explanation of Risk.
	Justification string

	// Signals are the phrases that drove the classification.
	Signals []string
}

// InvestmentMemo is the synthesized recommendation for a corpus.
type InvestmentMemo struct {
	// Sections holds one entry per dimension in memo order.
	Sections []MemoSection

	// Verdict is the aggregated recommendation.
	Verdict Verdict

	// Rationale joins the section justifications, one per line.
	Rationale string

	// CorpusVersion is the corpus version the memo was computed against.
	CorpusVersion int

	// GeneratedAt is when the memo was produced.
	GeneratedAt time.Time
}

// Section returns the section for a dimension.
func (m *InvestmentMemo) Section(d Dimension) (MemoSection, bool) {
	for _, s := range m.Sections {
		if s.Dimension == d {
			return s, true
		}
	}
	return MemoSection{}, false
}

// Sources returns the distinct filenames cited anywhere in the memo.
func (m *InvestmentMemo) Sources() []string {
	seen := make(map[string]bool)
	var names []string
	for i := range m.Sections {
		for _, name := range m.Sections[i].Answer.Sources() {
			if seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
