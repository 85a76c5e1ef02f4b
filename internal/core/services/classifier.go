package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

// longAnswerWords is the length above which a single medium cue is enough.
const longAnswerWords = 180

// highRiskPatterns are findings that alone make a section High risk.
var highRiskPatterns = compilePatterns(
	`active (termite|pest|wood[- ]destroying insect)s? infestation`,
	`termite (infestation|activity|damage)`,
	`structural (failure|damage|defects?|deficienc(y|ies)|compromise)`,
	`foundation (failure|damage|movement|settlement|repairs? (is|are) required)`,
	`\b(black )?mou?ld\b`,
	`asbestos`,
	`\bliens?\b`,
	`litigation|lawsuits?`,
	`special assessments?`,
	`underfunded reserves?|reserves? (is |are )?underfunded|reserve shortfall`,
	`unpermitted (work|additions?|construction|renovations?|alterations?)`,
	`title defects?|cloud on (the )?title`,
	`foreclosure`,
	`roof (failure|collapse)`,
)

// mediumRiskCues are findings that each add to the medium score.
var mediumRiskCues = compilePatterns(
	`\brepairs?\b`,
	`\brecommend(s|ed|ation|ations)?\b`,
	`\bmonitor(ed|ing)?\b`,
	`\bminor\b`,
	`wear and tear|\bworn\b`,
	`\baging\b|\baged\b`,
	`deferred maintenance`,
	`\breplace(ment|d)?\b`,
	`\bcrack(s|ed|ing)?\b`,
	`\bleak(s|ed|ing|age)?\b`,
	`moisture|water stain(s|ed|ing)?`,
	`end of (its |their )?(useful|service) life`,
	`\bincreas(e|es|ed|ing)\b`,
	`past due|delinquen(t|cy|cies)`,
	`easements?`,
	`encroach(es|ed|ment|ments)?`,
	`violations?`,
	`lead[- ]based paint`,
	`\bradon\b`,
)

// reassuranceCues are findings that offset medium cues.
var reassuranceCues = compilePatterns(
	`good (condition|repair|working order)`,
	`well[- ]maintained`,
	`no (significant|major|material|known) (issues|defects|concerns|problems)`,
	`functioning (properly|as intended|normally)`,
	`\bsatisfactory`,
	`(fully|adequately|well) funded`,
	`clear title|free and clear`,
	`within normal`,
	`recently (replaced|updated|renovated|serviced)`,
	`up to code`,
)

// negationBefore marks a finding as absent when a negator directly governs
// it, e.g. "no evidence of mold" or "no mold, asbestos, or radon". It is
// matched against the end of the clause text before the finding, so a "not"
// elsewhere in the clause ("did not disclose the mold") does not count, and a
// comma ends its reach unless it separates short list items.
var negationBefore = regexp.MustCompile(
	`\b(?:no|not|never|without|none of|free of|absence of|lack of|ruled out|cleared of|` +
		`previously (?:treated|repaired|remediated))\s+` + negationFiller + `{0,3}` +
		`(?:[\w'-]+(?:\s+[\w'-]+){0,2}\s*(?:,\s*(?:(?:and|or|nor)\s+)?|\s+(?:or|nor)\s+)` + negationFiller + `*)*$`)

// negationFiller is a word that may sit between a negator and what it denies.
const negationFiller = `(?:(?:(?:evidence|signs?|indications?|history|records?|reports?|traces?|presence) of|` +
	`subject to|any|an?|the|in|yet|currently|known|reported|visible|observed|apparent|active|current|` +
	`significant|major|material|further|outstanding|pending|recorded|open|existing)\s+)`

// negationAfter marks a finding as absent when a denial follows it within a
// few words, e.g. "mold was not found" or "the lien was released".
var negationAfter = regexp.MustCompile(
	`^\s*(?:\w+\s+){0,3}?(?:not (?:found|observed|detected|present|identified)|none (?:found|observed)|` +
		`ruled out|(?:has been|have been|was|were)(?: (?:previously|since|fully|successfully))? ` +
		`(?:resolved|remediated|repaired|released|dismissed|treated|cured|settled))\b`)

// clauseBreak separates clauses for negation scoping.
var clauseBreak = regexp.MustCompile(`[.;:!?\n]|\b(?:but|however|although|though|while|whereas)\b`)

func compilePatterns(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return compiled
}

// Classification is the risk label for one memo section.
type Classification struct {
	// Risk is the derived label.
	Risk domain.RiskLabel

	// Justification is a one-line explanation of Risk.
	Justification string

	// Signals are the phrases that drove the label.
	Signals []string
}

// RiskClassifier derives a risk label from a grounded answer.
// It is deterministic: the same answer always gets the same label.
type RiskClassifier struct{}

// NewRiskClassifier creates a classifier.
func NewRiskClassifier() *RiskClassifier {
	return &RiskClassifier{}
}

// Classify labels a section answer.
//
//   - Ungrounded answers are Unknown.
//   - Any non-negated high-risk finding is High.
//   - Otherwise medium cues minus reassurance cues decide: 2 or more is
//     Medium, 1 is Medium only for long answers, anything else is Low.
func (c *RiskClassifier) Classify(dimension domain.Dimension, answer *domain.GroundedAnswer) Classification {
	title := dimension.Title()
	if !answer.IsGrounded() {
		return Classification{
			Risk:          domain.RiskUnknown,
			Justification: title + ": unknown, the documents hold insufficient evidence",
		}
	}

	text := strings.ToLower(citationMarker.ReplaceAllString(answer.Answer, ""))

	if high := findAffirmed(text, highRiskPatterns); len(high) > 0 {
		return Classification{
			Risk:          domain.RiskHigh,
			Justification: fmt.Sprintf("%s: high risk (%s)", title, strings.Join(high, ", ")),
			Signals:       high,
		}
	}

	medium := findAffirmed(text, mediumRiskCues)
	reassurance := findAffirmed(text, reassuranceCues)
	score := len(medium) - len(reassurance)
	long := len(strings.Fields(text)) > longAnswerWords

	if score >= 2 || (score >= 1 && long) {
		return Classification{
			Risk:          domain.RiskMedium,
			Justification: fmt.Sprintf("%s: medium risk (%s)", title, strings.Join(medium, ", ")),
			Signals:       medium,
		}
	}

	justification := title + ": low risk, no material issues found"
	if len(medium) > 0 {
		justification = fmt.Sprintf("%s: low risk, minor findings only (%s)", title, strings.Join(medium, ", "))
	}
	return Classification{
		Risk:          domain.RiskLow,
		Justification: justification,
		Signals:       append(medium, reassurance...),
	}
}

// Aggregate combines section labels into a verdict.
// Any High is Pass; otherwise any Medium or Unknown is Cautious Buy;
// otherwise Buy. Raising any label never improves the verdict.
func Aggregate(labels []domain.RiskLabel) domain.Verdict {
	verdict := domain.VerdictBuy
	for _, label := range labels {
		switch label {
		case domain.RiskHigh:
			return domain.VerdictPass
		case domain.RiskMedium, domain.RiskUnknown:
			verdict = domain.VerdictCautiousBuy
		}
	}
	return verdict
}

// findAffirmed returns the distinct matches that are not negated in their clause.
func findAffirmed(text string, patterns []*regexp.Regexp) []string {
	var found []string
	seen := make(map[string]bool)
	for _, re := range patterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			match := text[loc[0]:loc[1]]
			if seen[match] || negated(text, loc[0], loc[1]) {
				continue
			}
			seen[match] = true
			found = append(found, match)
		}
	}
	return found
}

// negated reports whether text[start:end] sits in a clause that denies it.
func negated(text string, start, end int) bool {
	clauseStart := 0
	for _, loc := range clauseBreak.FindAllStringIndex(text[:start], -1) {
		clauseStart = loc[1]
	}
	clauseEnd := len(text)
	if loc := clauseBreak.FindStringIndex(text[end:]); loc != nil {
		clauseEnd = end + loc[0]
	}
	return negationBefore.MatchString(text[clauseStart:start]) ||
		negationAfter.MatchString(text[end:clauseEnd])
}
