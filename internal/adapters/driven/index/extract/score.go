package extract

import (
	"sort"
	"strings"
	"unicode"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

// minTermLength drops short tokens such as "a" or "is" from scoring.
const minTermLength = 3

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "are": {}, "for": {}, "with": {}, "that": {}, "this": {},
	"what": {}, "which": {}, "who": {}, "how": {}, "does": {}, "from": {}, "have": {},
	"has": {}, "was": {}, "were": {}, "any": {}, "there": {}, "their": {}, "about": {},
	"into": {}, "can": {}, "will": {}, "should": {}, "would": {}, "could": {}, "not": {},
	"you": {}, "your": {}, "our": {}, "its": {}, "been": {}, "being": {}, "they": {},
	"them": {}, "than": {}, "then": {}, "when": {}, "where": {}, "why": {}, "all": {},
	"also": {}, "but": {}, "did": {}, "onto": {}, "per": {}, "via": {}, "these": {},
	"those": {}, "property": {}, "document": {}, "documents": {},
}

// Terms returns the distinct lower-cased query terms used for scoring.
func Terms(text string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, tok := range Tokenize(text) {
		if len([]rune(tok)) < minTermLength {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		terms = append(terms, tok)
	}
	return terms
}

// Tokenize splits text into lower-cased alphanumeric tokens.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// TermCoverage returns the share of terms present in text, in 0..1.
// A term matches a token equal to it or sharing its stem, so "leak"
// matches "leaks" and "leaking".
func TermCoverage(terms []string, text string) float64 {
	if len(terms) == 0 {
		return 0
	}

	tokens := make(map[string]struct{})
	for _, tok := range Tokenize(text) {
		tokens[tok] = struct{}{}
	}

	matched := 0
	for _, term := range terms {
		if containsTerm(tokens, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

func containsTerm(tokens map[string]struct{}, term string) bool {
	if _, ok := tokens[term]; ok {
		return true
	}
	stem := Stem(term)
	for tok := range tokens {
		if Stem(tok) == stem {
			return true
		}
	}
	return false
}

// Stem strips common English suffixes so query and passage wording line up.
// A trailing "e" or "y" is dropped last, so "termite" and "termites" share
// a stem, as do "property" and "properties". Stems stay prefixes of the
// words they came from.
func Stem(word string) string {
	return dropFinalVowel(stripSuffix(word))
}

func stripSuffix(word string) string {
	long := func(suffix string) bool {
		return len(word) > len(suffix)+2 && strings.HasSuffix(word, suffix)
	}
	switch {
	case long("ations"):
		return strings.TrimSuffix(word, "ations")
	case long("ation"):
		return strings.TrimSuffix(word, "ation")
	case long("ings"):
		return strings.TrimSuffix(word, "ings")
	case long("ing"):
		return strings.TrimSuffix(word, "ing")
	case long("ies"):
		return strings.TrimSuffix(word, "ies")
	case long("ied"):
		return strings.TrimSuffix(word, "ied")
	case long("es") && sibilantPlural(word):
		return strings.TrimSuffix(word, "es")
	case long("ed"):
		return strings.TrimSuffix(word, "ed")
	case long("s") && !strings.HasSuffix(word, "ss"):
		return strings.TrimSuffix(word, "s")
	}
	return word
}

// sibilantPlural reports whether word is a plural like "boxes" or
// "ditches", where the whole "es" is the suffix.
func sibilantPlural(word string) bool {
	base := strings.TrimSuffix(word, "es")
	for _, end := range []string{"s", "x", "z", "ch", "sh"} {
		if strings.HasSuffix(base, end) {
			return true
		}
	}
	return false
}

func dropFinalVowel(stem string) string {
	if len(stem) > 3 && (strings.HasSuffix(stem, "e") || strings.HasSuffix(stem, "y")) {
		return stem[:len(stem)-1]
	}
	return stem
}

// Rank scores chunks against query and returns the topK best passages with
// a positive score, best first. Ties keep document order.
func Rank(query string, chunks []domain.Chunk, topK int) []domain.Passage {
	terms := Terms(query)
	if len(terms) == 0 || topK <= 0 {
		return nil
	}

	passages := make([]domain.Passage, 0, len(chunks))
	for i := range chunks {
		score := TermCoverage(terms, chunks[i].Content)
		if score <= 0 {
			continue
		}
		passages = append(passages, ToPassage(chunks[i], score))
	}

	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Score > passages[j].Score
	})
	if len(passages) > topK {
		passages = passages[:topK]
	}
	return passages
}

// ToPassage converts a scored chunk to a passage.
func ToPassage(c domain.Chunk, score float64) domain.Passage {
	return domain.Passage{
		Text:         c.Content,
		DocumentID:   c.DocumentID,
		DocumentName: c.DocumentName,
		Locator:      c.Locator,
		Score:        score,
	}
}
