// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package triage

import (
	"regexp"
	"strings"
)

// genericTechTerms is the denylist of technology terms too vague to support
// any conclusion about an employer's stack.
var genericTechTerms = map[string]bool{
	"cloud":            true,
	"scalable":         true,
	"best practices":   true,
	"cutting-edge":     true,
	"cutting edge":     true,
	"state-of-the-art": true,
	"innovative":       true,
	"modern":           true,
	"digital":          true,
	"technology":       true,
	"software":         true,
	"tools":            true,
	"solutions":        true,
}

// genericRequirementPatterns match requirement phrases that carry no signal.
// A match only prunes when the phrase itself is short; a longer sentence
// around the phrase usually carries real content.
var genericRequirementPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bteam player\b`),
	regexp.MustCompile(`(?i)\bfast[- ]paced\b`),
	regexp.MustCompile(`(?i)\bself[- ]starter\b`),
	regexp.MustCompile(`(?i)\bdetail[- ]oriented\b`),
	regexp.MustCompile(`(?i)\bgo[- ]getter\b`),
	regexp.MustCompile(`(?i)\brock\s?star\b`),
	regexp.MustCompile(`(?i)\bninja\b`),
	regexp.MustCompile(`(?i)\bwear many hats\b`),
	regexp.MustCompile(`(?i)\bstrong communication skills?\b`),
	regexp.MustCompile(`(?i)\bpassion(ate)? (for|about)\b`),
}

// requirementPruneMaxWords is the phrase length at or above which a generic
// match is kept anyway.
const requirementPruneMaxWords = 10

// platitudeCulturePhrases is the denylist of culture signals that appear in
// effectively every job posting.
var platitudeCulturePhrases = map[string]bool{
	"work hard play hard":  true,
	"like a family":        true,
	"we are a family":      true,
	"great culture":        true,
	"fun environment":      true,
	"dynamic environment":  true,
	"competitive salary":   true,
	"exciting opportunity": true,
	"make an impact":       true,
	"passionate people":    true,
	"work-life balance":    true,
}

func pruneTech(terms []string) (kept, pruned []string) {
	for _, term := range terms {
		if genericTechTerms[strings.ToLower(strings.TrimSpace(term))] {
			pruned = append(pruned, term)
			continue
		}
		kept = append(kept, term)
	}
	return kept, pruned
}

func pruneRequirements(terms []string) (kept, pruned []string) {
	for _, term := range terms {
		if isGenericRequirement(term) {
			pruned = append(pruned, term)
			continue
		}
		kept = append(kept, term)
	}
	return kept, pruned
}

func isGenericRequirement(term string) bool {
	if len(strings.Fields(term)) >= requirementPruneMaxWords {
		return false
	}
	for _, pat := range genericRequirementPatterns {
		if pat.MatchString(term) {
			return true
		}
	}
	return false
}

func pruneCulture(signals []string) (kept, pruned []string) {
	for _, signal := range signals {
		normalized := strings.ToLower(strings.TrimSpace(signal))
		if platitudeCulturePhrases[normalized] {
			pruned = append(pruned, signal)
			continue
		}
		kept = append(kept, signal)
	}
	return kept, pruned
}
