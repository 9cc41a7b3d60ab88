// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package triage

import "strings"

// Suspicious-input patterns checked against the company-name field. Any hit
// escalates risk to CRITICAL and short-circuits the rest of triage.
var (
	injectionMarkers = []string{
		"<script",
		"</script",
		"<?php",
		"<iframe",
		"{{",
		"}}",
		"${",
		"<%",
		"]]>",
		"javascript:",
	}

	promptOverridePhrases = []string{
		"ignore previous instructions",
		"ignore all previous",
		"disregard the above",
		"disregard all prior",
		"you are now",
		"system prompt",
		"new instructions:",
		"do not follow",
	}

	placeholderNames = []string{
		"test company",
		"example corp",
		"example company",
		"sample company",
		"your company",
		"company name",
		"[company]",
		"lorem ipsum",
		"asdf",
		"foobar",
		"n/a",
	}
)

// SuspicionReason explains why a company name was rejected.
type SuspicionReason string

const (
	ReasonInjection      SuspicionReason = "injection_marker"
	ReasonPromptOverride SuspicionReason = "prompt_override"
	ReasonPlaceholder    SuspicionReason = "placeholder_name"
)

// Suspect checks a company name against the fixed pattern sets. The empty
// string is not suspect; it is merely sparse data.
func Suspect(companyName string) (SuspicionReason, bool) {
	name := strings.ToLower(strings.TrimSpace(companyName))
	if name == "" {
		return "", false
	}

	for _, marker := range injectionMarkers {
		if strings.Contains(name, marker) {
			return ReasonInjection, true
		}
	}
	for _, phrase := range promptOverridePhrases {
		if strings.Contains(name, phrase) {
			return ReasonPromptOverride, true
		}
	}
	for _, placeholder := range placeholderNames {
		if name == placeholder {
			return ReasonPlaceholder, true
		}
	}
	return "", false
}
