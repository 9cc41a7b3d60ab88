// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package triage

import "strings"

// maxInferredTech caps how many fallback technology terms industry
// inference may contribute.
const maxInferredTech = 5

type industry struct {
	name     string
	keywords []string
	tech     []string
}

// industries holds the fixed signal-keyword sets. The industry with the most
// keyword hits in the query/summary context contributes fallback technology
// terms, reported as inferred and never as verified findings.
var industries = []industry{
	{
		name:     "fintech",
		keywords: []string{"bank", "payments", "fintech", "trading", "lending", "insurance", "crypto"},
		tech:     []string{"Java", "Kafka", "PostgreSQL", "Kubernetes", "Spring"},
	},
	{
		name:     "healthcare",
		keywords: []string{"health", "medical", "clinical", "patient", "pharma", "biotech"},
		tech:     []string{"HL7/FHIR", "Python", "PostgreSQL", "AWS", "Epic integrations"},
	},
	{
		name:     "ecommerce",
		keywords: []string{"ecommerce", "e-commerce", "retail", "marketplace", "shopping", "logistics"},
		tech:     []string{"React", "Node.js", "Redis", "Elasticsearch", "Shopify"},
	},
	{
		name:     "gaming",
		keywords: []string{"game", "gaming", "studio", "esports", "multiplayer"},
		tech:     []string{"Unity", "Unreal Engine", "C++", "C#", "Photon"},
	},
	{
		name:     "cybersecurity",
		keywords: []string{"security", "cyber", "threat", "soc", "malware", "zero trust"},
		tech:     []string{"Go", "Rust", "SIEM", "eBPF", "Splunk"},
	},
	{
		name:     "education",
		keywords: []string{"education", "learning", "edtech", "students", "courses", "university"},
		tech:     []string{"Ruby on Rails", "React", "PostgreSQL", "LTI", "Canvas"},
	},
	{
		name:     "automotive",
		keywords: []string{"automotive", "manufacturing", "vehicle", "factory", "robotics", "iot"},
		tech:     []string{"C++", "ROS", "CAN bus", "Embedded Linux", "MQTT"},
	},
	{
		name:     "media",
		keywords: []string{"media", "advertising", "streaming", "publisher", "content", "adtech"},
		tech:     []string{"Go", "Kafka", "BigQuery", "CDN tooling", "TypeScript"},
	},
}

// InferIndustryTech matches the context string against the industry keyword
// sets and returns the best industry's fallback technology terms. Returns
// ("", nil) when no industry scores a hit.
func InferIndustryTech(context string) (string, []string) {
	haystack := strings.ToLower(context)

	bestIdx, bestHits := -1, 0
	for i, ind := range industries {
		hits := 0
		for _, kw := range ind.keywords {
			if strings.Contains(haystack, kw) {
				hits++
			}
		}
		if hits > bestHits {
			bestIdx, bestHits = i, hits
		}
	}
	if bestIdx < 0 {
		return "", nil
	}

	tech := industries[bestIdx].tech
	if len(tech) > maxInferredTech {
		tech = tech[:maxInferredTech]
	}
	out := make([]string, len(tech))
	copy(out, tech)
	return industries[bestIdx].name, out
}
