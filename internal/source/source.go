// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source maps document URLs to a source category and an
// extractability multiplier. Classification is a pure function with no I/O
// and no failure mode: unknown domains fall back to the general category.
package source

import (
	"net/url"
	"strings"

	"github.com/meshintel/fit-engine/pkg/types"
)

// Multiplier values per category. Video and social sources yield little
// usable text, wikis and academic sources slightly more than average.
const (
	multVideo    = 0.20
	multSocial   = 0.50
	multWiki     = 1.10
	multAcademic = 1.08
	multForum    = 1.00
	multNews     = 0.85
	multGeneral  = 1.00
)

type classification struct {
	category   types.SourceCategory
	multiplier float64
}

// domainSuffixes maps a domain suffix to its classification. Matching is by
// suffix so subdomains (careers.youtube.com) classify like their parent.
var domainSuffixes = map[string]classification{
	"youtube.com":          {types.SourceVideo, multVideo},
	"youtu.be":             {types.SourceVideo, multVideo},
	"vimeo.com":            {types.SourceVideo, multVideo},
	"tiktok.com":           {types.SourceVideo, multVideo},
	"twitch.tv":            {types.SourceVideo, multVideo},
	"twitter.com":          {types.SourceSocial, multSocial},
	"x.com":                {types.SourceSocial, multSocial},
	"facebook.com":         {types.SourceSocial, multSocial},
	"instagram.com":        {types.SourceSocial, multSocial},
	"linkedin.com":         {types.SourceSocial, multSocial},
	"threads.net":          {types.SourceSocial, multSocial},
	"wikipedia.org":        {types.SourceWiki, multWiki},
	"wikimedia.org":        {types.SourceWiki, multWiki},
	"fandom.com":           {types.SourceWiki, multWiki},
	"arxiv.org":            {types.SourceAcademic, multAcademic},
	"acm.org":              {types.SourceAcademic, multAcademic},
	"ieee.org":             {types.SourceAcademic, multAcademic},
	"springer.com":         {types.SourceAcademic, multAcademic},
	"nature.com":           {types.SourceAcademic, multAcademic},
	"reddit.com":           {types.SourceForum, multForum},
	"news.ycombinator.com": {types.SourceForum, multForum},
	"stackoverflow.com":    {types.SourceForum, multForum},
	"stackexchange.com":    {types.SourceForum, multForum},
	"glassdoor.com":        {types.SourceForum, multForum},
	"teamblind.com":        {types.SourceForum, multForum},
	"reuters.com":          {types.SourceNews, multNews},
	"bloomberg.com":        {types.SourceNews, multNews},
	"techcrunch.com":       {types.SourceNews, multNews},
	"theverge.com":         {types.SourceNews, multNews},
	"wsj.com":              {types.SourceNews, multNews},
	"nytimes.com":          {types.SourceNews, multNews},
	"bbc.com":              {types.SourceNews, multNews},
	"cnbc.com":             {types.SourceNews, multNews},
	"businessinsider.com":  {types.SourceNews, multNews},
	"forbes.com":           {types.SourceNews, multNews},
}

// Classify returns the source category and extractability multiplier for a
// URL. The host is lowercased and a leading "www." is stripped before
// suffix matching. Unrecognized or unparsable URLs classify as general/1.00.
func Classify(rawURL string) (types.SourceCategory, float64) {
	host := hostOf(rawURL)
	if host == "" {
		return types.SourceGeneral, multGeneral
	}

	for domain := host; domain != ""; {
		if c, ok := domainSuffixes[domain]; ok {
			return c.category, c.multiplier
		}
		dot := strings.Index(domain, ".")
		if dot < 0 {
			break
		}
		domain = domain[dot+1:]
	}
	return types.SourceGeneral, multGeneral
}

// Annotate returns a copy of doc with its category and multiplier set.
func Annotate(doc types.CandidateDocument) types.CandidateDocument {
	doc.Category, doc.Extractability = Classify(doc.URL)
	return doc
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		// Tolerate bare domains without a scheme.
		host = strings.ToLower(strings.SplitN(rawURL, "/", 2)[0])
		if !strings.Contains(host, ".") {
			return ""
		}
	}
	return strings.TrimPrefix(host, "www.")
}
