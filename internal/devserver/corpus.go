// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"sort"
	"strings"
	"unicode"

	"github.com/jeranaias/ragchat-tui/internal/model"
)

// Document is one retrievable file.
type Document struct {
	Source  string // path reported in citations
	Content string
}

// Answer is what the server streams back for a question.
type Answer struct {
	Text    string
	Sources []string
	// Err, when set, is sent as an error frame after the documents.
	Err string
}

// Responder produces the answer for a question.
type Responder func(question string) Answer

// DefaultCorpus is the built-in document set.
var DefaultCorpus = []Document{
	{
		Source:  "corpus/epic-v-apple/rule-52-findings.pdf",
		Content: "The court found that Apple's anti-steering provisions violate California's Unfair Competition Law and enjoined Apple from prohibiting developers from including buttons, external links or other calls to action that direct customers to purchasing mechanisms.",
	},
	{
		Source:  "corpus/epic-v-apple/ninth-circuit-opinion.pdf",
		Content: "The Ninth Circuit affirmed the district court's judgment that Epic failed to prove Apple violated the Sherman Act, and affirmed the injunction under the Unfair Competition Law.",
	},
	{
		Source:  "corpus/epic-v-apple/contempt-order-2025.pdf",
		Content: "The court held Apple in civil contempt for failing to comply with the injunction, finding that the 27 percent commission on linked purchases and the scare screens frustrated the injunction's purpose.",
	},
	{
		Source:  "corpus/epic-v-apple/market-definition.txt",
		Content: "The relevant market is digital mobile gaming transactions, not the market for all video games nor a single-brand market for Apple's iOS distribution.",
	},
}

// KeywordResponder answers from corpus by keyword overlap, citing up to
// maxDocs documents.
func KeywordResponder(corpus []Document, maxDocs int) Responder {
	return func(question string) Answer {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(question), "!error"); ok {
			return Answer{Text: "Partial answer before failure.", Err: strings.TrimSpace(rest)}
		}

		hits := rank(corpus, question)
		if len(hits) > maxDocs {
			hits = hits[:maxDocs]
		}
		if len(hits) == 0 {
			return Answer{Text: "I could not find anything relevant in the documents."}
		}

		var text strings.Builder
		sources := make([]string, 0, len(hits))
		for i, doc := range hits {
			if i > 0 {
				text.WriteString("\n\n")
			}
			text.WriteString("According to **")
			text.WriteString(model.SourceLabel(doc.Source))
			text.WriteString("**: ")
			text.WriteString(doc.Content)
			sources = append(sources, doc.Source)
		}
		return Answer{Text: text.String(), Sources: sources}
	}
}

// rank returns documents sharing at least one keyword with question, best
// first. Ties keep corpus order.
func rank(corpus []Document, question string) []Document {
	terms := keywords(question)
	type scored struct {
		doc   Document
		score int
	}

	var hits []scored
	for _, doc := range corpus {
		words := keywords(doc.Content)
		score := 0
		for term := range terms {
			if words[term] {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{doc, score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	out := make([]Document, len(hits))
	for i, h := range hits {
		out[i] = h.doc
	}
	return out
}

// stopwords are ignored when matching.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "and": true, "or": true,
	"to": true, "in": true, "is": true, "was": true, "what": true, "did": true,
	"does": true, "for": true, "on": true, "that": true, "with": true,
	"from": true, "by": true, "not": true, "nor": true, "how": true, "why": true,
}

// keywords lowercases s and returns its non-stopword terms of 3+ letters.
func keywords(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(w) >= 3 && !stopwords[w] {
			out[w] = true
		}
	}
	return out
}

// tokenize splits text into word-sized pieces whose concatenation is text.
func tokenize(text string) []string {
	var tokens []string
	start := 0
	for i, r := range text {
		if unicode.IsSpace(r) && i > start {
			tokens = append(tokens, text[start:i])
			start = i
		}
	}
	if start < len(text) {
		tokens = append(tokens, text[start:])
	}
	return tokens
}
