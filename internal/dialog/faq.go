package dialog

import "strings"

// faqEntry pairs trigger keywords with a canned spoken answer. The fast
// path keeps common questions off the LLM entirely.
type faqEntry struct {
	keywords []string
	answer   string
}

var faqEntries = []faqEntry{
	{
		keywords: []string{"how much", "cost", "price", "pricing", "call out fee", "callout fee"},
		answer: "Our standard call-out fee is $120, which covers the first half hour on site. " +
			"The plumber will give you a fixed quote before starting any work beyond that.",
	},
	{
		keywords: []string{"service area", "where do you", "which areas", "do you come to", "do you cover"},
		answer: "We service the greater Sydney area, from the CBD out to the Blue Mountains, " +
			"including the Hills District and Western Sydney.",
	},
	{
		keywords: []string{"licensed", "license", "licence", "insured", "insurance", "qualified"},
		answer: "Yes, all our plumbers are fully licensed with NSW Fair Trading and carry " +
			"public liability insurance.",
	},
	{
		keywords: []string{"opening hours", "what time do you open", "business hours", "when are you open"},
		answer: "Our office hours are 8am to 5pm on weekdays, and we attend emergencies " +
			"around the clock, seven days a week.",
	},
	{
		keywords: []string{"payment", "pay by", "credit card", "invoice"},
		answer: "We take card, cash and bank transfer on the day, and can email an invoice " +
			"for your records.",
	},
}

// AnswerFAQ returns a canned answer for common questions about pricing,
// coverage and licensing. The second return is false when nothing matches.
func AnswerFAQ(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, entry := range faqEntries {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.answer, true
			}
		}
	}
	return "", false
}
