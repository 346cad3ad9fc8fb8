package conversation

import "regexp"

// RefusalReply is sent instead of a model answer when the safety filter matches.
const RefusalReply = "Sorry, I can't assist with that."

// unsafeTerms match anywhere in the text, case-insensitively. No word boundaries,
// so "skill" is caught by "kill" just like the hosted bot does today.
const unsafeTerms = `sex|sexual|porn|nude|naked|violence|kill|murder|hate|racist|abuse|offensive|` +
	`suicide|self[- ]?harm|terror|bomb|drugs|weapon|assault|molest|rape|harass|bully|exploit|` +
	`gore|blood|torture|explicit|obscene|curse|swear|profanity|slur`

// SafetyFilter blocks messages that touch an unsafe topic.
type SafetyFilter struct {
	re *regexp.Regexp
}

func NewSafetyFilter() *SafetyFilter {
	return &SafetyFilter{re: regexp.MustCompile(`(?i)(?:` + unsafeTerms + `)`)}
}

// Check reports whether text must be refused.
func (f *SafetyFilter) Check(text string) bool {
	if f == nil || f.re == nil {
		return false
	}
	return f.re.MatchString(text)
}
