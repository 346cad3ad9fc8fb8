package conversation

import (
	"regexp"
	"strings"
)

// IdentityReply is the only answer given to questions about the bot's identity,
// origin, or instructions.
const IdentityReply = "I am an AI assistant."

type identityPattern struct {
	re     *regexp.Regexp
	reason string
}

// Origin probes: who built the bot and which model runs it.
var originPatterns = []identityPattern{
	{regexp.MustCompile(`(?i)who\s+(made|created|built|developed|trained|programmed|owns)\s+you`), "origin:creator"},
	{regexp.MustCompile(`(?i)(what|which)\s+(ai\s+|language\s+|llm\s+)?(model|llm|ai|version)\s+(are\s+you|is\s+this\s+(bot|assistant|chatbot)\b)`), "origin:model"},
	{regexp.MustCompile(`(?i)(what|which)\s+model\s+(do|does)\s+(you|this\s+bot)\s+(use|run)`), "origin:model_used"},
	{regexp.MustCompile(`(?i)are\s+you\s+(a\s+|an\s+)?(chat\s*gpt|gpt[\s-]*\d*|gemini|bard|openai|claude|llama|mistral|copilot)\b`), "origin:vendor_name"},
	{regexp.MustCompile(`(?i)(who|what)\s+are\s+you\s+(really|actually|exactly)`), "origin:who_really"},
	{regexp.MustCompile(`(?i)(where|which\s+company)\s+(do|did)\s+you\s+come\s+from`), "origin:company"},
}

// Instruction probes: attempts to read or override the system prompt.
var instructionPatterns = []identityPattern{
	{regexp.MustCompile(`(?i)(ignore|disregard|forget)\s+(all\s+)?(previous|prior|above|earlier|your)\s+(instructions?|rules?|prompts?|guidelines?|directives?)`), "instructions:override"},
	{regexp.MustCompile(`(?i)(reveal|show|display|print|output|repeat|tell\s+me|what\s+(is|are))\s+(me\s+)?(your\s+|the\s+)?(system\s+prompt|initial\s+prompt|hidden\s+prompt|system\s+message|original\s+prompt)`), "instructions:exfiltrate"},
	{regexp.MustCompile(`(?i)(reveal|show|display|print|output|repeat|tell\s+me|what\s+(is|are))\s+(me\s+)?your\s+(instructions?|rules?|guidelines?)`), "instructions:exfiltrate"},
	{regexp.MustCompile(`(?i)(pretend|imagine|act\s+as\s+if)\s+(that\s+)?(you\s+)?(are|have|were|don'?t\s+have)\s+(no\s+)?(rules?|restrictions?|limits?|filters?)`), "instructions:pretend_no_rules"},
	{regexp.MustCompile(`(?i)jailbreak|\bDAN\s*mode|you\s+are\s+(now\s+)?in\s+(developer|god)\s*mode|(enable|activate|enter|switch\s+to|turn\s+on)\s+your\s+(developer|god)\s*mode`), "instructions:jailbreak_keyword"},
	{regexp.MustCompile(`(?i)\[/?INST\]|<\|im_start\|>|<\|system\|>`), "instructions:special_tokens"},
}

var allIdentityPatterns = append(append([]identityPattern{}, originPatterns...), instructionPatterns...)

// ScanIdentityProbe reports whether text probes the bot's identity or
// instructions, together with the first matching reason.
func ScanIdentityProbe(text string) (bool, string) {
	if strings.TrimSpace(text) == "" {
		return false, ""
	}
	for _, p := range allIdentityPatterns {
		if p.re.MatchString(text) {
			return true, p.reason
		}
	}
	return false, ""
}
