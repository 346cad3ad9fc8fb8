package conversation

import (
	"regexp"
	"strings"
)

type Intent string

const (
	IntentIdentity Intent = "identity"
	IntentBlocked  Intent = "blocked"
	IntentWelcome  Intent = "welcome"
	IntentOffers   Intent = "offers"
	IntentDiet     Intent = "diet"
	IntentOrder    Intent = "order"
	IntentModel    Intent = "model"
)

// RoutingMode selects whether business keywords get canned replies.
type RoutingMode string

const (
	RoutingModel    RoutingMode = "model"
	RoutingBusiness RoutingMode = "business"
)

// ParseRoutingMode falls back to RoutingModel for anything unrecognised.
func ParseRoutingMode(s string) RoutingMode {
	if RoutingMode(strings.ToLower(strings.TrimSpace(s))) == RoutingBusiness {
		return RoutingBusiness
	}
	return RoutingModel
}

const WelcomeMessage = "👋 Welcome! Please upload an image of your food to find out its calorie content. You can also chat with me about anything!"

var welcomePattern = regexp.MustCompile(`^(h+i+|he+y+|hel+o+|hal+o+|h+i+ there|he+y+ there|hel+o+ there|start|/start|hola|yo+|good (morning|afternoon|evening))[!.?\s]*$`)

// IsWelcome reports whether the whole message is a greeting.
func IsWelcome(text string) bool {
	return welcomePattern.MatchString(strings.ToLower(strings.TrimSpace(text)))
}

// Decision is the routing outcome for one text message. Reply is empty when
// Intent is IntentModel.
type Decision struct {
	Intent Intent
	Reply  string
	Reason string
}

// Canned reports whether the decision bypasses the model.
func (d Decision) Canned() bool {
	return d.Intent != IntentModel
}

// Classifier routes text in a fixed order: identity probe, safety filter,
// greeting, business keywords (business mode only), then the model.
type Classifier struct {
	safety *SafetyFilter
	mode   RoutingMode
}

func NewClassifier(mode RoutingMode, safety *SafetyFilter) *Classifier {
	if safety == nil {
		safety = NewSafetyFilter()
	}
	if mode == "" {
		mode = RoutingModel
	}
	return &Classifier{safety: safety, mode: mode}
}

func (c *Classifier) Mode() RoutingMode {
	return c.mode
}

func (c *Classifier) Classify(text string) Decision {
	if probe, reason := ScanIdentityProbe(text); probe {
		return Decision{Intent: IntentIdentity, Reply: IdentityReply, Reason: reason}
	}
	if c.safety.Check(text) {
		return Decision{Intent: IntentBlocked, Reply: RefusalReply, Reason: "safety:denylist"}
	}
	if IsWelcome(text) {
		return Decision{Intent: IntentWelcome, Reply: WelcomeMessage, Reason: "greeting"}
	}
	if c.mode == RoutingBusiness {
		if intent, reply, ok := matchBusinessIntent(text); ok {
			return Decision{Intent: intent, Reply: reply, Reason: "business:" + string(intent)}
		}
	}
	return Decision{Intent: IntentModel}
}
