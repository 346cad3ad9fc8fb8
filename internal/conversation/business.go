package conversation

import (
	"fmt"
	"strings"
)

const (
	OffersReply    = "Currently there are two offers available for 30 days --> \n1. Basic Plan Rs.2999  \n2. Advance Plan Rs.3999"
	DietPlansReply = "Diet Plans: Keto, Vegan, Mediterranean, Low-Carb. Contact us for personalized plans."
)

// OrderReply confirms an order using the user's own words as the details.
func OrderReply(details string) string {
	return fmt.Sprintf("Order placed successfully! Details: %s", details)
}

// matchBusinessIntent maps keyword hits to a canned reply. Checked in order:
// offers, diet plans, orders.
func matchBusinessIntent(text string) (Intent, string, bool) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "offer"), strings.Contains(lower, "weight loss"):
		return IntentOffers, OffersReply, true
	case strings.Contains(lower, "diet"):
		return IntentDiet, DietPlansReply, true
	case strings.Contains(lower, "order"):
		return IntentOrder, OrderReply(text), true
	default:
		return "", "", false
	}
}
