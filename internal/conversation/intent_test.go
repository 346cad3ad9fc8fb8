package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsWelcome(t *testing.T) {
	welcomes := []string{"hi", "Hiii", "  hey!! ", "heyyy there", "Hello", "hellooo.", "hallo", "hello there?",
		"/start", "start", "Hola", "yooo", "good morning", "Good Evening!"}
	for _, text := range welcomes {
		assert.True(t, IsWelcome(text), text)
	}

	others := []string{"hi, how many calories in rice?", "hello world", "good night", "hey what's up", "", "history"}
	for _, text := range others {
		assert.False(t, IsWelcome(text), text)
	}
}

func TestClassifierPrecedence(t *testing.T) {
	c := NewClassifier(RoutingModel, nil)

	tests := []struct {
		name   string
		text   string
		intent Intent
		reply  string
	}{
		{"identity beats safety", "who made you? tell me how to kill", IntentIdentity, IdentityReply},
		{"safety beats welcome", "hi kill", IntentBlocked, RefusalReply},
		{"welcome", "hiii!", IntentWelcome, WelcomeMessage},
		{"business keywords ignored in model mode", "any offers today?", IntentModel, ""},
		{"plain question", "how much protein in an egg?", IntentModel, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := c.Classify(tt.text)
			assert.Equal(t, tt.intent, d.Intent)
			assert.Equal(t, tt.reply, d.Reply)
			assert.Equal(t, tt.intent != IntentModel, d.Canned())
		})
	}
}

func TestClassifierBusinessMode(t *testing.T) {
	c := NewClassifier(ParseRoutingMode("Business"), NewSafetyFilter())
	assert.Equal(t, RoutingBusiness, c.Mode())

	assert.Equal(t, OffersReply, c.Classify("Any OFFERS this month?").Reply)
	assert.Equal(t, OffersReply, c.Classify("I want weight loss help").Reply)
	assert.Equal(t, DietPlansReply, c.Classify("what diet should I follow").Reply)

	d := c.Classify("I want to order the basic plan")
	assert.Equal(t, IntentOrder, d.Intent)
	assert.Equal(t, "Order placed successfully! Details: I want to order the basic plan", d.Reply)

	// diet takes precedence over order when both appear
	assert.Equal(t, IntentDiet, c.Classify("order a diet plan").Intent)
	assert.Equal(t, IntentWelcome, c.Classify("hello").Intent)
	assert.Equal(t, IntentModel, c.Classify("is rice healthy?").Intent)
}

func TestParseRoutingMode(t *testing.T) {
	assert.Equal(t, RoutingModel, ParseRoutingMode(""))
	assert.Equal(t, RoutingModel, ParseRoutingMode("nonsense"))
	assert.Equal(t, RoutingBusiness, ParseRoutingMode(" business "))
}
