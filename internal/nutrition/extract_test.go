package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFields(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Fields
	}{
		{
			name: "exact prompt format",
			text: "**Food:** Grilled chicken salad\n**Calories:** 350 kcal\n**Proteins:** 30 g\n**Carbs:** 12 g\n**Fat:** 18 g",
			want: Fields{Food: "Grilled chicken salad", Calories: "350 kcal", Proteins: "30 g", Carbs: "12 g", Fat: "18 g"},
		},
		{
			name: "hedged estimates",
			text: "**Food:** Pepperoni pizza slice\n**Calories:** approximately 285 kcal\n**Proteins:** ~12g\n**Carbs:** about 30-35 g\n**Fat:** Approx. 10 g",
			want: Fields{Food: "Pepperoni pizza slice", Calories: "285 kcal", Proteins: "12g", Carbs: "30-35 g", Fat: "10 g"},
		},
		{
			name: "emphasis after colon and list markers",
			text: "- *Food*: _Banana_\n- **Calories**: estimated 105\n1. Protein: 1.3 g\n2. Carbohydrates: roughly 27 g\n3. Fat: __0.4 g__",
			want: Fields{Food: "Banana", Calories: "105", Proteins: "1.3 g", Carbs: "27 g", Fat: "0.4 g"},
		},
		{
			name: "missing fields stay empty",
			text: "**Food:** Mystery stew\n**Calories:** around 400",
			want: Fields{Food: "Mystery stew", Calories: "400"},
		},
		{
			name: "single line",
			text: "**Food:** Pizza **Calories:** 450 kcal **Proteins:** 20g **Carbs:** 50g **Fat:** 18g",
			want: Fields{Food: "Pizza", Calories: "450 kcal", Proteins: "20g", Carbs: "50g", Fat: "18g"},
		},
		{
			name: "comma separated",
			text: "Food: Caesar salad, Calories: about 480 kcal, Protein: 14 g, Carbs: 22 g, Fat: 38 g.",
			want: Fields{Food: "Caesar salad", Calories: "480 kcal", Proteins: "14 g", Carbs: "22 g", Fat: "38 g"},
		},
		{
			name: "label after preamble",
			text: "Here is the analysis: **Calories:** 450 kcal",
			want: Fields{Calories: "450 kcal"},
		},
		{
			name: "first label wins and words inside values are not labels",
			text: "**Food:** Seafood pasta with low-fat sauce\n**Calories:** 600\n**Calories:** 700",
			want: Fields{Food: "Seafood pasta with low-fat sauce", Calories: "600"},
		},
		{
			name: "refusal",
			text: "Sorry, I couldn't analyze that.",
			want: Fields{},
		},
		{
			name: "crlf line endings",
			text: "**Food:** Toast\r\n**Fat:** 2 g\r\n",
			want: Fields{Food: "Toast", Fat: "2 g"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFields(tt.text))
		})
	}
}

func TestExtractFieldsIsStable(t *testing.T) {
	text := "**Food:** Oatmeal\n**Calories:** about ~150 kcal\n**Proteins:** 5 g\n**Carbs:** 27 g\n**Fat:** 3 g"
	first := ExtractFields(text)
	assert.Equal(t, first, ExtractFields(text))

	assert.Equal(t, first.Calories, cleanValue(first.Calories))
	assert.Equal(t, "", cleanValue("ab~out about"), "hedge removal runs to a fixed point")
}

func TestFieldsEmpty(t *testing.T) {
	assert.True(t, Fields{}.Empty())
	assert.False(t, Fields{Fat: "1 g"}.Empty())
}
