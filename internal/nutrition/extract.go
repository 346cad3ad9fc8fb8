package nutrition

import (
	"regexp"
	"strings"
)

// Fields are the five values the image prompt asks for, as plain text.
type Fields struct {
	Food     string
	Calories string
	Proteins string
	Carbs    string
	Fat      string
}

// Empty reports whether nothing could be extracted.
func (f Fields) Empty() bool {
	return f == Fields{}
}

// fieldLabel finds any of the five labels anywhere in a reply. A value runs
// from the end of its label to the next label or the end of the line.
var (
	fieldLabel = regexp.MustCompile(`(?im)(?:^|[^\pL\pN])[*_]*(food(?:[ \t]+item)?|calories|proteins?|carb(?:s|ohydrates)?|fats?)[*_]*[ \t]*:[*_ \t]*`)

	emphasisChars = regexp.MustCompile("[*_`]+")
	hedgeWords    = regexp.MustCompile(`(?i)\b(?:approximately|approx|estimated|about|around|roughly)\b\.?|~`)
	spaceRuns     = regexp.MustCompile(`\s+`)
)

// ExtractFields pulls each labeled value out of a model reply. A label that is
// missing yields "" for that field only; the first occurrence of a label wins.
func ExtractFields(text string) Fields {
	var f Fields
	matches := fieldLabel.FindAllStringSubmatchIndex(text, -1)
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		value := text[m[1]:end]
		if cut := strings.IndexAny(value, "\r\n"); cut >= 0 {
			value = value[:cut]
		}

		dst := field(&f, strings.ToLower(text[m[2]:m[3]]))
		if *dst == "" {
			*dst = cleanValue(value)
		}
	}
	return f
}

func field(f *Fields, label string) *string {
	switch {
	case strings.HasPrefix(label, "food"):
		return &f.Food
	case strings.HasPrefix(label, "cal"):
		return &f.Calories
	case strings.HasPrefix(label, "prot"):
		return &f.Proteins
	case strings.HasPrefix(label, "carb"):
		return &f.Carbs
	default:
		return &f.Fat
	}
}

func cleanValue(v string) string {
	v = emphasisChars.ReplaceAllString(v, "")
	for {
		next := hedgeWords.ReplaceAllString(v, "")
		if next == v {
			break
		}
		v = next
	}
	v = spaceRuns.ReplaceAllString(v, " ")
	return strings.TrimRight(strings.TrimSpace(v), " ,;|.")
}
