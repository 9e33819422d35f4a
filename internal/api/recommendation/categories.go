package recommendation

import "strings"

// moodCategories maps a mood tag to the place categories that satisfy it.
// Tags outside this map fall back to keyword matching against the
// candidate's description.
var moodCategories = map[string][]string{
	"romantic":    {"restaurant", "cafe", "art_gallery"},
	"foodie":      {"restaurant", "cafe", "bakery"},
	"adventure":   {"park", "amusement_park", "tourist_attraction"},
	"adventurous": {"park", "amusement_park", "tourist_attraction"},
	"relaxed":     {"cafe", "park", "spa"},
	"chill":       {"cafe", "park", "spa"},
	"cultural":    {"museum", "art_gallery", "tourist_attraction"},
	"culture":     {"museum", "art_gallery", "tourist_attraction"},
	"nightlife":   {"bar", "night_club"},
	"party":       {"bar", "night_club"},
	"outdoors":    {"park", "campground", "tourist_attraction"},
	"nature":      {"park", "campground", "zoo"},
	"active":      {"gym", "stadium", "bowling_alley"},
	"sporty":      {"gym", "stadium", "bowling_alley"},
	"shopping":    {"shopping_mall", "store", "market"},
	"family":      {"zoo", "aquarium", "amusement_park", "park"},
}

var defaultCategories = []string{"restaurant", "cafe", "park"}

// CategoriesForTags expands the group's mood tags into a deduplicated,
// order-preserving category list for prompting and candidate inference.
func CategoriesForTags(tags []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tag := range tags {
		for _, category := range moodCategories[strings.ToLower(tag)] {
			if !seen[category] {
				seen[category] = true
				out = append(out, category)
			}
		}
	}
	if len(out) == 0 {
		return defaultCategories
	}
	return out
}

// tagSatisfied reports whether a candidate's categories or free text satisfy
// the given mood tag.
func tagSatisfied(tag string, categories []string, text string) bool {
	tag = strings.ToLower(tag)
	wanted := moodCategories[tag]
	for _, category := range categories {
		category = strings.ToLower(category)
		for _, w := range wanted {
			if category == w {
				return true
			}
		}
	}
	return strings.Contains(strings.ToLower(text), tag)
}

// categoryKeywords is matched in order so inferred category lists are stable
// across calls with the same input.
var categoryKeywords = []struct {
	keyword  string
	category string
}{
	{"restaurant", "restaurant"},
	{"cafe", "cafe"},
	{"coffee", "cafe"},
	{"bar", "bar"},
	{"museum", "museum"},
	{"gallery", "art_gallery"},
	{"park", "park"},
	{"garden", "park"},
	{"market", "market"},
	{"theater", "entertainment"},
	{"cinema", "entertainment"},
}

// inferCategories guesses categories for a candidate the places lookup could
// not resolve, from the group's tags plus description keywords.
func inferCategories(name, description string, tags []string) []string {
	text := strings.ToLower(name + " " + description)

	seen := make(map[string]bool)
	var out []string
	for _, kw := range categoryKeywords {
		if strings.Contains(text, kw.keyword) && !seen[kw.category] {
			seen[kw.category] = true
			out = append(out, kw.category)
		}
	}
	if len(out) > 0 {
		return out
	}

	// Nothing recognizable in the text, assume the group's own categories.
	tagged := CategoriesForTags(tags)
	if len(tagged) > 2 {
		tagged = tagged[:2]
	}
	return tagged
}
