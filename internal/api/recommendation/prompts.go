package recommendation

import (
	"fmt"
	"strings"

	"github.com/meetsy/meetsy/internal/types"
)

// getCandidatePrompt asks the model for meetup candidates near a hub,
// demanding the strict JSON shape the parser expects.
func getCandidatePrompt(hub types.Hub, profile *types.GroupPreferenceProfile) string {
	categories := CategoriesForTags(profile.MoodTags)

	var b strings.Builder
	b.WriteString("You are a local guide helping a group of friends pick places to meet up.\n")
	fmt.Fprintf(&b, "The meeting area is %q at latitude %.5f, longitude %.5f.\n", hub.Name, hub.Lat, hub.Lng)
	if len(profile.MoodTags) > 0 {
		fmt.Fprintf(&b, "The group's moods are: %s.\n", strings.Join(profile.MoodTags, ", "))
	}
	fmt.Fprintf(&b, "Prefer these kinds of places: %s.\n", strings.Join(categories, ", "))
	fmt.Fprintf(&b, "The group's budget tier is %d on a 1 (cheap) to 4 (splurge) scale.\n", profile.BudgetTier)
	if len(profile.MemberLocations) > 0 {
		fmt.Fprintf(&b, "Members are coming from: %s.\n", strings.Join(profile.MemberLocations, "; "))
	}
	b.WriteString(`
Suggest 8 to 12 real places or activities within walking distance of the meeting area.

Respond with ONLY valid JSON in exactly this format, no other text:
{
  "locations": [
    {
      "name": "Place name",
      "description": "One sentence on why it suits this group",
      "itinerary": ["short activity step", "short activity step"],
      "estimatedCost": 20
    }
  ]
}
estimatedCost is the expected cost per person in the local currency.`)
	return b.String()
}
