package recommendation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meetsy/meetsy/internal/types"
)

// candidateLocation is the wire shape of one suggestion in the AI response.
type candidateLocation struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Itinerary     []string `json:"itinerary"`
	EstimatedCost float64  `json:"estimatedCost"`
}

// parseCandidateLocations parses the AI response payload. Entries without a
// name are dropped; an empty or mismatched document is an error the caller
// recovers from with an empty candidate list.
func parseCandidateLocations(jsonStr string) ([]candidateLocation, error) {
	var payload struct {
		Locations []candidateLocation `json:"locations"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrUpstreamParse, err)
	}

	locations := make([]candidateLocation, 0, len(payload.Locations))
	for _, loc := range payload.Locations {
		if strings.TrimSpace(loc.Name) == "" {
			continue
		}
		locations = append(locations, loc)
	}
	if len(locations) == 0 {
		return nil, fmt.Errorf("%w: no usable locations in response", types.ErrUpstreamParse)
	}
	return locations, nil
}

func cleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)

	// Remove markdown code block markers
	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}

	if strings.HasSuffix(response, "```") {
		response = strings.TrimSuffix(response, "```")
	}

	response = strings.TrimSpace(response)

	// Extract JSON from a response that might contain explanatory text:
	// take everything from the first { to the last }.
	firstBrace := strings.Index(response, "{")
	if firstBrace == -1 {
		return response
	}

	lastBrace := strings.LastIndex(response, "}")
	if lastBrace == -1 || lastBrace <= firstBrace {
		return response
	}

	return strings.TrimSpace(response[firstBrace : lastBrace+1])
}
