package llm

import (
	"errors"
	"strings"
)

var ErrNoChatModel = errors.New("no suitable chat model available")

var excludeMarkers = []string{"whisper", "tts", "audio", "speech"}

var includeMarkers = []string{"chat", "instruct", "llama", "gemma", "qwen", "mistral", "gpt"}

// PickChatModel selects the most capable chat model from a provider model
// list without hardcoding an id. Audio/speech models are excluded; remaining
// candidates are scored by parameter count, version and capability markers.
func PickChatModel(ids []string) string {
	var candidates []string
	for _, id := range ids {
		lower := strings.ToLower(id)
		if containsAny(lower, excludeMarkers) {
			continue
		}
		if containsAny(lower, includeMarkers) {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		if len(ids) > 0 {
			return ids[0]
		}
		return ""
	}

	best := candidates[0]
	bestScore := modelScore(best)
	for _, id := range candidates[1:] {
		if s := modelScore(id); s > bestScore {
			best, bestScore = id, s
		}
	}
	return best
}

func modelScore(id string) int {
	score := 0
	lower := strings.ToLower(id)

	// Larger parameter counts usually mean better answers.
	switch {
	case strings.Contains(lower, "70b") || strings.Contains(lower, "72b"):
		score += 100
	case strings.Contains(lower, "32b") || strings.Contains(lower, "34b"):
		score += 80
	case strings.Contains(lower, "13b") || strings.Contains(lower, "15b"):
		score += 60
	case strings.Contains(lower, "8b") || strings.Contains(lower, "9b"):
		score += 40
	case strings.Contains(lower, "7b"):
		score += 30
	}

	// Newer versions first.
	switch {
	case strings.Contains(lower, "3.3") || strings.Contains(lower, "4."):
		score += 50
	case strings.Contains(lower, "3.1") || strings.Contains(lower, "3.2"):
		score += 40
	case strings.Contains(lower, "2."):
		score += 20
	}

	if strings.Contains(lower, "versatile") {
		score += 30
	}
	if strings.Contains(lower, "instruct") {
		score += 25
	}
	if strings.Contains(lower, "instant") && (strings.Contains(lower, "8b") || strings.Contains(lower, "7b")) {
		score += 20
	}
	if strings.Contains(lower, "llama") {
		score += 10
	}
	return score
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
