package openai

import (
	"context"

	"github.com/namurok/dialogue-engine/internal/domain"
)

// moderationCategories maps the API's category keys to the tags the engine
// records, in the order they are reported.
var moderationCategories = []struct {
	apiKey string
	tag    string
}{
	{"self-harm", "self_harm"},
	{"sexual", "sexual"},
	{"hate", "hate"},
	{"hate/threatening", "hate_threatening"},
	{"harassment", "harassment"},
	{"harassment/threatening", "harassment_threatening"},
	{"violence", "violence"},
}

// SafetyGate checks child utterances against the OpenAI moderation endpoint.
type SafetyGate struct {
	client *Client
}

// NewSafetyGate wraps the shared client as a safety gate.
func NewSafetyGate(client *Client) *SafetyGate {
	return &SafetyGate{client: client}
}

type moderationResponse struct {
	Results []struct {
		Flagged    bool            `json:"flagged"`
		Categories map[string]bool `json:"categories"`
	} `json:"results"`
}

// Check classifies text. When the moderation service is unreachable the
// verdict is conservatively unsafe: a child-safety check must not fail open.
func (g *SafetyGate) Check(ctx context.Context, text string) domain.SafetyVerdict {
	var resp moderationResponse
	err := g.client.postJSON(ctx, "/moderations", map[string]string{
		"model": g.client.cfg.ModerationModel,
		"input": text,
	}, &resp)
	if err != nil || len(resp.Results) == 0 {
		g.client.logger.Error("safety check failed, treating input as unsafe", "error", err)
		return domain.SafetyVerdict{
			Safe:       false,
			Categories: []string{"error"},
			Redirect:   "잠깐, 다른 말로 해볼까?",
		}
	}

	var flagged []string
	for _, cat := range moderationCategories {
		if resp.Results[0].Categories[cat.apiKey] {
			flagged = append(flagged, cat.tag)
		}
	}

	if len(flagged) == 0 {
		return domain.SafetyVerdict{Safe: true}
	}
	return domain.SafetyVerdict{
		Safe:       false,
		Categories: flagged,
		Redirect:   redirectFor(flagged),
	}
}

// redirectFor picks a child-friendly redirect line for the most severe
// flagged category.
func redirectFor(categories []string) string {
	has := func(tag string) bool {
		for _, c := range categories {
			if c == tag {
				return true
			}
		}
		return false
	}
	switch {
	case has("self_harm"):
		return "힘든 일이 있구나. 나랑 차근차근 이야기해볼까?"
	case has("violence"), has("hate"), has("hate_threatening"):
		return "그런 표현은 조금 위험할 수 있어. 다른 말로 이야기해줄래?"
	case has("sexual"):
		return "그 이야기는 다음에 하자. 다른 이야기 해볼까?"
	default:
		return "조금 다르게 말해볼 수 있을까?"
	}
}
