package genai

import (
	"encoding/json"
	"fmt"
	"strings"

	"creatorhub/internal/model"
)

const fallbackEngagementScore = 75

// FallbackIdeas is the deterministic idea set used when the engine output
// cannot be used.
func FallbackIdeas(topic string, count int) []model.Idea {
	tag := "#" + strings.ToLower(strings.ReplaceAll(topic, " ", ""))
	ideas := make([]model.Idea, 0, count)
	for i := 0; i < count; i++ {
		ideas = append(ideas, model.Idea{
			Title:           fmt.Sprintf("Content Idea #%d: %s", i+1, topic),
			Description:     fmt.Sprintf("Create engaging content about %s. Focus on providing value.", topic),
			EngagementScore: fallbackEngagementScore,
			Hashtags:        []string{tag, "#content", "#viral", "#engagement", "#creator"},
			Fallback:        true,
		})
	}
	return ideas
}

type rawIdea struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	EngagementScore *float64 `json:"engagement_score"`
	ScoreCamel      *float64 `json:"engagementScore"`
	Hashtags        []string `json:"hashtags"`
}

// parseIdeas reads a JSON array of ideas, tolerating markdown fences, leading
// prose, or an object wrapping the array under "ideas". A short list is padded
// with fallback ideas so exactly count ideas come back.
func parseIdeas(content, topic string, count int) ([]model.Idea, error) {
	raw, err := decodeIdeas(content)
	if err != nil {
		return nil, err
	}
	ideas := make([]model.Idea, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r.Title) == "" {
			continue
		}
		ideas = append(ideas, normalizeIdea(r, topic))
		if len(ideas) == count {
			break
		}
	}
	if len(ideas) == 0 {
		return nil, ErrEmptyResponse
	}
	if len(ideas) < count {
		ideas = append(ideas, FallbackIdeas(topic, count)[len(ideas):]...)
	}
	return ideas, nil
}

func decodeIdeas(content string) ([]rawIdea, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyResponse
	}
	var list []rawIdea
	if start, end := strings.Index(content, "["), strings.LastIndex(content, "]"); start != -1 && end > start {
		if err := json.Unmarshal([]byte(content[start:end+1]), &list); err == nil {
			return list, nil
		}
	}
	var wrapped struct {
		Ideas []rawIdea `json:"ideas"`
	}
	if start, end := strings.Index(content, "{"), strings.LastIndex(content, "}"); start != -1 && end > start {
		obj := []byte(content[start : end+1])
		if err := json.Unmarshal(obj, &wrapped); err == nil && len(wrapped.Ideas) > 0 {
			return wrapped.Ideas, nil
		}
		var single rawIdea
		if err := json.Unmarshal(obj, &single); err == nil && single.Title != "" {
			return []rawIdea{single}, nil
		}
	}
	return nil, fmt.Errorf("engine response is not a JSON idea list")
}

func normalizeIdea(r rawIdea, topic string) model.Idea {
	score := fallbackEngagementScore
	if r.EngagementScore != nil {
		score = int(*r.EngagementScore)
	} else if r.ScoreCamel != nil {
		score = int(*r.ScoreCamel)
	}
	score = min(max(score, 0), 100)

	tags := make([]string, 0, len(r.Hashtags))
	for _, h := range r.Hashtags {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if !strings.HasPrefix(h, "#") {
			h = "#" + h
		}
		tags = append(tags, h)
	}
	if len(tags) == 0 {
		tags = FallbackIdeas(topic, 1)[0].Hashtags
	}

	return model.Idea{
		Title:           strings.TrimSpace(r.Title),
		Description:     strings.TrimSpace(r.Description),
		EngagementScore: score,
		Hashtags:        tags,
	}
}
