package genai

import (
	"fmt"
	"strings"
)

const (
	ideasSystemPrompt     = "You are a viral content strategy expert."
	repurposeSystemPrompt = "You create high-converting social media content."

	ideasTemperature     = 0.8
	repurposeTemperature = 0.7
	repurposeMaxTokens   = 500
	transcriptExcerpt    = 1000
)

func ideasPrompt(req IdeaRequest) string {
	platform := ""
	if req.Platform != "" {
		platform = " optimized for " + titleCase(req.Platform)
	}
	return fmt.Sprintf(`Generate %d viral content ideas for a %s content creator.

Topic: %s
Target Audience: %s
Platform%s

For each idea, provide:
1. A compelling title
2. A detailed description (2-3 sentences)
3. Engagement score (0-100)
4. 3-5 relevant hashtags

Return as a JSON array of objects with the keys "title", "description", "engagement_score" and "hashtags".`,
		req.Count, req.Niche, req.Topic, req.Audience, platform)
}

func repurposePrompt(req RepurposeRequest) string {
	return fmt.Sprintf("You are an expert social media content repurposer. "+
		"Repurpose the following video for %s in a %s tone. "+
		"Generate a catchy title/caption and 5 trending hashtags.\n\n"+
		"Title: %s\nDescription: %s\nTranscript: %s...",
		req.Platform, req.Tone, req.Title, req.Description, truncateRunes(req.Transcript, transcriptExcerpt))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
