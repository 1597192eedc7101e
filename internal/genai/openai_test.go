package genai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatReply(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
	})
	return string(b)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL, APIKey: "sk-test"}, zerolog.Nop())
}

func TestGenerateIdeas_ParsesEngineOutput(t *testing.T) {
	var got chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, chatCompletionEndpoint, r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		content := "```json\n" + `[
			{"title": "Morning mobility", "description": "Five minutes a day.", "engagement_score": 88, "hashtags": ["#mobility", "fitness"]},
			{"title": "Gym myths", "description": "Busting three myths.", "engagement_score": 140, "hashtags": []},
			{"title": "Meal prep", "description": "Sunday routine.", "engagement_score": 70, "hashtags": ["#mealprep"]},
			{"title": "Extra", "description": "Should be dropped.", "engagement_score": 50, "hashtags": ["#x"]}
		]` + "\n```"
		_, _ = io.WriteString(w, chatReply(content))
	})

	res, err := client.GenerateIdeas(context.Background(), IdeaRequest{Topic: "fitness tips", Niche: "fitness", Count: 3, Platform: "tiktok"})
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	require.Len(t, res.Ideas, 3)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 2000, got.MaxTokens)
	assert.InDelta(t, 0.8, got.Temperature, 0.0001)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, ideasSystemPrompt, got.Messages[0].Content)
	assert.Contains(t, got.Messages[1].Content, "optimized for Tiktok")

	assert.Equal(t, []string{"#mobility", "#fitness"}, res.Ideas[0].Hashtags)
	assert.Equal(t, 100, res.Ideas[1].EngagementScore)
	assert.Equal(t, []string{"#fitnesstips", "#content", "#viral", "#engagement", "#creator"}, res.Ideas[1].Hashtags)
	for _, idea := range res.Ideas {
		assert.GreaterOrEqual(t, idea.EngagementScore, 0)
		assert.LessOrEqual(t, idea.EngagementScore, 100)
		assert.NotEmpty(t, idea.Hashtags)
	}
}

func TestGenerateIdeas_WrappedObject(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, chatReply(`{"ideas": [{"title": "One", "description": "d", "engagementScore": 61, "hashtags": ["#a"]}]}`))
	})

	res, err := client.GenerateIdeas(context.Background(), IdeaRequest{Topic: "x", Count: 1})
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	require.Len(t, res.Ideas, 1)
	assert.Equal(t, 61, res.Ideas[0].EngagementScore)
	assert.False(t, res.Ideas[0].Fallback)
}

func TestGenerateIdeas_ShortListPaddedToCount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, chatReply(`[{"title": "Desk stretches", "description": "d", "engagement_score": 82, "hashtags": ["#desk"]}]`))
	})

	res, err := client.GenerateIdeas(context.Background(), IdeaRequest{Topic: "Fitness Tips", Count: 3})
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	require.Len(t, res.Ideas, 3)

	assert.Equal(t, "Desk stretches", res.Ideas[0].Title)
	assert.False(t, res.Ideas[0].Fallback)
	assert.Equal(t, "Content Idea #2: Fitness Tips", res.Ideas[1].Title)
	assert.Equal(t, "Content Idea #3: Fitness Tips", res.Ideas[2].Title)
	for _, idea := range res.Ideas[1:] {
		assert.True(t, idea.Fallback)
		assert.Equal(t, 75, idea.EngagementScore)
	}
}

func TestGenerateIdeas_FallbackOnMalformedOrError(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, chatReply("Here are some great ideas: be consistent!"))
		}},
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error": {"message": "overloaded"}}`)
		}},
		{"no choices", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"choices": []}`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			res, err := client.GenerateIdeas(context.Background(), IdeaRequest{Topic: "Fitness Tips", Count: 3})
			require.NoError(t, err)
			assert.True(t, res.Fallback)
			require.Len(t, res.Ideas, 3)
			assert.True(t, res.Ideas[0].Fallback)
			assert.Equal(t, "Content Idea #1: Fitness Tips", res.Ideas[0].Title)
			assert.Equal(t, "Content Idea #3: Fitness Tips", res.Ideas[2].Title)
			assert.Equal(t, "Create engaging content about Fitness Tips. Focus on providing value.", res.Ideas[0].Description)
			assert.Equal(t, 75, res.Ideas[0].EngagementScore)
			assert.Equal(t, "#fitnesstips", res.Ideas[0].Hashtags[0])
		})
	}
}

func TestGenerateIdeas_CountCapped(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, chatReply("nope"))
	})
	res, err := client.GenerateIdeas(context.Background(), IdeaRequest{Topic: "t", Count: 25})
	require.NoError(t, err)
	assert.Len(t, res.Ideas, MaxIdeas)
}

func TestGenerateIdeas_CanceledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, chatReply("[]"))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.GenerateIdeas(ctx, IdeaRequest{Topic: "t", Count: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTranscribe(t *testing.T) {
	media := make([]byte, DefaultMinMediaBytes)

	t.Run("success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, transcriptionEndpoint, r.URL.Path)
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "whisper-1", r.FormValue("model"))
			f, hdr, err := r.FormFile("file")
			require.NoError(t, err)
			defer f.Close()
			assert.Equal(t, "clip.mp4", hdr.Filename)
			_, _ = io.WriteString(w, `{"text": "  welcome back to the channel, today we talk about sleep  "}`)
		})
		text, err := client.Transcribe(context.Background(), media, "clip.mp4")
		require.NoError(t, err)
		assert.Equal(t, "welcome back to the channel, today we talk about sleep", text)
	})

	t.Run("short transcript", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"text": "  uh hi  "}`)
		})
		_, err := client.Transcribe(context.Background(), media, "clip.mp3")
		assert.ErrorIs(t, err, ErrTranscriptTooShort)
	})

	t.Run("rejected before any call", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		})
		_, err := client.Transcribe(context.Background(), media, "notes.txt")
		assert.ErrorIs(t, err, ErrUnsupportedMedia)
		_, err = client.Transcribe(context.Background(), media[:100], "clip.wav")
		assert.ErrorIs(t, err, ErrMediaTooSmall)
		assert.Zero(t, calls.Load())
	})

	t.Run("api error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error": {"message": "invalid file"}}`)
		})
		_, err := client.Transcribe(context.Background(), media, "clip.flac")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid file")
	})
}

func TestRepurposeForPlatform(t *testing.T) {
	var got chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, chatReply("  Sleep better tonight #sleep  "))
	})

	transcript := strings.Repeat("a", 1500)
	out, err := client.RepurposeForPlatform(context.Background(), RepurposeRequest{
		Transcript: transcript, Title: "Sleep", Platform: "instagram", Tone: "casual",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sleep better tonight #sleep", out)
	assert.Equal(t, repurposeMaxTokens, got.MaxTokens)
	assert.Equal(t, repurposeSystemPrompt, got.Messages[0].Content)
	assert.Contains(t, got.Messages[1].Content, "for instagram in a casual tone")
	assert.Contains(t, got.Messages[1].Content, strings.Repeat("a", 1000)+"...")
	assert.NotContains(t, got.Messages[1].Content, strings.Repeat("a", 1001))
}

func TestRepurposeForPlatform_EmptyIsError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, chatReply("   "))
	})
	_, err := client.RepurposeForPlatform(context.Background(), RepurposeRequest{Platform: "x"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestValidateAPIKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error": {"message": "Incorrect API key provided"}}`)
	})
	err := client.ValidateAPIKey(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key")
}

func TestValidateMedia(t *testing.T) {
	assert.NoError(t, ValidateMedia("Clip.MP4", DefaultMinMediaBytes, 0))
	assert.NoError(t, ValidateMedia("voice.oga", DefaultMinMediaBytes, 0))
	assert.ErrorIs(t, ValidateMedia("", DefaultMinMediaBytes, 0), ErrUnsupportedMedia)
	assert.ErrorIs(t, ValidateMedia("clip.mov", DefaultMinMediaBytes, 0), ErrUnsupportedMedia)
	assert.ErrorIs(t, ValidateMedia("clip.mp4", DefaultMinMediaBytes-1, 0), ErrMediaTooSmall)
}
