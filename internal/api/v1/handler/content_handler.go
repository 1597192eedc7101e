package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"creatorhub/internal/api/v1/dto"
	"creatorhub/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const (
	defaultIdeaCount = 5
	multipartMemory  = 32 << 20
)

// ContentHandler serves the generation pipelines and content history.
type ContentHandler struct {
	contentService service.ContentService
	validate       *validator.Validate
	maxUploadBytes int64
	logger         zerolog.Logger
}

func NewContentHandler(contentService service.ContentService, validate *validator.Validate, maxUploadBytes int64, logger zerolog.Logger) *ContentHandler {
	return &ContentHandler{
		contentService: contentService,
		validate:       validate,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With().Str("handler", "ContentHandler").Logger(),
	}
}

// RegisterRoutes mounts content routes. mw wraps every route.
func (h *ContentHandler) RegisterRoutes(mux *http.ServeMux, mw func(http.Handler) http.Handler) {
	mux.Handle("POST /content/generate-ideas", mw(http.HandlerFunc(h.generateIdeas)))
	mux.Handle("POST /content/repurpose-video", mw(http.HandlerFunc(h.repurposeVideo)))
	mux.Handle("GET /content/history", mw(http.HandlerFunc(h.history)))
	mux.Handle("DELETE /content/{id}", mw(http.HandlerFunc(h.deleteContent)))
}

// generateIdeas godoc
// @Summary Generate content ideas
// @Description Generates up to 10 content ideas for a topic and charges one idea generation.
// @Tags content
// @Accept json
// @Produce json
// @Param request body dto.GenerateIdeasRequestDTO true "Idea generation request"
// @Success 200 {object} dto.GenerateIdeasResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized"
// @Failure 403 {object} dto.QuotaErrorDTO
// @Failure 429 {string} string "Too many requests"
// @Failure 500 {string} string "Try again"
// @Router /content/generate-ideas [post]
func (h *ContentHandler) generateIdeas(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req dto.GenerateIdeasRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	count := defaultIdeaCount
	if req.Count != nil {
		count = *req.Count
	}

	ideas, err := h.contentService.GenerateIdeas(r.Context(), userID, service.IdeasInput{
		Topic:    req.Topic,
		Niche:    req.Niche,
		Audience: req.Audience,
		Count:    count,
		Platform: req.Platform,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := dto.GenerateIdeasResponseDTO{Ideas: make([]dto.IdeaResponseDTO, 0, len(ideas))}
	for _, idea := range ideas {
		resp.Fallback = resp.Fallback || idea.Fallback
		resp.Ideas = append(resp.Ideas, dto.IdeaResponseDTO{
			ID:                idea.ID,
			Title:             idea.Title,
			Description:       idea.Description,
			EngagementScore:   idea.EngagementScore,
			Hashtags:          idea.Hashtags,
			PlatformOptimized: idea.PlatformOptimized,
			Fallback:          idea.Fallback,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// repurposeVideo godoc
// @Summary Repurpose a video
// @Description Transcribes an uploaded video and rewrites it for each target platform.
// @Tags content
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Video or audio file"
// @Param title formData string true "Original title"
// @Param description formData string false "Original description"
// @Param target_platforms formData string true "Comma-separated platforms"
// @Param tone formData string false "Tone of voice" default(professional)
// @Success 200 {object} dto.RepurposeVideoResponseDTO
// @Failure 400 {string} string "Invalid upload or validation failed"
// @Failure 401 {string} string "Unauthorized"
// @Failure 403 {object} dto.QuotaErrorDTO
// @Failure 413 {string} string "Upload too large"
// @Failure 500 {string} string "Try again"
// @Router /content/repurpose-video [post]
func (h *ContentHandler) repurposeVideo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := dto.RepurposeVideoFormDTO{
		Title:           r.FormValue("title"),
		Description:     r.FormValue("description"),
		TargetPlatforms: r.FormValue("target_platforms"),
		Tone:            r.FormValue("tone"),
	}
	if err := h.validate.Struct(&form); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "File is required", http.StatusBadRequest)
		return
	}
	defer file.Close()
	media, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read upload", http.StatusBadRequest)
		return
	}

	out, err := h.contentService.RepurposeVideo(r.Context(), userID, service.RepurposeInput{
		Media:           media,
		Filename:        header.Filename,
		ContentType:     header.Header.Get("Content-Type"),
		Title:           form.Title,
		Description:     form.Description,
		TargetPlatforms: form.TargetPlatforms,
		Tone:            form.Tone,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.RepurposeVideoResponseDTO{
		ID:                 out.ID,
		OriginalTitle:      out.OriginalTitle,
		Transcript:         out.Transcript,
		RepurposedContent:  out.RepurposedContent,
		PlatformsGenerated: out.PlatformsGenerated,
		FallbackPlatforms:  out.FallbackPlatforms,
	})
}

// history godoc
// @Summary Content history
// @Description Lists the authenticated user's generated content, newest first.
// @Tags content
// @Produce json
// @Param content_type query string false "Filter by content type"
// @Param limit query int false "Page size (max 100)" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} dto.ContentHistoryResponseDTO
// @Failure 400 {string} string "Invalid query"
// @Failure 401 {string} string "Unauthorized"
// @Router /content/history [get]
func (h *ContentHandler) history(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	limit, err := queryInt(q.Get("limit"), service.DefaultHistoryLimit)
	if err != nil {
		http.Error(w, "Invalid limit", http.StatusBadRequest)
		return
	}
	if limit <= 0 {
		limit = service.DefaultHistoryLimit
	}
	offset, err := queryInt(q.Get("offset"), 0)
	if err != nil {
		http.Error(w, "Invalid offset", http.StatusBadRequest)
		return
	}

	items, err := h.contentService.History(r.Context(), userID, service.HistoryQuery{
		ContentType: q.Get("content_type"),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	resp := dto.ContentHistoryResponseDTO{
		Items:  make([]dto.ContentHistoryItemDTO, 0, len(items)),
		Limit:  min(limit, service.MaxHistoryLimit),
		Offset: offset,
	}
	for _, c := range items {
		resp.Items = append(resp.Items, dto.ContentHistoryItemDTO{
			ID:          c.ID,
			ContentType: string(c.ContentType),
			Title:       c.Title,
			Content:     c.Body,
			Metadata:    c.Metadata,
			CreatedAt:   c.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// deleteContent godoc
// @Summary Delete content
// @Description Deletes one of the authenticated user's content items. Quota is not refunded.
// @Tags content
// @Param id path string true "Content ID"
// @Success 204
// @Failure 400 {string} string "Invalid content id"
// @Failure 401 {string} string "Unauthorized"
// @Failure 404 {string} string "Content not found"
// @Router /content/{id} [delete]
func (h *ContentHandler) deleteContent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.contentService.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
