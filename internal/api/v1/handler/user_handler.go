package handler

import (
	"net/http"

	"creatorhub/internal/api/v1/dto"
	"creatorhub/internal/quota"
	"creatorhub/internal/service"

	"github.com/rs/zerolog"
)

type UserHandler struct {
	userService service.UserService
	logger      zerolog.Logger
}

func NewUserHandler(userService service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger.With().Str("handler", "UserHandler").Logger(),
	}
}

// RegisterRoutes mounts v1 user routes
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, mw func(http.Handler) http.Handler) {
	mux.Handle("GET /users/me/usage", mw(http.HandlerFunc(h.getUsage)))
}

// getUsage godoc
// @Summary Usage summary
// @Description Returns the authenticated user's plan, monthly usage and remaining quota.
// @Tags users
// @Produce json
// @Success 200 {object} dto.UsageResponseDTO
// @Failure 401 {string} string "Unauthorized"
// @Failure 404 {string} string "User not found"
// @Router /users/me/usage [get]
func (h *UserHandler) getUsage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	s, err := h.userService.Usage(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.UsageResponseDTO{
		Plan:               s.Plan.Upper(),
		SubscriptionActive: s.Active,
		ContentIdeas:       kindUsageDTO(s.Ideas),
		VideoRepurposing:   kindUsageDTO(s.VideoRepurpose),
		LastResetAt:        s.LastResetAt,
		Capabilities: dto.CapabilitiesDTO{
			AnalyticsHistoryDays: s.Capabilities.AnalyticsHistoryDays,
			CopyrightMonitoring:  s.Capabilities.CopyrightMonitoring,
			PrioritySupport:      s.Capabilities.PrioritySupport,
			CustomAITraining:     s.Capabilities.CustomAITraining,
		},
	})
}

func kindUsageDTO(u quota.KindUsage) dto.KindUsageDTO {
	return dto.KindUsageDTO{Used: u.Used, Limit: u.Limit, Remaining: u.Remaining}
}
