package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studybits-backend/internal/http/response"
	"github.com/yungbote/studybits-backend/internal/modules/recommend"
	"github.com/yungbote/studybits-backend/internal/normalization"
	"github.com/yungbote/studybits-backend/internal/platform/ctxutil"
	"github.com/yungbote/studybits-backend/internal/platform/logger"
)

type Recommender interface {
	Recommend(ctx context.Context, in recommend.RecommendInput) ([]recommend.GroupSummary, error)
}

type RecommendationHandler struct {
	log         *logger.Logger
	recommender Recommender
}

func NewRecommendationHandler(log *logger.Logger, recommender Recommender) *RecommendationHandler {
	return &RecommendationHandler{
		log:         log.With("handler", "RecommendationHandler"),
		recommender: recommender,
	}
}

type recommendRequest struct {
	UID               string   `json:"uid" binding:"required"`
	CourseID          string   `json:"course_id" binding:"required"`
	UnitID            *string  `json:"unit_id"`
	UseUnits          bool     `json:"useUnits"`
	TopK              *int     `json:"top_k"`
	MatchThreshold    *float64 `json:"match_threshold"`
	DislikedThreshold *float64 `json:"disliked_threshold"`
}

// POST /api/recommendations
func (h *RecommendationHandler) Recommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	in := recommend.RecommendInput{
		UserID:            req.UID,
		CourseID:          req.CourseID,
		UnitID:            normalization.TrimPtr(req.UnitID),
		UseUnits:          req.UseUnits,
		MatchThreshold:    req.MatchThreshold,
		DislikedThreshold: req.DislikedThreshold,
	}
	if req.TopK != nil {
		in.TopK = *req.TopK
	}
	groups, err := h.recommender.Recommend(c.Request.Context(), in)
	if err != nil {
		h.log.Warn("Recommend failed", append(ctxutil.LogFields(c.Request.Context()), "error", err, "uid", req.UID, "course_id", req.CourseID)...)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, groups)
}
