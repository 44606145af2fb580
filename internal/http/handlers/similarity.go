package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studybits-backend/internal/http/response"
	"github.com/yungbote/studybits-backend/internal/modules/similarity"
	"github.com/yungbote/studybits-backend/internal/normalization"
	"github.com/yungbote/studybits-backend/internal/platform/logger"
)

type SimilarityFinder interface {
	FindSimilar(ctx context.Context, in similarity.FindInput) ([]similarity.Match, error)
}

type SimilarityHandler struct {
	log    *logger.Logger
	finder SimilarityFinder
}

func NewSimilarityHandler(log *logger.Logger, finder SimilarityFinder) *SimilarityHandler {
	return &SimilarityHandler{
		log:    log.With("handler", "SimilarityHandler"),
		finder: finder,
	}
}

type similarCoursesRequest struct {
	CourseID                  string   `json:"course_id" binding:"required"`
	UnitID                    *string  `json:"unit_id"`
	TopK                      *int     `json:"top_k"`
	UnitSimilarityThreshold   *float64 `json:"unit_similarity_threshold"`
	CourseSimilarityThreshold *float64 `json:"course_similarity_threshold"`
}

// POST /api/similar-courses
func (h *SimilarityHandler) SimilarCourses(c *gin.Context) {
	var req similarCoursesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	in := similarity.FindInput{
		CourseID:        req.CourseID,
		UnitID:          normalization.TrimPtr(req.UnitID),
		UnitThreshold:   req.UnitSimilarityThreshold,
		CourseThreshold: req.CourseSimilarityThreshold,
	}
	if req.TopK != nil {
		in.TopK = *req.TopK
	}
	matches, err := h.finder.FindSimilar(c.Request.Context(), in)
	if err != nil {
		h.log.Warn("SimilarCourses failed", "error", err, "course_id", req.CourseID)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"similar_courses": matches})
}
