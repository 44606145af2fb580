package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studybits-backend/internal/http/response"
	"github.com/yungbote/studybits-backend/internal/platform/logger"
)

type Classifier interface {
	ClassifyQuestion(ctx context.Context, questionID string) ([]string, error)
	ClassifyCourse(ctx context.Context, courseName string) ([]string, error)
	ClassifyUnit(ctx context.Context, unitName string) ([]string, error)
}

type ClassifyHandler struct {
	log        *logger.Logger
	classifier Classifier
}

func NewClassifyHandler(log *logger.Logger, classifier Classifier) *ClassifyHandler {
	return &ClassifyHandler{
		log:        log.With("handler", "ClassifyHandler"),
		classifier: classifier,
	}
}

type classifyQuestionRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
}

type classifyCourseRequest struct {
	CourseName string `json:"course_name" binding:"required"`
}

type classifyUnitRequest struct {
	UnitName string `json:"unit_name" binding:"required"`
}

// POST /api/classify/question
func (h *ClassifyHandler) ClassifyQuestion(c *gin.Context) {
	var req classifyQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	h.respond(c, "ClassifyQuestion", func(ctx context.Context) ([]string, error) {
		return h.classifier.ClassifyQuestion(ctx, req.QuestionID)
	})
}

// POST /api/classify/course
func (h *ClassifyHandler) ClassifyCourse(c *gin.Context) {
	var req classifyCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	h.respond(c, "ClassifyCourse", func(ctx context.Context) ([]string, error) {
		return h.classifier.ClassifyCourse(ctx, req.CourseName)
	})
}

// POST /api/classify/unit
func (h *ClassifyHandler) ClassifyUnit(c *gin.Context) {
	var req classifyUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	h.respond(c, "ClassifyUnit", func(ctx context.Context) ([]string, error) {
		return h.classifier.ClassifyUnit(ctx, req.UnitName)
	})
}

func (h *ClassifyHandler) respond(c *gin.Context, op string, fn func(context.Context) ([]string, error)) {
	tags, err := fn(c.Request.Context())
	if err != nil {
		h.log.Warn(op+" failed", "error", err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tags": tags})
}
