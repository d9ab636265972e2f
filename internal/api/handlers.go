package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/verte-zerg/katalyst/internal/catalog"
	"github.com/verte-zerg/katalyst/internal/logger"
	"github.com/verte-zerg/katalyst/internal/model"
	"github.com/verte-zerg/katalyst/internal/progress"
)

const (
	msgProgressUpdated = "Progress updated successfully"
	msgNoProgress      = "No progress recorded for this user and course"
)

// Handler serves the catalog and progress endpoints.
type Handler struct {
	log      *logger.Logger
	catalog  *catalog.Service
	progress *progress.Service
}

// NewHandler wires the services behind the HTTP surface.
func NewHandler(log *logger.Logger, courses *catalog.Service, prog *progress.Service) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		log:      log.With("handler", "CourseHandler"),
		catalog:  courses,
		progress: prog,
	}
}

// ListCoursesResponse is the body of GET /courses.
type ListCoursesResponse struct {
	Courses []model.CourseSummary `json:"courses"`
}

// ProgressUpdatedResponse is the body of POST /courses/:id/progress.
type ProgressUpdatedResponse struct {
	Message         string               `json:"message"`
	CurrentProgress model.ProgressRecord `json:"currentProgress"`
}

// ProgressResponse is the body of GET /courses/:id/progress/:userId.
type ProgressResponse struct {
	model.ProgressRecord
	Message string `json:"message,omitempty"`
}

func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *Handler) ListCourses(c *gin.Context) {
	list, err := h.catalog.List(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, "ListCourses", err)
		return
	}
	RespondOK(c, ListCoursesResponse{Courses: list})
}

func (h *Handler) GetCourse(c *gin.Context) {
	course, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, "GetCourse", err)
		return
	}
	RespondOK(c, course)
}

func (h *Handler) CreateCourse(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	course, err := catalog.DecodeJSON(body)
	if err != nil {
		h.respondServiceError(c, "CreateCourse", err)
		return
	}
	created, err := h.catalog.Create(c.Request.Context(), course)
	if err != nil {
		h.respondServiceError(c, "CreateCourse", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) RecordProgress(c *gin.Context) {
	var update model.ProgressUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_json", fmt.Errorf("invalid progress body: %w", err))
		return
	}
	update.CourseID = c.Param("id")
	rec, err := h.progress.RecordProgress(c.Request.Context(), update)
	if err != nil {
		h.respondServiceError(c, "RecordProgress", err)
		return
	}
	RespondOK(c, ProgressUpdatedResponse{Message: msgProgressUpdated, CurrentProgress: rec})
}

func (h *Handler) GetProgress(c *gin.Context) {
	rec, found, err := h.progress.GetProgress(c.Request.Context(), c.Param("userId"), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, "GetProgress", err)
		return
	}
	resp := ProgressResponse{ProgressRecord: rec}
	if !found {
		resp.Message = msgNoProgress
	}
	RespondOK(c, resp)
}
