package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bou-cse/routines-api/internal/dto"
	"github.com/bou-cse/routines-api/internal/service"
	appErrors "github.com/bou-cse/routines-api/pkg/errors"
	"github.com/bou-cse/routines-api/pkg/response"
)

// RoutineHandler exposes routine generation, conflict checking, the
// rendered grid and file exports.
type RoutineHandler struct {
	routines  *service.RoutineService
	conflicts *service.ConflictService
	exports   *service.ExportService
}

// NewRoutineHandler constructs a routine handler.
func NewRoutineHandler(routines *service.RoutineService, conflicts *service.ConflictService, exports *service.ExportService) *RoutineHandler {
	return &RoutineHandler{routines: routines, conflicts: conflicts, exports: exports}
}

// Generate godoc
// @Summary Regenerate a term's routine
// @Description Validates all proposed rows and, when conflict-free, replaces the term's weekly template and dated sessions. Returns 409 with the conflict list when any overlap is found; nothing is written in that case.
// @Tags Routines
// @Accept json
// @Produce json
// @Param payload body dto.GenerateRoutineRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /routines/generate [post]
func (h *RoutineHandler) Generate(c *gin.Context) {
	var req dto.GenerateRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.routines.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(result.Conflicts) > 0 {
		response.JSON(c, http.StatusConflict, result, nil)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// CheckConflicts godoc
// @Summary Probe a single slot for conflicts
// @Tags Routines
// @Produce json
// @Param termId query string false "Term ID for lunch break fallback"
// @Param weekday query string true "Weekday name"
// @Param startTime query string true "Slot start (HH:MM)"
// @Param endTime query string true "Slot end (HH:MM)"
// @Param teacherId query string true "Teacher ID"
// @Param excludeCourseId query string false "Course whose own rows are ignored"
// @Param lunchBreakStart query string false "Lunch break override start (HH:MM)"
// @Param lunchBreakEnd query string false "Lunch break override end (HH:MM)"
// @Success 200 {object} response.Envelope
// @Router /routines/conflicts [get]
func (h *RoutineHandler) CheckConflicts(c *gin.Context) {
	var query dto.ConflictCheckQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	result, err := h.conflicts.Check(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Grid godoc
// @Summary Get the rendered routine grid for a term
// @Tags Routines
// @Produce json
// @Param termId path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /routines/{termId}/grid [get]
func (h *RoutineHandler) Grid(c *gin.Context) {
	grid, err := h.routines.Grid(c.Request.Context(), c.Param("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid, nil)
}

// Sessions godoc
// @Summary List a term's generated class sessions
// @Tags Routines
// @Produce json
// @Param termId path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /routines/{termId}/sessions [get]
func (h *RoutineHandler) Sessions(c *gin.Context) {
	sessions, err := h.routines.Sessions(c.Request.Context(), c.Param("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// Templates godoc
// @Summary List a term's weekly template rows
// @Tags Routines
// @Produce json
// @Param termId path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /routines/{termId}/templates [get]
func (h *RoutineHandler) Templates(c *gin.Context) {
	rows, err := h.routines.Templates(c.Request.Context(), c.Param("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// ExportCSV godoc
// @Summary Download the routine as CSV
// @Tags Routines
// @Produce text/csv
// @Param termId path string true "Term ID"
// @Success 200 {file} file
// @Router /routines/{termId}/export/csv [get]
func (h *RoutineHandler) ExportCSV(c *gin.Context) {
	file, err := h.exports.RoutineCSV(c.Request.Context(), c.Param("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, file)
}

// ExportPDF godoc
// @Summary Download the printable routine as PDF
// @Tags Routines
// @Produce application/pdf
// @Param termId path string true "Term ID"
// @Success 200 {file} file
// @Router /routines/{termId}/export/pdf [get]
func (h *RoutineHandler) ExportPDF(c *gin.Context) {
	file, err := h.exports.RoutinePDF(c.Request.Context(), c.Param("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, file)
}

func serveFile(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
