package api

import (
	"errors"
	"net/http"

	"shuttle-booking/internal/domain/schedule"
	reqdto "shuttle-booking/internal/handler/dto/request"
	resdto "shuttle-booking/internal/handler/dto/response"
	"shuttle-booking/internal/handler/httperr"
	"shuttle-booking/internal/pkg/errs"
	"shuttle-booking/internal/usecase/commands"
	"shuttle-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type ScheduleHandler struct {
	scheduleCommands commands.ScheduleCommands
	scheduleQueries  queries.ScheduleQueries
}

func NewScheduleHandler(
	scheduleCommands commands.ScheduleCommands,
	scheduleQueries queries.ScheduleQueries,
) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleCommands: scheduleCommands,
		scheduleQueries:  scheduleQueries,
	}
}

// ListUpcomingDates is the public endpoint behind the booking form's date
// picker; past dates are filtered out.
func (h *ScheduleHandler) ListUpcomingDates(c *gin.Context) {
	dates, err := h.scheduleQueries.ListUpcomingDates(c.Request.Context())
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to load dates", nil)
		return
	}

	c.JSON(http.StatusOK, resdto.FromDates(dates))
}

func (h *ScheduleHandler) ListDates(c *gin.Context) {
	dates, err := h.scheduleQueries.ListDates(c.Request.Context())
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to load dates", nil)
		return
	}

	c.JSON(http.StatusOK, resdto.FromDates(dates))
}

func (h *ScheduleHandler) AddDate(c *gin.Context) {
	var req reqdto.AddDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	date, err := req.ParseDate()
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid date format, expected YYYY-MM-DD", nil)
		return
	}

	if err := h.scheduleCommands.AddDate(c.Request.Context(), date); err != nil {
		switch {
		case errors.Is(err, errs.ErrDateAlreadyExists):
			httperr.AbortWithError(c, http.StatusConflict, err, "Date is already open", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to open date", nil)
		}
		return
	}

	c.JSON(http.StatusCreated, resdto.AddDateResponse{Date: date.String()})
}

func (h *ScheduleHandler) RemoveDate(c *gin.Context) {
	date, err := schedule.ParseDate(c.Param("date"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid date format, expected YYYY-MM-DD", nil)
		return
	}

	if err := h.scheduleCommands.RemoveDate(c.Request.Context(), date); err != nil {
		switch {
		case errors.Is(err, errs.ErrDateNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Date is not open", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to close date", nil)
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ScheduleHandler) BatchAddByWeekday(c *gin.Context) {
	var req reqdto.BatchAddByWeekdayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	start, end, weekday, err := req.ParseRange()
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid date format, expected YYYY-MM-DD", nil)
		return
	}

	added, err := h.scheduleCommands.BatchAddByWeekday(c.Request.Context(), start, end, weekday)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidDateRange):
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Start date must not be after end date", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to open dates", nil)
		}
		return
	}

	c.JSON(http.StatusOK, resdto.BatchAddResponse{Added: added})
}
