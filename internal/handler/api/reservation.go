package api

import (
	"errors"
	"net/http"

	"shuttle-booking/internal/domain/schedule"
	reqdto "shuttle-booking/internal/handler/dto/request"
	resdto "shuttle-booking/internal/handler/dto/response"
	"shuttle-booking/internal/pkg/errs"
	"shuttle-booking/internal/usecase/commands"
	"shuttle-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	reservationCommands commands.ReservationCommands
	reservationQueries  queries.ReservationQueries
}

func NewReservationHandler(
	reservationCommands commands.ReservationCommands,
	reservationQueries queries.ReservationQueries,
) *ReservationHandler {
	return &ReservationHandler{
		reservationCommands: reservationCommands,
		reservationQueries:  reservationQueries,
	}
}

func (h *ReservationHandler) Admit(c *gin.Context) {
	var req reqdto.AdmitReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	date, err := req.ParseDate()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid date format, expected YYYY-MM-DD",
		})
		return
	}

	params := commands.AdmitParams{
		Date:        date,
		MRN:         req.MRN,
		PatientName: req.PatientName,
		Phone:       req.Phone,
		FamilyCount: *req.FamilyCount,
	}

	created, err := h.reservationCommands.Admit(c.Request.Context(), params)
	if err != nil {
		h.renderAdmitError(c, err)
		return
	}

	view := queries.ReservationView{
		ID:          created.ID(),
		Date:        created.Date(),
		MRN:         created.MRN().String(),
		PatientName: created.PatientName().String(),
		Phone:       created.Phone().String(),
		FamilyCount: created.FamilyCount().Int(),
		CreatedAt:   created.CreatedAt(),
	}
	c.JSON(http.StatusCreated, resdto.FromReservationView(view))
}

func (h *ReservationHandler) renderAdmitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "Invalid reservation data",
		})
	case errors.Is(err, errs.ErrDateNotAvailable):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Date is not open for reservations",
		})
	case errors.Is(err, errs.ErrDuplicateBooking):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Patient already has a reservation for this date",
		})
	case errors.Is(err, errs.ErrPatientQuotaExceeded):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Patient quota is full for this date",
		})
	case errors.Is(err, errs.ErrSeatQuotaExceeded):
		body := gin.H{"error": "Not enough seats left for this date"}
		var quotaErr *commands.SeatQuotaError
		if errors.As(err, &quotaErr) {
			body["remainingSeats"] = quotaErr.RemainingSeats
			body["neededSeats"] = quotaErr.NeededSeats
		}
		c.JSON(http.StatusConflict, body)
	case errors.Is(err, errs.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Reservation conflicted with concurrent requests, please retry",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}

func (h *ReservationHandler) Cancel(c *gin.Context) {
	var req reqdto.CancelReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	deleted, err := h.reservationCommands.Cancel(c.Request.Context(), req.MRN, req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "MRN and phone are required",
			})
		case errors.Is(err, errs.ErrReservationNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "No reservation matches the given MRN and phone",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.CancelResponse{Deleted: deleted})
}

func (h *ReservationHandler) GetCapacity(c *gin.Context) {
	date, ok := h.parseDateParam(c)
	if !ok {
		return
	}

	capacity, err := h.reservationQueries.CapacityFor(c.Request.Context(), date)
	if err != nil {
		h.renderQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromCapacityView(capacity))
}

func (h *ReservationHandler) GetDayLedger(c *gin.Context) {
	date, ok := h.parseDateParam(c)
	if !ok {
		return
	}

	ledger, err := h.reservationQueries.ListByDate(c.Request.Context(), date)
	if err != nil {
		h.renderQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromDayLedgerView(ledger))
}

func (h *ReservationHandler) parseDateParam(c *gin.Context) (schedule.Date, bool) {
	date, err := schedule.ParseDate(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid date format, expected YYYY-MM-DD",
		})
		return schedule.Date{}, false
	}
	return date, true
}

func (h *ReservationHandler) renderQueryError(c *gin.Context, _ error) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Internal server error",
	})
}
