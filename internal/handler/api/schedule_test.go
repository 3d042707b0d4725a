//go:build unit

package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shuttle-booking/internal/handler/api"
	"shuttle-booking/internal/handler/middleware"
	"shuttle-booking/internal/infra/memstore"
	"shuttle-booking/internal/pkg/clock"
	"shuttle-booking/internal/usecase/commands"
	"shuttle-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

type ScheduleHandlerTestSuite struct {
	suite.Suite
	router *gin.Engine
	clock  *clock.MockClock
}

func (s *ScheduleHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.router.Use(middleware.ErrorHandler())
	s.clock = clock.NewMockClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	store := memstore.New()
	handler := api.NewScheduleHandler(
		commands.NewScheduleCommands(store),
		queries.NewScheduleQueries(store, s.clock),
	)

	s.router.GET("/dates", handler.ListUpcomingDates)
	s.router.GET("/admin/dates", handler.ListDates)
	s.router.POST("/admin/dates", handler.AddDate)
	s.router.POST("/admin/dates/batch", handler.BatchAddByWeekday)
	s.router.DELETE("/admin/dates/:date", handler.RemoveDate)
}

func TestScheduleHandlerSuite(t *testing.T) {
	suite.Run(t, new(ScheduleHandlerTestSuite))
}

func (s *ScheduleHandlerTestSuite) do(method, url string, body map[string]any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *ScheduleHandlerTestSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func (s *ScheduleHandlerTestSuite) TestAddDate() {
	s.Run("201 opens the date", func() {
		rec := s.do(http.MethodPost, "/admin/dates", map[string]any{"date": "2026-03-12"})
		s.Equal(http.StatusCreated, rec.Code)
		s.Equal("2026-03-12", s.decode(rec)["date"])
	})

	s.Run("409 when already open", func() {
		rec := s.do(http.MethodPost, "/admin/dates", map[string]any{"date": "2026-03-12"})
		s.Equal(http.StatusConflict, rec.Code)

		body := s.decode(rec)
		errObj, ok := body["error"].(map[string]any)
		s.Require().True(ok)
		s.Equal("Date is already open", errObj["message"])
	})

	s.Run("400 for a bad date", func() {
		rec := s.do(http.MethodPost, "/admin/dates", map[string]any{"date": "12/03/2026"})
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *ScheduleHandlerTestSuite) TestRemoveDate() {
	s.Require().Equal(http.StatusCreated,
		s.do(http.MethodPost, "/admin/dates", map[string]any{"date": "2026-03-12"}).Code)

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/admin/dates/2026-03-12", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/admin/dates/2026-03-12", nil).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodDelete, "/admin/dates/not-a-date", nil).Code)
}

func (s *ScheduleHandlerTestSuite) TestBatchAddByWeekday() {
	s.Run("200 with added count", func() {
		rec := s.do(http.MethodPost, "/admin/dates/batch", map[string]any{
			"startDate": "2026-03-01",
			"endDate":   "2026-03-31",
			"weekday":   4,
		})
		s.Equal(http.StatusOK, rec.Code)
		s.Equal(float64(4), s.decode(rec)["added"])
	})

	s.Run("rerun adds nothing", func() {
		rec := s.do(http.MethodPost, "/admin/dates/batch", map[string]any{
			"startDate": "2026-03-01",
			"endDate":   "2026-03-31",
			"weekday":   4,
		})
		s.Equal(http.StatusOK, rec.Code)
		s.Equal(float64(0), s.decode(rec)["added"])
	})

	s.Run("400 for reversed range", func() {
		rec := s.do(http.MethodPost, "/admin/dates/batch", map[string]any{
			"startDate": "2026-03-31",
			"endDate":   "2026-03-01",
			"weekday":   4,
		})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("400 for weekday out of range", func() {
		rec := s.do(http.MethodPost, "/admin/dates/batch", map[string]any{
			"startDate": "2026-03-01",
			"endDate":   "2026-03-31",
			"weekday":   7,
		})
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *ScheduleHandlerTestSuite) TestListDates() {
	for _, d := range []string{"2026-03-05", "2026-03-12", "2026-02-26"} {
		s.Require().Equal(http.StatusCreated,
			s.do(http.MethodPost, "/admin/dates", map[string]any{"date": d}).Code)
	}

	s.Run("admin list includes past dates ascending", func() {
		rec := s.do(http.MethodGet, "/admin/dates", nil)
		s.Equal(http.StatusOK, rec.Code)

		body := s.decode(rec)
		s.Equal([]any{"2026-02-26", "2026-03-05", "2026-03-12"}, body["dates"])
	})

	s.Run("public list hides past dates", func() {
		rec := s.do(http.MethodGet, "/dates", nil)
		s.Equal(http.StatusOK, rec.Code)

		body := s.decode(rec)
		s.Equal([]any{"2026-03-12"}, body["dates"])
	})
}
