package response

import "shuttle-booking/internal/domain/schedule"

type DateListResponse struct {
	Dates []string `json:"dates"`
}

type AddDateResponse struct {
	Date string `json:"date"`
}

type BatchAddResponse struct {
	Added int `json:"added"`
}

func FromDates(dates []schedule.Date) DateListResponse {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.String()
	}
	return DateListResponse{Dates: out}
}
