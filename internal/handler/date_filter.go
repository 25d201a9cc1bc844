package handler

import (
	"errors"
	"net/http"
	"time"
)

const dateLayout = "2006-01-02"

func parseDateQuery(r *http.Request, key string) (*time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// parseDateRange reads startDate/endDate query params. endDate is
// exclusive of the following day so a single-day range works naturally.
func parseDateRange(r *http.Request) (*time.Time, *time.Time, error) {
	from, err := parseDateQuery(r, "startDate")
	if err != nil {
		return nil, nil, errors.New("invalid startDate")
	}
	to, err := parseDateQuery(r, "endDate")
	if err != nil {
		return nil, nil, errors.New("invalid endDate")
	}
	if to != nil {
		next := to.AddDate(0, 0, 1)
		to = &next
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, nil, errors.New("startDate must be before endDate")
	}
	return from, to, nil
}
