// Package http exposes the finance engine as a JSON API.
//
// This file holds the helpers that turn query strings, headers and JSON
// bodies into domain values.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

const (
	// UserIDHeader carries the caller identity set by the authenticating proxy.
	UserIDHeader  = "X-User-ID"
	DefaultUserID = "default"

	maxUserIDLength = 128
	maxBodyBytes    = 1 << 20
	timeOfDayLayout = "15:04"
)

// errBadRequest marks malformed requests (400) as opposed to well-formed
// requests carrying invalid values (422).
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// userID returns the caller identity, defaulting to DefaultUserID.
func userID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if id == "" {
		return DefaultUserID, nil
	}
	if len(id) > maxUserIDLength {
		return "", badRequest("%s too long", UserIDHeader)
	}
	for _, c := range id {
		if unicode.IsControl(c) || unicode.IsSpace(c) {
			return "", badRequest("%s contains invalid characters", UserIDHeader)
		}
	}
	return id, nil
}

// asOf returns the as_of query date, or today when absent.
func asOf(q url.Values, today core.Date) (core.Date, error) {
	v := strings.TrimSpace(q.Get("as_of"))
	if v == "" {
		return today, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, core.Invalid("as_of", err)
	}
	return d, nil
}

// parseDateRange reads from/to. Both or neither must be given; nil means
// unbounded.
func parseDateRange(q url.Values) (*core.DateRange, error) {
	from := strings.TrimSpace(q.Get("from"))
	to := strings.TrimSpace(q.Get("to"))
	if from == "" && to == "" {
		return nil, nil
	}
	if from == "" {
		return nil, core.Invalid("from", errors.New("from is required when to is set"))
	}
	if to == "" {
		return nil, core.Invalid("to", errors.New("to is required when from is set"))
	}

	fromDate, err := core.ParseDate(from)
	if err != nil {
		return nil, core.Invalid("from", err)
	}
	toDate, err := core.ParseDate(to)
	if err != nil {
		return nil, core.Invalid("to", err)
	}
	rng := &core.DateRange{From: fromDate, To: toDate}
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	return rng, nil
}

// parseTransactionFilter reads the from/to/type/goal query parameters.
func parseTransactionFilter(q url.Values) (store.TransactionFilter, error) {
	rng, err := parseDateRange(q)
	if err != nil {
		return store.TransactionFilter{}, err
	}
	return store.TransactionFilter{
		Range:  rng,
		Type:   core.TransactionType(strings.TrimSpace(q.Get("type"))),
		GoalID: strings.TrimSpace(q.Get("goal")),
	}, nil
}

// parseYearMonth reads year and month, defaulting each to the month of today.
func parseYearMonth(q url.Values, today core.Date) (year, month int, err error) {
	year, month = today.Year(), today.Month()
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		if year, err = strconv.Atoi(v); err != nil {
			return 0, 0, core.Invalid("year", errors.New("year must be a number"))
		}
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		if month, err = strconv.Atoi(v); err != nil {
			return 0, 0, core.Invalid("month", core.ErrInvalidMonth)
		}
	}
	return year, month, nil
}

// parseGranularity defaults to monthly.
func parseGranularity(q url.Values) (core.Granularity, error) {
	v := core.Granularity(strings.ToLower(strings.TrimSpace(q.Get("granularity"))))
	if v == "" {
		return core.Monthly, nil
	}
	if !v.Valid() {
		return "", core.Invalid("granularity", core.ErrInvalidPeriod)
	}
	return v, nil
}

// decodeJSON strictly decodes a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return badRequest("request body too large")
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		default:
			return badRequest("invalid JSON: %v", err)
		}
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

// parsePositive parses a required amount greater than zero.
func parsePositive(field, v string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(v)
	if err != nil {
		return decimal.Zero, core.Invalid(field, err)
	}
	return d, nil
}

// parseDecimal parses a possibly zero value. Empty input is zero.
func parseDecimal(field, v string) (decimal.Decimal, error) {
	if strings.TrimSpace(v) == "" {
		return decimal.Zero, nil
	}
	d, err := core.ParseSignedAmount(v)
	if err != nil {
		return decimal.Zero, core.Invalid(field, err)
	}
	return d, nil
}

// parseOptionalDecimal maps a missing or blank value to nil.
func parseOptionalDecimal(field string, v *string) (*decimal.Decimal, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	d, err := core.ParseSignedAmount(*v)
	if err != nil {
		return nil, core.Invalid(field, err)
	}
	return &d, nil
}

func parseOptionalDate(field string, v *string) (*core.Date, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	d, err := core.ParseDate(strings.TrimSpace(*v))
	if err != nil {
		return nil, core.Invalid(field, err)
	}
	return &d, nil
}

// parseTimeOfDay reads HH:MM into an offset from midnight.
func parseTimeOfDay(v string) (*time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(timeOfDayLayout, v)
	if err != nil {
		return nil, core.Invalid("time", core.ErrInvalidTimeOfDay)
	}
	offset := time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
	return &offset, nil
}

// sanitizeInput trims whitespace and drops control characters except tab
// and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
