package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"table-service-go/internal/app"
	"table-service-go/internal/domain"
)

type Server struct {
	App *app.App
}

const maxBody = 1 << 20

// statusFor maps a failure kind onto an HTTP status.
func statusFor(k domain.Kind) int {
	switch k {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidState, domain.KindInvalidTransition, domain.KindAlreadyRushed,
		domain.KindNothingToBill, domain.KindEmptyOrder, domain.KindDishUnavailable:
		return http.StatusConflict
	case domain.KindFlavorSelectionInvalid, domain.KindInvalidQuantity, domain.KindReasonRequired,
		domain.KindInvalidDiscount, domain.KindInvalidInput:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) ok(w http.ResponseWriter, data any) {
	app.WriteOK(w, http.StatusOK, data)
}

func (s *Server) created(w http.ResponseWriter, data any) {
	app.WriteOK(w, http.StatusCreated, data)
}

// fail reports err to the client. Domain failures carry their kind;
// anything else is logged and hidden behind a generic message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		app.WriteFail(w, statusFor(de.Kind), string(de.Kind), de.Error())
		return
	}
	s.App.Logger().Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	app.WriteFail(w, http.StatusInternalServerError, "Internal", "internal error")
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	app.WriteFail(w, http.StatusUnprocessableEntity, string(domain.KindInvalidInput), msg)
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.Errorf(domain.KindInvalidInput, "invalid request body: %v", err)
	}
	return nil
}

func parseIDParam(r *http.Request, key string) (int64, bool) {
	return parseInt64(chi.URLParam(r, key))
}

func parseInt64(s string) (int64, bool) {
	v := strings.TrimSpace(s)
	if v == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(v, 10, 64)
	return id, err == nil && id > 0
}

// idParam parses the {id} URL param, answering 404 when it is not a positive integer.
func (s *Server) idParam(w http.ResponseWriter, r *http.Request, what string) (int64, bool) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		app.WriteFail(w, http.StatusNotFound, string(domain.KindNotFound), "unknown "+what+" id "+chi.URLParam(r, "id"))
		return 0, false
	}
	return id, true
}

// parseTime accepts RFC 3339 or a plain date (YYYY-MM-DD, local time).
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, domain.Errorf(domain.KindInvalidInput, "bad time %q, want RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
