package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

var errMissingUserHeader = fmt.Errorf("%w: %s header is required", domain.ErrInvalidInput, models.HeaderUserID)

// actingUser reads the caller's id from the sharer header.
func actingUser(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(models.HeaderUserID))
	if raw == "" {
		return 0, errMissingUserHeader
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", domain.ErrInvalidInput, models.HeaderUserID, raw)
	}
	return id, nil
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", domain.ErrInvalidInput, raw)
	}
	return id, nil
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// statusFor maps the domain error classes to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, code, "internal server error")
		return
	}
	writeError(w, code, err.Error())
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.PingContext(r.Context()); err != nil {
			s.logger.Error().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	user, err := s.svc.Users.RegisterUser(r.Context(), &models.User{Name: body.Name, Email: body.Email})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *HTTPServer) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	user, err := s.svc.Users.GetUser(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.Users.ListUsers(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *HTTPServer) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var patch models.UserPatch
	if err := decodeBody(r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}

	user, err := s.svc.Users.UpdateUser(r.Context(), id, patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.Users.DeleteUser(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	ownerID, err := actingUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Available   *bool  `json:"available"`
		RequestID   *int64 `json:"request_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if body.Available == nil {
		s.fail(w, r, fmt.Errorf("%w: available is required", domain.ErrValidation))
		return
	}

	item, err := s.svc.Items.CreateItem(r.Context(), ownerID, &models.Item{
		Name:        body.Name,
		Description: body.Description,
		Available:   *body.Available,
		RequestID:   body.RequestID,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *HTTPServer) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	ownerID, err := actingUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	itemID, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var patch models.ItemPatch
	if err := decodeBody(r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}

	item, err := s.svc.Items.UpdateItem(r.Context(), ownerID, itemID, patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *HTTPServer) handleGetItem(w http.ResponseWriter, r *http.Request) {
	viewerID, err := actingUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	itemID, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	view, err := s.svc.Items.GetItem(r.Context(), viewerID, itemID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleListItems(w http.ResponseWriter, r *http.Request) {
	ownerID, err := actingUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	views, err := s.svc.Items.ListOwnerItems(r.Context(), ownerID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *HTTPServer) handleSearchItems(w http.ResponseWriter, r *http.Request) {
	if _, err := actingUser(r); err != nil {
		s.fail(w, r, err)
		return
	}
	items, err := s.svc.Items.SearchItems(r.Context(), r.URL.Query().Get("text"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	authorID, err := actingUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	itemID, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	comment, err := s.svc.Items.CreateComment(r.Context(), authorID, itemID, body.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	bookerID, err := actingUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body struct {
		ItemID int64      `json:"item_id"`
		Start  *time.Time `json:"start"`
		End    *time.Time `json:"end"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if body.Start == nil || body.End == nil {
		s.fail(w, r, fmt.Errorf("%w: start and end are required", domain.ErrValidation))
		return
	}

	view, err := s.svc.Bookings.CreateBooking(r.Context(), bookerID, body.ItemID, body.Start.UTC(), body.End.UTC())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *HTTPServer) handleConfirmBooking(w http.ResponseWriter, r *http.Request) {
	ownerID, err := actingUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bookingID, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var approve *bool
	if raw := strings.TrimSpace(r.URL.Query().Get("approved")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			s.fail(w, r, fmt.Errorf("%w: approved must be true or false", domain.ErrInvalidInput))
			return
		}
		approve = &v
	}

	view, err := s.svc.Bookings.ConfirmBooking(r.Context(), ownerID, bookingID, approve)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bookingID, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	view, err := s.svc.Bookings.GetBooking(r.Context(), userID, bookingID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleListBookerBookings(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	views, err := s.svc.Bookings.ListForBooker(r.Context(), userID, r.URL.Query().Get("state"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *HTTPServer) handleListOwnerBookings(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	views, err := s.svc.Bookings.ListForOwner(r.Context(), userID, r.URL.Query().Get("state"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}
