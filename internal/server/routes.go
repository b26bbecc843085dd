package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"space-trips/internal/auth"
	"space-trips/internal/catalog"
	"space-trips/internal/database"
	"space-trips/internal/logger"
	"space-trips/internal/metrics"
	"space-trips/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RegisterRoutes sets up the router with all endpoints.
func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog(s.logger))
	r.Use(s.limiter.Middleware)

	r.Get("/health", s.healthHandler)
	if s.gatherer != nil {
		r.Handle("/metrics", metrics.Handler(s.gatherer))
	}

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/launches", s.ListLaunchesHandler)
		r.Get("/launches/{id}", s.GetLaunchHandler)
		r.Post("/login", s.LoginHandler)
		r.Get("/me", s.MeHandler)

		// Endpoints for trips
		r.Post("/trips", s.BookTripsHandler)
		r.Delete("/trips/{launchId}", s.CancelTripHandler)
	})

	return r
}

// healthHandler provides health information.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.db.Health())
}

// ListLaunchesHandler returns one page of launches, marking the ones the caller booked.
func (s *Server) ListLaunchesHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	after := r.URL.Query().Get("after")

	pageSize := 0
	if raw := r.URL.Query().Get("pageSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "pageSize must be an integer")
			return
		}
		pageSize = n
	}

	size, ok := patchSize(w, r)
	if !ok {
		return
	}

	page, err := s.catalog.ListLaunches(ctx, after, pageSize)
	if err != nil {
		s.fail(w, "listing launches", err)
		return
	}

	if user := auth.UserFromContext(ctx); user != nil {
		trips, err := s.db.FindTripsForUser(ctx, user.ID)
		if err != nil {
			s.fail(w, "loading trips", err)
			return
		}
		booked := models.BookedLaunchIDs(trips)
		for i := range page.Launches {
			page.Launches[i].IsBooked = booked[page.Launches[i].ID]
		}
	}

	models.SelectMissionPatch(page.Launches, size)
	writeJSON(w, http.StatusOK, page)
}

// GetLaunchHandler returns a single launch.
func (s *Server) GetLaunchHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "launch not found")
		return
	}
	size, ok := patchSize(w, r)
	if !ok {
		return
	}

	launch, err := s.catalog.GetLaunch(ctx, id)
	if err != nil {
		s.fail(w, "getting launch", err)
		return
	}
	if launch == nil {
		writeError(w, http.StatusNotFound, "launch not found")
		return
	}

	if user := auth.UserFromContext(ctx); user != nil {
		booked, err := s.db.IsBookedOnLaunch(ctx, user.ID, id)
		if err != nil {
			s.fail(w, "checking booking", err)
			return
		}
		launch.IsBooked = booked
	}

	launch.Mission.MissionPatch = launch.Mission.Patch(size)
	writeJSON(w, http.StatusOK, launch)
}

// patchSize reads the optional patchSize query parameter, writing a 400 when it is invalid.
func patchSize(w http.ResponseWriter, r *http.Request) (models.PatchSize, bool) {
	size, ok := models.ParsePatchSize(r.URL.Query().Get("patchSize"))
	if !ok {
		writeError(w, http.StatusBadRequest, "patchSize must be SMALL or LARGE")
	}
	return size, ok
}

type loginRequest struct {
	Email string `json:"email"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// LoginHandler returns the token for an email, registering the user if needed.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	user, token, err := s.resolver.Login(r.Context(), req.Email)
	if errors.Is(err, auth.ErrInvalidEmail) {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if err != nil {
		s.fail(w, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// MeHandler returns the caller with the launches they booked.
func (s *Server) MeHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	size, ok := patchSize(w, r)
	if !ok {
		return
	}

	trips, err := s.db.FindTripsForUser(ctx, user.ID)
	if err != nil {
		s.fail(w, "loading trips", err)
		return
	}
	ids := make([]int, 0, len(trips))
	for _, t := range trips {
		ids = append(ids, t.LaunchID)
	}

	launches, err := s.catalog.GetLaunchesByIDs(ctx, ids)
	if err != nil {
		s.fail(w, "loading booked launches", err)
		return
	}
	for i := range launches {
		launches[i].IsBooked = true
	}
	models.SelectMissionPatch(launches, size)

	me := *user
	me.Trips = launches
	writeJSON(w, http.StatusOK, me)
}

type bookTripsRequest struct {
	LaunchIDs launchIDList `json:"launchIds"`
}

// launchIDList accepts ids as JSON strings or numbers.
type launchIDList []string

func (l *launchIDList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ids := make([]string, len(raw))
	for i, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			ids[i] = s
			continue
		}
		ids[i] = string(item)
	}
	*l = ids
	return nil
}

// BookTripsHandler books every requested launch and reports which ones succeeded.
func (s *Server) BookTripsHandler(w http.ResponseWriter, r *http.Request) {
	var req bookTripsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	user := auth.UserFromContext(r.Context())
	resp, err := s.bookings.BookTrips(r.Context(), user, req.LaunchIDs)
	if err != nil {
		s.fail(w, "booking trips", err)
		return
	}
	models.SelectMissionPatch(resp.Launches, models.PatchLarge)
	writeJSON(w, tripStatus(user), resp)
}

// CancelTripHandler cancels the caller's trip on one launch.
func (s *Server) CancelTripHandler(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	resp, err := s.bookings.CancelTrip(r.Context(), user, chi.URLParam(r, "launchId"))
	if err != nil {
		s.fail(w, "cancelling trip", err)
		return
	}
	models.SelectMissionPatch(resp.Launches, models.PatchLarge)
	writeJSON(w, tripStatus(user), resp)
}

func tripStatus(user *models.User) int {
	if user == nil {
		return http.StatusUnauthorized
	}
	return http.StatusOK
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	s.logger.Error("request failed", logger.String("op", op), logger.Int("status", status), logger.Error(err))
	writeError(w, status, http.StatusText(status))
}

func statusFor(err error) int {
	if errors.Is(err, database.ErrStoreUnavailable) || errors.Is(err, catalog.ErrCatalogUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
