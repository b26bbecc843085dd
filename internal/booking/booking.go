// Package booking books and cancels trips for a user.
//
// Booking several launches is not atomic: every launch id is attempted on its own
// and the response reports which launches ended up booked.
package booking

import (
	"context"
	"strconv"

	"space-trips/internal/logger"
	"space-trips/internal/metrics"
	"space-trips/internal/models"

	"golang.org/x/sync/errgroup"
)

const (
	MsgBooked          = "trips booked successfully"
	MsgPartiallyBooked = "some launches may not have been booked"
	MsgBookUnauth      = "you must be logged in to book trips"
	MsgCancelled       = "trip cancelled"
	MsgCancelFailed    = "failed to cancel trip"
	MsgCancelUnauth    = "you must be logged in to cancel trips"
	MsgLaunchNotFound  = "launch not found"
)

// LaunchFinder looks up a launch. A missing launch is nil, nil.
type LaunchFinder interface {
	GetLaunch(ctx context.Context, id int) (*models.Launch, error)
}

// TripStore persists trips.
type TripStore interface {
	CreateTrip(ctx context.Context, userID int64, launchID int) (*models.Trip, error)
	DeleteTrip(ctx context.Context, userID int64, launchID int) (bool, error)
}

// Service holds no state between calls.
type Service struct {
	launches LaunchFinder
	trips    TripStore
	logger   logger.Logger
	metrics  metrics.Recorder
}

func NewService(launches LaunchFinder, trips TripStore, log logger.Logger, rec metrics.Recorder) *Service {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Service{launches: launches, trips: trips, logger: log, metrics: rec}
}

// outcome is the result of one launch id: the booked launch, or nil when it could not be booked.
type outcome struct {
	launch *models.Launch
}

// BookTrips books every launch id for user. Unknown or malformed ids are per-item
// failures; catalog or store errors abort the whole request.
func (s *Service) BookTrips(ctx context.Context, user *models.User, launchIDs []string) (models.TripUpdateResponse, error) {
	if user == nil {
		return models.TripUpdateResponse{Success: false, Message: MsgBookUnauth, Launches: []models.Launch{}}, nil
	}

	outcomes := make([]outcome, len(launchIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, rawID := range launchIDs {
		i, rawID := i, rawID
		g.Go(func() error {
			launch, err := s.bookOne(gctx, user.ID, rawID)
			if err != nil {
				return err
			}
			outcomes[i] = outcome{launch: launch}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("booking aborted", logger.Int64("user_id", user.ID), logger.Error(err))
		return models.TripUpdateResponse{}, err
	}

	resp := foldBookings(outcomes)
	s.metrics.RecordBookedItems(len(resp.Launches), len(launchIDs)-len(resp.Launches))
	s.logger.Info("trips booked",
		logger.Int64("user_id", user.ID),
		logger.Int("requested", len(launchIDs)),
		logger.Int("booked", len(resp.Launches)))
	return resp, nil
}

func (s *Service) bookOne(ctx context.Context, userID int64, rawID string) (*models.Launch, error) {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		s.logger.Debug("skipping malformed launch id", logger.String("launch_id", rawID))
		return nil, nil
	}

	launch, err := s.launches.GetLaunch(ctx, id)
	if err != nil {
		return nil, err
	}
	if launch == nil {
		s.logger.Debug("skipping unknown launch", logger.Int("launch_id", id))
		return nil, nil
	}

	if _, err := s.trips.CreateTrip(ctx, userID, id); err != nil {
		return nil, err
	}
	launch.IsBooked = true
	return launch, nil
}

// foldBookings reduces per-item outcomes, in request order, to the response.
func foldBookings(outcomes []outcome) models.TripUpdateResponse {
	resp := models.TripUpdateResponse{Success: true, Message: MsgBooked, Launches: []models.Launch{}}
	for _, o := range outcomes {
		if o.launch == nil {
			resp.Success = false
			continue
		}
		resp.Launches = append(resp.Launches, *o.launch)
	}
	if !resp.Success {
		resp.Message = MsgPartiallyBooked
	}
	return resp
}

// CancelTrip removes user's trip on launchID. Cancelling a trip that does not exist succeeds.
func (s *Service) CancelTrip(ctx context.Context, user *models.User, launchID string) (models.TripUpdateResponse, error) {
	if user == nil {
		return models.TripUpdateResponse{Success: false, Message: MsgCancelUnauth, Launches: []models.Launch{}}, nil
	}

	id, err := strconv.Atoi(launchID)
	if err != nil {
		return models.TripUpdateResponse{Success: false, Message: MsgCancelFailed, Launches: []models.Launch{}}, nil
	}

	deleted, err := s.trips.DeleteTrip(ctx, user.ID, id)
	if err != nil {
		return models.TripUpdateResponse{}, err
	}
	s.metrics.RecordCancellation()
	s.logger.Info("trip cancelled",
		logger.Int64("user_id", user.ID),
		logger.Int("launch_id", id),
		logger.Bool("existed", deleted))

	launch, err := s.launches.GetLaunch(ctx, id)
	if err != nil {
		return models.TripUpdateResponse{}, err
	}
	if launch == nil {
		return models.TripUpdateResponse{
			Success:  false,
			Message:  MsgLaunchNotFound,
			Launches: []models.Launch{{ID: id, Cursor: strconv.Itoa(id), IsBooked: false}},
		}, nil
	}

	launch.IsBooked = false
	return models.TripUpdateResponse{Success: true, Message: MsgCancelled, Launches: []models.Launch{*launch}}, nil
}
