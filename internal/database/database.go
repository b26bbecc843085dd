package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"space-trips/internal/logger"
	"space-trips/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	// PostgreSQL driver
	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrStoreUnavailable marks failures caused by the database being unreachable.
var ErrStoreUnavailable = errors.New("reservation store unavailable")

// Service represents a service that interacts with a database.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health() map[string]string

	// Close terminates the database connection.
	// It returns an error if the connection cannot be closed.
	Close() error

	// FindOrCreateUser returns the user for email, creating it on first contact.
	// The bool reports whether the row was created by this call.
	FindOrCreateUser(ctx context.Context, email string) (*models.User, bool, error)
	FindTripsForUser(ctx context.Context, userID int64) ([]models.Trip, error)
	// CreateTrip is idempotent per (userID, launchID).
	CreateTrip(ctx context.Context, userID int64, launchID int) (*models.Trip, error)
	// DeleteTrip reports whether a row was removed. A missing row is not an error.
	DeleteTrip(ctx context.Context, userID int64, launchID int) (bool, error)
	IsBookedOnLaunch(ctx context.Context, userID int64, launchID int) (bool, error)
}

type service struct {
	db     *sql.DB
	logger logger.Logger
}

// New opens a pool against databaseURL. sql.Open does not connect; use Health or Ping to check.
func New(databaseURL string, log logger.Logger) (Service, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	return NewWithDB(db, log), nil
}

// NewWithDB wraps an existing pool.
func NewWithDB(db *sql.DB, log logger.Logger) Service {
	return &service{db: db, logger: log}
}

// Health checks the health of the database connection by pinging the database.
// It returns a map with keys indicating various health statistics.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	err := s.db.PingContext(ctx)
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		s.logger.Error("database health check failed", logger.Error(err))
		return stats
	}

	stats["status"] = "up"

	dbStats := s.db.Stats()
	stats["message"] = healthMessage(dbStats)
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()
	stats["max_idle_closed"] = strconv.FormatInt(dbStats.MaxIdleClosed, 10)
	stats["max_lifetime_closed"] = strconv.FormatInt(dbStats.MaxLifetimeClosed, 10)

	return stats
}

// heavyLoadPercent of the pool's open-connection limit counts as heavy load.
const heavyLoadPercent = 80

func healthMessage(dbStats sql.DBStats) string {
	if dbStats.WaitCount > 1000 {
		return "The database has a high number of wait events, indicating potential bottlenecks."
	}
	if limit := dbStats.MaxOpenConnections; limit > 0 && dbStats.OpenConnections*100 >= limit*heavyLoadPercent {
		return "The database is experiencing heavy load."
	}
	return "It's healthy"
}

// Close closes the database connection.
func (s *service) Close() error {
	s.logger.Info("disconnected from database")
	return s.db.Close()
}

func (s *service) FindOrCreateUser(ctx context.Context, email string) (*models.User, bool, error) {
	// xmax is zero only for a row inserted by this statement.
	query := `
		INSERT INTO users (email)
		VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, email, created_at, (xmax = 0) AS inserted
	`
	var (
		user     models.User
		inserted bool
	)
	err := s.db.QueryRowContext(ctx, query, strings.ToLower(email)).
		Scan(&user.ID, &user.Email, &user.CreatedAt, &inserted)
	if err != nil {
		return nil, false, storeError("find or create user", err)
	}
	if inserted {
		s.logger.Info("user created", logger.Int64("user_id", user.ID))
	}
	return &user, inserted, nil
}

func (s *service) FindTripsForUser(ctx context.Context, userID int64) ([]models.Trip, error) {
	query := `
		SELECT id, user_id, launch_id, created_at
		FROM trips
		WHERE user_id = $1
		ORDER BY launch_id
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, storeError("find trips", err)
	}
	defer rows.Close()

	trips := []models.Trip{}
	for rows.Next() {
		var trip models.Trip
		if err := rows.Scan(&trip.ID, &trip.UserID, &trip.LaunchID, &trip.CreatedAt); err != nil {
			return nil, storeError("scan trip", err)
		}
		trips = append(trips, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate trips", err)
	}
	return trips, nil
}

func (s *service) CreateTrip(ctx context.Context, userID int64, launchID int) (*models.Trip, error) {
	query := `
		INSERT INTO trips (user_id, launch_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, launch_id) DO UPDATE SET launch_id = EXCLUDED.launch_id
		RETURNING id, user_id, launch_id, created_at
	`
	var trip models.Trip
	err := s.db.QueryRowContext(ctx, query, userID, launchID).
		Scan(&trip.ID, &trip.UserID, &trip.LaunchID, &trip.CreatedAt)
	if err != nil {
		return nil, storeError("create trip", err)
	}
	return &trip, nil
}

func (s *service) DeleteTrip(ctx context.Context, userID int64, launchID int) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM trips WHERE user_id = $1 AND launch_id = $2`, userID, launchID)
	if err != nil {
		return false, storeError("delete trip", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storeError("delete trip rows affected", err)
	}
	return n > 0, nil
}

func (s *service) IsBookedOnLaunch(ctx context.Context, userID int64, launchID int) (bool, error) {
	var booked bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM trips WHERE user_id = $1 AND launch_id = $2)`,
		userID, launchID,
	).Scan(&booked)
	if err != nil {
		return false, storeError("check booking", err)
	}
	return booked, nil
}

func storeError(op string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
