package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io/fs"
	"testing"
	"time"

	"space-trips/internal/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockService(t *testing.T, monitorPings ...bool) (*service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(len(monitorPings) > 0 && monitorPings[0]))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &service{db: db, logger: logger.NewNop()}, mock
}

func TestFindOrCreateUser_Creates(t *testing.T) {
	s, mock := newMockService(t)
	created := time.Date(2049, time.December, 25, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("a@a.a").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "created_at", "inserted"}).
			AddRow(int64(1), "a@a.a", created, true))

	user, inserted, err := s.FindOrCreateUser(context.Background(), "A@a.a")
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "a@a.a", user.Email)
	assert.Equal(t, created, user.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOrCreateUser_ExistingIsNotDuplicated(t *testing.T) {
	s, mock := newMockService(t)
	rows := func(inserted bool) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "email", "created_at", "inserted"}).
			AddRow(int64(7), "a@a.a", time.Now(), inserted)
	}
	mock.ExpectQuery("INSERT INTO users").WithArgs("a@a.a").WillReturnRows(rows(true))
	mock.ExpectQuery("INSERT INTO users").WithArgs("a@a.a").WillReturnRows(rows(false))

	first, created, err := s.FindOrCreateUser(context.Background(), "a@a.a")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := s.FindOrCreateUser(context.Background(), "a@a.a")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOrCreateUser_Unavailable(t *testing.T) {
	s, mock := newMockService(t)
	mock.ExpectQuery("INSERT INTO users").WillReturnError(driver.ErrBadConn)

	_, _, err := s.FindOrCreateUser(context.Background(), "a@a.a")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestFindTripsForUser(t *testing.T) {
	s, mock := newMockService(t)
	now := time.Now()

	mock.ExpectQuery("SELECT id, user_id, launch_id, created_at FROM trips").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "launch_id", "created_at"}).
			AddRow(int64(10), int64(1), 1, now).
			AddRow(int64(11), int64(1), 3, now))

	trips, err := s.FindTripsForUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, trips, 2)
	assert.Equal(t, 1, trips[0].LaunchID)
	assert.Equal(t, 3, trips[1].LaunchID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindTripsForUser_Empty(t *testing.T) {
	s, mock := newMockService(t)
	mock.ExpectQuery("SELECT id, user_id, launch_id, created_at FROM trips").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "launch_id", "created_at"}))

	trips, err := s.FindTripsForUser(context.Background(), 2)
	require.NoError(t, err)
	assert.NotNil(t, trips)
	assert.Empty(t, trips)
}

func TestFindTripsForUser_QueryError(t *testing.T) {
	s, mock := newMockService(t)
	mock.ExpectQuery("SELECT id, user_id, launch_id, created_at FROM trips").
		WillReturnError(errors.New("syntax error"))

	_, err := s.FindTripsForUser(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStoreUnavailable)
}

func TestCreateTrip(t *testing.T) {
	s, mock := newMockService(t)
	now := time.Now()
	mock.ExpectQuery("INSERT INTO trips").
		WithArgs(int64(1), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "launch_id", "created_at"}).
			AddRow(int64(5), int64(1), 1, now))

	trip, err := s.CreateTrip(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), trip.ID)
	assert.Equal(t, int64(1), trip.UserID)
	assert.Equal(t, 1, trip.LaunchID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTrip_Error(t *testing.T) {
	s, mock := newMockService(t)
	mock.ExpectQuery("INSERT INTO trips").WillReturnError(sql.ErrConnDone)

	_, err := s.CreateTrip(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestDeleteTrip(t *testing.T) {
	s, mock := newMockService(t)
	mock.ExpectExec("DELETE FROM trips").
		WithArgs(int64(1), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM trips").
		WithArgs(int64(1), 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := s.DeleteTrip(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.True(t, deleted)

	// A missing row is a no-op, not an error.
	deleted, err = s.DeleteTrip(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsBookedOnLaunch(t *testing.T) {
	s, mock := newMockService(t)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(1), 1).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	booked, err := s.IsBookedOnLaunch(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.True(t, booked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealth(t *testing.T) {
	s, mock := newMockService(t, true)
	mock.ExpectPing()

	stats := s.Health()
	assert.Equal(t, "up", stats["status"])
	assert.Equal(t, "It's healthy", stats["message"])
	assert.Contains(t, stats, "open_connections")
}

func TestHealth_Down(t *testing.T) {
	s, mock := newMockService(t, true)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	stats := s.Health()
	assert.Equal(t, "down", stats["status"])
	assert.Contains(t, stats["error"], "connection refused")
}

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	assert.Contains(t, files, "migrations/000001_create_users_trips.up.sql")
	assert.Contains(t, files, "migrations/000001_create_users_trips.down.sql")

	up, err := fs.ReadFile(migrationsFS, "migrations/000001_create_users_trips.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(up), "UNIQUE (user_id, launch_id)")
	assert.Contains(t, string(up), "email      TEXT NOT NULL UNIQUE")
}

func TestHealthMessage(t *testing.T) {
	cases := []struct {
		name  string
		stats sql.DBStats
		want  string
	}{
		{"idle pool", sql.DBStats{MaxOpenConnections: 25, OpenConnections: 2}, "It's healthy"},
		{"below threshold", sql.DBStats{MaxOpenConnections: 25, OpenConnections: 19}, "It's healthy"},
		{"at threshold", sql.DBStats{MaxOpenConnections: 25, OpenConnections: 20}, "The database is experiencing heavy load."},
		{"saturated", sql.DBStats{MaxOpenConnections: 25, OpenConnections: 25}, "The database is experiencing heavy load."},
		{"unlimited pool", sql.DBStats{OpenConnections: 500}, "It's healthy"},
		{"many waits", sql.DBStats{MaxOpenConnections: 25, OpenConnections: 25, WaitCount: 1001},
			"The database has a high number of wait events, indicating potential bottlenecks."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, healthMessage(tc.stats))
		})
	}
}
