//go:build integration

package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/careconnect/booking-backend/internal/adapters/database"
	"github.com/careconnect/booking-backend/internal/domain/entities"
	"github.com/careconnect/booking-backend/internal/domain/repositories"
	"github.com/careconnect/booking-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/careconnect/booking-backend/pkg/errors"
)

type AppointmentAdapterIntegrationTestSuite struct {
	suite.Suite
	client  *postgres.Client
	adapter repositories.AppointmentRepository
	db      *sql.DB
}

func (suite *AppointmentAdapterIntegrationTestSuite) SetupSuite() {
	client := newTestPostgresClient(suite.T())

	suite.client = client
	suite.db = client.DB()
	suite.adapter = database.NewAppointmentAdapter(client)

	suite.runMigrations()
}

func (suite *AppointmentAdapterIntegrationTestSuite) TearDownSuite() {
	if suite.client != nil {
		suite.client.Close()
	}
}

func (suite *AppointmentAdapterIntegrationTestSuite) SetupTest() {
	suite.cleanupTestData()
}

func (suite *AppointmentAdapterIntegrationTestSuite) TearDownTest() {
	suite.cleanupTestData()
}

func (suite *AppointmentAdapterIntegrationTestSuite) runMigrations() {
	migrationPath := "../../migrations/001_initial_schema.sql"
	migrationSQL, err := os.ReadFile(migrationPath)
	require.NoError(suite.T(), err)
	_, err = suite.db.Exec(string(migrationSQL))
	require.NoError(suite.T(), err)
}

func (suite *AppointmentAdapterIntegrationTestSuite) cleanupTestData() {
	tables := []string{
		"appointment_notifications",
		"appointments",
		"calendar_credentials",
	}
	for _, table := range tables {
		_, err := suite.db.Exec(fmt.Sprintf("DELETE FROM %s", table))
		require.NoError(suite.T(), err)
	}
}

func (suite *AppointmentAdapterIntegrationTestSuite) newAppointment(startsAt time.Time) *entities.Appointment {
	return &entities.Appointment{
		ID:           uuid.New().String(),
		PatientID:    "patient-1",
		ProviderID:   "provider-1",
		ServiceID:    "service-1",
		ProviderName: "City Medical Center",
		ServiceName:  "MRI Scan",
		Date:         startsAt.Format("2006-01-02"),
		Time:         "2:00",
		Period:       entities.PeriodPM,
		Type:         entities.AppointmentTypeConsultation,
		PatientName:  "Test Patient",
		PatientEmail: "patient@example.com",
		Status:       entities.AppointmentStatusPending,
		StartsAt:     startsAt.UTC(),
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
}

func (suite *AppointmentAdapterIntegrationTestSuite) TestInsertAndGet() {
	ctx := context.Background()
	appointment := suite.newAppointment(time.Now().Add(24 * time.Hour))

	err := suite.adapter.Insert(ctx, appointment)
	require.NoError(suite.T(), err)

	retrieved, err := suite.adapter.GetByID(ctx, appointment.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), appointment.ID, retrieved.ID)
	assert.Equal(suite.T(), appointment.PatientName, retrieved.PatientName)
	assert.Nil(suite.T(), retrieved.CalendarEventID)
	assert.WithinDuration(suite.T(), appointment.StartsAt, retrieved.StartsAt, time.Second)
}

func (suite *AppointmentAdapterIntegrationTestSuite) TestGetMissing() {
	_, err := suite.adapter.GetByID(context.Background(), "does-not-exist")
	require.Error(suite.T(), err)

	appErr, ok := err.(*apperrors.AppError)
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), apperrors.ErrorTypeNotFound, appErr.Type)
}

func (suite *AppointmentAdapterIntegrationTestSuite) TestUpdateStatus() {
	ctx := context.Background()
	appointment := suite.newAppointment(time.Now().Add(48 * time.Hour))
	require.NoError(suite.T(), suite.adapter.Insert(ctx, appointment))

	err := suite.adapter.UpdateStatus(ctx, appointment.ID, entities.AppointmentStatusCancelled)
	require.NoError(suite.T(), err)

	retrieved, err := suite.adapter.GetByID(ctx, appointment.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), entities.AppointmentStatusCancelled, retrieved.Status)
}

func (suite *AppointmentAdapterIntegrationTestSuite) TestUpdateCalendarMirror() {
	ctx := context.Background()
	appointment := suite.newAppointment(time.Now().Add(24 * time.Hour))
	require.NoError(suite.T(), suite.adapter.Insert(ctx, appointment))

	err := suite.adapter.UpdateCalendarMirror(ctx, appointment.ID, "evt-123", "https://calendar.example.com/evt-123")
	require.NoError(suite.T(), err)

	retrieved, err := suite.adapter.GetByID(ctx, appointment.ID)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), retrieved.CalendarEventID)
	assert.Equal(suite.T(), "evt-123", *retrieved.CalendarEventID)
}

func (suite *AppointmentAdapterIntegrationTestSuite) TestListByPatient() {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		appt := suite.newAppointment(time.Now().Add(time.Duration(i+1) * 24 * time.Hour))
		appt.PatientName = fmt.Sprintf("Patient %d", i)
		require.NoError(suite.T(), suite.adapter.Insert(ctx, appt))
	}
	other := suite.newAppointment(time.Now().Add(24 * time.Hour))
	other.PatientID = "patient-2"
	require.NoError(suite.T(), suite.adapter.Insert(ctx, other))

	results, err := suite.adapter.ListByPatient(ctx, "patient-1", repositories.AppointmentFilter{Limit: 10})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), results, 3)

	// Newest start time first.
	assert.True(suite.T(), results[0].StartsAt.After(results[1].StartsAt))
}

func (suite *AppointmentAdapterIntegrationTestSuite) TestCompleteElapsed() {
	ctx := context.Background()

	elapsed := suite.newAppointment(time.Now().Add(-2 * time.Hour))
	upcoming := suite.newAppointment(time.Now().Add(24 * time.Hour))
	cancelled := suite.newAppointment(time.Now().Add(-2 * time.Hour))
	cancelled.Status = entities.AppointmentStatusCancelled

	require.NoError(suite.T(), suite.adapter.Insert(ctx, elapsed))
	require.NoError(suite.T(), suite.adapter.Insert(ctx, upcoming))
	require.NoError(suite.T(), suite.adapter.Insert(ctx, cancelled))

	count, err := suite.adapter.CompleteElapsed(ctx, time.Now())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), count)

	retrieved, err := suite.adapter.GetByID(ctx, elapsed.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), entities.AppointmentStatusCompleted, retrieved.Status)

	retrieved, err = suite.adapter.GetByID(ctx, cancelled.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), entities.AppointmentStatusCancelled, retrieved.Status)
}

func TestAppointmentAdapterIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("Skipping integration test: TEST_DB_HOST not set")
	}
	suite.Run(t, new(AppointmentAdapterIntegrationTestSuite))
}
