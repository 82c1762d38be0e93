package testutil

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/njitshpe/shpe-app-sub007/core"
	"github.com/njitshpe/shpe-app-sub007/core/checkin"
	"github.com/njitshpe/shpe-app-sub007/core/member"
	"github.com/njitshpe/shpe-app-sub007/core/notification"
	logsvc "github.com/njitshpe/shpe-app-sub007/services/logger"
	"github.com/njitshpe/shpe-app-sub007/storage/database"
	sqlxrepos "github.com/njitshpe/shpe-app-sub007/storage/database/sqlx"
)

const driverName = "sqlite"

func init() {
	sqlx.BindDriver(driverName, sqlx.QUESTION)
}

// NewConfig returns the configuration used by tests.
func NewConfig() *core.Config {
	return &core.Config{
		Env:              "TEST",
		Build:            "test",
		Debug:            true,
		TestMode:         true,
		AppName:          "SHPE",
		AppScheme:        "shpe",
		TimeZone:         "America/New_York",
		DefaultFromEmail: "SHPE <noreply@shpe.test>",
		Server: core.ServerConfig{
			Address:         ":0",
			ShutdownTimeout: time.Second,
			DisableReqLogs:  true,
			JWTSecret:       "test-jwt-secret-with-at-least-32-characters",
		},
		Database: core.DatabaseConfig{Engine: driverName},
		CheckIn: core.CheckInConfig{
			Secret:      "test-check-in-secret",
			TokenTTL:    15 * time.Minute,
			EarlyWindow: 30 * time.Minute,
			GracePeriod: time.Hour,
		},
		Push: core.PushConfig{
			ChunkSize:   100,
			Concurrency: 2,
			Timeout:     5 * time.Second,
		},
	}
}

// NewLogger returns a logger that discards everything.
func NewLogger() *logsvc.RollbarLogger {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), NewConfig())
	logger.Enable(false)
	return logger
}

// NewValidator returns a validator with every custom validation registered.
func NewValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	member.InitValidators(validate, translator)
	notification.InitValidators(validate, translator)
	return validate
}

// OpenDB opens a migrated sqlite database living for the duration of the test.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlx.Open(driverName, "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("OpenDB(): %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err = database.MigrateUp(context.Background(), db); err != nil {
		t.Fatalf("OpenDB(): %v", err)
	}
	return db
}

type Repos struct {
	Events        checkin.Repository
	Members       member.Repository
	Notifications notification.Repository
}

// NewRepos returns the sqlx repositories backed by db.
func NewRepos(db core.DBExecutor) Repos {
	return Repos{
		Events:        sqlxrepos.NewEventRepository(db),
		Members:       sqlxrepos.NewMemberRepository(db),
		Notifications: sqlxrepos.NewNotificationRepository(db),
	}
}

func CreateMember(t *testing.T, repo member.Repository, email string, points int, pushToken string, createdAt ...time.Time) member.Member {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	mbr := member.Member{
		ID:                   uuid.New().String(),
		Email:                email,
		FirstName:            "Test",
		LastName:             "Member",
		Points:               points,
		NotificationsEnabled: true,
		CreatedAt:            tstamp,
		UpdatedAt:            tstamp,
	}
	if pushToken != "" {
		mbr.PushToken.SetValid(pushToken)
	}
	mbr, err := repo.CreateMember(context.Background(), mbr)
	if err != nil {
		t.Fatalf("CreateMember(): %v", err)
	}
	return mbr
}

func CreateEvent(t *testing.T, repo checkin.Repository, name string, startsAt time.Time, duration time.Duration, points int, requiresRSVP bool) checkin.Event {
	t.Helper()
	ev := checkin.Event{
		ID:           uuid.New().String(),
		Name:         name,
		Location:     "GITC 1400",
		StartsAt:     startsAt.UTC(),
		EndsAt:       startsAt.Add(duration).UTC(),
		Points:       points,
		RequiresRSVP: requiresRSVP,
		CreatedAt:    time.Now().UTC(),
	}
	ev, err := repo.CreateEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("CreateEvent(): %v", err)
	}
	return ev
}

func CreateRSVP(t *testing.T, repo checkin.Repository, eventID, memberID string, status checkin.RSVPStatus) checkin.RSVP {
	t.Helper()
	rsvp, err := repo.UpsertRSVP(context.Background(), checkin.RSVP{
		EventID:   eventID,
		MemberID:  memberID,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateRSVP(): %v", err)
	}
	return rsvp
}
