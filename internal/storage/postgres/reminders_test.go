//go:build integration

package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"georem/internal/domain"
	"georem/pkg/e"
)

var (
	testPool *pgxpool.Pool
	tc       testcontainers.Container
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestMain(m *testing.M) {
	ctx := context.Background()

	user := "postgres"
	pass := "postgres"
	db := "postgres"

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     user,
			"POSTGRES_PASSWORD": pass,
			"POSTGRES_DB":       db,
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(90 * time.Second),
	}

	var err error
	tc, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Println("cannot start container:", err)
		os.Exit(1)
	}

	host, _ := tc.Host(ctx)
	mappedPort, _ := tc.MappedPort(ctx, "5432/tcp")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pass, host, mappedPort.Port(), db)

	testPool, err = pgxpool.New(ctx, dsn)
	if err != nil {
		fmt.Println("pgxpool.New:", err)
		_ = tc.Terminate(ctx)
		os.Exit(1)
	}

	if err := testPool.Ping(ctx); err != nil {
		fmt.Println("pool.Ping:", err)
		testPool.Close()
		_ = tc.Terminate(ctx)
		os.Exit(1)
	}

	if err := ensureSchema(ctx, testPool); err != nil {
		fmt.Println("ensureSchema:", err)
		testPool.Close()
		_ = tc.Terminate(ctx)
		os.Exit(1)
	}

	code := m.Run()

	testPool.Close()
	_ = tc.Terminate(ctx)
	os.Exit(code)
}

func truncateReminders(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(), `TRUNCATE TABLE reminders`)
	if err != nil {
		t.Fatalf("truncate reminders: %v", err)
	}
}

func newReminder(title string) *domain.Reminder {
	return &domain.Reminder{
		ID:       uuid.New(),
		Title:    title,
		Body:     "some detail",
		Kind:     domain.ReminderNote,
		Lat:      55.75,
		Lng:      37.61,
		RadiusM:  100,
		IsActive: true,
	}
}

func TestReminderRepo_CreateAndGet(t *testing.T) {
	truncateReminders(t)

	repo := NewReminderRepo(testPool, testLogger())

	rem := newReminder("pharmacy")
	rem.Checklist = []domain.ChecklistItem{{Text: "milk"}, {Text: "bread", Done: true}}
	rem.Kind = domain.ReminderChecklist

	if err := repo.Create(context.Background(), rem); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rem.CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt set")
	}

	got, err := repo.Get(context.Background(), rem.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got.Title != rem.Title || got.Lat != rem.Lat || got.Lng != rem.Lng || got.RadiusM != rem.RadiusM {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
	if got.Kind != domain.ReminderChecklist {
		t.Fatalf("kind mismatch: %s", got.Kind)
	}
	if len(got.Checklist) != 2 || got.Checklist[1].Done != true {
		t.Fatalf("checklist mismatch: %+v", got.Checklist)
	}
}

func TestReminderRepo_Get_NotFound(t *testing.T) {
	truncateReminders(t)

	repo := NewReminderRepo(testPool, testLogger())

	_, err := repo.Get(context.Background(), uuid.New())
	if !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestReminderRepo_Create_DuplicateID_Conflict(t *testing.T) {
	truncateReminders(t)

	repo := NewReminderRepo(testPool, testLogger())

	rem := newReminder("gym")
	if err := repo.Create(context.Background(), rem); err != nil {
		t.Fatalf("Create: %v", err)
	}

	dup := newReminder("gym again")
	dup.ID = rem.ID
	err := repo.Create(context.Background(), dup)
	if !errors.Is(err, e.ErrUniqueViolation) {
		t.Fatalf("expected ErrUniqueViolation got %v", err)
	}
}

func TestReminderRepo_List_Pagination(t *testing.T) {
	truncateReminders(t)

	repo := NewReminderRepo(testPool, testLogger())

	for i := 0; i < 3; i++ {
		rem := newReminder(fmt.Sprintf("errand %d", i))
		rem.CreatedAt = time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC)
		if err := repo.Create(context.Background(), rem); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	list1, total, err := repo.List(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total=3 got %d", total)
	}
	if len(list1) != 2 {
		t.Fatalf("expected len=2 got %d", len(list1))
	}
	if list1[0].CreatedAt.Before(list1[1].CreatedAt) {
		t.Fatalf("expected DESC order by created_at")
	}

	list2, _, err := repo.List(context.Background(), 2, 2)
	if err != nil {
		t.Fatalf("List page2: %v", err)
	}
	if len(list2) != 1 {
		t.Fatalf("expected len=1 got %d", len(list2))
	}
}

func TestReminderRepo_Update_OK(t *testing.T) {
	truncateReminders(t)

	repo := NewReminderRepo(testPool, testLogger())

	rem := newReminder("library")
	if err := repo.Create(context.Background(), rem); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rem.Title = "post office"
	rem.RadiusM = 250
	rem.IsActive = false
	if err := repo.Update(context.Background(), rem); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.Get(context.Background(), rem.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "post office" || got.RadiusM != 250 || got.IsActive {
		t.Fatalf("update not applied: %+v", got)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Fatalf("expected updated_at bumped")
	}
}

func TestReminderRepo_Update_NotFound(t *testing.T) {
	truncateReminders(t)

	repo := NewReminderRepo(testPool, testLogger())

	rem := newReminder("nowhere")
	err := repo.Update(context.Background(), rem)
	if !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestReminderRepo_Delete(t *testing.T) {
	truncateReminders(t)

	repo := NewReminderRepo(testPool, testLogger())

	rem := newReminder("dry cleaning")
	if err := repo.Create(context.Background(), rem); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.Delete(context.Background(), rem.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(context.Background(), rem.ID); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("second delete expected ErrNotFound got %v", err)
	}

	total, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected empty table got %d", total)
	}
}
