package service

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newTestStore(t *testing.T) *repository.Repository {
	t.Helper()
	creds := &repository.Credentials{
		Driver:            repository.DriverSQLite,
		SQLitePath:        ":memory:",
		MigrationsDirPath: "../repository/migrations",
	}
	repo, err := repository.NewRepository(creds)
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations(creds))
	t.Cleanup(func() { repo.Close() })
	return repo
}

// testStores returns the stores the concurrency tests run against. Postgres needs a
// docker daemon and is opted into with STOREFRONT_PG_TESTS.
func testStores(t *testing.T) map[string]*repository.Repository {
	stores := map[string]*repository.Repository{"sqlite": newTestStore(t)}
	if !testing.Short() && os.Getenv("STOREFRONT_PG_TESTS") != "" {
		stores["postgres"] = newPostgresStore(t)
	}
	return stores
}

func newPostgresStore(t *testing.T) *repository.Repository {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &repository.Credentials{
		Driver:            repository.DriverPostgres,
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "../repository/migrations",
	}
	repo, err := repository.NewRepository(creds)
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations(creds))
	t.Cleanup(func() { repo.Close() })
	return repo
}

func customer(id int64) domain.Identity {
	return domain.Identity{UserID: id, Role: domain.RoleCustomer}
}

func admin() domain.Identity {
	return domain.Identity{UserID: 1000, Role: domain.RoleAdmin}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var errInjected = errors.New("injected failure")

// failingStore wraps a real store and makes one query fail inside transactions.
type failingStore struct {
	*repository.Repository
	failOutbox bool
}

func (s *failingStore) WithTx(ctx context.Context, fn func(q repository.Queries) error) error {
	return s.Repository.WithTx(ctx, func(q repository.Queries) error {
		return fn(&failingQueries{Queries: q, failOutbox: s.failOutbox})
	})
}

type failingQueries struct {
	repository.Queries
	failOutbox bool
}

func (q *failingQueries) InsertOutboxEvent(ctx context.Context, e *repository.OutboxEvent) error {
	if q.failOutbox {
		return errInjected
	}
	return q.Queries.InsertOutboxEvent(ctx, e)
}

// MockCache is an in-memory cache.CartCache that counts calls.
type MockCache struct {
	mu      sync.Mutex
	views   map[int64]*domain.CartView
	gens    map[int64]int64
	Gets    int
	Deletes int
	Stale   int
	GetErr  error
	// BeforeSet runs on the reader's goroutine between the store load and the write.
	BeforeSet func()
}

func NewMockCache() *MockCache {
	return &MockCache{views: map[int64]*domain.CartView{}, gens: map[int64]int64{}}
}

func (m *MockCache) Get(_ context.Context, userID int64) (*domain.CartView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	v, ok := m.views[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (m *MockCache) Generation(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gens[userID], nil
}

func (m *MockCache) Set(_ context.Context, userID int64, gen int64, view *domain.CartView) error {
	if hook := m.BeforeSet; hook != nil {
		m.BeforeSet = nil
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gens[userID] != gen {
		m.Stale++
		return cache.ErrStaleGeneration
	}
	m.views[userID] = view
	return nil
}

func (m *MockCache) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deletes++
	m.gens[userID]++
	delete(m.views, userID)
	return nil
}

func (m *MockCache) Has(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.views[userID]
	return ok
}
