// Package testutil provides common test utilities for the billing backend.
// It contains helpers for in-memory databases, property fixtures and gin
// test contexts.
package testutil

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dormbill/backend/internal/infrastructure/persistence/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDB wraps a GORM database with sqlmock for testing.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a postgres-dialect GORM database backed by sqlmock.
// The caller is responsible for calling Close() when done.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to open GORM connection")

	return &MockDB{DB: gormDB, Mock: mock, SqlDB: mockDB}
}

// Close closes the mock database connection.
func (m *MockDB) Close() error {
	return m.SqlDB.Close()
}

// ExpectationsWereMet verifies that all expectations were met.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "Unmet database expectations")
}

// NewSQLiteDB opens a private in-memory SQLite database with every billing
// table migrated. The pool is pinned to one connection because each
// in-memory connection is its own database.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to open sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...), "Failed to migrate")
	return db
}

// PropertyFixture seeds the read-only property tables for one property.
type PropertyFixture struct {
	DB         *gorm.DB
	PropertyID uuid.UUID
}

// NewPropertyFixture creates a fixture for a fresh property ID.
func NewPropertyFixture(db *gorm.DB) *PropertyFixture {
	return &PropertyFixture{DB: db, PropertyID: uuid.New()}
}

// AddRoom inserts a room with a monthly rate and returns its ID.
func (f *PropertyFixture) AddRoom(t *testing.T, name string, monthlyRate int64) uuid.UUID {
	t.Helper()
	now := time.Now()
	room := models.RoomModel{
		BaseModel:   models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		PropertyID:  f.PropertyID,
		Name:        name,
		MonthlyRate: decimal.NewFromInt(monthlyRate),
	}
	require.NoError(t, f.DB.Create(&room).Error)
	return room.ID
}

// AddTenant inserts an active contract for roomID and returns the contract
// and tenant IDs.
func (f *PropertyFixture) AddTenant(t *testing.T, roomID uuid.UUID, name, email string) (uuid.UUID, uuid.UUID) {
	t.Helper()
	now := time.Now()
	contract := models.RoomContractModel{
		BaseModel:   models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		PropertyID:  f.PropertyID,
		RoomID:      roomID,
		TenantID:    uuid.New(),
		TenantName:  name,
		TenantEmail: email,
		Status:      models.ContractStatusActive,
		StartDate:   models.Date(now.AddDate(0, -6, 0)),
	}
	require.NoError(t, f.DB.Create(&contract).Error)
	return contract.ID, contract.TenantID
}

// AddService attaches an active recurring service to a contract.
func (f *PropertyFixture) AddService(t *testing.T, contractID uuid.UUID, name string, price, quantity int64) {
	t.Helper()
	now := time.Now()
	svc := models.ContractServiceModel{
		BaseModel:  models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		ContractID: contractID,
		Name:       name,
		Price:      decimal.NewFromInt(price),
		Quantity:   decimal.NewFromInt(quantity),
		Active:     true,
	}
	require.NoError(t, f.DB.Create(&svc).Error)
}

// SetRates inserts a tariff row effective from the given date.
func (f *PropertyFixture) SetRates(t *testing.T, water, electric int64, effectiveFrom time.Time) {
	t.Helper()
	row := models.UtilityRateModel{
		ID:            uuid.New(),
		PropertyID:    f.PropertyID,
		WaterRate:     decimal.NewFromInt(water),
		ElectricRate:  decimal.NewFromInt(electric),
		EffectiveFrom: models.Date(effectiveFrom),
		CreatedAt:     time.Now(),
	}
	require.NoError(t, f.DB.Create(&row).Error)
}

// TestContext wraps a Gin test context with HTTP recorder.
type TestContext struct {
	Context  *gin.Context
	Recorder *httptest.ResponseRecorder
	Engine   *gin.Engine
}

// NewTestContext creates a new Gin test context.
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	return &TestContext{Context: c, Recorder: w, Engine: engine}
}

// ResponseBody returns the response body as bytes.
func (tc *TestContext) ResponseBody() []byte {
	return tc.Recorder.Body.Bytes()
}

// NewTestUUID generates a deterministic UUID for testing.
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// ContextWithTimeout creates a context with a timeout for tests.
func ContextWithTimeout(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), timeout)
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}
