package repository

import (
	"testing"

	"github.com/nimasrn/repair-desk/pkg/pg"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testDB struct {
	*pg.DB
	rawDB *gorm.DB
}

// Entities lists every table model, in foreign key order.
var Entities = []interface{}{
	&UserEntity{},
	&ClientEntity{},
	&ApplianceCategoryEntity{},
	&ManufacturerEntity{},
	&ApplianceEntity{},
	&ServiceEntity{},
	&NotificationEntity{},
	&NotificationReceiptEntity{},
	&SparePartEntity{},
	&PushSubscriptionEntity{},
	&OutboxEntity{},
	&DeliveryEntity{},
}

// OpenTestDB opens an in-memory sqlite database with the full schema.
// Exported so service and handler tests can share it.
func OpenTestDB(t testing.TB) *pg.DB {
	return setupTestDB(t).DB
}

func setupTestDB(t testing.TB) *testDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// every connection to :memory: is a fresh database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(Entities...)
	require.NoError(t, err)

	return &testDB{
		DB:    pg.New(db, db),
		rawDB: db,
	}
}
