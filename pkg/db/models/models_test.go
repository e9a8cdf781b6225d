package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Column defaults in the tags must stay portable: test fixtures run the
// models through AutoMigrate on sqlite, which rejects Postgres builtins
// such as gen_random_uuid(). IDs are assigned in code instead, and the
// SQL migrations keep the database-side default for Postgres.
func TestModelsAutoMigrateOnSQLite(t *testing.T) {
	t.Parallel()
	dsn := "file:models_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&User{},
		&Product{},
		&Customer{},
		&Supplier{},
		&Cart{},
		&CartItem{},
		&Till{},
		&Order{},
		&OrderItem{},
		&Payment{},
		&SaleReturn{},
		&SaleReturnItem{},
		&Purchase{},
		&PurchaseItem{},
		&PurchaseCartItem{},
	))

	user := User{ID: uuid.New(), Name: "Test", Email: "till@example.com"}
	require.NoError(t, conn.Create(&user).Error)
	require.NotEqual(t, uuid.Nil, user.ID)
}
