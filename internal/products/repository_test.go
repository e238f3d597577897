package product

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/scrapscan-backend/pkg/db/dbtest"
)

func TestRepositoryFindByID(t *testing.T) {
	db := dbtest.Open(t, "products_find")
	units := dbtest.Uom(t, db, "Units")
	p := dbtest.Product(t, db, units, dbtest.ProductOpts{Name: "Apple", DefaultCode: "APL", OnHand: "7"})

	repo := NewRepository(db)
	got, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "[APL] Apple", got.DisplayName())
	assert.Equal(t, "Units", got.UomName())
	assert.True(t, got.OnHand().Equal(decimal.NewFromInt(7)))

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepositoryFindActiveByBarcodes(t *testing.T) {
	db := dbtest.Open(t, "products_barcode")
	units := dbtest.Uom(t, db, "Units")
	active := dbtest.Product(t, db, units, dbtest.ProductOpts{Name: "Cheese", Barcode: "2101234000007"})
	dbtest.Product(t, db, units, dbtest.ProductOpts{Name: "Old Cheese", Barcode: "2109999000003", Inactive: true})

	repo := NewRepository(db)
	ctx := context.Background()

	got, err := repo.FindActiveByBarcodes(ctx, "2101234000007", "2101234050002")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, active.ID, got.ID)

	got, err = repo.FindActiveByBarcodes(ctx, "2109999000003")
	require.NoError(t, err)
	assert.Nil(t, got, "archived products are not resolvable")

	got, err = repo.FindActiveByBarcodes(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepositoryListActiveWithBarcode(t *testing.T) {
	db := dbtest.Open(t, "products_list_barcode")
	units := dbtest.Uom(t, db, "Units")
	dbtest.Product(t, db, units, dbtest.ProductOpts{Name: "A", Barcode: "111"})
	dbtest.Product(t, db, units, dbtest.ProductOpts{Name: "B"})
	dbtest.Product(t, db, units, dbtest.ProductOpts{Name: "C", Barcode: "333", Inactive: true})

	rows, err := NewRepository(db).ListActiveWithBarcode(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0].Name)
}

func TestRepositoryListByIDsIgnoresUnknown(t *testing.T) {
	db := dbtest.Open(t, "products_ids")
	units := dbtest.Uom(t, db, "Units")
	a := dbtest.Product(t, db, units, dbtest.ProductOpts{Name: "A"})

	repo := NewRepository(db)
	rows, err := repo.ListByIDs(context.Background(), []uuid.UUID{a.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, a.ID, rows[0].ID)

	rows, err = repo.ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRepositoryOnHand(t *testing.T) {
	db := dbtest.Open(t, "products_onhand")
	units := dbtest.Uom(t, db, "Units")
	stocked := dbtest.Product(t, db, units, dbtest.ProductOpts{Name: "Stocked", OnHand: "10"})
	bare := dbtest.Product(t, db, units, dbtest.ProductOpts{Name: "Bare", NoInventory: true})

	repo := NewRepository(db)
	ctx := context.Background()

	qty, err := repo.GetOnHand(ctx, bare.ID)
	require.NoError(t, err)
	assert.True(t, qty.IsZero())

	before, after, err := repo.DecrementOnHand(ctx, stocked.ID, decimal.NewFromInt(6))
	require.NoError(t, err)
	assert.True(t, before.Equal(decimal.NewFromInt(10)), "before=%s", before)
	assert.True(t, after.Equal(decimal.NewFromInt(4)), "after=%s", after)

	_, _, err = repo.DecrementOnHand(ctx, stocked.ID, decimal.NewFromInt(5))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.True(t, dbtest.OnHand(t, db, stocked.ID).Equal(decimal.NewFromInt(4)))

	_, _, err = repo.DecrementOnHand(ctx, bare.ID, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, _, err = repo.DecrementOnHand(ctx, stocked.ID, decimal.Zero)
	assert.Error(t, err)
}

func TestRepositoryWithTxRollsBack(t *testing.T) {
	db := dbtest.Open(t, "products_tx")
	units := dbtest.Uom(t, db, "Units")
	p := dbtest.Product(t, db, units, dbtest.ProductOpts{Name: "Tx", OnHand: "3"})

	repo := NewRepository(db)
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, _, err := repo.WithTx(tx).DecrementOnHand(context.Background(), p.ID, decimal.NewFromInt(3)); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)
	assert.True(t, dbtest.OnHand(t, db, p.ID).Equal(decimal.NewFromInt(3)))
}

func TestRepositoryListUomsByIDs(t *testing.T) {
	db := dbtest.Open(t, "products_uoms")
	kg := dbtest.Uom(t, db, "kg")
	dbtest.Uom(t, db, "Units")

	rows, err := NewRepository(db).ListUomsByIDs(context.Background(), []uuid.UUID{kg.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "kg", rows[0].Name)
}
