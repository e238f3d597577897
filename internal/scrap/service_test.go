package scrap

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/scrapscan-backend/internal/ledger"
	product "github.com/angelmondragon/scrapscan-backend/internal/products"
	"github.com/angelmondragon/scrapscan-backend/internal/stock"
	"github.com/angelmondragon/scrapscan-backend/internal/warehouses"
	"github.com/angelmondragon/scrapscan-backend/pkg/db"
	"github.com/angelmondragon/scrapscan-backend/pkg/db/dbtest"
	"github.com/angelmondragon/scrapscan-backend/pkg/db/models"
	"github.com/angelmondragon/scrapscan-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/scrapscan-backend/pkg/errors"
	"github.com/angelmondragon/scrapscan-backend/pkg/logger"
	"github.com/angelmondragon/scrapscan-backend/pkg/metrics"
	"github.com/angelmondragon/scrapscan-backend/pkg/outbox"
)

// flakyOutbox fails the emit call numbered failOn (1-based) and delegates the rest.
type flakyOutbox struct {
	next   outboxPublisher
	failOn int
	calls  int
}

func (f *flakyOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.calls++
	if f.calls == f.failOn {
		return errors.New("outbox insert failed")
	}
	return f.next.Emit(ctx, tx, event)
}

type fixture struct {
	db      *gorm.DB
	svc     *Service
	units   *models.Uom
	outbox  *flakyOutbox
	metrics *prometheus.Registry
}

func newFixture(t *testing.T, name string) *fixture {
	t.Helper()
	conn := dbtest.Open(t, name)
	products := product.NewRepository(conn)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	emitter := &flakyOutbox{next: outbox.NewService(outbox.NewRepository(conn), logger.Nop())}
	svc, err := NewService(ServiceParams{
		Tx:        db.Wrap(conn),
		Orders:    NewRepository(conn),
		Tags:      NewTagRepository(conn),
		Products:  products,
		Ledger:    ledgerSvc,
		Locations: warehouses.NewRepository(conn),
		Stock:     stock.NewService(products),
		Outbox:    emitter,
		Metrics:   metrics.NewScrapMetrics(reg),
		Logger:    logger.Nop(),
	})
	require.NoError(t, err)

	return &fixture{db: conn, svc: svc, units: dbtest.Uom(t, conn, "Units"), outbox: emitter, metrics: reg}
}

func (f *fixture) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := f.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func qty(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func TestCommitBatchRereadsStockPerLine(t *testing.T) {
	f := newFixture(t, "scrap_reread")
	a := dbtest.Product(t, f.db, f.units, dbtest.ProductOpts{Name: "Apple", DefaultCode: "A1", Price: "2", OnHand: "10"})
	tag := dbtest.ReasonTag(t, f.db, "Expired", 1)

	res, err := f.svc.CommitBatch(context.Background(), CommitBatchInput{
		Lines:        []Line{{ProductID: a.ID, Quantity: qty(6)}, {ProductID: a.ID, Quantity: qty(6)}},
		ReasonTagIDs: []uuid.UUID{tag.ID},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, res.Scraps, 2)
	assert.Empty(t, res.Skipped)
	assert.Empty(t, res.SkippedNames)
	assert.Equal(t, 2, res.ScrapCount)

	assert.True(t, res.Scraps[0].Quantity.Equal(qty(6)))
	assert.True(t, res.Scraps[1].Quantity.Equal(qty(4)))
	assert.Equal(t, "SP/00001", res.Scraps[0].Name)
	assert.Equal(t, "SP/00002", res.Scraps[1].Name)
	assert.Equal(t, "[A1] Apple", res.Scraps[0].ProductName)
	assert.Equal(t, "Units", res.Scraps[0].Uom)

	assert.True(t, dbtest.OnHand(t, f.db, a.ID).IsZero())
	require.Len(t, res.StockAfter, 1)
	after := res.StockAfter[a.ID]
	assert.True(t, after.QtyAvailable.IsZero())
	assert.True(t, after.Value.IsZero())

	assert.EqualValues(t, 2, f.count(t, &models.ScrapOrder{}, "state = ?", enums.ScrapStateDone))
	assert.EqualValues(t, 2, f.count(t, &models.StockMove{}, ""))
	assert.EqualValues(t, 2, f.count(t, &models.OutboxEvent{}, "event_type = ?", enums.EventScrapValidated))

	detail, err := f.svc.GetScrap(context.Background(), res.Scraps[1].ID, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.ScrapStateDone, detail.State)
	assert.NotNil(t, detail.DateDone)
	assert.True(t, detail.Quantity.Equal(qty(4)))
	require.Len(t, detail.ReasonTags, 1)
	assert.Equal(t, "Expired", detail.ReasonTags[0].Name)

	var moves []models.StockMove
	require.NoError(t, f.db.Where("scrap_order_id = ?", res.Scraps[1].ID).Find(&moves).Error)
	require.Len(t, moves, 1)
	assert.True(t, moves[0].OnHandBefore.Equal(qty(4)))
	assert.True(t, moves[0].OnHandAfter.IsZero())
}

func TestCommitBatchCapsAtOnHand(t *testing.T) {
	f := newFixture(t, "scrap_cap")
	p := dbtest.Product(t, f.db, f.units, dbtest.ProductOpts{Name: "Bread", Price: "1.5", OnHand: "3"})

	res, err := f.svc.CommitBatch(context.Background(), CommitBatchInput{
		Lines: []Line{{ProductID: p.ID, Quantity: qty(5)}},
	})
	require.NoError(t, err)
	require.Len(t, res.Scraps, 1)
	assert.True(t, res.Scraps[0].Quantity.Equal(qty(3)))
	assert.True(t, dbtest.OnHand(t, f.db, p.ID).IsZero())
}

func TestCommitBatchSkipsWithoutStock(t *testing.T) {
	f := newFixture(t, "scrap_no_stock")
	empty := dbtest.Product(t, f.db, f.units, dbtest.ProductOpts{Name: "Empty", OnHand: "0"})
	bare := dbtest.Product(t, f.db, f.units, dbtest.ProductOpts{Name: "Bare", NoInventory: true})
	stocked := dbtest.Product(t, f.db, f.units, dbtest.ProductOpts{Name: "Stocked", OnHand: "2"})

	res, err := f.svc.CommitBatch(context.Background(), CommitBatchInput{
		Lines: []Line{
			{ProductID: empty.ID, Quantity: qty(1)},
			{ProductID: bare.ID, Quantity: qty(1)},
			{ProductID: stocked.ID, Quantity: qty(1)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ScrapCount)
	assert.Equal(t, []string{"Empty", "Bare"}, res.SkippedNames)
	require.Len(t, res.Skipped, 2)
	assert.Equal(t, enums.ScrapSkipReasonNoStock, res.Skipped[0].Reason)

	assert.EqualValues(t, 0, f.count(t, &models.ScrapOrder{}, "product_id IN ?", []uuid.UUID{empty.ID, bare.ID}))
	assert.True(t, dbtest.OnHand(t, f.db, empty.ID).IsZero())
	_, touched := res.StockAfter[empty.ID]
	assert.False(t, touched)
}

func TestCommitBatchSkipsDeletedProduct(t *testing.T) {
	f := newFixture(t, "scrap_deleted")
	gone := dbtest.Product(t, f.db, f.units, dbtest.ProductOpts{Name: "Gone", OnHand: "5"})
	kept := dbtest.Product(t, f.db, f.units, dbtest.ProductOpts{Name: "Kept", OnHand: "5"})
	require.NoError(t, f.db.Delete(&models.Product{}, "id = ?", gone.ID).Error)

	res, err := f.svc.CommitBatch(context.Background(), CommitBatchInput{
		Lines: []Line{{ProductID: gone.ID, Quantity: qty(1)}, {ProductID: kept.ID, Quantity: qty(2)}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ScrapCount)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, gone.ID, res.Skipped[0].ProductID)
	assert.Equal(t, enums.ScrapSkipReasonProductNotFound, res.Skipped[0].Reason)
	assert.Empty(t, res.SkippedNames)
	assert.True(t, dbtest.OnHand(t, f.db, kept.ID).Equal(qty(3)))
}

func TestCommitBatchArchivedProductStillScraps(t *testing.T) {
	f := newFixture(t, "scrap_archived")
	p := dbtest.Product(t, f.db, f.units, dbtest.ProductOpts{Name: "Archived", OnHand: "2", Inactive: true})

	res, err := f.svc.CommitBatch(context.Background(), CommitBatchInput{
		Lines: []Line{{ProductID: p.ID, Quantity: qty(1)}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ScrapCount)
}

func TestCommitBatchValidation(t *testing.T) {
	f := newFixture(t, "scrap_validation")
	p := dbtest.Product(t, f.db, f.units, dbtest.ProductOpts{Name: "Valid", OnHand: "5"})
	unknownUom := uuid.New()

	cases := map[string]CommitBatchInput{
		"empty batch": {},
		"unknown tag": {Lines: []Line{{ProductID: p.ID, Quantity: qty(1)}}, ReasonTagIDs: []uuid.UUID{uuid.New()}},
		"unknown uom": {Lines: []Line{{ProductID: p.ID, Quantity: qty(1), UomID: &unknownUom}}},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.CommitBatch(context.Background(), input)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "err=%v", err)
		})
	}

	assert.EqualValues(t, 0, f.count(t, &models.ScrapOrder{}, ""))
	assert.True(t, dbtest.OnHand(t, f.db, p.ID).Equal(qty(5)))
}

func TestCommitBatchSkipsLinesWithNothingToScrap(t *testing.T) {
	f := newFixture(t, "scrap_nothing_to_scrap")
	alpha := dbtest.Product(t, f.db, f.units, dbtest.ProductOpts{Name: "Alpha", OnHand: "10"})
	bravo := dbtest.Product(t, f.db, f.units, dbtest.ProductOpts{Name: "Bravo", OnHand: "10"})

	res, err := f.svc.CommitBatch(context.Background(), CommitBatchInput{
		Lines: []Line{
			{ProductID: alpha.ID, Quantity: qty(3)},
			{ProductID: bravo.ID, Quantity: decimal.Zero},
			{ProductID: bravo.ID, Quantity: qty(-2)},
			{Quantity: qty(1)},
		},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, res.Scraps, 1)
	assert.Equal(t, alpha.ID, res.Scraps[0].ProductID)
	assert.True(t, res.Scraps[0].Quantity.Equal(qty(3)))

	require.Len(t, res.Skipped, 3)
	assert.Equal(t, SkippedLine{ProductID: bravo.ID, ProductName: "Bravo", Reason: enums.ScrapSkipReasonNoStock}, res.Skipped[0])
	assert.Equal(t, SkippedLine{ProductID: bravo.ID, ProductName: "Bravo", Reason: enums.ScrapSkipReasonNoStock}, res.Skipped[1])
	assert.Equal(t, enums.ScrapSkipReasonProductNotFound, res.Skipped[2].Reason)
	assert.Equal(t, uuid.Nil, res.Skipped[2].ProductID)
	assert.Equal(t, []string{"Bravo", "Bravo"}, res.SkippedNames)

	assert.True(t, dbtest.OnHand(t, f.db, alpha.ID).Equal(qty(7)))
	assert.True(t, dbtest.OnHand(t, f.db, bravo.ID).Equal(qty(10)))
	assert.EqualValues(t, 1, f.count(t, &models.ScrapOrder{}, ""))
}

func TestCommitBatchRoundsToStoredScale(t *testing.T) {
	f := newFixture(t, "scrap_rounding")
	p := dbtest.Product(t, f.db, f.units, dbtest.ProductOpts{Name: "Cheese", OnHand: "5"})

	res, err := f.svc.CommitBatch(context.Background(), CommitBatchInput{
		Lines: []Line{
			{ProductID: p.ID, Quantity: decimal.RequireFromString("1.23456")},
			{ProductID: p.ID, Quantity: decimal.RequireFromString("0.00004")},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Scraps, 1)
	assert.Equal(t, "1.2346", res.Scraps[0].Quantity.String())
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, enums.ScrapSkipReasonNoStock, res.Skipped[0].Reason)

	detail, err := f.svc.GetScrap(context.Background(), res.Scraps[0].ID, nil)
	require.NoError(t, err)
	assert.True(t, detail.Quantity.Round(4).Equal(res.Scraps[0].Quantity))
	assert.True(t, dbtest.OnHand(t, f.db, p.ID).Round(4).Equal(decimal.RequireFromString("3.7654")))
}

func TestCommitBatchEmptyMessage(t *testing.T) {
	f := newFixture(t, "scrap_empty")
	_, err := f.svc.CommitBatch(context.Background(), CommitBatchInput{Lines: []Line{}, ReasonTagIDs: []uuid.UUID{}})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, "no products to scrap", typed.Message())
}

func TestCommitBatchUsesCompanyWarehouseAndLineUnit(t *testing.T) {
	f := newFixture(t, "scrap_location")
	company := uuid.New()
	wh := dbtest.Warehouse(t, f.db, company, "WH")
	box := dbtest.Uom(t, f.db, "Box")
	user := uuid.New()
	p := dbtest.Product(t, f.db, f.units, dbtest.ProductOpts{Name: "Milk", OnHand: "4", CompanyID: &company})

	res, err := f.svc.CommitBatch(context.Background(), CommitBatchInput{
		Lines:       []Line{{ProductID: p.ID, Quantity: qty(1), UomID: &box.ID}},
		CompanyID:   &company,
		ActorUserID: &user,
		ActorRole:   "operator",
	})
	require.NoError(t, err)
	require.Len(t, res.Scraps, 1)
	assert.Equal(t, "Box", res.Scraps[0].Uom)

	detail, err := f.svc.GetScrap(context.Background(), res.Scraps[0].ID, &company)
	require.NoError(t, err)
	require.NotNil(t, detail.LocationID)
	assert.Equal(t, *wh.LotStockLocationID, *detail.LocationID)
	assert.Equal(t, box.ID, detail.UomID)
	require.NotNil(t, detail.CreatedBy)
	assert.Equal(t, user, *detail.CreatedBy)

	other := uuid.New()
	_, err = f.svc.GetScrap(context.Background(), res.Scraps[0].ID, &other)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = f.svc.GetScrap(context.Background(), uuid.New(), &company)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCommitBatchFailureKeepsEarlierLines(t *testing.T) {
	f := newFixture(t, "scrap_failure")
	f.outbox.failOn = 2
	p := dbtest.Product(t, f.db, f.units, dbtest.ProductOpts{Name: "Fish", OnHand: "10"})
	other := dbtest.Product(t, f.db, f.units, dbtest.ProductOpts{Name: "Never", OnHand: "10"})

	_, err := f.svc.CommitBatch(context.Background(), CommitBatchInput{
		Lines: []Line{
			{ProductID: p.ID, Quantity: qty(6)},
			{ProductID: p.ID, Quantity: qty(2)},
			{ProductID: other.ID, Quantity: qty(1)},
		},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency), "err=%v", err)

	assert.True(t, dbtest.OnHand(t, f.db, p.ID).Equal(qty(4)), "first line stays committed")
	assert.True(t, dbtest.OnHand(t, f.db, other.ID).Equal(qty(10)), "remaining lines are not processed")
	assert.EqualValues(t, 1, f.count(t, &models.ScrapOrder{}, "state = ?", enums.ScrapStateDone))
	assert.EqualValues(t, 1, f.count(t, &models.StockMove{}, ""))
	assert.EqualValues(t, 1, f.count(t, &models.OutboxEvent{}, ""))
}

func TestCommitBatchRecordsLineMetrics(t *testing.T) {
	f := newFixture(t, "scrap_metrics")
	p := dbtest.Product(t, f.db, f.units, dbtest.ProductOpts{Name: "Tea", OnHand: "1"})

	_, err := f.svc.CommitBatch(context.Background(), CommitBatchInput{
		Lines: []Line{{ProductID: p.ID, Quantity: qty(1)}, {ProductID: p.ID, Quantity: qty(1)}},
	})
	require.NoError(t, err)

	mfs, err := f.metrics.Gather()
	require.NoError(t, err)
	outcomes := map[string]float64{}
	for _, mf := range mfs {
		if mf.GetName() != "scrapscan_scrap_lines_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "outcome" {
					outcomes[label.GetValue()] = m.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{"committed": 1, "no_stock": 1}, outcomes)
}

func TestListReasonTagsOrdered(t *testing.T) {
	f := newFixture(t, "scrap_tags")
	dbtest.ReasonTag(t, f.db, "Zeta", 1)
	dbtest.ReasonTag(t, f.db, "Alpha", 2)
	dbtest.ReasonTag(t, f.db, "Beta", 1)

	tags, err := f.svc.ListReasonTags(context.Background())
	require.NoError(t, err)
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	assert.Equal(t, []string{"Beta", "Zeta", "Alpha"}, names)
}

func TestFormatName(t *testing.T) {
	assert.Equal(t, "SP/00042", FormatName(42))
	assert.Equal(t, "SP/123456", FormatName(123456))
}

func TestGetScrapHidesOtherCompanies(t *testing.T) {
	f := newFixture(t, "scrap_detail_scope")
	company := uuid.New()
	p := dbtest.Product(t, f.db, f.units, dbtest.ProductOpts{Name: "Pear", Price: "1", OnHand: "3"})

	res, err := f.svc.CommitBatch(context.Background(), CommitBatchInput{
		Lines:     []Line{{ProductID: p.ID, Quantity: qty(1)}},
		CompanyID: &company,
	})
	require.NoError(t, err)
	require.Len(t, res.Scraps, 1)

	detail, err := f.svc.GetScrap(context.Background(), res.Scraps[0].ID, &company)
	require.NoError(t, err)
	assert.Equal(t, "Pear", detail.ProductName)

	other := uuid.New()
	_, err = f.svc.GetScrap(context.Background(), res.Scraps[0].ID, &other)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = f.svc.GetScrap(context.Background(), res.Scraps[0].ID, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = f.svc.GetScrap(context.Background(), uuid.New(), &company)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
