package barcode

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/scrapscan-backend/internal/nomenclature"
	product "github.com/angelmondragon/scrapscan-backend/internal/products"
	"github.com/angelmondragon/scrapscan-backend/pkg/config"
	"github.com/angelmondragon/scrapscan-backend/pkg/db/dbtest"
	"github.com/angelmondragon/scrapscan-backend/pkg/db/models"
	"github.com/angelmondragon/scrapscan-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/scrapscan-backend/pkg/errors"
	"github.com/angelmondragon/scrapscan-backend/pkg/metrics"
)

type staticProvider struct {
	parser nomenclature.Parser
	err    error
}

func (s staticProvider) Current(context.Context) (nomenclature.Parser, error) {
	return s.parser, s.err
}

// mapParser answers from a fixed table and reports unknown codes as unit barcodes.
type mapParser map[string]nomenclature.Parsed

func (m mapParser) Parse(code string) (nomenclature.Parsed, bool) {
	if parsed, ok := m[code]; ok {
		return parsed, true
	}
	return nomenclature.Parsed{Type: enums.BarcodeRuleTypeUnit, Code: code, BaseCode: code}, true
}

type failingCatalog struct{}

func (failingCatalog) FindActiveByBarcodes(context.Context, ...string) (*models.Product, error) {
	return nil, errors.New("connection reset")
}

func (failingCatalog) ListActiveWithBarcode(context.Context) ([]models.Product, error) {
	return nil, errors.New("connection reset")
}

func weightPattern(t *testing.T) nomenclature.Parser {
	t.Helper()
	n, err := nomenclature.New([]nomenclature.Rule{
		{Name: "Weight", Type: enums.BarcodeRuleTypeWeight, Pattern: "21.....{NNDDD}"},
	})
	require.NoError(t, err)
	return n
}

func newResolver(t *testing.T, catalog ProductCatalog, parsers ParserProvider, m *metrics.ScrapMetrics) *Resolver {
	t.Helper()
	r, err := NewResolver(ResolverParams{
		Parsers:  parsers,
		Products: catalog,
		Config:   config.BarcodeConfig{ImageURLBase: "/web/image/product/"},
		Metrics:  m,
	})
	require.NoError(t, err)
	return r
}

func TestResolveWeightBarcodeByBaseCode(t *testing.T) {
	db := dbtest.Open(t, "resolver_weight")
	kg := dbtest.Uom(t, db, "kg")
	cheese := dbtest.Product(t, db, kg, dbtest.ProductOpts{
		Name: "Cheese", DefaultCode: "CH1", Barcode: "2101234000007", Price: "4.50", OnHand: "20",
	})

	r := newResolver(t, product.NewRepository(db), staticProvider{parser: weightPattern(t)}, nil)
	res, err := r.Resolve(context.Background(), "2101234123454")
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, cheese.ID, res.Scan.ProductID)
	assert.Equal(t, "[CH1] Cheese", res.Scan.ProductName)
	assert.Equal(t, "kg", res.Scan.Uom)
	assert.Equal(t, enums.BarcodeTypeWeight, res.Scan.BarcodeType)
	assert.True(t, res.Scan.Quantity.Equal(decimal.RequireFromString("12.345")), "qty=%s", res.Scan.Quantity)
	assert.True(t, res.Scan.QtyAvailable.Equal(decimal.NewFromInt(20)))
	assert.True(t, res.Scan.UnitPrice.Equal(decimal.RequireFromString("4.5")))
	assert.Equal(t, "/web/image/product/"+cheese.ID.String()+"/image_128", res.Scan.ImageURL)
}

func TestResolveWeightBarcodeFallsBackToStoredLabels(t *testing.T) {
	db := dbtest.Open(t, "resolver_scan_fallback")
	kg := dbtest.Uom(t, db, "kg")
	// the product keeps a full scale label rather than its base code
	ham := dbtest.Product(t, db, kg, dbtest.ProductOpts{Name: "Ham", Barcode: "2101234123454"})
	dbtest.Product(t, db, kg, dbtest.ProductOpts{Name: "Other", Barcode: "2109999015007"})

	r := newResolver(t, product.NewRepository(db), staticProvider{parser: weightPattern(t)}, nil)
	ctx := context.Background()

	first, err := r.Resolve(ctx, "2101234050002")
	require.NoError(t, err)
	require.True(t, first.Found)
	assert.Equal(t, ham.ID, first.Scan.ProductID)
	assert.True(t, first.Scan.Quantity.Equal(decimal.NewFromInt(5)))

	second, err := r.Resolve(ctx, "2101234005002")
	require.NoError(t, err)
	require.True(t, second.Found)
	assert.Equal(t, ham.ID, second.Scan.ProductID, "same base code resolves to the same product")
	assert.True(t, second.Scan.Quantity.Equal(decimal.RequireFromString("0.5")))
}

func TestResolveScaleLabelScenario(t *testing.T) {
	db := dbtest.Open(t, "resolver_scenario")
	units := dbtest.Uom(t, db, "kg")
	stored := dbtest.Product(t, db, units, dbtest.ProductOpts{Name: "Salami", Barcode: "210123450000X"})

	parser := mapParser{
		"21012345000050": {Type: enums.BarcodeRuleTypeWeight, Code: "21012345000050", BaseCode: "2101234500000", Value: decimal.NewFromInt(5)},
		"210123450000X":  {Type: enums.BarcodeRuleTypeWeight, Code: "210123450000X", BaseCode: "2101234500000"},
	}
	r := newResolver(t, product.NewRepository(db), staticProvider{parser: parser}, nil)

	res, err := r.Resolve(context.Background(), "21012345000050")
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, stored.ID, res.Scan.ProductID)
	assert.True(t, res.Scan.Quantity.Equal(decimal.NewFromInt(5)))
}

func TestResolveZeroWeightCountsAsOne(t *testing.T) {
	db := dbtest.Open(t, "resolver_zero_weight")
	kg := dbtest.Uom(t, db, "kg")
	dbtest.Product(t, db, kg, dbtest.ProductOpts{Name: "Cheese", Barcode: "2101234000007"})

	r := newResolver(t, product.NewRepository(db), staticProvider{parser: weightPattern(t)}, nil)
	res, err := r.Resolve(context.Background(), "2101234000007")
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, enums.BarcodeTypeWeight, res.Scan.BarcodeType)
	assert.True(t, res.Scan.Quantity.Equal(decimal.NewFromInt(1)))
}

func TestResolveUnitBarcodeAlwaysQuantityOne(t *testing.T) {
	db := dbtest.Open(t, "resolver_unit")
	units := dbtest.Uom(t, db, "Units")
	img := "https://cdn.example.com/soap.png"
	soap := dbtest.Product(t, db, units, dbtest.ProductOpts{Name: "Soap", Barcode: "5901234123457"})
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", soap.ID).Update("image_url", img).Error)

	r := newResolver(t, product.NewRepository(db), staticProvider{parser: weightPattern(t)}, nil)
	for i := 0; i < 3; i++ {
		res, err := r.Resolve(context.Background(), "5901234123457")
		require.NoError(t, err)
		require.True(t, res.Found)
		assert.Equal(t, soap.ID, res.Scan.ProductID)
		assert.Equal(t, enums.BarcodeTypeUnit, res.Scan.BarcodeType)
		assert.True(t, res.Scan.Quantity.Equal(decimal.NewFromInt(1)))
		assert.Equal(t, img, res.Scan.ImageURL)
	}
}

func TestResolveNotFound(t *testing.T) {
	db := dbtest.Open(t, "resolver_not_found")
	units := dbtest.Uom(t, db, "Units")
	dbtest.Product(t, db, units, dbtest.ProductOpts{Name: "Archived", Barcode: "4006381333931", Inactive: true})

	reg := prometheus.NewRegistry()
	r := newResolver(t, product.NewRepository(db), staticProvider{parser: weightPattern(t)}, metrics.NewScrapMetrics(reg))

	for _, code := range []string{"4006381333931", "2101234050002", "nope"} {
		res, err := r.Resolve(context.Background(), code)
		require.NoError(t, err)
		assert.False(t, res.Found)
		assert.Nil(t, res.Scan)
		assert.Equal(t, code, res.Barcode)
		assert.Equal(t, "Product not found for barcode: "+code, res.Message)
	}
	assert.Equal(t, 3.0, scanCount(t, reg, metrics.ScanNotFound))
}

func TestResolveDegradesWithoutParser(t *testing.T) {
	db := dbtest.Open(t, "resolver_no_parser")
	kg := dbtest.Uom(t, db, "kg")
	cheese := dbtest.Product(t, db, kg, dbtest.ProductOpts{Name: "Cheese", Barcode: "2101234050002"})

	cases := map[string]ParserProvider{
		"no provider":    nil,
		"nil parser":     staticProvider{},
		"provider error": staticProvider{err: errors.New("rules table missing")},
	}
	for name, provider := range cases {
		t.Run(name, func(t *testing.T) {
			r := newResolver(t, product.NewRepository(db), provider, nil)
			res, err := r.Resolve(context.Background(), "2101234050002")
			require.NoError(t, err)
			require.True(t, res.Found)
			assert.Equal(t, cheese.ID, res.Scan.ProductID)
			assert.Equal(t, enums.BarcodeTypeUnit, res.Scan.BarcodeType)
			assert.True(t, res.Scan.Quantity.Equal(decimal.NewFromInt(1)))

			missing, err := r.Resolve(context.Background(), "2101234000007")
			require.NoError(t, err)
			assert.False(t, missing.Found, "base code matching needs a parser")
		})
	}
}

func TestResolveDoesNotWrite(t *testing.T) {
	db := dbtest.Open(t, "resolver_read_only")
	units := dbtest.Uom(t, db, "Units")
	p := dbtest.Product(t, db, units, dbtest.ProductOpts{Name: "Soap", Barcode: "5901234123457", OnHand: "3"})

	r := newResolver(t, product.NewRepository(db), nil, nil)
	_, err := r.Resolve(context.Background(), "5901234123457")
	require.NoError(t, err)

	var scraps int64
	require.NoError(t, db.Model(&models.ScrapOrder{}).Count(&scraps).Error)
	assert.Zero(t, scraps)
	assert.True(t, dbtest.OnHand(t, db, p.ID).Equal(decimal.NewFromInt(3)))
}

func TestResolveErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := newResolver(t, failingCatalog{}, nil, metrics.NewScrapMetrics(reg))

	_, err := r.Resolve(context.Background(), "123")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Equal(t, 1.0, scanCount(t, reg, metrics.ScanError))

	_, err = r.Resolve(context.Background(), "   ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = NewResolver(ResolverParams{})
	assert.Error(t, err)
}

func scanCount(t *testing.T, reg *prometheus.Registry, result string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "scrapscan_scans_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "result" && label.GetValue() == result {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
