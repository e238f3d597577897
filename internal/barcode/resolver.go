package barcode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/scrapscan-backend/internal/nomenclature"
	"github.com/angelmondragon/scrapscan-backend/pkg/config"
	"github.com/angelmondragon/scrapscan-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/scrapscan-backend/pkg/errors"
	"github.com/angelmondragon/scrapscan-backend/pkg/enums"
	"github.com/angelmondragon/scrapscan-backend/pkg/logger"
	"github.com/angelmondragon/scrapscan-backend/pkg/metrics"
)

// ParserProvider hands out the active nomenclature; a nil parser means none is configured.
type ParserProvider interface {
	Current(ctx context.Context) (nomenclature.Parser, error)
}

// ProductCatalog is the slice of the product repository the resolver reads.
type ProductCatalog interface {
	FindActiveByBarcodes(ctx context.Context, codes ...string) (*models.Product, error)
	ListActiveWithBarcode(ctx context.Context) ([]models.Product, error)
}

// ResolvedScan describes the product behind a scanned barcode.
type ResolvedScan struct {
	ProductID    uuid.UUID             `json:"product_id"`
	ProductName  string                `json:"product_name"`
	UomID        uuid.UUID             `json:"uom_id"`
	Uom          string                `json:"uom"`
	Quantity     decimal.Decimal       `json:"quantity"`
	BarcodeType  enums.BarcodeType     `json:"barcode_type"`
	UnitPrice    decimal.Decimal       `json:"unit_price"`
	Tracking     enums.ProductTracking `json:"tracking"`
	QtyAvailable decimal.Decimal       `json:"qty_available"`
	ImageURL     string                `json:"image_url"`
}

// Result is either a resolved scan or a not-found outcome carrying the scanned barcode.
type Result struct {
	Found   bool          `json:"success"`
	Scan    *ResolvedScan `json:"product,omitempty"`
	Barcode string        `json:"barcode,omitempty"`
	Message string        `json:"error,omitempty"`
}

func notFound(code string) Result {
	return Result{
		Barcode: code,
		Message: fmt.Sprintf("Product not found for barcode: %s", code),
	}
}

type ResolverParams struct {
	Parsers  ParserProvider
	Products ProductCatalog
	Config   config.BarcodeConfig
	Metrics  *metrics.ScrapMetrics
	Logger   *logger.Logger
}

// Resolver maps scanned barcodes to products. It never writes.
type Resolver struct {
	parsers   ParserProvider
	products  ProductCatalog
	imageBase string
	metrics   *metrics.ScrapMetrics
	logg      *logger.Logger
}

func NewResolver(params ResolverParams) (*Resolver, error) {
	if params.Products == nil {
		return nil, errors.New("product catalog required")
	}
	return &Resolver{
		parsers:   params.Parsers,
		products:  params.Products,
		imageBase: strings.TrimRight(params.Config.ImageURLBase, "/"),
		metrics:   params.Metrics,
		logg:      params.Logger,
	}, nil
}

// Resolve looks up the product behind code. Not-found is reported in the result;
// the error is reserved for persistence failures.
func (r *Resolver) Resolve(ctx context.Context, code string) (Result, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}

	product, qty, kind, err := r.lookup(ctx, code)
	if err != nil {
		r.metrics.IncScan(metrics.ScanError)
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve barcode")
	}
	if product == nil {
		r.metrics.IncScan(metrics.ScanNotFound)
		return notFound(code), nil
	}

	r.metrics.IncScan(metrics.ScanFound)
	return Result{
		Found:   true,
		Barcode: code,
		Scan: &ResolvedScan{
			ProductID:    product.ID,
			ProductName:  product.DisplayName(),
			UomID:        product.UomID,
			Uom:          product.UomName(),
			Quantity:     qty,
			BarcodeType:  kind,
			UnitPrice:    product.ListPrice,
			Tracking:     product.Tracking,
			QtyAvailable: product.OnHand(),
			ImageURL:     r.imageURL(product),
		},
	}, nil
}

func (r *Resolver) lookup(ctx context.Context, code string) (*models.Product, decimal.Decimal, enums.BarcodeType, error) {
	parser := r.parser(ctx)
	if parser != nil {
		if parsed, ok := parser.Parse(code); ok && parsed.IsWeight() {
			product, err := r.byWeightCode(ctx, parser, code, parsed)
			if err != nil || product != nil {
				return product, weightQuantity(parsed.Value), enums.BarcodeTypeWeight, err
			}
		}
	}

	product, err := r.products.FindActiveByBarcodes(ctx, code)
	return product, decimal.NewFromInt(1), enums.BarcodeTypeUnit, err
}

// parser returns nil when no nomenclature is available, degrading to exact matching.
func (r *Resolver) parser(ctx context.Context) nomenclature.Parser {
	if r.parsers == nil {
		return nil
	}
	parser, err := r.parsers.Current(ctx)
	if err != nil {
		if r.logg != nil {
			r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "barcode nomenclature unavailable")
		}
		return nil
	}
	return parser
}

func (r *Resolver) byWeightCode(ctx context.Context, parser nomenclature.Parser, code string, parsed nomenclature.Parsed) (*models.Product, error) {
	product, err := r.products.FindActiveByBarcodes(ctx, parsed.BaseCode, code)
	if err != nil || product != nil {
		return product, err
	}

	// Scale labels are not always stored verbatim; compare base codes instead.
	candidates, err := r.products.ListActiveWithBarcode(ctx)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		stored := candidates[i].Barcode
		if stored == nil {
			continue
		}
		other, ok := parser.Parse(*stored)
		if ok && other.BaseCode == parsed.BaseCode {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

func weightQuantity(value decimal.Decimal) decimal.Decimal {
	if value.IsPositive() {
		return value
	}
	return decimal.NewFromInt(1)
}

func (r *Resolver) imageURL(p *models.Product) string {
	if p.ImageURL != nil && *p.ImageURL != "" {
		return *p.ImageURL
	}
	return fmt.Sprintf("%s/%s/image_128", r.imageBase, p.ID)
}
