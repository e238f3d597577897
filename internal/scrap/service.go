package scrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/scrapscan-backend/internal/ledger"
	product "github.com/angelmondragon/scrapscan-backend/internal/products"
	"github.com/angelmondragon/scrapscan-backend/internal/stock"
	"github.com/angelmondragon/scrapscan-backend/pkg/db/models"
	"github.com/angelmondragon/scrapscan-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/scrapscan-backend/pkg/errors"
	"github.com/angelmondragon/scrapscan-backend/pkg/logger"
	"github.com/angelmondragon/scrapscan-backend/pkg/metrics"
	"github.com/angelmondragon/scrapscan-backend/pkg/outbox"
	"github.com/angelmondragon/scrapscan-backend/pkg/outbox/payloads"
)

const (
	outcomeCommitted = "committed"
	// quantityScale matches the numeric(18,4) quantity columns.
	quantityScale = 4
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type locationResolver interface {
	ScrapSourceLocation(ctx context.Context, companyID *uuid.UUID) (*uuid.UUID, error)
}

type stockSnapshotter interface {
	Snapshot(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]stock.Line, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ServiceParams struct {
	Tx        txRunner
	Orders    *Repository
	Tags      *TagRepository
	Products  *product.Repository
	Ledger    ledger.Service
	Locations locationResolver
	Stock     stockSnapshotter
	Outbox    outboxPublisher
	Metrics   *metrics.ScrapMetrics
	Logger    *logger.Logger
}

// Service commits scrap batches and serves scrap order reads.
type Service struct {
	tx        txRunner
	orders    *Repository
	tags      *TagRepository
	products  *product.Repository
	ledger    ledger.Service
	locations locationResolver
	stock     stockSnapshotter
	outbox    outboxPublisher
	metrics   *metrics.ScrapMetrics
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Tx == nil:
		return nil, errors.New("tx runner required")
	case params.Orders == nil:
		return nil, errors.New("scrap repository required")
	case params.Tags == nil:
		return nil, errors.New("reason tag repository required")
	case params.Products == nil:
		return nil, errors.New("product repository required")
	case params.Ledger == nil:
		return nil, errors.New("ledger service required")
	case params.Locations == nil:
		return nil, errors.New("location resolver required")
	case params.Stock == nil:
		return nil, errors.New("stock snapshot required")
	case params.Outbox == nil:
		return nil, errors.New("outbox publisher required")
	}
	return &Service{
		tx:        params.Tx,
		orders:    params.Orders,
		tags:      params.Tags,
		products:  params.Products,
		ledger:    params.Ledger,
		locations: params.Locations,
		stock:     params.Stock,
		outbox:    params.Outbox,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       time.Now,
	}, nil
}

// ListReasonTags returns the selectable reason tags.
func (s *Service) ListReasonTags(ctx context.Context) ([]ReasonTagDTO, error) {
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reason tags")
	}
	return toTagDTOs(tags), nil
}

// GetScrap returns a scrap order visible to companyID.
func (s *Service) GetScrap(ctx context.Context, id uuid.UUID, companyID *uuid.UUID) (*OrderDTO, error) {
	order, err := s.orders.FindDetailed(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "scrap order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load scrap order")
	}
	if order.CompanyID != nil && (companyID == nil || *order.CompanyID != *companyID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "scrap order not found")
	}
	return toOrderDTO(order), nil
}

// batch carries what every line of one CommitBatch call shares.
type batch struct {
	input    CommitBatchInput
	tags     []models.ScrapReasonTag
	tagIDs   []uuid.UUID
	uoms     map[uuid.UUID]models.Uom
	location *uuid.UUID
}

// CommitBatch creates and validates one scrap order per line, in order. Each line is capped
// at the on-hand quantity read when the line is processed, so earlier lines of the same
// batch are accounted for, and rounded to the stored scale. Lines left with nothing to
// scrap (no stock, zero or negative request) or whose product vanished are skipped.
// A persistence failure aborts the remaining lines; lines already committed stay committed.
func (s *Service) CommitBatch(ctx context.Context, input CommitBatchInput) (*BatchResult, error) {
	started := s.now()
	defer func() { s.metrics.ObserveBatch(s.now().Sub(started)) }()

	b, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		Scraps:       []CommittedLine{},
		Skipped:      []SkippedLine{},
		SkippedNames: []string{},
	}
	var touched []uuid.UUID
	for i, line := range input.Lines {
		committed, skipped, err := s.commitLine(ctx, b, line)
		if err != nil {
			s.logFailure(ctx, i, len(result.Scraps), err)
			return nil, err
		}
		if skipped != nil {
			s.metrics.IncLine(skipped.Reason.String())
			result.Skipped = append(result.Skipped, *skipped)
			if skipped.Reason == enums.ScrapSkipReasonNoStock {
				result.SkippedNames = append(result.SkippedNames, skipped.ProductName)
			}
			continue
		}
		s.metrics.IncLine(outcomeCommitted)
		result.Scraps = append(result.Scraps, *committed)
		touched = append(touched, committed.ProductID)
	}

	result.ScrapCount = len(result.Scraps)
	result.StockAfter, err = s.stock.Snapshot(ctx, touched)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read stock after scrap")
	}
	result.Success = true

	if s.logg != nil {
		fields := map[string]any{
			"scrap_count":   result.ScrapCount,
			"skipped_count": len(result.Skipped),
		}
		s.logg.Info(s.logg.WithFields(ctx, fields), "scrap batch committed")
	}
	return result, nil
}

func (s *Service) prepare(ctx context.Context, input CommitBatchInput) (*batch, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no products to scrap")
	}
	var uomIDs []uuid.UUID
	for _, line := range input.Lines {
		if line.UomID != nil {
			uomIDs = append(uomIDs, *line.UomID)
		}
	}

	b := &batch{input: input, tagIDs: distinct(input.ReasonTagIDs), uoms: map[uuid.UUID]models.Uom{}}

	tags, err := s.tags.FindByIDs(ctx, b.tagIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reason tags")
	}
	if len(tags) != len(b.tagIDs) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown scrap reason tag")
	}
	b.tags = tags

	uoms, err := s.products.ListUomsByIDs(ctx, distinct(uomIDs))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load units")
	}
	for _, uom := range uoms {
		b.uoms[uom.ID] = uom
	}
	for i, line := range input.Lines {
		if line.UomID == nil {
			continue
		}
		if _, ok := b.uoms[*line.UomID]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown unit of measure").
				WithDetails(map[string]any{"line": i, "uom_id": line.UomID.String()})
		}
	}

	b.location, err = s.locations.ScrapSourceLocation(ctx, input.CompanyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve scrap location")
	}
	return b, nil
}

func (s *Service) commitLine(ctx context.Context, b *batch, line Line) (*CommittedLine, *SkippedLine, error) {
	if line.ProductID == uuid.Nil {
		return nil, &SkippedLine{Reason: enums.ScrapSkipReasonProductNotFound}, nil
	}
	p, err := s.products.FindByID(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "product_id", line.ProductID.String()), "scrap line product no longer exists")
			}
			return nil, &SkippedLine{ProductID: line.ProductID, Reason: enums.ScrapSkipReasonProductNotFound}, nil
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	onHand, err := s.products.GetOnHand(ctx, p.ID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read on-hand")
	}
	qty := decimal.Min(line.Quantity, onHand).Round(quantityScale)
	if !qty.IsPositive() {
		return nil, &SkippedLine{ProductID: p.ID, ProductName: p.DisplayName(), Reason: enums.ScrapSkipReasonNoStock}, nil
	}

	uomID, uomName := p.UomID, p.UomName()
	if line.UomID != nil {
		uom := b.uoms[*line.UomID]
		uomID, uomName = uom.ID, uom.Name
	}

	order := &models.ScrapOrder{
		ProductID:  p.ID,
		UomID:      uomID,
		ScrapQty:   decimal.Zero,
		LocationID: b.location,
		CompanyID:  b.input.CompanyID,
		CreatedBy:  b.input.ActorUserID,
	}
	if err := s.orders.CreateDraft(ctx, order, b.tags); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create scrap order")
	}
	if err := s.orders.SetQuantity(ctx, order.ID, qty); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set scrap quantity")
	}
	if err := s.validate(ctx, b, order.ID); err != nil {
		return nil, nil, err
	}

	return &CommittedLine{
		ID:          order.ID,
		Name:        order.Name,
		ProductID:   p.ID,
		ProductName: p.DisplayName(),
		Quantity:    qty,
		Uom:         uomName,
	}, nil, nil
}

// validate moves the stock of a draft order inside one transaction. The quantity is
// read back from the stored row, never from the caller.
func (s *Service) validate(ctx context.Context, b *batch, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		order, err := orders.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if order.State != enums.ScrapStateDraft {
			return pkgerrors.Newf(pkgerrors.CodeConflict, "scrap order %s already validated", order.Name)
		}

		before, after, err := s.products.WithTx(tx).DecrementOnHand(ctx, order.ProductID, order.ScrapQty)
		if err != nil {
			if errors.Is(err, product.ErrInsufficientStock) {
				return pkgerrors.Newf(pkgerrors.CodeConflict, "not enough stock left to validate %s", order.Name).
					WithDetails(map[string]any{"product_id": order.ProductID.String()})
			}
			return err
		}

		if _, err := s.ledger.WithTx(tx).RecordScrapMove(ctx, ledger.RecordScrapMoveInput{
			ScrapOrderID: order.ID,
			ProductID:    order.ProductID,
			LocationID:   order.LocationID,
			Quantity:     order.ScrapQty,
			OnHandBefore: before,
			OnHandAfter:  after,
			ActorUserID:  order.CreatedBy,
		}); err != nil {
			return err
		}

		doneAt := s.now().UTC()
		if err := orders.MarkDone(ctx, order.ID, doneAt); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventScrapValidated,
			AggregateType: enums.AggregateScrapOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(b.input),
			OccurredAt:    doneAt,
			Data: payloads.ScrapValidatedEvent{
				ScrapOrderID: order.ID,
				Name:         order.Name,
				ProductID:    order.ProductID,
				Quantity:     order.ScrapQty,
				OnHandAfter:  after,
				LocationID:   order.LocationID,
				CompanyID:    order.CompanyID,
				ReasonTagIDs: b.tagIDs,
				DateDone:     doneAt,
			},
		})
	})
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("validate scrap order %s", id))
}

func (s *Service) logFailure(ctx context.Context, line, committed int, err error) {
	if s.logg == nil {
		return
	}
	fields := pkgerrors.Dump(err).Fields()
	fields["line"] = line
	fields["committed_before_failure"] = committed
	s.logg.Error(s.logg.WithFields(ctx, fields), "scrap batch aborted", err)
}

func actorRef(input CommitBatchInput) *outbox.ActorRef {
	if input.ActorUserID == nil {
		return nil
	}
	return &outbox.ActorRef{UserID: *input.ActorUserID, CompanyID: input.CompanyID, Role: input.ActorRole}
}

func distinct(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
