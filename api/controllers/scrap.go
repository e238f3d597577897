package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/scrapscan-backend/api/middleware"
	"github.com/angelmondragon/scrapscan-backend/api/responses"
	"github.com/angelmondragon/scrapscan-backend/api/validators"
	"github.com/angelmondragon/scrapscan-backend/internal/barcode"
	"github.com/angelmondragon/scrapscan-backend/internal/scrap"
	"github.com/angelmondragon/scrapscan-backend/internal/scrapconfig"
	"github.com/angelmondragon/scrapscan-backend/internal/stock"
	pkgerrors "github.com/angelmondragon/scrapscan-backend/pkg/errors"
	"github.com/angelmondragon/scrapscan-backend/pkg/logger"
)

const (
	maxBarcodeLen    = 64
	maxConfigNameLen = 128
)

type ScrapConfigService interface {
	GetDefaultConfig(ctx context.Context, companyID *uuid.UUID) (scrapconfig.DefaultConfig, error)
	List(ctx context.Context, companyID *uuid.UUID) ([]scrapconfig.ConfigDTO, error)
	Create(ctx context.Context, input scrapconfig.CreateInput) (*scrapconfig.ConfigDTO, error)
	Update(ctx context.Context, id uuid.UUID, companyID *uuid.UUID, input scrapconfig.UpdateInput) (*scrapconfig.ConfigDTO, error)
}

type BarcodeResolver interface {
	Resolve(ctx context.Context, code string) (barcode.Result, error)
}

type StockReader interface {
	Snapshot(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]stock.Line, error)
}

type ScrapService interface {
	ListReasonTags(ctx context.Context) ([]scrap.ReasonTagDTO, error)
	GetScrap(ctx context.Context, id uuid.UUID, companyID *uuid.UUID) (*scrap.OrderDTO, error)
	CommitBatch(ctx context.Context, input scrap.CommitBatchInput) (*scrap.BatchResult, error)
}

// ScrapConfig returns the configuration applied to the caller's scrap batches.
func ScrapConfig(svc ScrapConfigService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scrap config service unavailable"))
			return
		}
		cfg, err := svc.GetDefaultConfig(r.Context(), middleware.CompanyUUIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cfg)
	}
}

func ScrapConfigList(svc ScrapConfigService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scrap config service unavailable"))
			return
		}
		rows, err := svc.List(r.Context(), middleware.CompanyUUIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

type createScrapConfigRequest struct {
	Name                    string     `json:"name" validate:"max=128"`
	DefaultScrapReasonTagID *uuid.UUID `json:"default_scrap_reason_tag_id,omitempty"`
	Active                  *bool      `json:"active,omitempty"`
}

// ScrapConfigCreate stores a configuration scoped to the caller's company.
func ScrapConfigCreate(svc ScrapConfigService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scrap config service unavailable"))
			return
		}

		var payload createScrapConfigRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), scrapconfig.CreateInput{
			Name:                    validators.SanitizeString(payload.Name, maxConfigNameLen),
			DefaultScrapReasonTagID: payload.DefaultScrapReasonTagID,
			Active:                  payload.Active,
			CompanyID:               middleware.CompanyUUIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

type updateScrapConfigRequest struct {
	Name                    *string    `json:"name,omitempty" validate:"omitempty,max=128"`
	DefaultScrapReasonTagID *uuid.UUID `json:"default_scrap_reason_tag_id,omitempty"`
	ClearDefaultTag         bool       `json:"clear_default_tag,omitempty"`
	Active                  *bool      `json:"active,omitempty"`
}

func ScrapConfigUpdate(svc ScrapConfigService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scrap config service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "configId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateScrapConfigRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Name != nil {
			name := validators.SanitizeString(*payload.Name, maxConfigNameLen)
			payload.Name = &name
		}

		updated, err := svc.Update(r.Context(), id, middleware.CompanyUUIDFromContext(r.Context()), scrapconfig.UpdateInput{
			Name:                    payload.Name,
			DefaultScrapReasonTagID: payload.DefaultScrapReasonTagID,
			ClearDefaultTag:         payload.ClearDefaultTag,
			Active:                  payload.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func ScrapReasonTags(svc ScrapService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scrap service unavailable"))
			return
		}
		tags, err := svc.ListReasonTags(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tags)
	}
}

type scanRequest struct {
	Barcode string `json:"barcode" validate:"required"`
}

// ScrapScan resolves a scanned barcode. An unknown barcode is a 200 with success=false.
func ScrapScan(resolver BarcodeResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resolver == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "barcode resolver unavailable"))
			return
		}

		var payload scanRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := resolver.Resolve(r.Context(), validators.SanitizeString(payload.Barcode, maxBarcodeLen))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ScrapStock(reader StockReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		ids, err := validators.ParseQueryUUIDs(r, "product_ids")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := reader.Snapshot(r.Context(), ids)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read stock"))
			return
		}
		responses.WriteSuccess(w, lines)
	}
}

type commitLineRequest struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UomID     *uuid.UUID      `json:"uom_id,omitempty"`
}

type commitBatchRequest struct {
	Lines        []commitLineRequest `json:"lines"`
	ReasonTagIDs []uuid.UUID         `json:"reason_tag_ids"`
}

// ScrapCommitBatch turns the confirmed lines into validated scrap orders.
func ScrapCommitBatch(svc ScrapService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scrap service unavailable"))
			return
		}

		userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload commitBatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]scrap.Line, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			lines = append(lines, scrap.Line{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UomID:     line.UomID,
			})
		}

		result, err := svc.CommitBatch(r.Context(), scrap.CommitBatchInput{
			Lines:        lines,
			ReasonTagIDs: payload.ReasonTagIDs,
			CompanyID:    middleware.CompanyUUIDFromContext(r.Context()),
			ActorUserID:  &userID,
			ActorRole:    middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ScrapDetail(svc ScrapService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scrap service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "scrapId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetScrap(r.Context(), id, middleware.CompanyUUIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
