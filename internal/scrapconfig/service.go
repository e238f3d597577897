package scrapconfig

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/scrapscan-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/scrapscan-backend/pkg/errors"
)

const defaultConfigName = "Default Configuration"

// DefaultConfig is the configuration applied to new scrap batches. Both fields are nil
// when no active configuration exists.
type DefaultConfig struct {
	ID                      *uuid.UUID `json:"id"`
	DefaultScrapReasonTagID *uuid.UUID `json:"default_scrap_reason_tag_id"`
}

// ConfigDTO is the administrative view of a stored configuration.
type ConfigDTO struct {
	ID                        uuid.UUID  `json:"id"`
	Name                      string     `json:"name"`
	DefaultScrapReasonTagID   *uuid.UUID `json:"default_scrap_reason_tag_id"`
	DefaultScrapReasonTagName *string    `json:"default_scrap_reason_tag_name,omitempty"`
	Active                    bool       `json:"active"`
	CompanyID                 *uuid.UUID `json:"company_id"`
}

type CreateInput struct {
	Name                    string
	DefaultScrapReasonTagID *uuid.UUID
	Active                  *bool
	CompanyID               *uuid.UUID
}

// UpdateInput changes only the non-nil fields. ClearDefaultTag removes the default tag.
type UpdateInput struct {
	Name                    *string
	DefaultScrapReasonTagID *uuid.UUID
	ClearDefaultTag         bool
	Active                  *bool
}

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) (*Service, error) {
	if repo == nil {
		return nil, errors.New("scrap config repository required")
	}
	return &Service{repo: repo}, nil
}

// GetDefaultConfig resolves the active configuration for companyID. A missing
// configuration is not an error.
func (s *Service) GetDefaultConfig(ctx context.Context, companyID *uuid.UUID) (DefaultConfig, error) {
	row, err := s.repo.FindActiveForScope(ctx, companyID)
	if err != nil {
		return DefaultConfig{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load scrap config")
	}
	if row == nil {
		return DefaultConfig{}, nil
	}
	id := row.ID
	return DefaultConfig{ID: &id, DefaultScrapReasonTagID: row.DefaultScrapReasonTagID}, nil
}

func (s *Service) List(ctx context.Context, companyID *uuid.UUID) ([]ConfigDTO, error) {
	rows, err := s.repo.List(ctx, companyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list scrap configs")
	}
	out := make([]ConfigDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*ConfigDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = defaultConfigName
	}
	if err := s.checkTag(ctx, input.DefaultScrapReasonTagID); err != nil {
		return nil, err
	}
	active := true
	if input.Active != nil {
		active = *input.Active
	}

	row := &models.ScrapBarcodeConfig{
		Name:                    name,
		DefaultScrapReasonTagID: input.DefaultScrapReasonTagID,
		Active:                  active,
		CompanyID:               input.CompanyID,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create scrap config")
	}
	dto := toDTO(*row)
	return &dto, nil
}

// Update edits a configuration owned by companyID. Global configurations can only be
// edited without a company scope.
func (s *Service) Update(ctx context.Context, id uuid.UUID, companyID *uuid.UUID, input UpdateInput) (*ConfigDTO, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "scrap config not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load scrap config")
	}
	if !sameScope(row.CompanyID, companyID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "scrap config not found")
	}

	fields := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		fields["name"] = name
	}
	switch {
	case input.ClearDefaultTag:
		fields["default_scrap_reason_tag_id"] = nil
	case input.DefaultScrapReasonTagID != nil:
		if err := s.checkTag(ctx, input.DefaultScrapReasonTagID); err != nil {
			return nil, err
		}
		fields["default_scrap_reason_tag_id"] = *input.DefaultScrapReasonTagID
	}
	if input.Active != nil {
		fields["active"] = *input.Active
	}

	if len(fields) > 0 {
		if err := s.repo.Update(ctx, id, fields); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update scrap config")
		}
	}
	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload scrap config")
	}
	dto := toDTO(*updated)
	return &dto, nil
}

func (s *Service) checkTag(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	ok, err := s.repo.TagExists(ctx, *id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reason tag")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown scrap reason tag").
			WithDetails(map[string]any{"default_scrap_reason_tag_id": id.String()})
	}
	return nil
}

func sameScope(owner, caller *uuid.UUID) bool {
	if owner == nil || caller == nil {
		return owner == nil && caller == nil
	}
	return *owner == *caller
}

func toDTO(row models.ScrapBarcodeConfig) ConfigDTO {
	dto := ConfigDTO{
		ID:                      row.ID,
		Name:                    row.Name,
		DefaultScrapReasonTagID: row.DefaultScrapReasonTagID,
		Active:                  row.Active,
		CompanyID:               row.CompanyID,
	}
	if row.DefaultScrapReasonTag != nil {
		name := row.DefaultScrapReasonTag.Name
		dto.DefaultScrapReasonTagName = &name
	}
	return dto
}
