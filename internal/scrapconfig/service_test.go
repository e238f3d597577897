package scrapconfig

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/scrapscan-backend/pkg/db/dbtest"
	"github.com/angelmondragon/scrapscan-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/scrapscan-backend/pkg/errors"
)

func newService(t *testing.T, name string) (*Service, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t, name)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc, db
}

func seedConfig(t *testing.T, db *gorm.DB, companyID *uuid.UUID, tagID *uuid.UUID, active bool, createdAt time.Time) *models.ScrapBarcodeConfig {
	t.Helper()
	row := &models.ScrapBarcodeConfig{Name: "cfg", CompanyID: companyID, DefaultScrapReasonTagID: tagID, Active: active}
	require.NoError(t, db.Omit("DefaultScrapReasonTag").Create(row).Error)
	require.NoError(t, db.Model(&models.ScrapBarcodeConfig{}).Where("id = ?", row.ID).Update("created_at", createdAt).Error)
	return row
}

func TestGetDefaultConfigPrefersCompanyScope(t *testing.T) {
	svc, db := newService(t, "scrapconfig_scope")
	expired := dbtest.ReasonTag(t, db, "Expired", 1)
	damaged := dbtest.ReasonTag(t, db, "Damaged", 2)
	company := uuid.New()
	now := time.Now().UTC()

	global := seedConfig(t, db, nil, &expired.ID, true, now)
	scoped := seedConfig(t, db, &company, &damaged.ID, true, now.Add(-time.Hour))

	got, err := svc.GetDefaultConfig(context.Background(), &company)
	require.NoError(t, err)
	require.NotNil(t, got.ID)
	assert.Equal(t, scoped.ID, *got.ID)
	assert.Equal(t, damaged.ID, *got.DefaultScrapReasonTagID)

	other := uuid.New()
	got, err = svc.GetDefaultConfig(context.Background(), &other)
	require.NoError(t, err)
	assert.Equal(t, global.ID, *got.ID)

	got, err = svc.GetDefaultConfig(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, global.ID, *got.ID)
}

func TestGetDefaultConfigNewestWinsWithinScope(t *testing.T) {
	svc, db := newService(t, "scrapconfig_tiebreak")
	company := uuid.New()
	now := time.Now().UTC()

	seedConfig(t, db, &company, nil, true, now.Add(-2*time.Hour))
	newest := seedConfig(t, db, &company, nil, true, now.Add(-time.Minute))
	seedConfig(t, db, &company, nil, false, now)

	got, err := svc.GetDefaultConfig(context.Background(), &company)
	require.NoError(t, err)
	assert.Equal(t, newest.ID, *got.ID)
	assert.Nil(t, got.DefaultScrapReasonTagID)
}

func TestGetDefaultConfigEmpty(t *testing.T) {
	svc, db := newService(t, "scrapconfig_empty")
	seedConfig(t, db, nil, nil, false, time.Now())

	company := uuid.New()
	got, err := svc.GetDefaultConfig(context.Background(), &company)
	require.NoError(t, err)
	assert.Nil(t, got.ID)
	assert.Nil(t, got.DefaultScrapReasonTagID)
}

func TestCreateAndListConfigs(t *testing.T) {
	svc, db := newService(t, "scrapconfig_create")
	tag := dbtest.ReasonTag(t, db, "Broken", 1)
	company := uuid.New()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{DefaultScrapReasonTagID: &tag.ID, CompanyID: &company})
	require.NoError(t, err)
	assert.Equal(t, defaultConfigName, created.Name)
	assert.True(t, created.Active)

	inactive := false
	_, err = svc.Create(ctx, CreateInput{Name: "Night shift", Active: &inactive, CompanyID: &company})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Name: "Elsewhere", CompanyID: ptr(uuid.New())})
	require.NoError(t, err)

	list, err := svc.List(ctx, &company)
	require.NoError(t, err)
	require.Len(t, list, 2)
	names := []string{list[0].Name, list[1].Name}
	assert.ElementsMatch(t, []string{defaultConfigName, "Night shift"}, names)
	for _, dto := range list {
		if dto.ID == created.ID {
			require.NotNil(t, dto.DefaultScrapReasonTagName)
			assert.Equal(t, "Broken", *dto.DefaultScrapReasonTagName)
		}
	}

	_, err = svc.Create(ctx, CreateInput{DefaultScrapReasonTagID: ptr(uuid.New())})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateConfig(t *testing.T) {
	svc, db := newService(t, "scrapconfig_update")
	tag := dbtest.ReasonTag(t, db, "Spoiled", 1)
	company := uuid.New()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{CompanyID: &company, DefaultScrapReasonTagID: &tag.ID})
	require.NoError(t, err)

	off := false
	name := "Renamed"
	updated, err := svc.Update(ctx, created.ID, &company, UpdateInput{Name: &name, Active: &off, ClearDefaultTag: true})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.False(t, updated.Active)
	assert.Nil(t, updated.DefaultScrapReasonTagID)

	got, err := svc.GetDefaultConfig(ctx, &company)
	require.NoError(t, err)
	assert.Nil(t, got.ID, "deactivated config is no longer the default")

	_, err = svc.Update(ctx, created.ID, ptr(uuid.New()), UpdateInput{Name: &name})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Update(ctx, uuid.New(), &company, UpdateInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	blank := "  "
	_, err = svc.Update(ctx, created.ID, &company, UpdateInput{Name: &blank})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func ptr[T any](v T) *T {
	return &v
}
