package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend_smartiv/models"
	"backend_smartiv/testutils"
)

func TestCatalogService_CreateRateCard(t *testing.T) {
	db, cs := setupCatalogServiceTest(t)
	ctx := context.Background()
	property := testutils.CreateTestProperty(db, "Hotel A", "C1")

	def, err := cs.CreateRateCard(ctx, superAdmin, property.ID, CreateRateCardInput{PricePerDay: 10000})
	require.NoError(t, err)
	assert.True(t, def.IsDefault())
	assert.True(t, def.IsActive)

	inactive := false
	slot, err := cs.CreateRateCard(ctx, admin, property.ID, CreateRateCardInput{
		PricePerDay: 25000,
		TargetSlot:  models.AdSlotScreensaver,
		IsActive:    &inactive,
	})
	require.NoError(t, err)
	assert.False(t, slot.IsActive)

	_, err = cs.CreateRateCard(ctx, superAdmin, property.ID, CreateRateCardInput{PricePerDay: 1, TargetSlot: models.AdSlotScreensaver})
	assert.True(t, errors.Is(err, ErrDuplicateCode))
	_, err = cs.CreateRateCard(ctx, superAdmin, property.ID, CreateRateCardInput{PricePerDay: 1})
	assert.True(t, errors.Is(err, ErrDuplicateCode))

	_, err = cs.CreateRateCard(ctx, superAdmin, 9999, CreateRateCardInput{PricePerDay: 1})
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = cs.CreateRateCard(ctx, superAdmin, property.ID, CreateRateCardInput{PricePerDay: 0, TargetSlot: models.AdSlotBackground})
	assert.True(t, errors.Is(err, ErrValidation))
	_, err = cs.CreateRateCard(ctx, superAdmin, property.ID, CreateRateCardInput{PricePerDay: 5, TargetSlot: "POPUP"})
	assert.True(t, errors.Is(err, ErrValidation))

	cards, err := cs.ListRateCards(ctx, property.ID)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.True(t, cards[0].IsDefault(), "default card sorts first")
	assert.Equal(t, models.AdSlotScreensaver, cards[1].TargetSlot)

	_, err = cs.ListRateCards(ctx, 9999)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCatalogService_UpdateRateCard(t *testing.T) {
	db, cs := setupCatalogServiceTest(t)
	ctx := context.Background()
	property := testutils.CreateTestProperty(db, "Hotel A", "C1")
	def := testutils.CreateTestRateCard(db, property.ID, "", 1000)
	testutils.CreateTestRateCard(db, property.ID, models.AdSlotInfoSlider, 2000)

	conflict := models.AdSlotInfoSlider
	_, err := cs.UpdateRateCard(ctx, superAdmin, def.ID, UpdateRateCardInput{TargetSlot: &conflict})
	assert.True(t, errors.Is(err, ErrDuplicateCode))

	price := int64(1500)
	inactive := false
	updated, err := cs.UpdateRateCard(ctx, superAdmin, def.ID, UpdateRateCardInput{PricePerDay: &price, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), updated.PricePerDay)
	assert.False(t, updated.IsActive)
	assert.True(t, updated.IsDefault())

	negative := int64(-1)
	_, err = cs.UpdateRateCard(ctx, superAdmin, def.ID, UpdateRateCardInput{PricePerDay: &negative})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = cs.UpdateRateCard(ctx, superAdmin, 9999, UpdateRateCardInput{PricePerDay: &price})
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, cs.DeleteRateCard(ctx, superAdmin, def.ID))
	assert.True(t, errors.Is(cs.DeleteRateCard(ctx, superAdmin, def.ID), ErrNotFound))
}

func TestCatalogService_EffectiveRateAndQuote(t *testing.T) {
	db, cs := setupCatalogServiceTest(t)
	ctx := context.Background()
	property := testutils.CreateTestProperty(db, "Hotel A", "C1")
	testutils.CreateTestRateCard(db, property.ID, "", 1000)
	testutils.CreateTestRateCard(db, property.ID, models.AdSlotScreensaver, 3000)
	background := testutils.CreateTestRateCard(db, property.ID, models.AdSlotBackground, 5000)
	require.NoError(t, db.Model(background).Update("is_active", false).Error)

	card, err := cs.EffectiveRate(ctx, property.ID, models.AdSlotScreensaver)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), card.PricePerDay)

	// Неактивный тариф зоны уступает тарифу по умолчанию
	card, err = cs.EffectiveRate(ctx, property.ID, models.AdSlotBackground)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), card.PricePerDay)

	quote, err := cs.Quote(ctx, property.ID, models.AdSlotScreensaver, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(21000), quote.Total)
	assert.Equal(t, 7, quote.Days)

	_, err = cs.Quote(ctx, property.ID, models.AdSlotScreensaver, 0)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = cs.Quote(ctx, 9999, models.AdSlotScreensaver, 1)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = cs.EffectiveRate(ctx, property.ID, "POPUP")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestCatalogService_Quote_NoRate(t *testing.T) {
	db, cs := setupCatalogServiceTest(t)
	ctx := context.Background()
	property := testutils.CreateTestProperty(db, "Hotel A", "C1")
	testutils.CreateTestRateCard(db, property.ID, models.AdSlotInfoSlider, math.MaxInt64/2)

	_, err := cs.Quote(ctx, property.ID, models.AdSlotScreensaver, 3)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = cs.Quote(ctx, property.ID, models.AdSlotInfoSlider, 3)
	assert.True(t, errors.Is(err, ErrValidation), "total must not overflow")
}
