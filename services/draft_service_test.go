package services

import (
	"context"
	"testing"

	"backend_nae/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftSaveGetClear(t *testing.T) {
	ds := NewDraftService(NewMemoryDraftStore())
	ctx := context.Background()

	form := models.TestSheetFormData{
		TechReference: "TR-100",
		Customer:      "Exxaro",
		Items: map[string]models.TestItemEntry{
			"horn": {Status: models.StatusWorking, Comment: "ok"},
		},
	}

	require.NoError(t, ds.Save(ctx, "user-1", form))

	loaded, err := ds.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "TR-100", loaded.TechReference)
	assert.Equal(t, models.StatusWorking, loaded.Items["horn"].Status)
	assert.Equal(t, "ok", loaded.Items["horn"].Comment)

	require.NoError(t, ds.Clear(ctx, "user-1"))
	_, err = ds.Get(ctx, "user-1")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestDraftOneSlotPerUser(t *testing.T) {
	ds := NewDraftService(NewMemoryDraftStore())
	ctx := context.Background()

	require.NoError(t, ds.Save(ctx, "user-1", models.TestSheetFormData{TechReference: "TR-1"}))
	require.NoError(t, ds.Save(ctx, "user-1", models.TestSheetFormData{TechReference: "TR-2"}))

	loaded, err := ds.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "TR-2", loaded.TechReference)
}

func TestDraftIsolatedByUser(t *testing.T) {
	ds := NewDraftService(NewMemoryDraftStore())
	ctx := context.Background()

	require.NoError(t, ds.Save(ctx, "user-1", models.TestSheetFormData{TechReference: "TR-1"}))

	_, err := ds.Get(ctx, "user-2")
	assert.ErrorIs(t, err, ErrDraftNotFound)

	require.NoError(t, ds.Clear(ctx, "user-2"))
	loaded, err := ds.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "TR-1", loaded.TechReference)
}

func TestDraftNotFoundForNewUser(t *testing.T) {
	ds := NewDraftService(NewMemoryDraftStore())
	_, err := ds.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}
