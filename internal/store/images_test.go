package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/kolcson/internal/db"
	"github.com/erazemk/kolcson/internal/model"
)

func TestAddImageCoverReplaces(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "owner")
	item := mustItem(t, database, owner, "Drill")

	first, err := AddImage(ctx, database, item.ID, owner.ID, []byte("one"), "image/jpeg", true)
	require.NoError(t, err)
	assert.True(t, first.IsCover)

	second, err := AddImage(ctx, database, item.ID, owner.ID, []byte("two"), "image/jpeg", true)
	require.NoError(t, err)
	assert.True(t, second.IsCover)

	images, err := ListImages(ctx, database, item.ID)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, 1, model.CoverCount(images))
	assert.Equal(t, second.ID, images[0].ID, "cover is listed first")

	data, mime, err := GetImageData(ctx, database, item.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)
	assert.Equal(t, "image/jpeg", mime)
}

func TestAddImageRequiresOwner(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "owner")
	other := mustUser(t, database, "other")
	item := mustItem(t, database, owner, "Drill")

	_, err := AddImage(ctx, database, item.ID, other.ID, []byte("x"), "image/png", false)
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = AddImage(ctx, database, item.ID+100, owner.ID, []byte("x"), "image/png", false)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMainImageFallsBackToOldest(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "owner")
	item := mustItem(t, database, owner, "Drill")

	main, err := GetMainImage(ctx, database, item.ID)
	require.NoError(t, err)
	assert.Nil(t, main, "no images means no main image")

	first, _ := AddImage(ctx, database, item.ID, owner.ID, []byte("a"), "image/jpeg", false)
	second, _ := AddImage(ctx, database, item.ID, owner.ID, []byte("b"), "image/jpeg", false)

	main, err = GetMainImage(ctx, database, item.ID)
	require.NoError(t, err)
	require.NotNil(t, main)
	assert.Equal(t, first.ID, main.ID)

	require.NoError(t, SetCover(ctx, database, item.ID, second.ID, owner.ID))
	main, _ = GetMainImage(ctx, database, item.ID)
	assert.Equal(t, second.ID, main.ID)
}

// Three images with the first as cover; making the third cover leaves it as
// the only one.
func TestSetCoverKeepsSingleCover(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "owner")
	item := mustItem(t, database, owner, "Tent")

	i1, _ := AddImage(ctx, database, item.ID, owner.ID, []byte("1"), "image/jpeg", true)
	AddImage(ctx, database, item.ID, owner.ID, []byte("2"), "image/jpeg", false)
	i3, _ := AddImage(ctx, database, item.ID, owner.ID, []byte("3"), "image/jpeg", false)

	require.NoError(t, SetCover(ctx, database, item.ID, i3.ID, owner.ID))

	images, err := ListImages(ctx, database, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, model.CoverCount(images))
	for _, img := range images {
		assert.Equal(t, img.ID == i3.ID, img.IsCover, "image %d", img.ID)
	}

	// Setting the current cover again is a no-op.
	require.NoError(t, SetCover(ctx, database, item.ID, i3.ID, owner.ID))
	images, _ = ListImages(ctx, database, item.ID)
	assert.Equal(t, 1, model.CoverCount(images))

	got, _ := GetImage(ctx, database, item.ID, i1.ID)
	assert.False(t, got.IsCover)
}

func TestSetCoverErrors(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "owner")
	other := mustUser(t, database, "other")
	item := mustItem(t, database, owner, "Drill")
	otherItem := mustItem(t, database, owner, "Saw")

	img, _ := AddImage(ctx, database, item.ID, owner.ID, []byte("x"), "image/jpeg", true)
	foreign, _ := AddImage(ctx, database, otherItem.ID, owner.ID, []byte("y"), "image/jpeg", false)

	err := SetCover(ctx, database, item.ID, foreign.ID, owner.ID)
	assert.ErrorIs(t, err, model.ErrNotFound, "image of another item")

	err = SetCover(ctx, database, item.ID, img.ID, other.ID)
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	err = SetCover(ctx, database, item.ID+100, img.ID, owner.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	// Failed calls leave the cover alone.
	images, _ := ListImages(ctx, database, item.ID)
	assert.Equal(t, 1, model.CoverCount(images))
	images, _ = ListImages(ctx, database, otherItem.ID)
	assert.Equal(t, 0, model.CoverCount(images))
}

func TestSetCoverConcurrent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "owner")
	item := mustItem(t, database, owner, "Drill")

	var ids []int64
	for i := 0; i < 5; i++ {
		img, err := AddImage(ctx, database, item.ID, owner.ID, []byte{byte(i)}, "image/jpeg", i == 0)
		require.NoError(t, err)
		ids = append(ids, img.ID)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(ids)*4)
	for round := 0; round < 4; round++ {
		for _, id := range ids {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				errs <- SetCover(ctx, database, item.ID, id, owner.ID)
			}(id)
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	images, err := ListImages(ctx, database, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, model.CoverCount(images))
}

func TestDeleteImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "owner")
	other := mustUser(t, database, "other")
	item := mustItem(t, database, owner, "Drill")

	img, _ := AddImage(ctx, database, item.ID, owner.ID, []byte("x"), "image/jpeg", true)

	assert.ErrorIs(t, DeleteImage(ctx, database, item.ID, img.ID, other.ID), model.ErrUnauthorized)
	require.NoError(t, DeleteImage(ctx, database, item.ID, img.ID, owner.ID))
	assert.ErrorIs(t, DeleteImage(ctx, database, item.ID, img.ID, owner.ID), model.ErrNotFound)

	got, err := GetImage(ctx, database, item.ID, img.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
