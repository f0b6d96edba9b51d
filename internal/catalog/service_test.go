package catalog

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ogboNoble001/brightnal-backend/internal/model"
	"github.com/ogboNoble001/brightnal-backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeObjectStore counts uploads and remembers deletes. Deleting an id
// that was already deleted succeeds, like the real store.
type fakeObjectStore struct {
	uploadCalls    int
	failUploads    map[int]bool
	failAllUploads bool
	failDeletes    map[string]bool
	deleted        []string
}

func (f *fakeObjectStore) Upload(_ context.Context, folder string, _ []byte, _ string) (storage.ObjectRef, error) {
	idx := f.uploadCalls
	f.uploadCalls++
	if f.failAllUploads || f.failUploads[idx] {
		return storage.ObjectRef{}, errors.New("upload refused")
	}
	key := fmt.Sprintf("%s/obj-%d", folder, idx)
	return storage.ObjectRef{
		URL:       "https://cdn.test/" + key,
		StorageID: key,
	}, nil
}

func (f *fakeObjectStore) Delete(_ context.Context, storageID string) error {
	if f.failDeletes[storageID] {
		return errors.New("delete refused")
	}
	f.deleted = append(f.deleted, storageID)
	return nil
}

// fakeProductStore keeps products in a map and hands out copies so
// callers cannot mutate stored state before a persist.
type fakeProductStore struct {
	products  map[uint]*model.Product
	nextID    uint
	insertErr error
	updateErr error
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{products: map[uint]*model.Product{}, nextID: 1}
}

func cloneProduct(p *model.Product) *model.Product {
	cp := *p
	cp.Images = append([]model.ProductImage(nil), p.Images...)
	return &cp
}

func (f *fakeProductStore) Insert(_ context.Context, p *model.Product) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	p.ID = f.nextID
	f.nextID++
	f.products[p.ID] = cloneProduct(p)
	return nil
}

func (f *fakeProductStore) GetByID(_ context.Context, id uint) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProduct(p), nil
}

func (f *fakeProductStore) ListByRecency(_ context.Context) ([]model.Product, error) {
	var out []model.Product
	for _, p := range f.products {
		out = append(out, *cloneProduct(p))
	}
	return out, nil
}

func (f *fakeProductStore) Update(_ context.Context, p *model.Product) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.products[p.ID]; !ok {
		return ErrNotFound
	}
	f.products[p.ID] = cloneProduct(p)
	return nil
}

func (f *fakeProductStore) Delete(_ context.Context, id uint) error {
	if _, ok := f.products[id]; !ok {
		return ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func dataURI(content string) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte(content))
}

func newTestService(products *fakeProductStore, objects *fakeObjectStore, cfg Config) *Service {
	return NewService(products, objects, DependencyStatus{Database: true, ObjectStore: true}, cfg, zap.NewNop())
}

func defaultConfig() Config {
	return Config{AuthRequired: false, MultiImage: true, UploadFolder: "products"}
}

func TestCreateUploadsAllImages(t *testing.T) {
	products := newFakeProductStore()
	objects := &fakeObjectStore{}
	svc := newTestService(products, objects, defaultConfig())

	p, err := svc.Create(context.Background(), Caller{}, CreateInput{
		Name:     "Widget",
		Category: "Tools",
		SKU:      "SKU-1",
		Price:    9.99,
		Stock:    5,
		Images:   []string{dataURI("a"), dataURI("b"), dataURI("c")},
	})
	require.NoError(t, err)
	require.Len(t, p.Images, 3)
	assert.Equal(t, p.Images[0].URL, p.ImageURL)
	assert.Equal(t, 9.99, p.Price)
	assert.Equal(t, 5, p.Stock)
	assert.NotZero(t, p.ID)
	for i, img := range p.Images {
		assert.Equal(t, i, img.Position)
		assert.NotEmpty(t, img.StorageID)
	}
}

func TestCreateSkipsFailedUploads(t *testing.T) {
	products := newFakeProductStore()
	objects := &fakeObjectStore{failUploads: map[int]bool{1: true}}
	svc := newTestService(products, objects, defaultConfig())

	p, err := svc.Create(context.Background(), Caller{}, CreateInput{
		Name:     "Widget",
		Category: "Tools",
		Images:   []string{dataURI("a"), dataURI("b"), dataURI("c")},
	})
	require.NoError(t, err)
	assert.Len(t, p.Images, 2)
}

func TestCreateProceedsWhenAllUploadsFail(t *testing.T) {
	products := newFakeProductStore()
	objects := &fakeObjectStore{failAllUploads: true}
	svc := newTestService(products, objects, defaultConfig())

	p, err := svc.Create(context.Background(), Caller{}, CreateInput{
		Name:     "Widget",
		Category: "Tools",
		Images:   []string{dataURI("a"), dataURI("b")},
	})
	require.NoError(t, err)
	assert.Empty(t, p.Images)
	assert.Equal(t, placeholderImage, p.ImageURL)
}

func TestCreateInsertFailureCompensatesEveryUpload(t *testing.T) {
	products := newFakeProductStore()
	products.insertErr = errors.New("connection reset")
	objects := &fakeObjectStore{}
	svc := newTestService(products, objects, defaultConfig())

	_, err := svc.Create(context.Background(), Caller{}, CreateInput{
		Name:     "Widget",
		Category: "Tools",
		Images:   []string{dataURI("a"), dataURI("b")},
	})
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	// exactly K compensating deletes for K successful uploads
	assert.Len(t, objects.deleted, 2)
	assert.Empty(t, products.products)
}

func TestCreateCompensationFailureDoesNotMaskInsertError(t *testing.T) {
	products := newFakeProductStore()
	products.insertErr = errors.New("connection reset")
	objects := &fakeObjectStore{failDeletes: map[string]bool{"products/obj-0": true}}
	svc := newTestService(products, objects, defaultConfig())

	_, err := svc.Create(context.Background(), Caller{}, CreateInput{
		Name:     "Widget",
		Category: "Tools",
		Images:   []string{dataURI("a"), dataURI("b")},
	})
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Err.Error(), "connection reset")
	// the second object was still reclaimed
	assert.Equal(t, []string{"products/obj-1"}, objects.deleted)
}

func TestCreateInsertFailureWrapsSKUConflict(t *testing.T) {
	products := newFakeProductStore()
	products.insertErr = fmt.Errorf("%w: duplicate key", ErrSKUConflict)
	svc := newTestService(products, &fakeObjectStore{}, defaultConfig())

	_, err := svc.Create(context.Background(), Caller{}, CreateInput{Name: "Widget", Category: "Tools"})
	assert.ErrorIs(t, err, ErrSKUConflict)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(newFakeProductStore(), &fakeObjectStore{}, defaultConfig())

	_, err := svc.Create(context.Background(), Caller{}, CreateInput{Category: "Tools"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	_, err = svc.Create(context.Background(), Caller{}, CreateInput{Name: "Widget"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "category", verr.Field)
}

func TestCreateLenientDefaults(t *testing.T) {
	products := newFakeProductStore()
	svc := newTestService(products, &fakeObjectStore{}, defaultConfig())

	p, err := svc.Create(context.Background(), Caller{}, CreateInput{
		Name:     "Widget",
		Category: "Tools",
		Price:    "not-a-number",
		Stock:    -3,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(0), p.Price)
	assert.Equal(t, 0, p.Stock)
	assert.True(t, strings.HasPrefix(p.SKU, "SKU-"), "missing SKU defaults to a timestamp-derived value, got %q", p.SKU)
}

func TestCreateSingleImageModeUsesFirstPayloadOnly(t *testing.T) {
	products := newFakeProductStore()
	objects := &fakeObjectStore{}
	cfg := defaultConfig()
	cfg.MultiImage = false
	svc := newTestService(products, objects, cfg)

	p, err := svc.Create(context.Background(), Caller{}, CreateInput{
		Name:     "Widget",
		Category: "Tools",
		Images:   []string{dataURI("a"), dataURI("b"), dataURI("c")},
	})
	require.NoError(t, err)
	assert.Len(t, p.Images, 1)
	assert.Equal(t, 1, objects.uploadCalls)
}

func TestCreateSetsOwner(t *testing.T) {
	products := newFakeProductStore()
	cfg := defaultConfig()
	cfg.AuthRequired = true
	svc := newTestService(products, &fakeObjectStore{}, cfg)

	p, err := svc.Create(context.Background(), Caller{UserID: 42, Role: model.RoleCustomer}, CreateInput{
		Name:     "Widget",
		Category: "Tools",
	})
	require.NoError(t, err)
	assert.Equal(t, uint(42), p.OwnerID)
}

func seedProduct(t *testing.T, products *fakeProductStore, owner uint, images ...model.ProductImage) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:     "Widget",
		Category: "Tools",
		SKU:      "SKU-1",
		Price:    9.99,
		Stock:    5,
		ImageURL: placeholderImage,
		OwnerID:  owner,
		Images:   images,
	}
	if len(images) > 0 {
		p.ImageURL = images[0].URL
	}
	require.NoError(t, products.Insert(context.Background(), p))
	return p
}

func strptr(s string) *string { return &s }

func TestUpdateNotFound(t *testing.T) {
	svc := newTestService(newFakeProductStore(), &fakeObjectStore{}, defaultConfig())

	_, err := svc.Update(context.Background(), Caller{}, 99, UpdateInput{Name: strptr("X")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateForbiddenLeavesRecordUnchanged(t *testing.T) {
	products := newFakeProductStore()
	cfg := defaultConfig()
	cfg.AuthRequired = true
	svc := newTestService(products, &fakeObjectStore{}, cfg)
	p := seedProduct(t, products, 1)

	_, err := svc.Update(context.Background(), Caller{UserID: 2, Role: model.RoleCustomer}, p.ID, UpdateInput{
		Name: strptr("Hacked"),
	})
	assert.ErrorIs(t, err, ErrForbidden)

	stored, err := products.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", stored.Name)
}

func TestUpdateAllowsOwnerAndAdmin(t *testing.T) {
	products := newFakeProductStore()
	cfg := defaultConfig()
	cfg.AuthRequired = true
	svc := newTestService(products, &fakeObjectStore{}, cfg)
	p := seedProduct(t, products, 1)

	_, err := svc.Update(context.Background(), Caller{UserID: 1, Role: model.RoleCustomer}, p.ID, UpdateInput{
		Name: strptr("Owner rename"),
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), Caller{UserID: 9, Role: model.RoleAdmin}, p.ID, UpdateInput{
		Name: strptr("Admin rename"),
	})
	require.NoError(t, err)
}

func TestUpdateAbsentFieldsUnchanged(t *testing.T) {
	products := newFakeProductStore()
	svc := newTestService(products, &fakeObjectStore{}, defaultConfig())
	p := seedProduct(t, products, 0)

	updated, err := svc.Update(context.Background(), Caller{}, p.ID, UpdateInput{Price: 12.50})
	require.NoError(t, err)
	assert.Equal(t, 12.50, updated.Price)
	assert.Equal(t, "Widget", updated.Name)
	assert.Equal(t, "SKU-1", updated.SKU)
	assert.Equal(t, 5, updated.Stock)
}

func TestUpdateOmittedImageDroppedWithoutRemoteDelete(t *testing.T) {
	products := newFakeProductStore()
	objects := &fakeObjectStore{}
	svc := newTestService(products, objects, defaultConfig())
	p := seedProduct(t, products, 0,
		model.ProductImage{URL: "https://cdn.test/products/a", StorageID: "products/a", Position: 0},
		model.ProductImage{URL: "https://cdn.test/products/b", StorageID: "products/b", Position: 1},
	)

	images := []ImageInput{{URL: "https://cdn.test/products/a"}}
	updated, err := svc.Update(context.Background(), Caller{}, p.ID, UpdateInput{Images: &images})
	require.NoError(t, err)
	require.Len(t, updated.Images, 1)
	assert.Equal(t, "https://cdn.test/products/a", updated.Images[0].URL)
	assert.Equal(t, "products/a", updated.Images[0].StorageID)
	// the dropped object is orphaned, not reclaimed
	assert.Empty(t, objects.deleted)

	stored, err := products.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, stored.Images, 1)
}

func TestUpdateAppendsNewUploadsAfterKept(t *testing.T) {
	products := newFakeProductStore()
	objects := &fakeObjectStore{}
	svc := newTestService(products, objects, defaultConfig())
	p := seedProduct(t, products, 0,
		model.ProductImage{URL: "https://cdn.test/products/a", StorageID: "products/a", Position: 0},
	)

	images := []ImageInput{{Data: dataURI("new")}, {URL: "https://cdn.test/products/a"}}
	updated, err := svc.Update(context.Background(), Caller{}, p.ID, UpdateInput{Images: &images})
	require.NoError(t, err)
	require.Len(t, updated.Images, 2)
	// kept URLs come first, new uploads after, regardless of input order
	assert.Equal(t, "https://cdn.test/products/a", updated.Images[0].URL)
	assert.Equal(t, "products/obj-0", updated.Images[1].StorageID)
	assert.Equal(t, []int{0, 1}, []int{updated.Images[0].Position, updated.Images[1].Position})
}

func TestUpdatePersistFailureCompensatesNewUploadsOnly(t *testing.T) {
	products := newFakeProductStore()
	objects := &fakeObjectStore{}
	svc := newTestService(products, objects, defaultConfig())
	p := seedProduct(t, products, 0,
		model.ProductImage{URL: "https://cdn.test/products/a", StorageID: "products/a", Position: 0},
	)
	products.updateErr = errors.New("deadlock")

	images := []ImageInput{{URL: "https://cdn.test/products/a"}, {Data: dataURI("new")}}
	_, err := svc.Update(context.Background(), Caller{}, p.ID, UpdateInput{Images: &images})
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	// only the fresh upload is rolled back, the kept object stays
	assert.Equal(t, []string{"products/obj-0"}, objects.deleted)
}

func TestSingleImageUpdateUploadFailureAborts(t *testing.T) {
	products := newFakeProductStore()
	objects := &fakeObjectStore{failAllUploads: true}
	cfg := defaultConfig()
	cfg.MultiImage = false
	svc := newTestService(products, objects, cfg)
	p := seedProduct(t, products, 0,
		model.ProductImage{URL: "https://cdn.test/products/old", StorageID: "products/old", Position: 0},
	)

	images := []ImageInput{{Data: dataURI("new")}}
	_, err := svc.Update(context.Background(), Caller{}, p.ID, UpdateInput{Images: &images})
	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	// old image and record untouched
	assert.Empty(t, objects.deleted)
	stored, getErr := products.GetByID(context.Background(), p.ID)
	require.NoError(t, getErr)
	require.Len(t, stored.Images, 1)
	assert.Equal(t, "products/old", stored.Images[0].StorageID)
}

func TestSingleImageUpdateDeletesOldAfterPersist(t *testing.T) {
	products := newFakeProductStore()
	objects := &fakeObjectStore{}
	cfg := defaultConfig()
	cfg.MultiImage = false
	svc := newTestService(products, objects, cfg)
	p := seedProduct(t, products, 0,
		model.ProductImage{URL: "https://cdn.test/products/old", StorageID: "products/old", Position: 0},
	)

	images := []ImageInput{{Data: dataURI("new")}}
	updated, err := svc.Update(context.Background(), Caller{}, p.ID, UpdateInput{Images: &images})
	require.NoError(t, err)
	require.Len(t, updated.Images, 1)
	assert.Equal(t, "products/obj-0", updated.Images[0].StorageID)
	assert.Equal(t, updated.Images[0].URL, updated.ImageURL)
	assert.Equal(t, []string{"products/old"}, objects.deleted)
}

func TestSingleImageUpdatePersistFailureDeletesNewOnly(t *testing.T) {
	products := newFakeProductStore()
	objects := &fakeObjectStore{}
	cfg := defaultConfig()
	cfg.MultiImage = false
	svc := newTestService(products, objects, cfg)
	p := seedProduct(t, products, 0,
		model.ProductImage{URL: "https://cdn.test/products/old", StorageID: "products/old", Position: 0},
	)
	products.updateErr = errors.New("deadlock")

	images := []ImageInput{{Data: dataURI("new")}}
	_, err := svc.Update(context.Background(), Caller{}, p.ID, UpdateInput{Images: &images})
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	// the new upload is compensated, the original stays
	assert.Equal(t, []string{"products/obj-0"}, objects.deleted)
}

func TestSingleImageUpdateEmptyEntryFallsBackToPlaceholder(t *testing.T) {
	products := newFakeProductStore()
	objects := &fakeObjectStore{}
	cfg := defaultConfig()
	cfg.MultiImage = false
	svc := newTestService(products, objects, cfg)
	p := seedProduct(t, products, 0,
		model.ProductImage{URL: "https://cdn.test/products/old", StorageID: "products/old", Position: 0},
	)

	images := []ImageInput{{}}
	updated, err := svc.Update(context.Background(), Caller{}, p.ID, UpdateInput{Images: &images})
	require.NoError(t, err)
	assert.Empty(t, updated.Images)
	assert.Equal(t, placeholderImage, updated.ImageURL)

	stored, err := products.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Images)
	assert.Equal(t, placeholderImage, stored.ImageURL, "persisted rows always carry an image URL")
}

func TestMultiImageUpdateSkipsEmptyEntries(t *testing.T) {
	products := newFakeProductStore()
	objects := &fakeObjectStore{}
	svc := newTestService(products, objects, defaultConfig())
	p := seedProduct(t, products, 0,
		model.ProductImage{URL: "https://cdn.test/products/a", StorageID: "products/a", Position: 0},
	)

	images := []ImageInput{{}, {URL: "https://cdn.test/products/a"}, {}}
	updated, err := svc.Update(context.Background(), Caller{}, p.ID, UpdateInput{Images: &images})
	require.NoError(t, err)
	require.Len(t, updated.Images, 1)
	assert.Equal(t, "https://cdn.test/products/a", updated.Images[0].URL)
	assert.Equal(t, updated.Images[0].URL, updated.ImageURL)
	assert.Zero(t, objects.uploadCalls)
}

func TestDeleteReclaimsImagesAndIsIdempotent(t *testing.T) {
	products := newFakeProductStore()
	objects := &fakeObjectStore{}
	svc := newTestService(products, objects, defaultConfig())
	p := seedProduct(t, products, 0,
		model.ProductImage{URL: "https://cdn.test/products/a", StorageID: "products/a", Position: 0},
		model.ProductImage{URL: "https://cdn.test/products/b", StorageID: "products/b", Position: 1},
	)

	require.NoError(t, svc.Delete(context.Background(), Caller{}, p.ID))
	assert.ElementsMatch(t, []string{"products/a", "products/b"}, objects.deleted)

	// second delete reports not found, it does not crash
	err := svc.Delete(context.Background(), Caller{}, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProceedsWhenImageDeleteFails(t *testing.T) {
	products := newFakeProductStore()
	objects := &fakeObjectStore{failDeletes: map[string]bool{"products/a": true}}
	svc := newTestService(products, objects, defaultConfig())
	p := seedProduct(t, products, 0,
		model.ProductImage{URL: "https://cdn.test/products/a", StorageID: "products/a", Position: 0},
	)

	require.NoError(t, svc.Delete(context.Background(), Caller{}, p.ID))
	_, err := products.GetByID(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteForbiddenForNonOwner(t *testing.T) {
	products := newFakeProductStore()
	cfg := defaultConfig()
	cfg.AuthRequired = true
	svc := newTestService(products, &fakeObjectStore{}, cfg)
	p := seedProduct(t, products, 1)

	err := svc.Delete(context.Background(), Caller{UserID: 2, Role: model.RoleCustomer}, p.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, getErr := products.GetByID(context.Background(), p.ID)
	assert.NoError(t, getErr)
}

func TestOperationsUnavailableWithoutDatabase(t *testing.T) {
	svc := NewService(newFakeProductStore(), &fakeObjectStore{},
		DependencyStatus{Database: false, ObjectStore: true}, defaultConfig(), zap.NewNop())

	_, err := svc.Create(context.Background(), Caller{}, CreateInput{Name: "W", Category: "T"})
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = svc.Get(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = svc.List(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = svc.Update(context.Background(), Caller{}, 1, UpdateInput{})
	assert.ErrorIs(t, err, ErrUnavailable)
	err = svc.Delete(context.Background(), Caller{}, 1)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCreateSkipsUploadsWhenObjectStoreDown(t *testing.T) {
	products := newFakeProductStore()
	objects := &fakeObjectStore{}
	svc := NewService(products, objects,
		DependencyStatus{Database: true, ObjectStore: false}, defaultConfig(), zap.NewNop())

	p, err := svc.Create(context.Background(), Caller{}, CreateInput{
		Name:     "Widget",
		Category: "Tools",
		Images:   []string{dataURI("a")},
	})
	require.NoError(t, err)
	assert.Empty(t, p.Images)
	assert.Zero(t, objects.uploadCalls)
}
