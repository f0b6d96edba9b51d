// Package catalog implements the product operations: each mutating
// operation spans the object store and the record store, with manual
// compensating deletes when the record store fails after images were
// already uploaded.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ogboNoble001/brightnal-backend/internal/model"
	"github.com/ogboNoble001/brightnal-backend/internal/storage"
	"github.com/ogboNoble001/brightnal-backend/prometheus"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// placeholderImage is the image URL written to rows created without a
// usable image. Persisted rows never carry an empty image URL.
const placeholderImage = "/assets/placeholder.png"

// ProductStore is the record store contract. Implementations must
// return ErrNotFound for unknown ids and ErrSKUConflict (wrapped) for
// unique SKU violations.
type ProductStore interface {
	Insert(ctx context.Context, p *model.Product) error
	GetByID(ctx context.Context, id uint) (*model.Product, error)
	ListByRecency(ctx context.Context) ([]model.Product, error)
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id uint) error
}

// DependencyStatus reports which external dependencies answered their
// startup probes. Built once at boot, read-only afterwards.
type DependencyStatus struct {
	Database    bool
	ObjectStore bool
}

// CompensationResult reports the outcome of best-effort cleanup after a
// failed persist. It is logged by the service and never escalated, so
// cleanup failures cannot mask the original error.
type CompensationResult struct {
	Attempted int
	Deleted   int
	Failed    []string
}

// Config holds the feature switches the service honors.
type Config struct {
	AuthRequired bool
	MultiImage   bool
	UploadFolder string
}

// Caller identifies the authenticated requester. Zero value means
// anonymous (auth disabled deployments).
type Caller struct {
	UserID uint
	Role   string
}

// Service orchestrates product mutations across the two stores.
type Service struct {
	products ProductStore
	objects  storage.ObjectStore
	status   DependencyStatus
	cfg      Config
	log      *zap.Logger
}

// NewService creates the catalog service with its injected dependencies.
func NewService(products ProductStore, objects storage.ObjectStore, status DependencyStatus, cfg Config, log *zap.Logger) *Service {
	return &Service{
		products: products,
		objects:  objects,
		status:   status,
		cfg:      cfg,
		log:      log,
	}
}

// CreateInput carries the structured fields and raw image payloads for
// a create. Price and Stock are deliberately untyped: absent or
// unparsable values coerce to 0 instead of rejecting the request.
type CreateInput struct {
	Name        string
	Category    string
	Brand       string
	SKU         string
	Price       any
	Stock       any
	Description string
	Class       string
	Sizes       string
	Colors      string
	Images      []string
}

// ImageInput is one element of an update's image list: either a
// reference to an already-stored image (URL) or a new payload (Data).
type ImageInput struct {
	URL  string
	Data string
}

// UpdateInput carries the patch for an update. Nil fields are left
// unchanged; a nil Images pointer leaves the image set untouched.
type UpdateInput struct {
	Name        *string
	Category    *string
	Brand       *string
	SKU         *string
	Price       any
	Stock       any
	Description *string
	Class       *string
	Sizes       *string
	Colors      *string
	Images      *[]ImageInput
}

// Create validates the input, uploads the image payloads, builds the
// full product in memory and inserts it. An individual image upload
// failure is logged and that image skipped; an insert failure triggers
// compensating deletes of everything uploaded.
func (s *Service) Create(ctx context.Context, caller Caller, in CreateInput) (*model.Product, error) {
	if !s.status.Database {
		return nil, fmt.Errorf("record store: %w", ErrUnavailable)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return nil, &ValidationError{Field: "category", Reason: "required"}
	}
	sku := strings.TrimSpace(in.SKU)
	if sku == "" {
		sku = fmt.Sprintf("SKU-%d", time.Now().UnixMilli())
	}

	payloads := in.Images
	if !s.cfg.MultiImage && len(payloads) > 1 {
		payloads = payloads[:1]
	}
	refs := s.uploadPayloads(ctx, payloads)

	product := &model.Product{
		Name:        name,
		Category:    category,
		Brand:       strings.TrimSpace(in.Brand),
		SKU:         sku,
		Price:       nonNegativeFloat(in.Price),
		Stock:       nonNegativeInt(in.Stock),
		Description: in.Description,
		Class:       strings.TrimSpace(in.Class),
		Sizes:       strings.TrimSpace(in.Sizes),
		Colors:      strings.TrimSpace(in.Colors),
		ImageURL:    placeholderImage,
		OwnerID:     caller.UserID,
	}
	for i, ref := range refs {
		product.Images = append(product.Images, model.ProductImage{
			URL:       ref.URL,
			StorageID: ref.StorageID,
			Position:  i,
		})
	}
	if len(refs) > 0 {
		product.ImageURL = refs[0].URL
	}

	if err := s.products.Insert(ctx, product); err != nil {
		comp := s.compensate(ctx, refs)
		s.logCompensation("create", comp)
		return nil, &PersistenceError{Op: "insert", Err: err}
	}

	s.log.Info("product created",
		zap.Uint("product_id", product.ID),
		zap.String("sku", product.SKU),
		zap.Int("images", len(product.Images)))
	return product, nil
}

// Get returns a product by id.
func (s *Service) Get(ctx context.Context, id uint) (*model.Product, error) {
	if !s.status.Database {
		return nil, fmt.Errorf("record store: %w", ErrUnavailable)
	}
	return s.products.GetByID(ctx, id)
}

// List returns all products, most recently created first.
func (s *Service) List(ctx context.Context) ([]model.Product, error) {
	if !s.status.Database {
		return nil, fmt.Errorf("record store: %w", ErrUnavailable)
	}
	return s.products.ListByRecency(ctx)
}

// Update patches a product. The image list, when present, is
// partitioned into kept URL references and new payloads; the surviving
// set is kept-then-new. In single-image mode the prior stored object is
// deleted only after both the new upload and the persist succeeded.
func (s *Service) Update(ctx context.Context, caller Caller, id uint, in UpdateInput) (*model.Product, error) {
	if !s.status.Database {
		return nil, fmt.Errorf("record store: %w", ErrUnavailable)
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, product); err != nil {
		return nil, err
	}

	patchString(&product.Name, in.Name)
	patchString(&product.Category, in.Category)
	patchString(&product.Brand, in.Brand)
	patchString(&product.SKU, in.SKU)
	patchString(&product.Class, in.Class)
	patchString(&product.Sizes, in.Sizes)
	patchString(&product.Colors, in.Colors)
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Price != nil {
		product.Price = nonNegativeFloat(in.Price)
	}
	if in.Stock != nil {
		product.Stock = nonNegativeInt(in.Stock)
	}
	if product.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if product.Category == "" {
		return nil, &ValidationError{Field: "category", Reason: "required"}
	}
	if product.SKU == "" {
		return nil, &ValidationError{Field: "sku", Reason: "required"}
	}

	var uploaded []storage.ObjectRef
	var replaced []string
	if in.Images != nil {
		if s.cfg.MultiImage {
			uploaded = s.mergeImages(ctx, product, *in.Images)
		} else {
			uploaded, replaced, err = s.replaceSingleImage(ctx, product, *in.Images)
			if err != nil {
				// nothing was changed yet, no compensation needed
				return nil, err
			}
		}
		if len(product.Images) > 0 {
			product.ImageURL = product.Images[0].URL
		} else {
			product.ImageURL = placeholderImage
		}
	}

	if err := s.products.Update(ctx, product); err != nil {
		comp := s.compensate(ctx, uploaded)
		s.logCompensation("update", comp)
		return nil, &PersistenceError{Op: "update", Err: err}
	}

	// The prior single image is reclaimed only now that the new record
	// is durable; failures here leave an orphaned object, not a broken
	// record.
	for _, storageID := range replaced {
		prometheus.RecordImageDelete()
		if err := s.objects.Delete(ctx, storageID); err != nil {
			s.log.Warn("replaced image delete failed",
				zap.Uint("product_id", product.ID),
				zap.String("storage_id", storageID),
				zap.Error(err))
		}
	}

	s.log.Info("product updated",
		zap.Uint("product_id", product.ID),
		zap.String("sku", product.SKU),
		zap.Int("images", len(product.Images)))
	return product, nil
}

// Delete removes a product and reclaims its stored images. Images are
// deleted before the row: a crash in between leaves a stale row that a
// retried delete removes, since deleting an already-missing object
// succeeds.
func (s *Service) Delete(ctx context.Context, caller Caller, id uint) error {
	if !s.status.Database {
		return fmt.Errorf("record store: %w", ErrUnavailable)
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(caller, product); err != nil {
		return err
	}

	if s.status.ObjectStore {
		for _, img := range product.Images {
			if img.StorageID == "" {
				continue
			}
			prometheus.RecordImageDelete()
			if err := s.objects.Delete(ctx, img.StorageID); err != nil {
				s.log.Warn("image delete failed",
					zap.Uint("product_id", product.ID),
					zap.String("storage_id", img.StorageID),
					zap.Error(err))
			}
		}
	} else if len(product.Images) > 0 {
		s.log.Warn("object storage unavailable, stored images not reclaimed",
			zap.Uint("product_id", product.ID),
			zap.Int("images", len(product.Images)))
	}

	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return &PersistenceError{Op: "delete", Err: err}
	}

	s.log.Info("product deleted", zap.Uint("product_id", id))
	return nil
}

func (s *Service) authorize(caller Caller, p *model.Product) error {
	if !s.cfg.AuthRequired {
		return nil
	}
	if caller.Role == model.RoleAdmin {
		return nil
	}
	if caller.UserID != 0 && caller.UserID == p.OwnerID {
		return nil
	}
	return ErrForbidden
}

// mergeImages rebuilds the product's image set from the incoming list:
// URL entries are kept verbatim (recovering the storage id when the URL
// belongs to the product), payload entries are uploaded and appended
// after the kept ones. Previously stored images missing from the
// incoming list leave the record but their objects are not reclaimed;
// the orphaned storage ids are logged so an operator can clean up.
func (s *Service) mergeImages(ctx context.Context, product *model.Product, entries []ImageInput) []storage.ObjectRef {
	byURL := make(map[string]model.ProductImage, len(product.Images))
	for _, img := range product.Images {
		byURL[img.URL] = img
	}

	var merged []model.ProductImage
	var payloads []string
	kept := make(map[string]bool)
	for _, e := range entries {
		switch {
		case e.URL != "":
			if img, ok := byURL[e.URL]; ok {
				merged = append(merged, model.ProductImage{URL: img.URL, StorageID: img.StorageID})
				kept[e.URL] = true
			} else {
				// external reference, nothing to reclaim later
				merged = append(merged, model.ProductImage{URL: e.URL})
			}
		case e.Data != "":
			payloads = append(payloads, e.Data)
		}
	}

	uploaded := s.uploadPayloads(ctx, payloads)
	for _, ref := range uploaded {
		merged = append(merged, model.ProductImage{URL: ref.URL, StorageID: ref.StorageID})
	}
	for i := range merged {
		merged[i].Position = i
	}

	var orphaned []string
	for _, img := range product.Images {
		if img.StorageID != "" && !kept[img.URL] {
			orphaned = append(orphaned, img.StorageID)
		}
	}
	if len(orphaned) > 0 {
		s.log.Warn("stored images dropped from record without remote delete",
			zap.Uint("product_id", product.ID),
			zap.Strings("storage_ids", orphaned))
	}

	product.Images = merged
	return uploaded
}

// replaceSingleImage handles the single-image scheme: only the first
// entry matters. A new payload is uploaded before anything changes; an
// upload failure aborts the update with the old image and record
// untouched. The returned replaced ids are deleted by the caller after
// a successful persist.
func (s *Service) replaceSingleImage(ctx context.Context, product *model.Product, entries []ImageInput) (uploaded []storage.ObjectRef, replaced []string, err error) {
	prior := product.Images

	// entries carrying neither a URL nor a payload count as absent,
	// like the multi-image merge already treats them
	filtered := entries[:0:0]
	for _, e := range entries {
		if e.URL != "" || e.Data != "" {
			filtered = append(filtered, e)
		}
	}
	entries = filtered

	if len(entries) == 0 {
		product.Images = nil
		s.warnOrphaned(product.ID, prior, "")
		return nil, nil, nil
	}

	entry := entries[0]
	if entry.Data == "" {
		if len(prior) > 0 && prior[0].URL == entry.URL {
			// unchanged
			return nil, nil, nil
		}
		product.Images = []model.ProductImage{{URL: entry.URL}}
		s.warnOrphaned(product.ID, prior, "")
		return nil, nil, nil
	}

	if !s.status.ObjectStore {
		return nil, nil, &StorageError{Op: "upload", Err: ErrUnavailable}
	}
	ref, uploadErr := s.uploadOne(ctx, entry.Data)
	if uploadErr != nil {
		prometheus.RecordImageUpload(false)
		return nil, nil, &StorageError{Op: "upload", Err: uploadErr}
	}
	prometheus.RecordImageUpload(true)

	product.Images = []model.ProductImage{{URL: ref.URL, StorageID: ref.StorageID}}
	for _, img := range prior {
		if img.StorageID != "" {
			replaced = append(replaced, img.StorageID)
		}
	}
	return []storage.ObjectRef{ref}, replaced, nil
}

func (s *Service) warnOrphaned(productID uint, prior []model.ProductImage, keptURL string) {
	var orphaned []string
	for _, img := range prior {
		if img.StorageID != "" && img.URL != keptURL {
			orphaned = append(orphaned, img.StorageID)
		}
	}
	if len(orphaned) > 0 {
		s.log.Warn("stored images dropped from record without remote delete",
			zap.Uint("product_id", productID),
			zap.Strings("storage_ids", orphaned))
	}
}

// uploadPayloads uploads each payload independently. Failures are
// logged and the image skipped; they never abort the operation.
func (s *Service) uploadPayloads(ctx context.Context, payloads []string) []storage.ObjectRef {
	if len(payloads) == 0 {
		return nil
	}
	if !s.status.ObjectStore {
		s.log.Warn("object storage unavailable, skipping image uploads",
			zap.Int("count", len(payloads)))
		return nil
	}

	var refs []storage.ObjectRef
	for i, payload := range payloads {
		ref, err := s.uploadOne(ctx, payload)
		if err != nil {
			prometheus.RecordImageUpload(false)
			s.log.Warn("image upload failed, image skipped",
				zap.Int("index", i),
				zap.Error(err))
			continue
		}
		prometheus.RecordImageUpload(true)
		refs = append(refs, ref)
	}
	if len(refs) == 0 {
		s.log.Warn("all image uploads failed, proceeding without images",
			zap.Int("count", len(payloads)))
	}
	return refs
}

func (s *Service) uploadOne(ctx context.Context, payload string) (storage.ObjectRef, error) {
	data, contentType, err := storage.DecodeDataURI(payload)
	if err != nil {
		return storage.ObjectRef{}, err
	}
	return s.objects.Upload(ctx, s.cfg.UploadFolder, data, contentType)
}

// compensate deletes every uploaded object after a failed persist.
// Best-effort: individual delete failures are recorded, never returned.
func (s *Service) compensate(ctx context.Context, refs []storage.ObjectRef) CompensationResult {
	res := CompensationResult{Attempted: len(refs)}
	for _, ref := range refs {
		if err := s.objects.Delete(ctx, ref.StorageID); err != nil {
			prometheus.RecordCompensation("failed")
			res.Failed = append(res.Failed, ref.StorageID)
			continue
		}
		prometheus.RecordCompensation("deleted")
		res.Deleted++
	}
	return res
}

func (s *Service) logCompensation(op string, res CompensationResult) {
	if res.Attempted == 0 {
		return
	}
	if len(res.Failed) > 0 {
		s.log.Warn("compensation incomplete, orphaned objects remain",
			zap.String("operation", op),
			zap.Int("attempted", res.Attempted),
			zap.Int("deleted", res.Deleted),
			zap.Strings("failed_storage_ids", res.Failed))
		return
	}
	s.log.Info("uploaded images reclaimed after failed persist",
		zap.String("operation", op),
		zap.Int("deleted", res.Deleted))
}

func patchString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func nonNegativeFloat(v any) float64 {
	f := cast.ToFloat64(v)
	if f < 0 {
		return 0
	}
	return f
}

func nonNegativeInt(v any) int {
	n := cast.ToInt(v)
	if n < 0 {
		return 0
	}
	return n
}
