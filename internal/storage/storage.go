// Package storage wraps the external object store that holds product
// images. The concrete client works with any S3-compatible provider.
package storage

import (
	"context"
)

// ObjectRef identifies a stored object: the public URL served to
// clients and the storage id needed to delete the object later.
type ObjectRef struct {
	URL       string `json:"url"`
	StorageID string `json:"storage_id"`
}

// ObjectStore is the interface for uploading and deleting image objects.
type ObjectStore interface {
	// Upload stores the payload under a generated key inside folder and
	// returns the public URL together with the storage id.
	Upload(ctx context.Context, folder string, data []byte, contentType string) (ObjectRef, error)
	// Delete removes an object by its storage id. Deleting an id that
	// no longer exists is not an error.
	Delete(ctx context.Context, storageID string) error
}
