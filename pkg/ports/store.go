package ports

import (
	"context"

	"github.com/aretw0/dataflow/pkg/domain"
)

// GraphStore defines the interface for persisting graph documents.
type GraphStore interface {
	// Save persists the document under a name, replacing any previous one.
	Save(ctx context.Context, name string, doc *domain.Document) error

	// Load retrieves a document by name.
	// Returns domain.ErrGraphNotFound if the name does not exist.
	Load(ctx context.Context, name string) (*domain.Document, error)

	// Delete removes a document. Deleting a missing name is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of the stored documents.
	List(ctx context.Context) ([]string, error)
}
