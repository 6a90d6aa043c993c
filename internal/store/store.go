// Package store provides the content store interface and its SQL implementation.
package store

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"time"

	"github.com/rcliao/podcaster/internal/model"
)

var (
	// ErrStorage wraps every failure of the underlying database.
	ErrStorage = errors.New("storage failure")
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
)

// PutParams holds the fields of an item to ingest.
type PutParams struct {
	Date    string
	Title   string
	Author  string
	URL     string
	Content string
}

// Hash returns the content hash identifying the item.
func (p PutParams) Hash() string {
	return Hash(p.Date, p.Title, p.URL)
}

// Hash computes the deduplication key of an item: the hex MD5 of its date,
// title and URL concatenated.
func Hash(date, title, url string) string {
	sum := md5.Sum([]byte(date + title + url))
	return hex.EncodeToString(sum[:])
}

// PutResult reports the outcome of Put.
type PutResult struct {
	Item     model.Item `json:"item"`
	Inserted bool       `json:"inserted"`
}

// ListParams holds parameters for listing items.
type ListParams struct {
	Since time.Time // zero means no lower bound
	Limit int
}

// DigestParams holds parameters for storing a digest.
type DigestParams struct {
	RunID   string
	Content string
	Sources []string // item hashes
}

// Store defines the content storage interface.
type Store interface {
	// Has reports whether an item with the same hash is already stored.
	Has(ctx context.Context, p PutParams) (bool, error)

	// Put inserts the item unless its hash is already present.
	Put(ctx context.Context, p PutParams) (*PutResult, error)

	// Get retrieves an item by hash.
	Get(ctx context.Context, hash string) (*model.Item, error)

	// List lists items newest first.
	List(ctx context.Context, p ListParams) ([]model.Item, error)

	// Context packs the newest items into a character budget for digesting.
	Context(ctx context.Context, p ContextParams) (*ContextResult, error)

	PutDigest(ctx context.Context, p DigestParams) (*model.Digest, error)
	LatestDigest(ctx context.Context) (*model.Digest, error)

	StartRun(ctx context.Context, runID, stage string) (*model.Run, error)
	AdvanceRun(ctx context.Context, runID, stage string) error
	FailRun(ctx context.Context, runID, stage string, cause error) error
	CompleteRun(ctx context.Context, runID, episodePath string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)

	// Close closes the store.
	Close() error
}
