// Package objectstore publishes finished episodes to a NATS JetStream object
// store bucket.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// DefaultBucket is used when no bucket name is configured.
const DefaultBucket = "PODCAST_EPISODES"

// Store uploads and downloads episode objects.
type Store struct {
	bucket string
	obs    jetstream.ObjectStore
}

// New creates the bucket or binds to it when it already exists.
func New(ctx context.Context, js jetstream.JetStream, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	obs, err := js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:      bucket,
		Description: fmt.Sprintf("Podcast episodes in the %s bucket.", bucket),
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) {
			return nil, fmt.Errorf("create object store bucket %q: %w", bucket, err)
		}
		obs, err = js.ObjectStore(ctx, bucket)
		if err != nil {
			return nil, fmt.Errorf("bind object store bucket %q: %w", bucket, err)
		}
	}
	return &Store{bucket: bucket, obs: obs}, nil
}

// Connect dials url and opens the bucket. The returned close func drains the
// connection.
func Connect(ctx context.Context, url, bucket string) (*Store, func(), error) {
	nc, err := nats.Connect(url, nats.Name("podcaster"), nats.Timeout(10*time.Second))
	if err != nil {
		return nil, nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}
	s, err := New(ctx, js, bucket)
	if err != nil {
		nc.Close()
		return nil, nil, err
	}
	return s, func() { _ = nc.Drain() }, nil
}

// Bucket returns the bucket name.
func (s *Store) Bucket() string { return s.bucket }

// Upload stores data under key, replacing any existing object.
func (s *Store) Upload(ctx context.Context, key string, data []byte) error {
	if _, err := s.obs.PutBytes(ctx, key, data); err != nil {
		return fmt.Errorf("put object %q to bucket %q: %w", key, s.bucket, err)
	}
	return nil
}

// Download returns the object stored under key.
func (s *Store) Download(ctx context.Context, key string) ([]byte, error) {
	data, err := s.obs.GetBytes(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get object %q from bucket %q: %w", key, s.bucket, err)
	}
	return data, nil
}

// Keys lists object names in the bucket. An empty bucket yields no keys.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	infos, err := s.obs.List(ctx)
	if errors.Is(err, jetstream.ErrNoObjectsFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list bucket %q: %w", s.bucket, err)
	}
	keys := make([]string, 0, len(infos))
	for _, info := range infos {
		keys = append(keys, info.Name)
	}
	return keys, nil
}

// EpisodeKey returns a fresh object key "{runID}/{uuid}{ext}".
func EpisodeKey(runID, ext string) string {
	return path.Join(runID, uuid.NewString()+ext)
}

// Publish uploads an episode under a fresh EpisodeKey and returns the key.
func (s *Store) Publish(ctx context.Context, runID string, data []byte) (string, error) {
	key := EpisodeKey(runID, ".wav")
	if err := s.Upload(ctx, key, data); err != nil {
		return "", err
	}
	return key, nil
}
