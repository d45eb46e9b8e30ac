package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/couchbase/gocb/v2"
)

// ConnectionManager handles Couchbase cluster and bucket connections
type ConnectionManager struct {
	cluster *gocb.Cluster
	bucket  *gocb.Bucket
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager(url, username, password, bucketName string) (*ConnectionManager, error) {
	// Ensure proper connection string format
	connectionString := url
	if len(url) > 7 && url[:7] == "http://" {
		connectionString = "couchbase://" + url[7:]
	}

	// Connect to cluster
	cluster, err := gocb.Connect(connectionString, gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{
			Username: username,
			Password: password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cluster: %w", err)
	}

	// Wait for cluster to be ready
	err = cluster.WaitUntilReady(30*time.Second, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for cluster: %w", err)
	}

	// Open bucket (assume it exists - don't try to create it)
	bucket := cluster.Bucket(bucketName)

	// Wait for bucket to be ready
	err = bucket.WaitUntilReady(10*time.Second, nil)
	if err != nil {
		return nil, fmt.Errorf("bucket %q is not accessible: %w", bucketName, err)
	}

	return &ConnectionManager{
		cluster: cluster,
		bucket:  bucket,
	}, nil
}

// Close closes the Couchbase connection
func (cm *ConnectionManager) Close() error {
	return cm.cluster.Close(nil)
}

// GetBucket returns the bucket instance
func (cm *ConnectionManager) GetBucket() *gocb.Bucket {
	return cm.bucket
}

// couchbaseValue is the envelope stored per key. The blob is kept as a
// plain string so the stored value stays the store's native string type.
type couchbaseValue struct {
	Value string `json:"value"`
}

// CouchbaseStore is the durable Store backed by a Couchbase bucket.
type CouchbaseStore struct {
	connManager *ConnectionManager
	locker      *Locker
}

// NewCouchbaseStore connects to Couchbase and returns the durable store.
func NewCouchbaseStore(url, username, password, bucketName string) (*CouchbaseStore, error) {
	connManager, err := NewConnectionManager(url, username, password, bucketName)
	if err != nil {
		return nil, err
	}

	return &CouchbaseStore{
		connManager: connManager,
		locker:      NewLocker(connManager.GetBucket()),
	}, nil
}

// Close closes the Couchbase connection
func (s *CouchbaseStore) Close() error {
	return s.connManager.Close()
}

// GetLocker returns the maintenance locker for this store
func (s *CouchbaseStore) GetLocker() *Locker {
	return s.locker
}

// Get retrieves the blob stored under key
func (s *CouchbaseStore) Get(ctx context.Context, key string) (string, error) {
	col := s.connManager.GetBucket().DefaultCollection()

	res, err := col.Get(key, &gocb.GetOptions{})
	if err != nil {
		if errors.Is(err, gocb.ErrDocumentNotFound) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}

	var doc couchbaseValue
	if err := res.Content(&doc); err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", key, err)
	}

	return doc.Value, nil
}

// Put stores the blob under key. Writes are refused while another
// process holds the maintenance lock; the holder itself writes freely.
func (s *CouchbaseStore) Put(ctx context.Context, key string, value string) error {
	if !s.locker.Holds() {
		locked, err := s.locker.CheckLock(ctx)
		if err != nil {
			return err
		}
		if locked {
			return fmt.Errorf("store is locked for maintenance, cannot write %s", key)
		}
	}

	col := s.connManager.GetBucket().DefaultCollection()

	_, err := col.Upsert(key, couchbaseValue{Value: value}, &gocb.UpsertOptions{})
	if err != nil {
		return fmt.Errorf("failed to upsert %s: %w", key, err)
	}

	return nil
}

// Delete removes the key
func (s *CouchbaseStore) Delete(ctx context.Context, key string) error {
	col := s.connManager.GetBucket().DefaultCollection()

	_, err := col.Remove(key, &gocb.RemoveOptions{})
	if err != nil {
		if errors.Is(err, gocb.ErrDocumentNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}

	return nil
}
