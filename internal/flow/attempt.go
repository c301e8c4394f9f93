package flow

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/storage"
)

// attemptKeyPrefix namespaces attempt records inside a storage backend that
// may be shared with the session store.
const attemptKeyPrefix = "attempt:"

// Attempt is the transient state of one authorization-code round trip. It is
// created at login initiation and destroyed when the callback consumes it or
// the TTL runs out.
type Attempt struct {
	// ID is the random key the browser carries across the round trip.
	ID string `json:"id"`
	// ProviderName binds the attempt to one provider.
	ProviderName string `json:"provider_name"`
	// State is the anti-forgery token sent to and echoed by the provider.
	State string `json:"state"`
	// Nonce is bound into the ID token and checked after validation.
	Nonce string `json:"nonce"`
	// RequestedRedirect is the post-login target, already validated at
	// initiation. Empty means the default landing location.
	RequestedRedirect string `json:"requested_redirect"`
	// CreatedAt is when the attempt was initiated.
	CreatedAt time.Time `json:"created_at"`
}

// AttemptStore keeps login attempts in a TTL-bounded storage backend.
type AttemptStore struct {
	storage storage.Storage
	ttl     time.Duration

	// mu serializes Take. The storage backends have no atomic
	// get-and-delete, so without it two concurrent callbacks carrying the
	// same attempt ID could both consume the attempt. Serializing in the
	// process is sufficient for a single-instance deployment.
	mu sync.Mutex
}

// NewAttemptStore creates an attempt store writing records with the given TTL.
func NewAttemptStore(s storage.Storage, ttl time.Duration) *AttemptStore {
	return &AttemptStore{storage: s, ttl: ttl}
}

// Put stores the attempt under its ID.
func (s *AttemptStore) Put(a *Attempt) error {
	out, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode login attempt: %w", err)
	}

	if err := s.storage.Set(attemptKeyPrefix+a.ID, out, s.ttl); err != nil {
		return fmt.Errorf("failed to store login attempt: %w", err)
	}

	return nil
}

// Take consumes the attempt with the given ID: the record is deleted before
// it is returned, so a second Take with the same ID finds nothing. A nil
// attempt with a nil error means the attempt expired or never existed.
func (s *AttemptStore) Take(id string) (*Attempt, error) {
	if id == "" {
		return nil, nil
	}

	key := attemptKeyPrefix + id

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.storage.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to load login attempt: %w", err)
	}

	if len(raw) == 0 {
		return nil, nil
	}

	if err := s.storage.Delete(key); err != nil {
		return nil, fmt.Errorf("failed to consume login attempt: %w", err)
	}

	var a Attempt
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("failed to decode login attempt: %w", err)
	}

	return &a, nil
}

// Discard removes the attempt with the given ID, if any.
func (s *AttemptStore) Discard(id string) error {
	if id == "" {
		return nil
	}

	return s.storage.Delete(attemptKeyPrefix + id)
}
