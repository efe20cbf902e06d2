package core

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jaevor/go-nanoid"

	"cloudbox/internal/auth"
	"cloudbox/internal/models"
)

// BlobStore is the physical byte-storage collaborator. Paths are relative,
// slash-separated and rooted at the storage base; the first segment is the
// owning user. I/O errors are surfaced by the core as ErrStorage, never
// retried here.
type BlobStore interface {
	Read(path string) ([]byte, error)
	Write(path string, data []byte) error
	Delete(path string) error
	Exists(path string) (bool, error)
	Copy(src, dst string) error
	Rename(src, dst string) error
	EnsureDir(path string) error
	RemoveAll(path string) error
}

// Notifier delivers the activation code to a registering user.
type Notifier interface {
	Notify(recipient, subject, body string) error
}

// EventPublisher receives best-effort per-user change notifications. It
// must not block.
type EventPublisher interface {
	Publish(username string, event []byte)
}

// Service owns all mutable state: the per-user path registries, the global
// share index and the pending-user table. A single RWMutex keeps every
// cross-user effect (share propagation, timestamp bumps) atomic with
// respect to concurrent snapshots.
type Service struct {
	mu      sync.RWMutex
	users   map[string]*models.User
	shares  map[string]*models.ShareRecord // key: owner + "/" + shared path
	pending map[string]*models.PendingUser

	blobs    BlobStore
	notifier Notifier
	events   EventPublisher

	pendingTTL time.Duration
	newCode    func() string
	now        func() time.Time
	lastStamp  int64
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, []byte) {}

func New(blobs BlobStore, notifier Notifier, events EventPublisher, pendingTTL time.Duration) (*Service, error) {
	codeGen, err := nanoid.CustomASCII("0123456789abcdef", models.ActivationCodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize activation code generator: %w", err)
	}
	if events == nil {
		events = noopPublisher{}
	}
	return &Service{
		users:      make(map[string]*models.User),
		shares:     make(map[string]*models.ShareRecord),
		pending:    make(map[string]*models.PendingUser),
		blobs:      blobs,
		notifier:   notifier,
		events:     events,
		pendingTTL: pendingTTL,
		newCode:    codeGen,
		now:        time.Now,
	}, nil
}

// Authenticate resolves Basic credentials to an acting user.
func (s *Service) Authenticate(username, password string) error {
	s.mu.RLock()
	user, ok := s.users[username]
	s.mu.RUnlock()
	if !ok || !auth.CheckPasswordHash(password, user.PasswordHash) {
		return ErrUnauthorized
	}
	return nil
}

// UserExists reports whether an active account exists. Used by the bearer
// auth path, which carries an already-verified identity.
func (s *Service) UserExists(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[username]
	return ok
}

// stamp returns the completion time for a mutation in unix milliseconds.
// It is strictly increasing across all mutations so clients can correlate
// operation responses with snapshot timestamps. Callers hold the write
// lock.
func (s *Service) stamp() int64 {
	ts := s.now().UnixMilli()
	if ts <= s.lastStamp {
		ts = s.lastStamp + 1
	}
	s.lastStamp = ts
	return ts
}

type syncEvent struct {
	EventType string `json:"event_type"`
	Timestamp int64  `json:"timestamp"`
}

// publishSync tells each user that their visible tree changed. The hub is
// non-blocking, so this is safe to call with the lock held.
func (s *Service) publishSync(usernames map[string]bool, ts int64) {
	event, err := json.Marshal(syncEvent{EventType: "sync", Timestamp: ts})
	if err != nil {
		return
	}
	for name := range usernames {
		s.events.Publish(name, event)
	}
}
