package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/tracks/internal/logging"
	"github.com/aretw0/tracks/internal/runtime"
	"github.com/aretw0/tracks/pkg/domain"
	"github.com/aretw0/tracks/pkg/grammar"
	"github.com/aretw0/tracks/pkg/ports"
	"github.com/google/uuid"
)

// ErrSessionExists is returned by Create when the ID is already taken.
var ErrSessionExists = errors.New("session already exists")

// ErrCanvasTooLarge is returned by Create when a dimension exceeds the configured maximum.
var ErrCanvasTooLarge = errors.New("canvas too large")

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SnapshotStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker    ports.DistributedLocker // Optional distributed locker
	lockTTL   time.Duration
	maxCanvas int
	turtleOps []runtime.Option
	logger    *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL bounds how long a distributed lock survives a crashed holder.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMaxCanvas rejects canvases wider or taller than n cells (0 disables the check).
func WithMaxCanvas(n int) Option {
	return func(m *Manager) {
		m.maxCanvas = n
	}
}

// WithTurtleOptions applies opts to every turtle the manager restores (hooks, logger).
func WithTurtleOptions(opts ...runtime.Option) Option {
	return func(m *Manager) {
		m.turtleOps = append(m.turtleOps, opts...)
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Create starts a session with a blank width x height canvas and the turtle at its centre,
// heading north. An empty sessionID gets a generated one.
func (m *Manager) Create(ctx context.Context, sessionID string, width, height int) (*domain.Snapshot, error) {
	if m.maxCanvas > 0 && (width > m.maxCanvas || height > m.maxCanvas) {
		return nil, fmt.Errorf("%w: %dx%d (max %d)", ErrCanvasTooLarge, width, height, m.maxCanvas)
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	turtle, err := runtime.New(width, height,
		runtime.WithPosition(domain.Position{X: width / 2, Y: height / 2}))
	if err != nil {
		return nil, err
	}
	snapshot := turtle.Snapshot()
	snapshot.SessionID = sessionID

	err = m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		_, err := m.store.Load(ctx, sessionID)
		if err == nil {
			return fmt.Errorf("%w: %s", ErrSessionExists, sessionID)
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}
		return m.store.Save(ctx, sessionID, snapshot)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("Session Created", "session_id", sessionID, "width", width, "height", height)
	return snapshot, nil
}

// Execute applies program text to the session's turtle and persists the result.
// When a command fails, the state reached before it is still saved, and both the
// snapshot and the error are returned.
func (m *Manager) Execute(ctx context.Context, sessionID, text string) (*domain.Snapshot, error) {
	commands, err := grammar.ExtractCommands(text)
	if err != nil {
		return nil, err
	}

	var snapshot *domain.Snapshot
	var runErr error
	err = m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		stored, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}

		turtle, err := runtime.Restore(stored, m.turtleOps...)
		if err != nil {
			return fmt.Errorf("failed to restore session: %w", err)
		}

		runErr = turtle.ProcessCommands(ctx, commands)

		snapshot = turtle.Snapshot()
		snapshot.SessionID = sessionID
		if err := m.store.Save(ctx, sessionID, snapshot); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if runErr != nil {
		m.logger.Warn("Session command failed", "session_id", sessionID, "error", runErr)
	}
	return snapshot, runErr
}

// Tracks renders the session's canvas.
func (m *Manager) Tracks(ctx context.Context, sessionID string) (string, error) {
	snapshot, err := m.Load(ctx, sessionID)
	if err != nil {
		return "", err
	}
	turtle, err := runtime.Restore(snapshot)
	if err != nil {
		return "", err
	}
	return turtle.Tracks(), nil
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	var snapshot *domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		snapshot, err = m.store.Load(ctx, sessionID)
		return err
	})
	return snapshot, err
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
