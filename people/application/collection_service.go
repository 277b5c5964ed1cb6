package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dfryer1193/namestofaces/people/domain"
	"github.com/dfryer1193/namestofaces/shared/metrics"
	"github.com/rs/zerolog/log"
)

const (
	peopleKey = "people"
)

// Event types published to the Notifier
const (
	EventLoaded   = "people.loaded"
	EventAdded    = "person.added"
	EventRenamed  = "person.renamed"
	EventDeleted  = "person.deleted"
	EventLocked   = "collection.locked"
	EventUnlocked = "collection.unlocked"
)

// Notifier receives state changes. Only the visible count is passed so that
// nothing about the people leaks while the collection is locked.
// Notify must not block.
type Notifier interface {
	Notify(event string, visibleCount int)
}

type noopNotifier struct{}

func (noopNotifier) Notify(string, int) {}

// CollectionService owns the ordered list of people and the lock flag.
// Every mutation rewrites the persisted blob. All access is serialized by mu.
type CollectionService struct {
	prefs    domain.PreferenceStore
	images   domain.ImageRepository
	imaging  *ImageProcessor
	notifier Notifier
	now      func() time.Time

	mu           sync.Mutex
	people       []domain.Person
	locked       bool
	lastActivity time.Time

	// Service lifecycle context - cancelled when Close() is called
	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

type Option func(*CollectionService)

func WithNotifier(n Notifier) Option {
	return func(s *CollectionService) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithImageProcessor(p *ImageProcessor) Option {
	return func(s *CollectionService) {
		if p != nil {
			s.imaging = p
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *CollectionService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewCollectionService returns an empty, locked collection. Call Load to
// read the persisted people.
func NewCollectionService(prefs domain.PreferenceStore, images domain.ImageRepository, opts ...Option) *CollectionService {
	ctx, cancel := context.WithCancel(context.Background())
	s := &CollectionService{
		prefs:    prefs,
		images:   images,
		imaging:  NewImageProcessor(DefaultJPEGQuality),
		notifier: noopNotifier{},
		now:      time.Now,
		people:   []domain.Person{},
		locked:   true,
		ctx:      ctx,
		cancel:   cancel,
		wg:       &sync.WaitGroup{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastActivity = s.now()
	return s
}

// Close stops background workers
func (s *CollectionService) Close() error {
	s.cancel()
	s.wg.Wait()
	return nil
}

// Load replaces the in-memory collection with the persisted one. A missing
// blob means an empty collection; an unreadable one is logged and also
// leaves the collection empty.
func (s *CollectionService) Load(ctx context.Context) {
	s.mu.Lock()
	s.people = []domain.Person{}

	data, err := s.prefs.Get(ctx, peopleKey)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		log.Debug().Msg("No saved people found")
	case err != nil:
		log.Error().Err(err).Msg("Failed to read saved people")
	default:
		people, err := domain.DecodePeople(data)
		if err != nil {
			log.Error().Err(err).Msg("Failed to load people")
		} else {
			s.people = people
		}
	}

	total := len(s.people)
	visible := s.visibleCountLocked()
	s.mu.Unlock()

	metrics.PeopleStored.Set(float64(total))
	log.Info().Int("count", total).Msg("Loaded people")
	s.notifier.Notify(EventLoaded, visible)
}

// Save encodes the whole collection and overwrites the persisted blob.
// On failure the previously persisted blob is left as it was.
func (s *CollectionService) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *CollectionService) saveLocked(ctx context.Context) error {
	data, err := domain.EncodePeople(s.people)
	if err != nil {
		metrics.SaveFailures.Inc()
		log.Error().Err(err).Msg("Failed to save people")
		return err
	}

	if err := s.prefs.Set(ctx, peopleKey, data); err != nil {
		metrics.SaveFailures.Inc()
		log.Error().Err(err).Msg("Failed to save people")
		return fmt.Errorf("failed to save people: %w", err)
	}

	metrics.PeopleStored.Set(float64(len(s.people)))
	return nil
}

// Add appends p to the end of the collection and saves
func (s *CollectionService) Add(ctx context.Context, p domain.Person) {
	s.add(ctx, p)
}

// add returns the index p was appended at
func (s *CollectionService) add(ctx context.Context, p domain.Person) int {
	s.mu.Lock()
	s.people = append(s.people, p)
	index := len(s.people) - 1
	s.touchLocked()
	_ = s.saveLocked(ctx)
	visible := s.visibleCountLocked()
	s.mu.Unlock()

	s.notifier.Notify(EventAdded, visible)
	return index
}

// Rename changes the name of the person at index. It returns false and
// changes nothing when index is out of range.
func (s *CollectionService) Rename(ctx context.Context, index int, name string) bool {
	_, ok := s.RenamePerson(ctx, index, name)
	return ok
}

// RenamePerson is Rename, also returning the person as renamed
func (s *CollectionService) RenamePerson(ctx context.Context, index int, name string) (domain.Person, bool) {
	s.mu.Lock()
	if index < 0 || index >= len(s.people) {
		s.mu.Unlock()
		return domain.Person{}, false
	}

	s.people[index].Name = name
	renamed := s.people[index]
	s.touchLocked()
	_ = s.saveLocked(ctx)
	visible := s.visibleCountLocked()
	s.mu.Unlock()

	s.notifier.Notify(EventRenamed, visible)
	return renamed, true
}

// Delete removes the person at index; later people move down by one.
// It returns false and changes nothing when index is out of range.
// The person's image file is removed only after a successful save.
func (s *CollectionService) Delete(ctx context.Context, index int) bool {
	s.mu.Lock()
	if index < 0 || index >= len(s.people) {
		s.mu.Unlock()
		return false
	}

	removed := s.people[index]
	s.people = append(s.people[:index:index], s.people[index+1:]...)
	s.touchLocked()
	saveErr := s.saveLocked(ctx)
	visible := s.visibleCountLocked()
	s.mu.Unlock()

	switch {
	case removed.Image == "":
	case saveErr != nil:
		log.Warn().Str("image", removed.Image).Msg("Keeping image file of deleted person until the collection is saved")
	default:
		if err := s.images.DeleteImage(ctx, removed.Image); err != nil {
			log.Warn().Err(err).Str("image", removed.Image).Msg("Failed to remove image file")
		}
	}

	s.notifier.Notify(EventDeleted, visible)
	return true
}

// SetLocked changes the lock flag. Going from unlocked to locked saves the
// collection first.
func (s *CollectionService) SetLocked(ctx context.Context, locked bool) {
	s.mu.Lock()
	changed, visible := s.setLockedLocked(ctx, locked)
	s.mu.Unlock()

	if changed {
		s.notifyLock(locked, visible)
	}
}

func (s *CollectionService) setLockedLocked(ctx context.Context, locked bool) (bool, int) {
	if s.locked == locked {
		return false, s.visibleCountLocked()
	}

	if locked {
		_ = s.saveLocked(ctx)
	}
	s.locked = locked
	s.touchLocked()
	return true, s.visibleCountLocked()
}

func (s *CollectionService) notifyLock(locked bool, visible int) {
	event := EventUnlocked
	if locked {
		event = EventLocked
	}
	log.Info().Bool("locked", locked).Msg("Collection lock changed")
	s.notifier.Notify(event, visible)
}

// Unlock waits for the authenticator's single result and unlocks only on success
func (s *CollectionService) Unlock(ctx context.Context, auth domain.Authenticator) domain.AuthResult {
	var result domain.AuthResult
	select {
	case r, ok := <-auth.Verify(ctx):
		if ok {
			result = r
		} else {
			result = domain.AuthResult{Err: domain.ErrAuthenticationFailed}
		}
	case <-ctx.Done():
		result = domain.AuthResult{Err: ctx.Err()}
	}

	if !result.Success {
		if result.Err == nil {
			result.Err = domain.ErrAuthenticationFailed
		}
		metrics.UnlockAttempts.WithLabelValues("failure").Inc()
		log.Warn().Err(result.Err).Msg("Unlock rejected")
		return result
	}

	metrics.UnlockAttempts.WithLabelValues("success").Inc()
	s.SetLocked(ctx, false)
	return result
}

func (s *CollectionService) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// Count is the number of people a viewer may see: zero while locked
func (s *CollectionService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleCountLocked()
}

// People returns a copy of the collection, or nil while locked
func (s *CollectionService) People() []domain.Person {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return nil
	}
	s.touchLocked()

	out := make([]domain.Person, len(s.people))
	copy(out, s.people)
	return out
}

// Person returns the person at index if it is visible
func (s *CollectionService) Person(index int) (domain.Person, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked || index < 0 || index >= len(s.people) {
		return domain.Person{}, false
	}
	s.touchLocked()
	return s.people[index], true
}

func (s *CollectionService) visibleCountLocked() int {
	if s.locked {
		return 0
	}
	return len(s.people)
}

func (s *CollectionService) touchLocked() {
	s.lastActivity = s.now()
}

// StartAutoLock locks the collection once it has been idle for the given
// duration. A non-positive duration disables it.
func (s *CollectionService) StartAutoLock(idle time.Duration) {
	if idle <= 0 {
		return
	}

	interval := idle / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}

	s.wg.Go(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.lockIfIdle(s.ctx, idle)
			}
		}
	})
}

func (s *CollectionService) lockIfIdle(ctx context.Context, idle time.Duration) bool {
	s.mu.Lock()
	if s.locked || s.now().Sub(s.lastActivity) < idle {
		s.mu.Unlock()
		return false
	}
	_, visible := s.setLockedLocked(ctx, true)
	s.mu.Unlock()

	log.Info().Dur("idle", idle).Msg("Locked idle collection")
	s.notifyLock(true, visible)
	return true
}
