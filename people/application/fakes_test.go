package application

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/dfryer1193/namestofaces/people/domain"
)

var errStoreDown = errors.New("store down")

type memPreferences struct {
	mu      sync.Mutex
	values  map[string][]byte
	failSet bool
	failGet bool
}

func newMemPreferences() *memPreferences {
	return &memPreferences{values: make(map[string][]byte)}
}

func (m *memPreferences) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, errStoreDown
	}
	v, ok := m.values[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memPreferences) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errStoreDown
	}
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *memPreferences) setFailing(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSet = fail
}

func (m *memPreferences) raw(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

// persistedPeople decodes the people blob, failing the test if it is missing
func (m *memPreferences) persistedPeople(t *testing.T) []domain.Person {
	t.Helper()
	data := m.raw(peopleKey)
	if data == nil {
		t.Fatal("people blob was never saved")
	}
	people, err := domain.DecodePeople(data)
	if err != nil {
		t.Fatalf("persisted blob does not decode: %v", err)
	}
	return people
}

type memImages struct {
	mu     sync.Mutex
	images map[string][]byte
}

func newMemImages() *memImages {
	return &memImages{images: make(map[string][]byte)}
}

func (m *memImages) SaveImage(ctx context.Context, img *domain.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[img.Name] = img.Content
	return nil
}

func (m *memImages) GetImage(ctx context.Context, name string) (*domain.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.images[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.Image{Name: name, Content: content}, nil
}

func (m *memImages) DeleteImage(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.images, name)
	return nil
}

func (m *memImages) has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.images[name]
	return ok
}

type recordedEvent struct {
	event   string
	visible int
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) Notify(event string, visibleCount int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{event: event, visible: visibleCount})
}

func (n *recordingNotifier) all() []recordedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]recordedEvent(nil), n.events...)
}

// staticAuthenticator delivers a fixed result
type staticAuthenticator struct {
	result domain.AuthResult
}

func (a staticAuthenticator) Verify(ctx context.Context) <-chan domain.AuthResult {
	results := make(chan domain.AuthResult, 1)
	results <- a.result
	close(results)
	return results
}

// silentAuthenticator never answers
type silentAuthenticator struct{}

func (silentAuthenticator) Verify(ctx context.Context) <-chan domain.AuthResult {
	return make(chan domain.AuthResult)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2020, 4, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test png: %v", err)
	}
	return buf.Bytes()
}
