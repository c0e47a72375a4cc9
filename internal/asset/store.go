package asset

import (
	"image"
	"sync"
)

// DefaultCapacity bounds how many background images are kept in memory.
const DefaultCapacity = 64

// Background is a decoded raster a session can trace over.
type Background struct {
	ID     string
	Name   string
	Image  image.Image
	Width  int
	Height int
}

// Store keeps uploaded backgrounds in memory. When full, the oldest upload
// is evicted.
type Store struct {
	mu       sync.RWMutex
	items    map[string]*Background
	order    []string // upload order, oldest first
	capacity int
}

func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		items:    make(map[string]*Background),
		capacity: capacity,
	}
}

// Put stores bg and returns the id of an evicted background, if any.
func (s *Store) Put(bg *Background) (evicted string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[bg.ID]; !ok {
		s.order = append(s.order, bg.ID)
	}
	s.items[bg.ID] = bg

	if len(s.order) > s.capacity {
		evicted = s.order[0]
		s.order = s.order[1:]
		delete(s.items, evicted)
	}
	return evicted
}

func (s *Store) Get(id string) (*Background, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bg, ok := s.items[id]
	return bg, ok
}

// Image returns the raster for id. It satisfies the render handler's image
// lookup.
func (s *Store) Image(id string) (image.Image, bool) {
	bg, ok := s.Get(id)
	if !ok {
		return nil, false
	}
	return bg.Image, true
}

func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
