package basic

import (
	"sort"
	"sync"
)

// signal fans a value out to subscribed handlers.
type signal struct {
	mu       sync.Mutex
	next     int
	handlers map[int]func(any)
}

func (s *signal) subscribe(fn func(any)) *subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handlers == nil {
		s.handlers = make(map[int]func(any))
	}
	id := s.next
	s.next++
	s.handlers[id] = fn
	return &subscription{sig: s, id: id}
}

func (s *signal) emit(v any) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.handlers))
	for id := range s.handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(any), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.handlers[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

func (s *signal) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

// subscription implements domain.Connection.
type subscription struct {
	sig  *signal
	id   int
	once sync.Once
}

// Disconnect removes the handler. Extra calls do nothing.
func (c *subscription) Disconnect() {
	c.once.Do(func() {
		c.sig.mu.Lock()
		defer c.sig.mu.Unlock()
		delete(c.sig.handlers, c.id)
	})
}
