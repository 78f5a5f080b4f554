package internal

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type TaskKind string

const (
	TaskIndex  TaskKind = "index"
	TaskSearch TaskKind = "search"
)

// Event reports the outcome of one background task. Exactly one of Index,
// Search or Err is set.
type Event struct {
	TaskID string
	Kind   TaskKind
	Index  *IndexOutput
	Search *SearchOutput
	Err    error
}

// Session runs at most one index or search worker at a time and keeps the
// most recently built index.
type Session struct {
	uc  *UseCases
	log logrus.FieldLogger

	mu      sync.Mutex
	busy    bool
	current *IndexOutput

	events chan Event
}

type SessionOption func(*Session)

func WithSessionLogger(log logrus.FieldLogger) SessionOption {
	return func(s *Session) {
		s.log = log
	}
}

func NewSession(uc *UseCases, opts ...SessionOption) *Session {
	s := &Session{
		uc:     uc,
		log:    discardLogger(),
		events: make(chan Event, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events delivers one Event per started task.
func (s *Session) Events() <-chan Event {
	return s.events
}

func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Current returns the last successful index, or nil.
func (s *Session) Current() *IndexOutput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// StartIndex indexes folder in the background. On success the result
// replaces the current index; on failure the previous one stays.
func (s *Session) StartIndex(ctx context.Context, folder string) (string, error) {
	if strings.TrimSpace(folder) == "" {
		return "", ErrNoFolder
	}

	if err := s.acquire(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	log := s.log.WithFields(logrus.Fields{"task": id, "folder": folder})
	log.Debug("index started")

	go func() {
		out, err := s.uc.Index.Execute(ctx, IndexInput{Folder: folder})
		if err != nil {
			log.WithError(err).Error("index failed")
		}

		s.mu.Lock()
		if err == nil {
			s.current = out
		}
		s.busy = false
		s.mu.Unlock()

		s.events <- Event{TaskID: id, Kind: TaskIndex, Index: out, Err: err}
	}()

	return id, nil
}

// StartSearch ranks the current index against query in the background.
func (s *Session) StartSearch(ctx context.Context, query string, topK int) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrEmptyQuery
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return "", ErrBusy
	}
	if s.current == nil {
		s.mu.Unlock()
		return "", ErrNoIndex
	}
	s.busy = true
	vindex := s.current.Vector
	s.mu.Unlock()

	id := uuid.NewString()
	log := s.log.WithFields(logrus.Fields{"task": id, "query": query})
	log.Debug("search started")

	go func() {
		out, err := s.uc.Search.Execute(ctx, SearchInput{Query: query, TopK: topK, Index: vindex})
		if err != nil {
			log.WithError(err).Error("search failed")
		}

		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()

		s.events <- Event{TaskID: id, Kind: TaskSearch, Search: out, Err: err}
	}()

	return id, nil
}

func (s *Session) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrBusy
	}
	s.busy = true
	return nil
}
