package conversation

import (
	"context"
	"strings"
	"sync"
)

// DefaultHistoryLimit is how many turns are remembered per user.
const DefaultHistoryLimit = 10

// Turn is one exchange. Image analyses are stored with an "[Image Analysis]" input.
type Turn struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// HistoryStore keeps the most recent turns per user key, oldest first.
type HistoryStore interface {
	Append(ctx context.Context, userKey string, turn Turn) error
	Turns(ctx context.Context, userKey string) ([]Turn, error)
}

// MemoryHistoryStore is the default process-local store. History is lost on restart.
type MemoryHistoryStore struct {
	limit int

	mu    sync.Mutex
	users map[string]*userHistory
}

type userHistory struct {
	mu    sync.Mutex
	turns []Turn
}

func NewMemoryHistoryStore(limit int) *MemoryHistoryStore {
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}
	return &MemoryHistoryStore{
		limit: limit,
		users: make(map[string]*userHistory),
	}
}

func (s *MemoryHistoryStore) entry(userKey string) *userHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.users[userKey]
	if !ok {
		h = &userHistory{}
		s.users[userKey] = h
	}
	return h
}

func (s *MemoryHistoryStore) Append(_ context.Context, userKey string, turn Turn) error {
	h := s.entry(userKey)
	h.mu.Lock()
	defer h.mu.Unlock()

	h.turns = append(h.turns, turn)
	if over := len(h.turns) - s.limit; over > 0 {
		// Copy so the evicted turns are not pinned by the backing array.
		h.turns = append([]Turn(nil), h.turns[over:]...)
	}
	return nil
}

func (s *MemoryHistoryStore) Turns(_ context.Context, userKey string) ([]Turn, error) {
	s.mu.Lock()
	h, ok := s.users[userKey]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out, nil
}

// FormatContext renders turns as a plain transcript for the model prompt.
func FormatContext(turns []Turn) string {
	if len(turns) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, t := range turns {
		sb.WriteString("User: ")
		sb.WriteString(t.Input)
		sb.WriteString("\nBot: ")
		sb.WriteString(t.Output)
		sb.WriteString("\n")
	}
	return sb.String()
}
