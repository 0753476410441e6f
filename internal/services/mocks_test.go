package services

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ledgerly/backend/internal/middleware"
	"github.com/ledgerly/backend/internal/suggest"
)

// fakeGenerator records Generate calls and replays a scripted outcome.
type fakeGenerator struct {
	mu      sync.Mutex
	inputs  []suggest.TransactionInput
	owners  []uuid.UUID
	outcome suggest.Outcome
}

func (f *fakeGenerator) Generate(ctx context.Context, tx suggest.TransactionInput, ownerID uuid.UUID) suggest.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, tx)
	f.owners = append(f.owners, ownerID)
	return f.outcome
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

// inlineScheduler runs scheduled jobs immediately on the caller's goroutine
// so tests can assert on their effects without synchronization.
type inlineScheduler struct {
	mu    sync.Mutex
	names []string
}

func (s *inlineScheduler) Schedule(name string, fn func(ctx context.Context)) bool {
	s.mu.Lock()
	s.names = append(s.names, name)
	s.mu.Unlock()
	fn(context.Background())
	return true
}

func (s *inlineScheduler) scheduled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names...)
}

// newAuthedRouter returns a chi router whose requests carry userID, the way
// the auth middleware would have set it.
func newAuthedRouter(userID uuid.UUID) *chi.Mux {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUserID(req.Context(), userID)))
		})
	})
	return r
}
