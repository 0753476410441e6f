package suggest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// OutcomeStatus classifies what a generation attempt produced.
type OutcomeStatus string

const (
	// OutcomeCreated means a suggestion row was persisted.
	OutcomeCreated OutcomeStatus = "created"
	// OutcomeDuplicate means a suggestion already existed for the
	// transaction; nothing was written.
	OutcomeDuplicate OutcomeStatus = "duplicate"
	// OutcomeFailed means no suggestion was persisted; Reason says why.
	OutcomeFailed OutcomeStatus = "failed"
)

// Failure reasons carried on a failed outcome.
const (
	ReasonCompletionFailed = "completion_failed"
	ReasonParseFailed      = "parse_failed"
	ReasonCategoryFailed   = "category_resolve_failed"
	ReasonPersistFailed    = "persist_failed"
)

// Outcome is the result of one generation attempt. RawResponse is only
// populated for the synchronous debug mode.
type Outcome struct {
	Status       OutcomeStatus `json:"status"`
	CategoryID   uuid.UUID     `json:"categoryId,omitempty"`
	CategoryName string        `json:"categoryName,omitempty"`
	Confidence   float64       `json:"confidence,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	RawResponse  string        `json:"rawResponse,omitempty"`
}

// TransactionInput carries the transaction fields the prompt needs.
type TransactionInput struct {
	ID               uuid.UUID
	Description      string
	AmountMinorUnits int64
	Kind             string
}

// Generator produces an AI category suggestion for a newly created
// transaction: it prompts the completion service, parses the result,
// resolves or creates the category, and persists a suggestion row.
// Every failure is contained here; the transaction has already been
// created and must stay valid regardless of what happens in this path.
type Generator struct {
	completer  Completer
	store      Store
	log        zerolog.Logger
	timeout    time.Duration
	maxRetries int
}

func NewGenerator(completer Completer, store Store, log zerolog.Logger, timeout time.Duration, maxRetries int) *Generator {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Generator{
		completer:  completer,
		store:      store,
		log:        log,
		timeout:    timeout,
		maxRetries: maxRetries,
	}
}

// Generate runs the full suggestion pipeline for one transaction. It is safe
// to invoke more than once per transaction: the suggestion insert is
// idempotent on transaction id and a duplicate is reported, not created.
func (g *Generator) Generate(ctx context.Context, tx TransactionInput, ownerID uuid.UUID) Outcome {
	log := g.log.With().
		Stringer("transaction_id", tx.ID).
		Stringer("owner_id", ownerID).
		Logger()

	categories, err := g.store.ListCategoryNames(ctx, ownerID)
	if err != nil {
		// Non-fatal: the prompt still works without the reuse bias.
		log.Warn().Err(err).Msg("listing categories for prompt failed")
		categories = nil
	}

	prompt := BuildPrompt(tx.Description, tx.AmountMinorUnits, tx.Kind, categories)

	raw, err := g.complete(ctx, prompt)
	if err != nil {
		log.Error().Err(err).Str("reason", ReasonCompletionFailed).Msg("suggestion generation failed")
		return Outcome{Status: OutcomeFailed, Reason: ReasonCompletionFailed}
	}

	name, confidence, err := ParseCompletion(raw)
	if err != nil {
		log.Error().Err(err).Str("reason", ReasonParseFailed).Msg("suggestion generation failed")
		return Outcome{Status: OutcomeFailed, Reason: ReasonParseFailed, RawResponse: raw}
	}

	categoryID, err := g.store.ResolveCategory(ctx, ownerID, name)
	if err != nil {
		log.Error().Err(err).Str("reason", ReasonCategoryFailed).Str("category", name).Msg("suggestion generation failed")
		return Outcome{Status: OutcomeFailed, Reason: ReasonCategoryFailed, RawResponse: raw}
	}

	inserted, err := g.store.InsertSuggestion(ctx, tx.ID, categoryID, confidence)
	if err != nil {
		log.Error().Err(err).Str("reason", ReasonPersistFailed).Msg("suggestion generation failed")
		return Outcome{Status: OutcomeFailed, Reason: ReasonPersistFailed, RawResponse: raw}
	}
	if !inserted {
		log.Info().Msg("suggestion already exists, skipped")
		return Outcome{
			Status:       OutcomeDuplicate,
			CategoryID:   categoryID,
			CategoryName: name,
			Confidence:   confidence,
			RawResponse:  raw,
		}
	}

	log.Info().Str("category", name).Float64("confidence", confidence).Msg("suggestion created")
	return Outcome{
		Status:       OutcomeCreated,
		CategoryID:   categoryID,
		CategoryName: name,
		Confidence:   confidence,
		RawResponse:  raw,
	}
}

// complete calls the completion service with a hard per-attempt timeout and
// bounded retries. Transient failures back off exponentially; auth and other
// client errors fail immediately.
func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	backoff := 500 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			backoff *= 2
		}

		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		raw, err := g.completer.Complete(attemptCtx, prompt)
		cancel()

		if err == nil {
			return raw, nil
		}
		lastErr = err

		if !isTransient(err) {
			return "", err
		}
		g.log.Warn().Err(err).Int("attempt", attempt+1).Msg("transient completion failure, retrying")
	}

	return "", lastErr
}

// isTransient reports whether a completion error is worth retrying:
// rate limiting, server errors, timeouts, and network failures.
func isTransient(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
