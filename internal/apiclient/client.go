// Package apiclient is a small HTTP client for the Ledgerly API, used by the
// CLI. It also adapts the single-transaction endpoint to the poll.Fetcher
// interface so callers can wait for an AI suggestion to arrive.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerly/backend/internal/models"
	"github.com/ledgerly/backend/internal/poll"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken sets the bearer token used on authenticated calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login authenticates and stores the returned token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp.User, nil
}

// TransactionRequest mirrors the create-transaction payload.
type TransactionRequest struct {
	Amount      int64      `json:"amount"`
	Kind        string     `json:"kind"`
	Description string     `json:"description"`
	Date        time.Time  `json:"date"`
	AccountID   uuid.UUID  `json:"accountId"`
	CategoryID  *uuid.UUID `json:"categoryId,omitempty"`
}

// CreateTransaction creates a transaction; the server schedules suggestion
// generation in the background.
func (c *Client) CreateTransaction(ctx context.Context, req TransactionRequest) (*models.Transaction, error) {
	var tx models.Transaction
	if err := c.do(ctx, http.MethodPost, "/api/v1/transactions", req, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetTransaction fetches a transaction's current state, including any
// suggestion.
func (c *Client) GetTransaction(ctx context.Context, id uuid.UUID) (*models.TransactionView, error) {
	var view models.TransactionView
	if err := c.do(ctx, http.MethodGet, "/api/v1/transactions/"+id.String(), nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// ListAccounts returns the user's active accounts.
func (c *Client) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var resp struct {
		Accounts []models.Account `json:"accounts"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/accounts", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

// FetchSuggestion implements poll.Fetcher over the single-transaction
// endpoint: it reports the suggested category once one is embedded.
func (c *Client) FetchSuggestion(ctx context.Context, transactionID uuid.UUID) (*poll.Suggestion, error) {
	view, err := c.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if view.SuggestedCategoryName == nil {
		return nil, nil
	}
	s := &poll.Suggestion{CategoryName: *view.SuggestedCategoryName}
	if view.SuggestionConfidence != nil {
		s.Confidence = *view.SuggestionConfidence
	}
	return s, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
