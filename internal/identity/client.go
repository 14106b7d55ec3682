package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for identity resolution failures.
var (
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrAuthUnreachable = errors.New("auth service unreachable")
)

// Resolver turns a caller's bearer credential into a user id. The caller's
// token goes only to the auth endpoint; every downstream write is performed
// with the service identity instead.
type Resolver interface {
	Resolve(ctx context.Context, token string) (uuid.UUID, error)
}

// SupabaseResolver implements Resolver against the Supabase Auth HTTP API.
type SupabaseResolver struct {
	baseURL    string
	serviceKey string
	client     *http.Client
}

// NewSupabaseResolver creates a new auth resolver.
func NewSupabaseResolver(baseURL, serviceKey string, timeout time.Duration) *SupabaseResolver {
	return &SupabaseResolver{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		client:     &http.Client{Timeout: timeout},
	}
}

func (r *SupabaseResolver) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("apikey", r.serviceKey)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrAuthUnreachable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return uuid.Nil, ErrInvalidToken
	default:
		return uuid.Nil, fmt.Errorf("%w: status %d", ErrAuthUnreachable, resp.StatusCode)
	}

	var user struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return uuid.Nil, fmt.Errorf("%w: decoding user: %v", ErrAuthUnreachable, err)
	}

	id, err := uuid.Parse(user.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad user id %q", ErrInvalidToken, user.ID)
	}
	return id, nil
}

// Compile-time check that SupabaseResolver implements Resolver.
var _ Resolver = (*SupabaseResolver)(nil)
