// Package firestore implements the token store on top of the application's
// user documents in Google Cloud Firestore.
package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tinywideclouds/go-push-dispatch/pkg/dispatch"
	"github.com/tinywideclouds/go-push-dispatch/pkg/notification"
)

const userCollection = "users"

// TokenStore keeps the per-user delivery token on the user's own document.
// The surrounding application owns the rest of the document; writes here use
// merge semantics so profile fields are never clobbered.
type TokenStore struct {
	client *firestore.Client
}

func NewTokenStore(client *firestore.Client) *TokenStore {
	return &TokenStore{client: client}
}

// tokenRecord is the slice of the user document this store reads.
type tokenRecord struct {
	Token     string    `firestore:"fcm_token"`
	UpdatedAt time.Time `firestore:"fcm_token_updated_at"`
}

// Upsert overwrites the user's current token, last-write-wins. A rotation
// replaces, it never merges token values.
func (s *TokenStore) Upsert(ctx context.Context, userID string, token string) error {
	_, err := s.userRef(userID).Set(ctx, map[string]interface{}{
		"fcm_token":            token,
		"fcm_token_updated_at": firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("token upsert for %s: %w", userID, err)
	}
	return nil
}

// Lookup returns the user's current token. A missing document is reported as
// dispatch.ErrUserNotFound; a document without a token field comes back with
// an empty Value, which the dispatch service treats as a benign miss.
func (s *TokenStore) Lookup(ctx context.Context, userID string) (notification.DeviceToken, error) {
	doc, err := s.userRef(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return notification.DeviceToken{}, dispatch.ErrUserNotFound
	}
	if err != nil {
		return notification.DeviceToken{}, fmt.Errorf("token lookup for %s: %w", userID, err)
	}

	var rec tokenRecord
	if err := doc.DataTo(&rec); err != nil {
		return notification.DeviceToken{}, fmt.Errorf("decoding user document %s: %w", userID, err)
	}

	return notification.DeviceToken{
		Value:       rec.Token,
		OwnerUserID: userID,
		IssuedAt:    rec.UpdatedAt,
	}, nil
}

// Clear drops the token field, leaving the rest of the user document alone.
// Clearing an unknown user is a no-op.
func (s *TokenStore) Clear(ctx context.Context, userID string) error {
	_, err := s.userRef(userID).Update(ctx, []firestore.Update{
		{Path: "fcm_token", Value: firestore.Delete},
	})
	if status.Code(err) == codes.NotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("token clear for %s: %w", userID, err)
	}
	return nil
}

func (s *TokenStore) userRef(userID string) *firestore.DocumentRef {
	return s.client.Collection(userCollection).Doc(userID)
}
