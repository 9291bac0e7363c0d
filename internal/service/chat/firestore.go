package chat

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	applog "github.com/janisto/portfolio-builder/internal/platform/logging"
	"github.com/janisto/portfolio-builder/internal/profile"
)

const (
	sessionsCollection = "chat_sessions"
	// turnAttempts bounds transaction retries when turns on one session race.
	turnAttempts = 10
)

// firestoreTurn maps to one element of the turns array.
type firestoreTurn struct {
	Role      string    `firestore:"role"`
	Content   string    `firestore:"content"`
	Timestamp time.Time `firestore:"timestamp"`
}

// firestoreSession maps to Firestore document structure.
type firestoreSession struct {
	UserID      string          `firestore:"user_id"`
	Turns       []firestoreTurn `firestore:"turns"`
	Profile     profile.Profile `firestore:"profile"`
	CurrentStep int             `firestore:"current_step"`
	Completed   bool            `firestore:"completed"`
	CreatedAt   time.Time       `firestore:"created_at"`
	UpdatedAt   time.Time       `firestore:"updated_at"`
}

func (fs firestoreSession) toSession(id string) *Session {
	turns := make([]Turn, len(fs.Turns))
	for i, t := range fs.Turns {
		turns[i] = Turn(t)
	}
	return &Session{
		ID:          id,
		UserID:      fs.UserID,
		Turns:       turns,
		Profile:     fs.Profile,
		CurrentStep: fs.CurrentStep,
		Completed:   fs.Completed,
		CreatedAt:   fs.CreatedAt,
		UpdatedAt:   fs.UpdatedAt,
	}
}

func newFirestoreSession(s *Session) firestoreSession {
	turns := make([]firestoreTurn, len(s.Turns))
	for i, t := range s.Turns {
		turns[i] = firestoreTurn(t)
	}
	return firestoreSession{
		UserID:      s.UserID,
		Turns:       turns,
		Profile:     s.Profile,
		CurrentStep: s.CurrentStep,
		Completed:   s.Completed,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// FirestoreStore implements Store using Firestore. Every mutation runs in a
// transaction, so concurrent turns on one session are applied one after the
// other.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed store.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// Create stores an empty session under a generated document id.
func (s *FirestoreStore) Create(ctx context.Context, userID string) (*Session, error) {
	docRef := s.client.Collection(sessionsCollection).NewDoc()
	now := time.Now().UTC()

	fs := firestoreSession{
		UserID:      userID,
		Turns:       []firestoreTurn{},
		CurrentStep: initialStep,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := docRef.Create(ctx, fs)
	applog.LogAudit(ctx, applog.Audit{
		Action: "create", UserID: userID, Resource: auditResource, ResourceID: docRef.ID,
		Failure: categorizeError(err),
	})
	if err != nil {
		return nil, err
	}
	return fs.toSession(docRef.ID), nil
}

// Load retrieves a session by id.
func (s *FirestoreStore) Load(ctx context.Context, id string) (*Session, error) {
	doc, err := s.client.Collection(sessionsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	var fs firestoreSession
	if err := doc.DataTo(&fs); err != nil {
		return nil, err
	}
	return fs.toSession(id), nil
}

// RecordTurn reads, folds and writes the session inside one transaction.
// Firestore retries the transaction when a concurrent turn commits first.
func (s *FirestoreStore) RecordTurn(ctx context.Context, id string, rec TurnRecord) (*Session, error) {
	docRef := s.client.Collection(sessionsCollection).Doc(id)

	var out *Session
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrSessionNotFound
			}
			return err
		}

		var fs firestoreSession
		if err := doc.DataTo(&fs); err != nil {
			return err
		}
		sess := fs.toSession(id)
		sess.apply(rec)
		sess.UpdatedAt = time.Now().UTC()

		if err := tx.Set(docRef, newFirestoreSession(sess)); err != nil {
			return err
		}
		out = sess
		return nil
	}, firestore.MaxAttempts(turnAttempts))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Clear deletes the session using a transaction to ensure it exists.
func (s *FirestoreStore) Clear(ctx context.Context, id string) error {
	docRef := s.client.Collection(sessionsCollection).Doc(id)

	var userID string
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrSessionNotFound
			}
			return err
		}
		if v, err := doc.DataAt("user_id"); err == nil {
			userID, _ = v.(string)
		}
		return tx.Delete(docRef)
	})
	applog.LogAudit(ctx, applog.Audit{
		Action: "delete", UserID: userID, Resource: auditResource, ResourceID: id,
		Failure: categorizeError(err),
	})
	return err
}

// Compile-time interface check
var _ Store = (*FirestoreStore)(nil)
