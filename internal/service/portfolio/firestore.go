package portfolio

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	applog "github.com/janisto/portfolio-builder/internal/platform/logging"
	"github.com/janisto/portfolio-builder/internal/profile"
)

const (
	portfoliosCollection = "portfolios"
	slugsCollection      = "portfolio_slugs"
)

// firestorePortfolio maps to Firestore document structure.
type firestorePortfolio struct {
	UserID       string          `firestore:"user_id"`
	Title        string          `firestore:"title"`
	TemplateID   string          `firestore:"template_id"`
	Profile      profile.Profile `firestore:"profile"`
	HTML         string          `firestore:"html"`
	Slug         string          `firestore:"slug"`
	PublishedURL string          `firestore:"published_url"`
	Published    bool            `firestore:"published"`
	Views        int64           `firestore:"views"`
	LastViewed   time.Time       `firestore:"last_viewed"`
	CreatedAt    time.Time       `firestore:"created_at"`
	UpdatedAt    time.Time       `firestore:"updated_at"`
}

// firestoreSlug maps a reserved slug to its portfolio.
type firestoreSlug struct {
	PortfolioID string    `firestore:"portfolio_id"`
	UserID      string    `firestore:"user_id"`
	CreatedAt   time.Time `firestore:"created_at"`
}

func (fp firestorePortfolio) toPortfolio(id string) *Portfolio {
	return &Portfolio{
		ID:           id,
		UserID:       fp.UserID,
		Title:        fp.Title,
		TemplateID:   fp.TemplateID,
		Profile:      fp.Profile,
		HTML:         fp.HTML,
		Slug:         fp.Slug,
		PublishedURL: fp.PublishedURL,
		Published:    fp.Published,
		Views:        fp.Views,
		LastViewed:   fp.LastViewed,
		CreatedAt:    fp.CreatedAt,
		UpdatedAt:    fp.UpdatedAt,
	}
}

// FirestoreStore implements Service using Firestore with transactions.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed store.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// Ping reads at most one portfolio to confirm Firestore answers.
func (s *FirestoreStore) Ping(ctx context.Context) error {
	iter := s.client.Collection(portfoliosCollection).Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return err
	}
	return nil
}

// Create stores a portfolio under a generated document id.
func (s *FirestoreStore) Create(ctx context.Context, userID string, params CreateParams) (*Portfolio, error) {
	docRef := s.client.Collection(portfoliosCollection).NewDoc()
	now := time.Now().UTC()

	fp := firestorePortfolio{
		UserID:     userID,
		Title:      strings.TrimSpace(params.Title),
		TemplateID: params.TemplateID,
		Profile:    params.Profile,
		HTML:       params.HTML,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err := docRef.Create(ctx, fp)
	applog.LogAudit(ctx, applog.Audit{
		Action: "create", UserID: userID, Resource: auditResource, ResourceID: docRef.ID,
		Failure: categorizeError(err),
	}, zap.String("template", params.TemplateID))
	if err != nil {
		return nil, err
	}
	return fp.toPortfolio(docRef.ID), nil
}

// Get retrieves a portfolio by id.
func (s *FirestoreStore) Get(ctx context.Context, id string) (*Portfolio, error) {
	doc, err := s.client.Collection(portfoliosCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var fp firestorePortfolio
	if err := doc.DataTo(&fp); err != nil {
		return nil, err
	}
	return fp.toPortfolio(id), nil
}

// ListByUser returns the user's portfolios, newest first.
func (s *FirestoreStore) ListByUser(ctx context.Context, userID string) ([]Portfolio, error) {
	iter := s.client.Collection(portfoliosCollection).
		Where("user_id", "==", userID).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var out []Portfolio
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var fp firestorePortfolio
		if err := doc.DataTo(&fp); err != nil {
			return nil, err
		}
		out = append(out, *fp.toPortfolio(doc.Ref.ID))
	}
	return out, nil
}

// RecordView increments the view counter and returns the updated portfolio.
func (s *FirestoreStore) RecordView(ctx context.Context, id string) (*Portfolio, error) {
	docRef := s.client.Collection(portfoliosCollection).Doc(id)

	var result *Portfolio
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}

		var fp firestorePortfolio
		if err := doc.DataTo(&fp); err != nil {
			return err
		}
		now := time.Now().UTC()
		fp.Views++
		fp.LastViewed = now

		if err := tx.Update(docRef, []firestore.Update{
			{Path: "views", Value: firestore.Increment(1)},
			{Path: "last_viewed", Value: now},
		}); err != nil {
			return err
		}
		result = fp.toPortfolio(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReserveSlug claims slug for the portfolio, failing when another portfolio
// holds it.
func (s *FirestoreStore) ReserveSlug(ctx context.Context, id, userID, slug string) error {
	docRef := s.client.Collection(portfoliosCollection).Doc(id)
	slugRef := s.client.Collection(slugsCollection).Doc(slug)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := checkOwner(tx, docRef, userID); err != nil {
			return err
		}

		doc, err := tx.Get(slugRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if err == nil && doc.Exists() {
			var fs firestoreSlug
			if err := doc.DataTo(&fs); err != nil {
				return err
			}
			if fs.PortfolioID != id {
				return ErrSlugTaken
			}
			return nil
		}

		return tx.Set(slugRef, firestoreSlug{
			PortfolioID: id,
			UserID:      userID,
			CreatedAt:   time.Now().UTC(),
		})
	})
	applog.LogAudit(ctx, applog.Audit{
		Action: "reserve_slug", UserID: userID, Resource: auditResource, ResourceID: id,
		Failure: categorizeError(err),
	}, zap.String("slug", slug))
	return err
}

// ReleaseSlug deletes the reservation of slug when the portfolio holds it.
func (s *FirestoreStore) ReleaseSlug(ctx context.Context, id, userID, slug string) error {
	docRef := s.client.Collection(portfoliosCollection).Doc(id)
	slugRef := s.client.Collection(slugsCollection).Doc(slug)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := checkOwner(tx, docRef, userID); err != nil {
			return err
		}
		held, err := slugHeldBy(tx, slugRef, id)
		if err != nil || !held {
			return err
		}
		return tx.Delete(slugRef)
	})
	applog.LogAudit(ctx, applog.Audit{
		Action: "release_slug", UserID: userID, Resource: auditResource, ResourceID: id,
		Failure: categorizeError(err),
	}, zap.String("slug", slug))
	return err
}

// slugHeldBy reports whether the reservation at ref belongs to portfolio id.
func slugHeldBy(tx *firestore.Transaction, ref *firestore.DocumentRef, id string) (bool, error) {
	doc, err := tx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, err
	}
	var fs firestoreSlug
	if err := doc.DataTo(&fs); err != nil {
		return false, err
	}
	return fs.PortfolioID == id, nil
}

// MarkPublished records the public URL of an uploaded site and releases the
// previous slug when it changed.
func (s *FirestoreStore) MarkPublished(ctx context.Context, id, userID, slug, url string) (*Portfolio, error) {
	docRef := s.client.Collection(portfoliosCollection).Doc(id)

	var result *Portfolio
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}

		var fp firestorePortfolio
		if err := doc.DataTo(&fp); err != nil {
			return err
		}
		if fp.UserID != userID {
			return ErrNotOwner
		}

		if fp.Slug != "" && fp.Slug != slug {
			previous := s.client.Collection(slugsCollection).Doc(fp.Slug)
			held, err := slugHeldBy(tx, previous, id)
			if err != nil {
				return err
			}
			if held {
				if err := tx.Delete(previous); err != nil {
					return err
				}
			}
		}

		fp.Slug = slug
		fp.PublishedURL = url
		fp.Published = true
		fp.UpdatedAt = time.Now().UTC()

		if err := tx.Set(docRef, fp); err != nil {
			return err
		}
		result = fp.toPortfolio(id)
		return nil
	})
	applog.LogAudit(ctx, applog.Audit{
		Action: "publish", UserID: userID, Resource: auditResource, ResourceID: id,
		Failure: categorizeError(err),
	}, zap.String("slug", slug), zap.String("url", url))
	if err != nil {
		return nil, err
	}
	return result, nil
}

func checkOwner(tx *firestore.Transaction, docRef *firestore.DocumentRef, userID string) error {
	doc, err := tx.Get(docRef)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return err
	}
	owner, err := doc.DataAt("user_id")
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrNotOwner
	}
	return nil
}

// Compile-time interface check
var _ Service = (*FirestoreStore)(nil)
