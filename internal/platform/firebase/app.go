// Package firebase builds the Auth and Firestore clients shared by token
// verification, portfolio storage and the Firestore session store.
package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

type Config struct {
	ProjectID string
	// DatabaseID selects a named Firestore database; empty means "(default)".
	DatabaseID string
	// GoogleApplicationCredentials is a service account JSON path. Empty uses
	// Application Default Credentials, or nothing under the emulators.
	GoogleApplicationCredentials string
}

type Clients struct {
	Auth      *auth.Client
	Firestore *firestore.Client
}

// InitializeClients connects to Firebase Auth and Firestore. The
// FIRESTORE_EMULATOR_HOST and FIREBASE_AUTH_EMULATOR_HOST variables are
// honoured by the SDKs.
func InitializeClients(ctx context.Context, cfg Config) (*Clients, error) {
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	ac, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth: %w", err)
	}

	var fc *firestore.Client
	if cfg.DatabaseID == "" || cfg.DatabaseID == firestore.DefaultDatabaseID {
		fc, err = app.Firestore(ctx)
	} else {
		fc, err = firestore.NewClientWithDatabase(ctx, cfg.ProjectID, cfg.DatabaseID, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("firestore %s: %w", databaseName(cfg.DatabaseID), err)
	}
	return &Clients{Auth: ac, Firestore: fc}, nil
}

func clientOptions(cfg Config) ([]option.ClientOption, error) {
	if cfg.GoogleApplicationCredentials == "" {
		return nil, nil
	}
	creds, err := os.ReadFile(cfg.GoogleApplicationCredentials)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	return []option.ClientOption{option.WithCredentialsJSON(creds)}, nil
}

func databaseName(id string) string {
	if id == "" {
		return firestore.DefaultDatabaseID
	}
	return id
}

// Close releases the Firestore connection. The Auth client holds none.
func (c *Clients) Close() error {
	if c.Firestore != nil {
		return c.Firestore.Close()
	}
	return nil
}
