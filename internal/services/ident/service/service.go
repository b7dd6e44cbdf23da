// Package service provides the registered identity lookup
package service

import (
	"context"

	"callerid/internal/core/normalize"
	"callerid/internal/modkit/repokit"
	perr "callerid/internal/platform/errors"
	"callerid/internal/platform/store"
	"callerid/internal/services/ident/domain"
)

// Svc implements domain.LookupPort
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[domain.Repo]
}

var _ domain.LookupPort = (*Svc)(nil)

// New constructs the ident service
func New(db repokit.TxRunner, binder repokit.Binder[domain.Repo]) *Svc {
	if db == nil {
		panic("ident.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("ident.Service requires a non nil Repo binder")
	}
	return &Svc{db: db, binder: binder}
}

// ByNumber returns the identity owning a normalized number. ok is false when none does
func (s *Svc) ByNumber(ctx context.Context, number string) (domain.Identity, bool, error) {
	id, err := s.binder.Bind(s.db).ByNumber(ctx, number)
	if store.IsNotFound(err) {
		return domain.Identity{}, false, nil
	}
	if err != nil {
		return domain.Identity{}, false, storeErr(err, "lookup identity")
	}
	return id, true, nil
}

// Register upserts an identity after normalizing its number. Seeding and tests use it;
// production rows are written by the identity provider
func (s *Svc) Register(ctx context.Context, id domain.Identity) error {
	key, err := normalize.Key(id.Number)
	if err != nil {
		return err
	}
	id.Number = key
	id.DisplayName = normalize.Name(id.DisplayName)
	if id.UserID == "" || id.DisplayName == "" {
		return perr.InvalidArgf("user id and display name are required")
	}
	return storeErr(s.binder.Bind(s.db).Upsert(ctx, id), "register identity")
}

// storeErr keeps a code the store already assigned and maps raw driver errors
func storeErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if _, ok := perr.As(err); ok {
		return perr.WithOp(err, op)
	}
	return perr.FromPostgres(err, op)
}
