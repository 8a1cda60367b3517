package accounts

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RevocationLedger is the append-only record of refresh-token jtis that must
// be rejected despite an otherwise valid signature and expiry.
type RevocationLedger interface {
	Insert(ctx context.Context, entry *RevokedToken) (*RevokedToken, error)
	Exists(ctx context.Context, tokenID uuid.UUID) (bool, error)
}

type revocations struct {
	repository.Repository[*RevokedToken]
	db *bun.DB
}

var _ RevocationLedger = (*revocations)(nil)

func NewRevocationsRepository(db *bun.DB) RevocationLedger {
	repo := repository.NewRepository[*RevokedToken](db, repository.ModelHandlers[*RevokedToken]{
		NewRecord: func() *RevokedToken { return &RevokedToken{} },
		GetID: func(r *RevokedToken) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.TokenID
		},
		SetID: func(r *RevokedToken, id uuid.UUID) {
			if r != nil {
				r.TokenID = id
			}
		},
	})

	return &revocations{
		Repository: repo,
		db:         db,
	}
}

func (r *revocations) Insert(ctx context.Context, entry *RevokedToken) (*RevokedToken, error) {
	return r.Repository.Create(ctx, entry)
}

func (r *revocations) Exists(ctx context.Context, tokenID uuid.UUID) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*RevokedToken)(nil)).
		Where("?TableAlias.token_id = ?", tokenID).
		Exists(ctx)
	if err != nil {
		return false, err
	}
	return exists, nil
}
