package accounts

import (
	"context"
	"database/sql"
	"errors"
	"log"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Revocations() RevocationLedger
	NewsletterSubscribers() repository.Repository[*NewsletterSubscriber]
}

type mngr struct {
	db          *bun.DB
	users       Users
	revocations RevocationLedger
	subscribers repository.Repository[*NewsletterSubscriber]
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:          db,
		users:       NewUsersRepository(db),
		revocations: NewRevocationsRepository(db),
		subscribers: NewNewsletterSubscribersRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.revocations == nil {
		return errors.New("repository revocations should be initialized")
	}

	if m.subscribers == nil {
		return errors.New("repository subscribers should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Revocations() RevocationLedger {
	return m.revocations
}

func (m mngr) NewsletterSubscribers() repository.Repository[*NewsletterSubscriber] {
	return m.subscribers
}
