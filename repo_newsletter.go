package accounts

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewNewsletterSubscribersRepository builds the opt-in list repository.
// Subscribers live on their own list with no tie to user records.
func NewNewsletterSubscribersRepository(db *bun.DB) repository.Repository[*NewsletterSubscriber] {
	handlers := repository.ModelHandlers[*NewsletterSubscriber]{
		NewRecord: func() *NewsletterSubscriber {
			return &NewsletterSubscriber{}
		},
		GetID: func(record *NewsletterSubscriber) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *NewsletterSubscriber, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "email"
		},
	}
	return repository.NewRepository(db, handlers)
}
