package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

type SubscribeNewsletterMessage struct {
	Email string `json:"email"`
}

func (e SubscribeNewsletterMessage) Type() string { return "newsletter.subscribe" }

type SubscribeNewsletterResponse struct {
	Subscriber *NewsletterSubscriber
}

// SubscribeNewsletterHandler adds an email to the opt-in list. An address
// already on the list comes back as ErrDuplicateEmail.
type SubscribeNewsletterHandler struct {
	repo RepositoryManager
}

func NewSubscribeNewsletterHandler(repo RepositoryManager) *SubscribeNewsletterHandler {
	return &SubscribeNewsletterHandler{repo: repo}
}

func (h *SubscribeNewsletterHandler) Execute(ctx context.Context, event SubscribeNewsletterMessage) (*SubscribeNewsletterResponse, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during newsletter subscription",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SubscribeNewsletterHandler) execute(ctx context.Context, event SubscribeNewsletterMessage) (*SubscribeNewsletterResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	subscribers := h.repo.NewsletterSubscribers()

	existing, err := subscribers.GetByIdentifier(ctx, event.Email)
	if err == nil && existing != nil {
		return nil, ErrDuplicateEmail
	}

	if err != nil && !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check newsletter subscription")
	}

	subscriber, err := subscribers.Create(ctx, &NewsletterSubscriber{
		Email: event.Email,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create newsletter subscription")
	}

	return &SubscribeNewsletterResponse{Subscriber: subscriber}, nil
}
