package accounts

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// UserStore is the slice of the credential store the provider needs
type UserStore interface {
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
}

// UserProvider resolves identities from the credential store
type UserProvider struct {
	store  UserStore
	logger Logger

	// dummyHash keeps the not-found path doing bcrypt work so callers
	// cannot distinguish an unknown email from a wrong password by timing.
	dummyHash string
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserStore) *UserProvider {
	dummy, err := HashPassword("dummy-password-for-timing-only")
	if err != nil {
		dummy = ""
	}

	return &UserProvider{
		store:     store,
		logger:    defLogger{},
		dummyHash: dummy,
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity will find the user, compare the password, and return the
// identity. An unknown email and a wrong password both come back as
// ErrMismatchedHashAndPassword; the caller never learns which it was.
func (u UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if goerrors.IsNotFound(err) {
			if u.dummyHash != "" {
				_ = ComparePasswordAndHash(password, u.dummyHash)
			}
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during verification")
	}

	if user == nil {
		return nil, ErrMismatchedHashAndPassword
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrMismatchedHashAndPassword
	}

	aid := authIdentity{
		id:    user.ID.String(),
		email: user.Email,
	}

	return aid, nil
}

func (u UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	if user == nil {
		return nil, ErrIdentityNotFound
	}

	aid := authIdentity{
		id:    user.ID.String(),
		email: user.Email,
	}

	return aid, nil
}

type authIdentity struct {
	id    string
	email string
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Email() string {
	return a.email
}

var _ Identity = authIdentity{}
