package accounts

import (
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// Middleware is the route-guard surface the controller depends on
type Middleware interface {
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
}

// RegisterAuthRoutes mounts the session endpoints on the given router.
// Logout is the only protected route; everything else is reachable without
// credentials.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	protected := controller.Auther.ProtectedRoute(
		controller.Config,
		controller.Auther.MakeClientRouteAuthErrorHandler(false),
	)

	app.Post(controller.Routes.Register, controller.Register).
		SetName("accounts.register")

	app.Post(controller.Routes.Login, controller.Login).
		SetName("accounts.login")

	app.Post(controller.Routes.Refresh, controller.Refresh).
		SetName("accounts.token-refresh")

	app.Post(controller.Routes.Logout, controller.Logout, protected).
		SetName("accounts.logout")

	app.Post(controller.Routes.Newsletter, controller.NewsletterSubscribe).
		SetName("accounts.newsletter-subscribe")
}

type AuthControllerRoutes struct {
	Register   string
	Login      string
	Refresh    string
	Logout     string
	Newsletter string
}

type AuthController struct {
	Debug    bool
	Logger   Logger
	Repo     RepositoryManager
	Provider IdentityProvider
	Tokens   TokenService
	Auther   *RouteAuthenticator
	Config   Config
	Routes   *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Register:   "/register/",
			Login:      "/login/",
			Refresh:    "/token/refresh/",
			Logout:     "/logout/",
			Newsletter: "/newsletter_subscribe/",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Provider == nil {
		panic("Missing IdentityProvider in auth controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenService in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing RouteAuthenticator in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	return c
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerProvider(provider IdentityProvider) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Provider = provider
		return c
	}
}

func WithControllerTokens(tokens TokenService) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Tokens = tokens
		return c
	}
}

func WithControllerAuther(auther *RouteAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

func WithControllerRoutes(routes *AuthControllerRoutes) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if routes != nil {
			c.Routes = routes
		}
		return c
	}
}

// RegistrationCreatePayload is the registration request body
type RegistrationCreatePayload struct {
	FirstName     string `form:"first_name" json:"first_name"`
	LastName      string `form:"last_name" json:"last_name"`
	Email         string `form:"email" json:"email"`
	Password      string `form:"password" json:"password"`
	ReceiveEmails *bool  `form:"receive_emails" json:"receive_emails"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AuthController) Register(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: ", "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]string{
			"error": "Failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload: ", "error", err)
		return ctx.JSON(http.StatusBadRequest, FormatValidationErrorToMap(err))
	}

	receiveEmails := true
	if payload.ReceiveEmails != nil {
		receiveEmails = *payload.ReceiveEmails
	}

	req := RegisterUserMessage{
		FirstName:     payload.FirstName,
		LastName:      payload.LastName,
		Email:         payload.Email,
		Password:      payload.Password,
		ReceiveEmails: receiveEmails,
	}

	registerUser := NewRegisterUserHandler(a.Repo)
	res, err := registerUser.Execute(ctx.Context(), req)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return ctx.JSON(http.StatusBadRequest, map[string]string{
				"email": "A user with this email already exists",
			})
		}

		a.Logger.Error("register user error: ", "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Unable to complete registration",
		})
	}

	if a.Debug {
		fmt.Println("======= AUTH REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(res.User))
		fmt.Println("============================")
	}

	return ctx.JSON(http.StatusCreated, res.User)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Email
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) Login(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: ", "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]string{
			"error": "Failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, FormatValidationErrorToMap(err))
	}

	identity, err := a.Provider.VerifyIdentity(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Info("login rejected", "identifier", payload.GetIdentifier())
		return ctx.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Invalid credentials",
		})
	}

	pair, err := a.Tokens.IssuePair(ctx.Context(), identity)
	if err != nil {
		a.Logger.Error("login issue pair: ", "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Unable to start a session",
		})
	}

	user, err := a.Repo.Users().GetByIdentifier(ctx.Context(), identity.Email())
	if err != nil {
		a.Logger.Error("login load user: ", "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Unable to start a session",
		})
	}

	a.Auther.SetSession(ctx, pair)

	return ctx.JSON(http.StatusOK, map[string]any{
		"user":        user,
		"accessToken": pair.AccessToken,
	})
}

// Refresh exchanges the refresh cookie for a new access token. The cookie is
// the only accepted transport; a refresh token in the body or headers is
// ignored. The refresh token itself is not rotated.
func (a *AuthController) Refresh(ctx router.Context) error {
	refreshToken, err := a.Auther.GetSession(ctx)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Refresh token not found",
		})
	}

	accessToken, err := a.Tokens.RefreshAccess(ctx.Context(), refreshToken)
	if err != nil {
		a.Logger.Info("refresh rejected", "error", err)
		return ctx.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Invalid refresh token",
		})
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"accessToken": accessToken,
	})
}

// Logout revokes the refresh token and clears the session cookie. Token
// verification failures are swallowed: the client is logging out either way,
// and an expired or malformed token needs no ledger entry. Ledger write
// failures are not swallowed, the revocation must actually land.
func (a *AuthController) Logout(ctx router.Context) error {
	refreshToken, err := a.Auther.GetSession(ctx)
	if err == nil && refreshToken != "" {
		if err := a.Tokens.Blacklist(ctx.Context(), refreshToken); err != nil {
			if !IsTokenError(err) {
				a.Logger.Error("logout blacklist: ", "error", err)
				a.Auther.ClearSession(ctx)
				return ctx.JSON(http.StatusInternalServerError, map[string]string{
					"error": "Unable to complete logout",
				})
			}
			a.Logger.Info("logout with unusable refresh token", "error", err)
		}
	}

	a.Auther.ClearSession(ctx)

	return ctx.JSON(http.StatusOK, map[string]string{
		"message": "Successfully logged out",
	})
}

// NewsletterSubscribePayload is the newsletter request body
type NewsletterSubscribePayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r NewsletterSubscribePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) NewsletterSubscribe(ctx router.Context) error {
	payload := new(NewsletterSubscribePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("newsletter parse payload: ", "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]string{
			"error": "Failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, FormatValidationErrorToMap(err))
	}

	subscribe := NewSubscribeNewsletterHandler(a.Repo)
	res, err := subscribe.Execute(ctx.Context(), SubscribeNewsletterMessage{
		Email: payload.Email,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return ctx.JSON(http.StatusBadRequest, map[string]string{
				"email": "This email is already subscribed",
			})
		}

		a.Logger.Error("newsletter subscribe: ", "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Unable to complete subscription",
		})
	}

	return ctx.JSON(http.StatusCreated, res.Subscriber)
}
