package routes

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/finza-app/finza/pkg/api/config"
	"github.com/finza-app/finza/pkg/api/schemas"
	"github.com/finza-app/finza/pkg/api/services/auth"
	"github.com/finza-app/finza/pkg/api/services/iam"
	"github.com/finza-app/finza/pkg/db/models"
)

// RedirectOutput is a bare 302 with optional cookies. Huma needs the
// Location header typed on the output struct.
type RedirectOutput struct {
	Status    int
	Location  string        `header:"Location"`
	SetCookie []http.Cookie `header:"Set-Cookie"`
}

// OAuthCallbackInput carries the provider's query parameters plus the
// state cookie pinned at flow start.
type OAuthCallbackInput struct {
	Code         string `query:"code" doc:"Authorization code from the provider"`
	State        string `query:"state" doc:"State nonce echoed by the provider"`
	StateCookie  string `cookie:"github_oauth_state" required:"false"`
	ForwardedFor string `header:"X-Forwarded-For" required:"false"`
	UserAgent    string `header:"User-Agent" required:"false"`
}

// LogoutInput reads the session cookie so the server-side row can be
// revoked; absence is fine.
type LogoutInput struct {
	SessionToken string `cookie:"session-token" required:"false"`
}

// LogoutOutput clears every credential cookie.
type LogoutOutput struct {
	SetCookie []http.Cookie `header:"Set-Cookie"`
	Body      struct {
		Success bool `json:"success" doc:"Always true; logout is best-effort"`
	}
}

// EmailLoginOutput pairs the JSON body with the browser cookies.
type EmailLoginOutput struct {
	SetCookie []http.Cookie `header:"Set-Cookie"`
	Body      struct {
		User  schemas.User `json:"user"`
		Token string       `json:"token" doc:"Signed bearer token, also set as the auth-token cookie"`
	}
}

func RegisterAuth(api huma.API, svc *auth.Service, cfg *config.EnvConfig, logger *slog.Logger) {
	secure := !cfg.IsDev()

	huma.Register(api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/api/auth/register",
		Summary:       "Register with email and password",
		DefaultStatus: http.StatusCreated,
		Tags:          []string{TagAuth.String()},
	}, func(ctx context.Context, input *schemas.RegisterRequest) (*schemas.RegisterResponse, error) {
		user, err := svc.Register(ctx, input.Body.Email, input.Body.Password, input.Body.Name)
		if err != nil {
			if errors.Is(err, auth.ErrEmailTaken) {
				return nil, huma.Error409Conflict("Email already registered")
			}
			logger.Error("register failed", "error", err)
			return nil, huma.Error500InternalServerError("Could not create account")
		}
		resp := &schemas.RegisterResponse{Status: http.StatusCreated}
		resp.Body.User = publicUser(user)
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "email-login",
		Method:      http.MethodPost,
		Path:        "/api/auth/email",
		Summary:     "Log in with email and password",
		Tags:        []string{TagAuth.String()},
	}, func(ctx context.Context, input *schemas.EmailLoginRequest) (*EmailLoginOutput, error) {
		user, err := svc.VerifyEmailPassword(ctx, input.Body.Email, input.Body.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredential) {
				// One message for every failure mode.
				return nil, huma.Error401Unauthorized("Invalid email or password")
			}
			logger.Error("email login failed", "error", err)
			return nil, huma.Error500InternalServerError("Could not log in")
		}

		token, expires, err := svc.IssueAccessToken(user)
		if err != nil {
			logger.Error("token issuance failed", "error", err)
			return nil, huma.Error500InternalServerError("Could not log in")
		}

		resp := &EmailLoginOutput{
			SetCookie: []http.Cookie{
				*iam.NewCredentialCookie(iam.CookieAuthToken, token, expires, secure),
				*iam.NewHintCookie(iam.CookieRole, string(user.Role), expires, secure),
			},
		}
		resp.Body.User = publicUser(user)
		resp.Body.Token = token
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "github-login",
		Method:      http.MethodGet,
		Path:        "/api/auth/github",
		Summary:     "Start the GitHub OAuth flow",
		Tags:        []string{TagAuth.String()},
	}, func(ctx context.Context, input *struct{}) (*RedirectOutput, error) {
		state, authorizeURL, err := svc.BeginOAuth(ctx)
		if err != nil {
			logger.Error("oauth init failed", "error", err)
			return nil, huma.Error500InternalServerError("Could not start login")
		}
		return &RedirectOutput{
			Status:   http.StatusFound,
			Location: authorizeURL,
			SetCookie: []http.Cookie{
				*iam.NewCredentialCookie(iam.CookieOAuthState, state, time.Now().Add(auth.StateTTL), secure),
			},
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "github-callback",
		Method:      http.MethodGet,
		Path:        "/api/auth/github/callback",
		Summary:     "Finish the GitHub OAuth flow",
		Tags:        []string{TagAuth.String()},
	}, func(ctx context.Context, input *OAuthCallbackInput) (*RedirectOutput, error) {
		// The state cookie is single-use whatever happens next.
		cookies := []http.Cookie{*iam.ClearCookie(iam.CookieOAuthState)}

		user, err := svc.CompleteOAuth(ctx, input.StateCookie, input.State, input.Code)
		if err != nil {
			// Browser flow: never a raw error page, always the app's.
			return oauthErrorRedirect(err, cookies, logger), nil
		}

		token, tokenExpires, err := svc.IssueAccessToken(user)
		if err != nil {
			return oauthErrorRedirect(err, cookies, logger), nil
		}
		session, sessionExpires, err := svc.IssueSession(ctx, user, clientIP(input.ForwardedFor), input.UserAgent)
		if err != nil {
			return oauthErrorRedirect(err, cookies, logger), nil
		}

		cookies = append(cookies,
			*iam.NewCredentialCookie(iam.CookieAuthToken, token, tokenExpires, secure),
			*iam.NewCredentialCookie(iam.CookieSessionToken, session, sessionExpires, secure),
			*iam.NewHintCookie(iam.CookieUserRole, string(user.Role), sessionExpires, secure),
		)
		return &RedirectOutput{
			Status:    http.StatusFound,
			Location:  "/dashboard",
			SetCookie: cookies,
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/logout",
		Summary:     "Log out",
		Description: "Clears credential cookies and revokes the server-side session. Always succeeds.",
		Tags:        []string{TagAuth.String()},
	}, func(ctx context.Context, input *LogoutInput) (*LogoutOutput, error) {
		if err := svc.Logout(ctx, input.SessionToken); err != nil {
			// Swallowed: the cookies are cleared regardless.
			logger.Warn("session revoke failed", "error", err)
		}
		resp := &LogoutOutput{
			SetCookie: []http.Cookie{
				*iam.ClearCookie(iam.CookieAuthToken),
				*iam.ClearCookie(iam.CookieSessionToken),
				*iam.ClearCookie(iam.CookieRole),
				*iam.ClearCookie(iam.CookieUserRole),
			},
		}
		resp.Body.Success = true
		return resp, nil
	})
}

// oauthErrorRedirect maps a flow failure onto the app's error page.
func oauthErrorRedirect(err error, cookies []http.Cookie, logger *slog.Logger) *RedirectOutput {
	message := "login_failed"
	switch {
	case errors.Is(err, auth.ErrStateMismatch):
		message = "state_mismatch"
	case errors.Is(err, auth.ErrProviderExchange):
		message = "exchange_failed"
	}
	logger.Warn("oauth flow failed", "message", message, "error", err)
	return &RedirectOutput{
		Status:    http.StatusFound,
		Location:  "/auth/error?message=" + url.QueryEscape(message),
		SetCookie: cookies,
	}
}

// clientIP extracts the originating address from X-Forwarded-For,
// which lists one hop per proxy with the client first.
func clientIP(forwardedFor string) string {
	ip, _, _ := strings.Cut(forwardedFor, ",")
	return strings.TrimSpace(ip)
}

func publicUser(user *models.User) schemas.User {
	return schemas.User{
		ID:    user.ID.String(),
		Email: user.Email,
		Name:  user.Name,
		Role:  string(user.Role),
	}
}
