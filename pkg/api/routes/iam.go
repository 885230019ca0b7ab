package routes

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/finza-app/finza/pkg/api/schemas"
	"github.com/finza-app/finza/pkg/api/services/auth"
	"github.com/finza-app/finza/pkg/api/services/iam"
	"github.com/finza-app/finza/pkg/db/models"
)

func RegisterIAM(api huma.API, svc *auth.Service, logger *slog.Logger) {
	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/api/auth/session",
		Summary:     "Get the current session's user",
		Tags:        []string{TagIam.String()},
		Security:    BearerAuth,
	}, func(ctx context.Context, input *struct{}) (*schemas.SessionResponse, error) {
		principal := iam.FromContext(ctx)
		if principal == nil {
			return nil, huma.Error401Unauthorized("Authentication required")
		}
		user, err := svc.UserByID(ctx, principal.UserID)
		if err != nil {
			if errors.Is(err, auth.ErrUserGone) {
				return nil, huma.Error401Unauthorized("Authentication required")
			}
			logger.Error("session lookup failed", "error", err)
			return nil, huma.Error500InternalServerError("Could not load session")
		}
		resp := &schemas.SessionResponse{}
		resp.Body.User = publicUser(user)
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-me",
		Method:      http.MethodGet,
		Path:        "/api/auth/me",
		Summary:     "Get current user and permissions",
		Tags:        []string{TagIam.String()},
		Security:    BearerAuth,
	}, func(ctx context.Context, input *struct{}) (*schemas.MeResponse, error) {
		principal := iam.FromContext(ctx)
		if principal == nil {
			return nil, huma.Error401Unauthorized("Authentication required")
		}
		user, err := svc.UserByID(ctx, principal.UserID)
		if err != nil {
			if errors.Is(err, auth.ErrUserGone) {
				// The credential outlived its subject.
				return nil, huma.Error404NotFound("User no longer exists")
			}
			logger.Error("me lookup failed", "error", err)
			return nil, huma.Error500InternalServerError("Could not load user")
		}
		resp := &schemas.MeResponse{}
		resp.Body.User = publicUser(user)
		resp.Body.Permissions = permissionsFor(user.Role)
		return resp, nil
	})
}

// permissionsFor derives the capability hints the UI renders from.
func permissionsFor(role models.Role) schemas.Permissions {
	return schemas.Permissions{
		CanCreate: role != models.RoleUser,
		CanEdit:   role != models.RoleUser,
		CanDelete: role == models.RoleAdmin,
	}
}
