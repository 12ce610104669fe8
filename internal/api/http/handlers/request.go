package handlers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/taskdist/distribution-service/internal/auth"
	"github.com/taskdist/distribution-service/internal/domain"
	"github.com/taskdist/distribution-service/internal/workspace"
	apperrors "github.com/taskdist/distribution-service/pkg/util/errorutil"
)

// bindJSON parses the body into req and runs its validate tags.
func bindJSON(c *fiber.Ctx, v *validator.Validate, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return validate(v, req)
}

func validate(v *validator.Validate, req any) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	details := make(map[string]any, len(fieldErrs))
	names := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := lowerFirst(fe.Field())
		details[field] = fe.Tag()
		names = append(names, field)
	}
	return apperrors.NewValidationError("invalid fields: "+strings.Join(names, ", "), details)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// adminScope derives the caller's workspace from its admin session.
func adminScope(c *fiber.Ctx) (workspace.Scope, *domain.Session, error) {
	session, ok := auth.SessionFromContext(c)
	if !ok {
		return workspace.Scope{}, nil, apperrors.NewUnauthorized("unauthorized")
	}
	scope, err := workspace.ForAdmin(session)
	if err != nil {
		return workspace.Scope{}, nil, apperrors.NewForbidden("admin access required")
	}
	return scope, session, nil
}

// agentScope derives the caller's assignment scope from its agent session.
func agentScope(c *fiber.Ctx) (workspace.Scope, *domain.Session, error) {
	session, ok := auth.SessionFromContext(c)
	if !ok {
		return workspace.Scope{}, nil, apperrors.NewUnauthorized("unauthorized")
	}
	scope, err := workspace.ForAgent(session)
	if err != nil {
		return workspace.Scope{}, nil, apperrors.NewForbidden("agent access required")
	}
	return scope, session, nil
}
