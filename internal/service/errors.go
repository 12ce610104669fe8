package service

import (
	"errors"

	"github.com/taskdist/distribution-service/internal/distribution"
	"github.com/taskdist/distribution-service/internal/repository"
	"github.com/taskdist/distribution-service/internal/spreadsheet"
	"github.com/taskdist/distribution-service/internal/workspace"
	apperrors "github.com/taskdist/distribution-service/pkg/util/errorutil"
)

var errInvalidCredentials = apperrors.NewUnauthorized("Invalid credentials")

// mapRepoErr translates storage errors into client-facing domain errors.
func mapRepoErr(err error, resource string) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrConflict):
		return apperrors.NewConflict(resource+" already exists", nil)
	case errors.Is(err, repository.ErrCrossWorkspace):
		return apperrors.NewForbidden(resource + " belongs to another workspace")
	case errors.Is(err, workspace.ErrEmptyScope), errors.Is(err, workspace.ErrRoleMismatch):
		return apperrors.NewForbidden("access denied")
	default:
		return apperrors.NewInternalError(err)
	}
}

// mapUploadErr gives every parser and distribution failure its own code.
func mapUploadErr(err error) error {
	switch {
	case errors.Is(err, spreadsheet.ErrMissingRequiredColumn):
		return apperrors.NewBadRequest(apperrors.CodeMissingColumn, err)
	case errors.Is(err, spreadsheet.ErrEmptyFile):
		return apperrors.NewBadRequest(apperrors.CodeEmptyFile, err)
	case errors.Is(err, spreadsheet.ErrNoValidRows):
		return apperrors.NewBadRequest(apperrors.CodeNoValidRows, err)
	case errors.Is(err, spreadsheet.ErrUnsupportedFormat), errors.Is(err, spreadsheet.ErrUnreadableFile):
		return apperrors.NewBadRequest(apperrors.CodeUnsupportedFile, err)
	case errors.Is(err, distribution.ErrInvalidAgentCount):
		return apperrors.NewBadRequest(apperrors.CodeInvalidAgentCount, err)
	default:
		return apperrors.NewInternalError(err)
	}
}
