package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/nhankey2000/auto-post/internal/analytics"
	"github.com/nhankey2000/auto-post/internal/cache"
	apierrors "github.com/nhankey2000/auto-post/internal/errors"
	"github.com/nhankey2000/auto-post/internal/graph"
	"github.com/nhankey2000/auto-post/internal/messaging"
	"github.com/nhankey2000/auto-post/internal/publisher"
	"github.com/nhankey2000/auto-post/internal/repository"
	"github.com/nhankey2000/auto-post/internal/service"
	"github.com/nhankey2000/auto-post/internal/util"
)

// respondError maps a domain error onto the API error envelope
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	util.RespondWithAPIError(c, toAPIError(err))
}

func toAPIError(err error) *apierrors.APIError {
	switch {
	case errors.Is(err, repository.ErrAccountNotFound):
		return apierrors.NotFound("account")
	case errors.Is(err, repository.ErrPostNotFound):
		return apierrors.NotFound("post")

	case publisher.IsValidation(err):
		return apierrors.ValidationError("media", err.Error())
	case errors.Is(err, service.ErrMissingPageID),
		errors.Is(err, service.ErrMissingAccessToken),
		errors.Is(err, analytics.ErrMissingCredentials):
		return apierrors.ValidationError("account", err.Error())
	case errors.Is(err, service.ErrEmptyReply):
		return apierrors.ValidationError("message", err.Error())
	case errors.Is(err, analytics.ErrInvalidRange):
		return apierrors.ValidationError("until", err.Error())
	case errors.Is(err, repository.ErrInvalidInput):
		return apierrors.ValidationError("", err.Error())

	case errors.Is(err, analytics.ErrInsightsPermission):
		return apierrors.Forbidden(err.Error())
	case isRemoteCode(err, graph.CodePermission):
		return apierrors.Forbidden(service.ErrorMessage(err))

	case graph.IsKind(err, graph.KindRateLimited):
		return apierrors.RateLimited(service.ErrorMessage(err))

	case errors.Is(err, service.ErrAlreadyPublished),
		errors.Is(err, service.ErrNotPublished),
		errors.Is(err, service.ErrAccountInactive),
		errors.Is(err, cache.ErrDuplicateSubmission):
		return apierrors.Conflict(err.Error())

	case errors.Is(err, service.ErrNoGenerator):
		return apierrors.ServiceUnavailable("content generator")

	case errors.Is(err, publisher.ErrPublishFailed),
		errors.Is(err, publisher.ErrUpdateFailed),
		errors.Is(err, publisher.ErrDeleteFailed),
		errors.Is(err, messaging.ErrReplyFailed):
		return apierrors.Upstream(service.ErrorMessage(err))
	}

	var te *graph.TransportError
	if errors.As(err, &te) {
		return apierrors.Upstream(graph.Message(err))
	}
	return apierrors.InternalError("internal server error")
}

func isRemoteCode(err error, code int) bool {
	got, ok := graph.RemoteCode(err)
	return ok && got == code
}
