package github

import (
	"errors"

	"github.com/google/go-github/v67/github"

	providererrors "github.com/valksor/go-opsdesk/internal/provider/errors"
	"github.com/valksor/go-opsdesk/internal/provider/httpclient"
)

// wrapAPIError converts go-github errors into the shared provider taxonomy.
func wrapAPIError(err error) error {
	if err == nil {
		return nil
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		return providererrors.WrapHTTPError(
			httpclient.NewHTTPError(rateErr.Response.StatusCode, "rate limit: "+rateErr.Message), ProviderName)
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return providererrors.WrapHTTPError(
			httpclient.NewHTTPError(ghErr.Response.StatusCode, ghErr.Message), ProviderName)
	}

	return providererrors.WrapHTTPError(err, ProviderName)
}
