package gitlab

import (
	"errors"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	providererrors "github.com/valksor/go-opsdesk/internal/provider/errors"
	"github.com/valksor/go-opsdesk/internal/provider/httpclient"
)

// wrapAPIError converts GitLab API errors into the shared provider taxonomy.
func wrapAPIError(err error) error {
	if err == nil {
		return nil
	}

	var glErr *gitlab.ErrorResponse
	if errors.As(err, &glErr) && glErr.Response != nil {
		msg := strings.TrimSpace(glErr.Message)
		if msg == "" {
			msg = err.Error()
		}
		return providererrors.WrapHTTPError(httpclient.NewHTTPError(glErr.Response.StatusCode, msg), ProviderName)
	}

	return providererrors.WrapHTTPError(err, ProviderName)
}
