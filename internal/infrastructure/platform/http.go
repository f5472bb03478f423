package platform

import (
	"fmt"
	"net/http"

	"github.com/shopbridge/backend/internal/domain/reconcile"
)

// maxResponseSize is the maximum allowed response size from a platform API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// classifyStatus maps an HTTP status code to the domain error taxonomy:
// 429 is rate limiting and 5xx is a platform outage (both transient), 404
// is a missing resource, any other 4xx is a permanent request failure.
func classifyStatus(code int) error {
	switch {
	case code < 400:
		return nil
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP %d", reconcile.ErrPlatformRateLimited, code)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: HTTP %d", reconcile.ErrResourceNotFound, code)
	case code >= 500:
		return fmt.Errorf("%w: HTTP %d", reconcile.ErrPlatformUnavailable, code)
	default:
		return fmt.Errorf("%w: HTTP %d", reconcile.ErrPlatformRequestFailed, code)
	}
}
