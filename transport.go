package rollgate

import (
	"bytes"
	"context"
	"net/http"
)

// evalReportMethod is the method used to submit the user as a request
// body instead of a base64 path segment, per config's use-report option.
const evalReportMethod = "REPORT"

// buildEvalRequest constructs the GET-with-embedded-user or
// REPORT-with-body request used by both the polling worker and the
// streaming worker's ping fetch, which must issue identical requests.
func buildEvalRequest(ctx context.Context, cfg Config, user *User) (*http.Request, error) {
	if cfg.UseReport {
		body, err := EncodeForBody(user, cfg)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, evalReportMethod, cfg.AppURI+"/msdk/eval/user", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", cfg.MobileKey)
		return req, nil
	}

	encoded, err := EncodeForURL(user, cfg)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.AppURI+"/msdk/eval/users/"+encoded, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", cfg.MobileKey)
	return req, nil
}
