package ddmetrics

import (
	"context"
	"fmt"
	"net/http"
)

// Healthcheck issues a GET to /api/v1/validate with the DD-API-KEY
// header, returning nil on any 2xx response and an error describing
// the status otherwise (spec.md §4.6). Executed once at startup; a
// failing healthcheck does not by itself prevent the sink from
// operating - that gating decision belongs to the operator-configured
// layer outside this core.
func Healthcheck(ctx context.Context, client *http.Client, apiEndpoint, apiKey string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiEndpoint+"/api/v1/validate", nil)
	if err != nil {
		return err
	}
	req.Header.Set("DD-API-KEY", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ddmetrics: healthcheck failed with status %s", resp.Status)
	}
	return nil
}
