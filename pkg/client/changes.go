package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/planlens/PlanLens-Compare/pkg/types/change"
	"github.com/planlens/PlanLens-Compare/pkg/types/common"
)

// ChangesClient provides access to change-record endpoints.
type ChangesClient struct {
	client *Client
}

// ListAnalysis reads the AI analysis change summary for a comparison.  An
// empty list means no analysis has run or it found nothing.
func (cc *ChangesClient) ListAnalysis(ctx context.Context, comparisonID common.ID) ([]change.Record, error) {
	var resp APIResponse[[]change.Record]
	path := fmt.Sprintf("/v1/comparisons/%s/analysis/changes", url.PathEscape(string(comparisonID)))
	if err := cc.client.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ListPersisted reads the manually curated change log for a comparison.
func (cc *ChangesClient) ListPersisted(ctx context.Context, comparisonID common.ID) ([]change.Record, error) {
	var resp APIResponse[[]change.Record]
	path := fmt.Sprintf("/v1/comparisons/%s/changes", url.PathEscape(string(comparisonID)))
	if err := cc.client.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Update applies a partial mutation to a change record.
func (cc *ChangesClient) Update(ctx context.Context, changeID common.ID, upd change.Update) (*change.Record, error) {
	var resp APIResponse[change.Record]
	path := fmt.Sprintf("/v1/changes/%s", url.PathEscape(string(changeID)))
	if err := cc.client.patch(ctx, path, upd, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Create stores a manually entered change record.
func (cc *ChangesClient) Create(ctx context.Context, req change.CreateRequest) (*change.Record, error) {
	var resp APIResponse[change.Record]
	if err := cc.client.post(ctx, "/v1/changes", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
