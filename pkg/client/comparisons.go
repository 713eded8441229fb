package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/planlens/PlanLens-Compare/pkg/types/common"
	"github.com/planlens/PlanLens-Compare/pkg/types/comparison"
)

// ComparisonsClient provides access to comparison and job endpoints.
type ComparisonsClient struct {
	client *Client
}

// Submit starts a comparison-generation job between two drawing regions.
func (cc *ComparisonsClient) Submit(ctx context.Context, req comparison.SubmitRequest) (*comparison.SubmitResponse, error) {
	var resp APIResponse[comparison.SubmitResponse]
	if err := cc.client.post(ctx, "/v1/comparisons", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// GetJobStatus reads the raw status of an asynchronous job.
func (cc *ComparisonsClient) GetJobStatus(ctx context.Context, jobID common.ID) (*comparison.JobStatusResponse, error) {
	var resp APIResponse[comparison.JobStatusResponse]
	path := fmt.Sprintf("/v1/jobs/%s", url.PathEscape(string(jobID)))
	if err := cc.client.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Get reads a comparison entity.
func (cc *ComparisonsClient) Get(ctx context.Context, id common.ID) (*comparison.Comparison, error) {
	var resp APIResponse[comparison.Comparison]
	path := fmt.Sprintf("/v1/comparisons/%s", url.PathEscape(string(id)))
	if err := cc.client.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// SubmitAlignment sends operator point picks for a comparison.  The service
// re-derives the transform, confirms it, and re-renders the overlay.
func (cc *ComparisonsClient) SubmitAlignment(ctx context.Context, sub comparison.AlignmentSubmission) (*comparison.AlignmentConfirmation, error) {
	var resp APIResponse[comparison.AlignmentConfirmation]
	path := fmt.Sprintf("/v1/comparisons/%s/alignment", url.PathEscape(string(sub.ComparisonID)))
	if err := cc.client.post(ctx, path, sub, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// StartAnalysis starts an AI change-detection job for a completed comparison.
func (cc *ComparisonsClient) StartAnalysis(ctx context.Context, comparisonID common.ID) (*comparison.SubmitResponse, error) {
	var resp APIResponse[comparison.SubmitResponse]
	path := fmt.Sprintf("/v1/comparisons/%s/analysis", url.PathEscape(string(comparisonID)))
	if err := cc.client.post(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
