package client

import (
	"context"

	"github.com/planlens/PlanLens-Compare/pkg/types/comparison"
)

// DrawingsClient provides access to drawing ingestion endpoints.
type DrawingsClient struct {
	client *Client
}

// ingestRequest is the wire payload for starting an ingestion job.
type ingestRequest struct {
	DrawingRef string `json:"drawing_ref"`
}

// StartIngestion starts a sheet-extraction job for an uploaded drawing.
func (dc *DrawingsClient) StartIngestion(ctx context.Context, drawingRef string) (*comparison.SubmitResponse, error) {
	var resp APIResponse[comparison.SubmitResponse]
	if err := dc.client.post(ctx, "/v1/drawings/ingest", ingestRequest{DrawingRef: drawingRef}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
