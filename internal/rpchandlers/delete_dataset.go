package rpchandlers

import (
	"context"

	"github.com/reinferio/saltfish/internal/listenerbus"
	"github.com/reinferio/saltfish/internal/rpc"
)

// DeleteDataset implements spec.md §4.1 "DeleteDataset". Tombstoning is
// idempotent: a second call against an already-deleted id returns
// OK/updated=false rather than an error.
func (h *Handlers) DeleteDataset(ctx context.Context, req rpc.DeleteDatasetRequest) rpc.DeleteDatasetResponse {
	h.requests.Inc()

	if len(req.DatasetID) != datasetIDWidth {
		h.errors.Inc()
		return rpc.DeleteDatasetResponse{Status: rpc.INVALID_DATASET_ID, Msg: "dataset id has the wrong width"}
	}

	rowsUpdated, err := h.Metadata.DeleteDataset(ctx, req.DatasetID)
	if err != nil {
		h.errors.Inc()
		return rpc.DeleteDatasetResponse{Status: classifyMetadataErr(err), Msg: err.Error()}
	}

	if rowsUpdated == 0 {
		return rpc.DeleteDatasetResponse{Status: rpc.OK, Updated: false}
	}

	h.Listeners.Publish(listenerbus.DELETE_DATASET, req.DatasetID)
	return rpc.DeleteDatasetResponse{Status: rpc.OK, Updated: true}
}
