package rpchandlers

import (
	"context"

	"github.com/reinferio/saltfish/internal/metadatastore"
	"github.com/reinferio/saltfish/internal/rpc"
)

// GetDatasets implements spec.md §4.1 "GetDatasets".
func (h *Handlers) GetDatasets(ctx context.Context, req rpc.GetDatasetsRequest) rpc.GetDatasetsResponse {
	h.requests.Inc()

	selectors := 0
	if len(req.DatasetID) > 0 {
		selectors++
	}
	if req.UserID != nil {
		selectors++
	}
	if req.Username != nil {
		selectors++
	}
	if selectors != 1 {
		h.errors.Inc()
		return rpc.GetDatasetsResponse{Status: rpc.INVALID_REQUEST, Msg: "exactly one of dataset_id, user_id, username must be set"}
	}

	switch {
	case len(req.DatasetID) > 0:
		d, err := h.Metadata.GetDatasetByID(ctx, req.DatasetID)
		if err != nil {
			h.errors.Inc()
			return rpc.GetDatasetsResponse{Status: classifyMetadataErr(err), Msg: err.Error()}
		}
		out, err := toDatasetOutput(*d)
		if err != nil {
			h.errors.Inc()
			return rpc.GetDatasetsResponse{Status: rpc.INVALID_SCHEMA, Msg: err.Error()}
		}
		return rpc.GetDatasetsResponse{Status: rpc.OK, Datasets: []rpc.DatasetOutput{out}}

	case req.UserID != nil:
		details, err := h.Metadata.GetDatasetsByUser(ctx, *req.UserID)
		if err != nil {
			h.errors.Inc()
			return rpc.GetDatasetsResponse{Status: classifyMetadataErr(err), Msg: err.Error()}
		}
		return h.toDatasetsResponse(details)

	default:
		details, err := h.Metadata.GetDatasetsByUsername(ctx, *req.Username)
		if err != nil {
			h.errors.Inc()
			return rpc.GetDatasetsResponse{Status: classifyMetadataErr(err), Msg: err.Error()}
		}
		return h.toDatasetsResponse(details)
	}
}

func (h *Handlers) toDatasetsResponse(details []metadatastore.DatasetDetail) rpc.GetDatasetsResponse {
	out := make([]rpc.DatasetOutput, 0, len(details))
	for _, d := range details {
		o, err := toDatasetOutput(d)
		if err != nil {
			h.errors.Inc()
			return rpc.GetDatasetsResponse{Status: rpc.INVALID_SCHEMA, Msg: err.Error()}
		}
		out = append(out, o)
	}
	return rpc.GetDatasetsResponse{Status: rpc.OK, Datasets: out}
}
