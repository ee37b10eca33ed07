package rpchandlers

import (
	"context"

	"github.com/reinferio/saltfish/internal/rpc"
)

// GenerateId implements spec.md §4.1 "GenerateId".
func (h *Handlers) GenerateId(_ context.Context, req rpc.GenerateIdRequest) rpc.GenerateIdResponse {
	h.requests.Inc()

	if req.Count >= h.MaxGenerateIDCount {
		h.errors.Inc()
		return rpc.GenerateIdResponse{Status: rpc.COUNT_TOO_LARGE, Msg: "count exceeds max_generate_id_count"}
	}

	ids := make([][]byte, req.Count)
	for i := range ids {
		id, err := h.IDs.GenRandomString(datasetIDWidth)
		if err != nil {
			h.errors.Inc()
			return rpc.GenerateIdResponse{Status: rpc.UNKNOWN_ERROR, Msg: err.Error()}
		}
		ids[i] = id
	}
	return rpc.GenerateIdResponse{Status: rpc.OK, IDs: ids}
}
