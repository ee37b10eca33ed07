package rpchandlers

import (
	"context"
	"errors"

	"github.com/reinferio/saltfish/internal/metadatastore"
	"github.com/reinferio/saltfish/internal/objectstore"
	"github.com/reinferio/saltfish/internal/rpc"
	"github.com/reinferio/saltfish/internal/schema"
)

// CreateDataset implements spec.md §4.1 "CreateDataset".
func (h *Handlers) CreateDataset(ctx context.Context, req rpc.CreateDatasetRequest) rpc.CreateDatasetResponse {
	h.requests.Inc()

	s := toDomainSchema(req.Dataset.Schema)
	if err := schema.Validate(s); err != nil {
		h.errors.Inc()
		switch {
		case errors.Is(err, schema.ErrDuplicateFeatureName):
			return rpc.CreateDatasetResponse{Status: rpc.DUPLICATE_FEATURE_NAME, Msg: err.Error()}
		default:
			return rpc.CreateDatasetResponse{Status: rpc.INVALID_FEATURE_TYPE, Msg: err.Error()}
		}
	}

	datasetID := req.Dataset.ID
	newID := false
	if len(datasetID) == 0 {
		id, err := h.IDs.GenRandomString(datasetIDWidth)
		if err != nil {
			h.errors.Inc()
			return rpc.CreateDatasetResponse{Status: rpc.NETWORK_ERROR, Msg: err.Error()}
		}
		datasetID = id
		newID = true
	} else if len(datasetID) != datasetIDWidth {
		h.errors.Inc()
		return rpc.CreateDatasetResponse{Status: rpc.INVALID_DATASET_ID, Msg: "dataset id has the wrong width"}
	}

	schemaBytes, err := schema.Encode(s)
	if err != nil {
		h.errors.Inc()
		return rpc.CreateDatasetResponse{Status: rpc.UNKNOWN_ERROR, Msg: err.Error()}
	}
	h.Log.Debugf("create_dataset: id=%s new_id=%t schema=%s", base64URL(datasetID), newID, s.String())

	if !newID {
		existing, fetchErr := h.Metadata.FetchSchema(ctx, datasetID)
		switch {
		case fetchErr == nil:
			if schema.Equal(existing, schemaBytes) {
				return rpc.CreateDatasetResponse{Status: rpc.OK, DatasetID: datasetID}
			}
			return rpc.CreateDatasetResponse{Status: rpc.DATASET_ID_ALREADY_EXISTS, Msg: "a different schema is already registered for this id"}
		case isInvalidDatasetID(fetchErr):
			// not found: proceed to create.
		default:
			h.errors.Inc()
			return rpc.CreateDatasetResponse{Status: rpc.NETWORK_ERROR, Msg: fetchErr.Error()}
		}
	}

	d := metadatastore.Dataset{
		ID:      datasetID,
		UserID:  req.Dataset.UserID,
		Schema:  schemaBytes,
		Name:    req.Dataset.Name,
		Private: req.Dataset.Private,
		Frozen:  req.Dataset.Frozen,
	}
	if err := h.Metadata.CreateDataset(ctx, d); err != nil {
		h.errors.Inc()
		status := classifyMetadataErr(err)
		return rpc.CreateDatasetResponse{Status: status, Msg: err.Error()}
	}

	if err := h.Objects.Store(ctx, &objectstore.Object{
		Bucket: h.SchemasBucket,
		Key:    string(datasetID),
		Value:  schemaBytes,
	}); err != nil {
		h.errors.Inc()
		h.Log.Warningf("create_dataset: schema snapshot store failed for %s: %v", base64URL(datasetID), err)
		return rpc.CreateDatasetResponse{Status: rpc.NETWORK_ERROR, Msg: err.Error()}
	}

	return rpc.CreateDatasetResponse{Status: rpc.OK, DatasetID: datasetID}
}
