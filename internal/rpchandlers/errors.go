package rpchandlers

import (
	"encoding/base64"
	"errors"

	"github.com/reinferio/saltfish/internal/metadatastore"
	"github.com/reinferio/saltfish/internal/rpc"
)

// base64URL renders b the way spec.md §6 displays identifiers.
func base64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// classifyMetadataErr maps a MetadataStore error to the RPC status
// taxonomy of spec.md §7's MetadataStore rows. A nil or unrecognized
// error becomes NETWORK_ERROR, never rethrown past the handler
// (spec.md §7 "Propagation policy").
func classifyMetadataErr(err error) rpc.Status {
	var me *metadatastore.Error
	if !errors.As(err, &me) {
		return rpc.NETWORK_ERROR
	}
	switch me.Kind {
	case metadatastore.InvalidDatasetID:
		return rpc.INVALID_DATASET_ID
	case metadatastore.InvalidUserID:
		return rpc.INVALID_USER_ID
	case metadatastore.InvalidUsername:
		return rpc.INVALID_USERNAME
	case metadatastore.DuplicateDatasetName:
		return rpc.DUPLICATE_DATASET_NAME
	default:
		return rpc.NETWORK_ERROR
	}
}

func isInvalidDatasetID(err error) bool {
	var me *metadatastore.Error
	return errors.As(err, &me) && me.Kind == metadatastore.InvalidDatasetID
}
