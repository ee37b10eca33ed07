// Package rpchandlers implements the five RPC state machines of
// spec.md §4.1: CreateDataset, DeleteDataset, GenerateId, GetDatasets,
// PutRecords. Each handler is request-scoped and stateless: one
// adapter struct, one method per operation, translating store errors
// into the wire Status taxonomy.
package rpchandlers

import (
	"context"

	"github.com/reinferio/saltfish/internal/config"
	"github.com/reinferio/saltfish/internal/listenerbus"
	"github.com/reinferio/saltfish/internal/logging"
	"github.com/reinferio/saltfish/internal/metadatastore"
	"github.com/reinferio/saltfish/internal/objectstore"

	"github.com/VictoriaMetrics/metrics"
)

// datasetIDWidth and recordIDWidth are the fixed widths of spec.md §3/§6
// ("W=24 bytes", "width 8").
const (
	datasetIDWidth = 24
	recordIDWidth  = 8
)

// MetadataStore is the subset of internal/metadatastore.Store consumed
// by the handlers, named so tests can substitute a fake without a live
// database.
type MetadataStore interface {
	FetchSchema(ctx context.Context, id []byte) ([]byte, error)
	CreateDataset(ctx context.Context, d metadatastore.Dataset) error
	DeleteDataset(ctx context.Context, id []byte) (rowsUpdated int64, err error)
	GetDatasetByID(ctx context.Context, id []byte) (*metadatastore.DatasetDetail, error)
	GetDatasetsByUser(ctx context.Context, userID int64) ([]metadatastore.DatasetDetail, error)
	GetDatasetsByUsername(ctx context.Context, username string) ([]metadatastore.DatasetDetail, error)
}

// IdGen is the subset of internal/idgen consumed by the handlers,
// wrapped behind an interface (idgen.Generator is the production
// implementation) so tests can inject deterministic ids.
type IdGen interface {
	GenRandomString(width uint32) ([]byte, error)
	MonotonicTick() int64
	GenRandomIndex(modulus int64) (int64, error)
}

// ListenerBus is the subset of internal/listenerbus.Bus consumed by the
// handlers.
type ListenerBus interface {
	Publish(kind listenerbus.RequestKind, payload []byte)
}

// Handlers holds the dependencies shared by all five RPC state
// machines. It carries no per-request state.
type Handlers struct {
	Metadata  MetadataStore
	Objects   objectstore.Store
	IDs       IdGen
	Listeners ListenerBus
	Log       *logging.Logger

	RecordsBucketPrefix string
	SchemasBucket       string
	MaxGenerateIDCount  uint32
	MaxRandomIndex      int64

	requests *metrics.Counter
	errors   *metrics.Counter
}

// New constructs a Handlers from its dependencies and the parts of cfg
// the handlers need (spec.md §6 "Configuration").
func New(cfg config.ServerConfig, metadata MetadataStore, objects objectstore.Store, ids IdGen, listeners ListenerBus, log *logging.Logger) *Handlers {
	return &Handlers{
		Metadata:            metadata,
		Objects:             objects,
		IDs:                 ids,
		Listeners:           listeners,
		Log:                 log,
		RecordsBucketPrefix: cfg.RecordsBucketPrefix,
		SchemasBucket:       cfg.SchemasBucket,
		MaxGenerateIDCount:  cfg.MaxGenerateIDCount,
		MaxRandomIndex:      cfg.MaxRandomIndex,
		requests:            metrics.GetOrCreateCounter("saltfish_rpc_requests_total"),
		errors:              metrics.GetOrCreateCounter("saltfish_rpc_errors_total"),
	}
}

// recordsBucket returns the per-dataset records bucket name of spec.md
// §6 ("records_prefix ∥ base64url(dataset_id)").
func recordsBucket(prefix string, datasetID []byte) string {
	return prefix + base64URL(datasetID)
}
