// Package summarizer implements the optional listener of spec.md §4.9:
// per-dataset streaming moments and categorical histograms, rebuilt
// from the last persisted snapshot on first touch and persisted again
// after every batch. Grounded on original_source/src/record_summarizer.cpp
// (SummarizerMap::push_request/load_summarizer/save_summarizer), with
// the fetch-compute-store sequence serialized onto a single worker via
// internal/serializer (spec.md §5 "Summarizer map: owned exclusively by
// the Summarizer's listener thread").
package summarizer

import (
	"context"
	"errors"

	"github.com/reinferio/saltfish/internal/listenerbus"
	"github.com/reinferio/saltfish/internal/logging"
	"github.com/reinferio/saltfish/internal/objectstore"
	"github.com/reinferio/saltfish/internal/rpc"
	"github.com/reinferio/saltfish/internal/schema"
	"github.com/reinferio/saltfish/internal/serializer"
)

type pushRequest struct {
	ctx       context.Context
	datasetID []byte
	records   []schema.Record
}

// Map owns one RecordSummarizer per dataset id, exclusively accessed by
// its Tasklet worker (spec.md §4.9/§5), fed by ListenerBus.PUT_RECORDS
// publications.
type Map struct {
	objects           objectstore.Store
	schemasBucket     string
	summarizersBucket string
	log               *logging.Logger

	tasklet *serializer.Tasklet[pushRequest, error]
}

// New constructs a Map. Call Subscribe to start receiving published
// PUT_RECORDS requests.
func New(objects objectstore.Store, schemasBucket, summarizersBucket string, log *logging.Logger) *Map {
	m := &Map{objects: objects, schemasBucket: schemasBucket, summarizersBucket: summarizersBucket, log: log}
	m.tasklet = serializer.New(
		func() map[string]*RecordSummarizer { return map[string]*RecordSummarizer{} },
		m.handle,
		func(map[string]*RecordSummarizer) {},
	)
	return m
}

// Subscribe registers the Map as a PUT_RECORDS listener on bus
// (spec.md §4.9 "Subscribes to PUT_RECORDS").
func (m *Map) Subscribe(bus *listenerbus.Bus) {
	bus.Register(listenerbus.PUT_RECORDS, m.onPublish)
}

func (m *Map) onPublish(kind listenerbus.RequestKind, payload []byte) {
	if kind != listenerbus.PUT_RECORDS {
		return
	}
	req, err := rpc.DecodePutRecords(payload)
	if err != nil {
		m.log.Warningf("summarizer: could not decode published request: %v", err)
		return
	}
	records := make([]schema.Record, len(req.Records))
	for i, tr := range req.Records {
		records[i] = schema.Record{Numericals: tr.Record.Numericals, Categoricals: tr.Record.Categoricals, Texts: tr.Record.Texts}
	}
	if err := m.Push(context.Background(), req.DatasetID, records); err != nil {
		// not a transactional consumer: log and drop (spec.md §4.9,
		// "if the persist fails, the request is dropped after logging").
		m.log.Warningf("summarizer: push failed for dataset=%x: %v", req.DatasetID, err)
	}
}

// Push folds records into the in-memory summarizer for datasetID and
// persists the updated snapshot, blocking until the single worker
// thread has processed the request (spec.md §4.9 steps 1-4).
func (m *Map) Push(ctx context.Context, datasetID []byte, records []schema.Record) error {
	conn := m.tasklet.Connect()
	handleErr, callErr := conn.Call(ctx, pushRequest{ctx: ctx, datasetID: datasetID, records: records})
	if callErr != nil {
		return callErr
	}
	return handleErr
}

// Stop shuts down the worker goroutine.
func (m *Map) Stop() {
	m.tasklet.Stop()
}

func (m *Map) handle(owned map[string]*RecordSummarizer, req pushRequest) error {
	rs, ok := owned[string(req.datasetID)]
	if !ok {
		loaded, err := m.loadOrInit(req.ctx, req.datasetID)
		if err != nil {
			return err
		}
		rs = loaded
		owned[string(req.datasetID)] = rs
	}

	for _, r := range req.records {
		if err := rs.PushRecord(r); err != nil {
			return err
		}
	}

	return m.save(req.ctx, req.datasetID, rs)
}

// loadOrInit loads a prior snapshot from (summarizersBucket, datasetID);
// if absent, fetches the schema from schemasBucket and starts fresh
// (spec.md §4.9 step 2).
func (m *Map) loadOrInit(ctx context.Context, datasetID []byte) (*RecordSummarizer, error) {
	obj, err := m.objects.Fetch(ctx, m.summarizersBucket, string(datasetID))
	if err == nil {
		return DecodeRecordSummarizer(obj.Value)
	}
	if !errors.Is(err, objectstore.ErrNotFound) {
		return nil, err
	}

	schemaObj, err := m.objects.Fetch(ctx, m.schemasBucket, string(datasetID))
	if err != nil {
		return nil, err
	}
	s, err := schema.Decode(schemaObj.Value)
	if err != nil {
		return nil, err
	}
	return NewRecordSummarizer(s), nil
}

func (m *Map) save(ctx context.Context, datasetID []byte, rs *RecordSummarizer) error {
	encoded, err := rs.Encode()
	if err != nil {
		return err
	}
	return m.objects.Store(ctx, &objectstore.Object{
		Bucket: m.summarizersBucket,
		Key:    string(datasetID),
		Value:  encoded,
	})
}
