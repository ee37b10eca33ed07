package rpchandlers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/reinferio/saltfish/internal/listenerbus"
	"github.com/reinferio/saltfish/internal/objectstore"
	"github.com/reinferio/saltfish/internal/replysync"
	"github.com/reinferio/saltfish/internal/rpc"
	"github.com/reinferio/saltfish/internal/schema"
)

// PutRecords implements spec.md §4.1 "PutRecords", the hardest
// handler: schema fetch, per-record validation, id assignment, and a
// scatter/gather over ObjectStore fetch-then-store calls folded into a
// ReplySync barrier, generalizing the nested-callback original
// (service.cpp's put_records) into goroutines + channels (spec.md §9).
func (h *Handlers) PutRecords(ctx context.Context, req rpc.PutRecordsRequest) rpc.PutRecordsResponse {
	h.requests.Inc()

	if len(req.DatasetID) != datasetIDWidth {
		h.errors.Inc()
		return rpc.PutRecordsResponse{Status: rpc.INVALID_DATASET_ID, Msg: "dataset id has the wrong width"}
	}
	if len(req.Records) == 0 {
		h.errors.Inc()
		return rpc.PutRecordsResponse{Status: rpc.NO_RECORDS_IN_REQUEST, Msg: "records list is empty"}
	}

	schemaBytes, err := h.Metadata.FetchSchema(ctx, req.DatasetID)
	if err != nil {
		h.errors.Inc()
		if isInvalidDatasetID(err) {
			return rpc.PutRecordsResponse{Status: rpc.INVALID_DATASET_ID, Msg: err.Error()}
		}
		return rpc.PutRecordsResponse{Status: classifyMetadataErr(err), Msg: err.Error()}
	}
	s, err := schema.Decode(schemaBytes)
	if err != nil {
		h.errors.Inc()
		return rpc.PutRecordsResponse{Status: rpc.INVALID_SCHEMA, Msg: err.Error()}
	}

	for i, tr := range req.Records {
		if err := schema.ValidateRecord(s, toDomainRecord(tr.Record)); err != nil {
			h.errors.Inc()
			return rpc.PutRecordsResponse{Status: rpc.INVALID_RECORD, Msg: fmt.Sprintf("At position %d: %v", i, err)}
		}
	}

	recordIDs := make([][]byte, len(req.Records))
	for i, tr := range req.Records {
		switch len(tr.RecordID) {
		case 0:
			id, err := h.IDs.GenRandomString(recordIDWidth)
			if err != nil {
				h.errors.Inc()
				return rpc.PutRecordsResponse{Status: rpc.UNKNOWN_ERROR, Msg: err.Error()}
			}
			recordIDs[i] = id
		case recordIDWidth:
			recordIDs[i] = tr.RecordID
		default:
			h.errors.Inc()
			return rpc.PutRecordsResponse{Status: rpc.INVALID_RECORD, Msg: fmt.Sprintf("At position %d: record id has the wrong width", i)}
		}
	}

	bucket := recordsBucket(h.RecordsBucketPrefix, req.DatasetID)
	type outcome struct {
		err error
	}
	results := make(chan outcome, len(req.Records))

	done := make(chan rpc.Status, 1)
	sync := replysync.New(uint32(len(req.Records)), func() { done <- rpc.OK })

	for i, tr := range req.Records {
		go func(i int, tr rpc.TaggedRecordInput) {
			source := tr.Source
			if source == "" {
				source = req.Source
			}
			err := h.putOneRecord(ctx, bucket, recordIDs[i], tr.Record, source)
			if err != nil {
				sync.Error(func() { done <- rpc.NETWORK_ERROR })
			} else {
				sync.Ok()
			}
			results <- outcome{err: err}
		}(i, tr)
	}

	var firstErr error
	for range req.Records {
		if o := <-results; o.err != nil && firstErr == nil {
			firstErr = o.err
		}
	}

	status := <-done
	if status != rpc.OK {
		h.errors.Inc()
		msg := "put_records: one or more record writes failed"
		if firstErr != nil {
			msg = firstErr.Error()
		}
		return rpc.PutRecordsResponse{Status: status, Msg: msg}
	}

	for i := range req.Records {
		req.Records[i].RecordID = recordIDs[i]
	}
	if payload, err := rpc.EncodePutRecords(req); err != nil {
		h.Log.Warningf("put_records: could not encode request for publish: %v", err)
	} else {
		h.Listeners.Publish(listenerbus.PUT_RECORDS, payload)
	}
	return rpc.PutRecordsResponse{Status: rpc.OK, RecordIDs: recordIDs}
}

// putOneRecord performs the fetch-then-store dance of spec.md §4.1
// step 5 for a single record.
func (h *Handlers) putOneRecord(ctx context.Context, bucket string, recordID []byte, rec rpc.RecordInput, source string) error {
	if _, err := h.Objects.Fetch(ctx, bucket, string(recordID)); err != nil && err != objectstore.ErrNotFound {
		h.Log.Warningf("put_records: fetch %s/%x failed: %v", bucket, recordID, err)
		return err
	}

	value, err := schema.EncodeRecord(toDomainRecord(rec))
	if err != nil {
		return err
	}

	indexes := map[string]string{
		"timestamp_int":   strconv.FormatInt(time.Now().UnixMicro(), 10),
		"sequence_int":    strconv.FormatInt(h.IDs.MonotonicTick(), 10),
		"randomindex_int": "",
	}
	randIdx, err := h.IDs.GenRandomIndex(h.MaxRandomIndex)
	if err != nil {
		return err
	}
	indexes["randomindex_int"] = strconv.FormatInt(randIdx, 10)
	if source != "" {
		indexes["source_bin"] = source
	}

	if err := h.Objects.Store(ctx, &objectstore.Object{
		Bucket:  bucket,
		Key:     string(recordID),
		Value:   value,
		Indexes: indexes,
	}); err != nil {
		h.Log.Warningf("put_records: store %s/%x failed: %v", bucket, recordID, err)
		return err
	}
	return nil
}
