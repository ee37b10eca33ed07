package summarizer

import (
	"context"
	"testing"
	"time"

	"github.com/reinferio/saltfish/internal/listenerbus"
	"github.com/reinferio/saltfish/internal/logging"
	"github.com/reinferio/saltfish/internal/objectstore"
	"github.com/reinferio/saltfish/internal/rpc"
	"github.com/reinferio/saltfish/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSchema(t *testing.T, objects objectstore.Store, datasetID []byte) {
	t.Helper()
	b, err := schema.Encode(irisSchema())
	require.NoError(t, err)
	require.NoError(t, objects.Store(context.Background(), &objectstore.Object{
		Bucket: "schemas", Key: string(datasetID), Value: b,
	}))
}

func TestMapPushInitializesFromSchemaThenPersistsSnapshot(t *testing.T) {
	objects := objectstore.NewMemoryStore()
	datasetID := []byte("dataset-one-------------")
	seedSchema(t, objects, datasetID)

	m := New(objects, "schemas", "summarizers", logging.New("test"))
	defer m.Stop()

	err := m.Push(context.Background(), datasetID, []schema.Record{
		{Numericals: []float64{1.0}, Categoricals: []string{"x"}},
		{Numericals: []float64{3.0}, Categoricals: []string{"y"}},
	})
	require.NoError(t, err)

	snapshot := objects.Objects("summarizers")
	require.Contains(t, snapshot, string(datasetID))

	rs, err := DecodeRecordSummarizer(snapshot[string(datasetID)].Value)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, rs.Numerical[0].MeanValue(), 1e-9)
	assert.Equal(t, uint64(1), rs.Categorical[0].ValueCounts["x"])
}

func TestMapPushAccumulatesAcrossCalls(t *testing.T) {
	objects := objectstore.NewMemoryStore()
	datasetID := []byte("dataset-two-------------")
	seedSchema(t, objects, datasetID)

	m := New(objects, "schemas", "summarizers", logging.New("test"))
	defer m.Stop()

	require.NoError(t, m.Push(context.Background(), datasetID, []schema.Record{
		{Numericals: []float64{1.0}, Categoricals: []string{"x"}},
	}))
	require.NoError(t, m.Push(context.Background(), datasetID, []schema.Record{
		{Numericals: []float64{5.0}, Categoricals: []string{"x"}},
	}))

	snapshot := objects.Objects("summarizers")
	rs, err := DecodeRecordSummarizer(snapshot[string(datasetID)].Value)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), rs.Categorical[0].ValueCounts["x"])
	assert.InDelta(t, 3.0, rs.Numerical[0].MeanValue(), 1e-9)
}

func TestMapSubscribeConsumesPublishedPutRecords(t *testing.T) {
	objects := objectstore.NewMemoryStore()
	datasetID := []byte("dataset-three-----------")
	seedSchema(t, objects, datasetID)

	m := New(objects, "schemas", "summarizers", logging.New("test"))
	defer m.Stop()

	bus := listenerbus.New()
	m.Subscribe(bus)
	bus.Run()

	req := rpc.PutRecordsRequest{
		DatasetID: datasetID,
		Records: []rpc.TaggedRecordInput{
			{Record: rpc.RecordInput{Numericals: []float64{1.0}, Categoricals: []string{"x"}}},
		},
	}
	payload, err := rpc.EncodePutRecords(req)
	require.NoError(t, err)
	bus.Publish(listenerbus.PUT_RECORDS, payload)

	deadline := time.After(2 * time.Second)
	for {
		if _, ok := objects.Objects("summarizers")[string(datasetID)]; ok {
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for summarizer snapshot")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
