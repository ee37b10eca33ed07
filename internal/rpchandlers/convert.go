package rpchandlers

import (
	"github.com/reinferio/saltfish/internal/metadatastore"
	"github.com/reinferio/saltfish/internal/rpc"
	"github.com/reinferio/saltfish/internal/schema"
)

func toDomainSchema(s rpc.SchemaInput) schema.Schema {
	features := make([]schema.Feature, len(s.Features))
	for i, f := range s.Features {
		features[i] = schema.Feature{Name: f.Name, Type: schema.FeatureType(f.Type)}
	}
	return schema.Schema{Features: features}
}

func toWireSchema(s schema.Schema) rpc.SchemaInput {
	features := make([]rpc.FeatureInput, len(s.Features))
	for i, f := range s.Features {
		features[i] = rpc.FeatureInput{Name: f.Name, Type: int(f.Type)}
	}
	return rpc.SchemaInput{Features: features}
}

func toDomainRecord(r rpc.RecordInput) schema.Record {
	return schema.Record{Numericals: r.Numericals, Categoricals: r.Categoricals, Texts: r.Texts}
}

func toDatasetOutput(d metadatastore.DatasetDetail) (rpc.DatasetOutput, error) {
	s, err := schema.Decode(d.Schema)
	if err != nil {
		return rpc.DatasetOutput{}, err
	}
	return rpc.DatasetOutput{
		ID:       d.ID,
		UserID:   d.UserID,
		Schema:   toWireSchema(s),
		Name:     d.Name,
		Private:  d.Private,
		Frozen:   d.Frozen,
		Username: d.Username,
		Email:    d.Email,
	}, nil
}
