// Package qdrant provides a SecondaryIndex implementation using Qdrant.
//
// The collection is an eventually-consistent replica of ledger contents
// keyed by record id (point UUID == record id), populated by an
// external projection process. Per the SecondaryIndex contract every
// failure mode — empty collection, projection lag, unreachable server —
// surfaces uniformly as a miss.
package qdrant

import (
	"context"
	"fmt"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/auditra/ledgerlog/internal/domain/entities"
	"github.com/auditra/ledgerlog/internal/infrastructure/config"
)

// vectorSize is the dummy vector dimension. The index is used for
// filtered enumeration only, never similarity search, but Qdrant
// collections require a vector config.
const vectorSize = 1

// defaultScrollLimit caps enumeration when the config leaves it unset.
const defaultScrollLimit = 1000

// payload keys; userId/action/resource deliberately match the store's
// logical field names so QueryBy can pass them straight through.
const (
	keyUserID      = "userId"
	keyAction      = "action"
	keyResource    = "resource"
	keyTimestamp   = "timestamp"
	keyDescription = "description"
	keyMetadata    = "metadata"
)

// Repository implements the SecondaryIndex interface using Qdrant.
type Repository struct {
	client      pb.CollectionsClient
	points      pb.PointsClient
	collection  string
	scrollLimit uint32
	conn        *grpc.ClientConn
}

// NewRepository creates a new Qdrant repository.
func NewRepository(cfg config.IndexConfig) (*Repository, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	limit := cfg.ScrollLimit
	if limit <= 0 {
		limit = defaultScrollLimit
	}

	return &Repository{
		client:      pb.NewCollectionsClient(conn),
		points:      pb.NewPointsClient(conn),
		collection:  cfg.Collection,
		scrollLimit: uint32(limit),
		conn:        conn,
	}, nil
}

// Close closes the gRPC connection.
func (r *Repository) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// EnsureCollection creates the collection if it doesn't exist. Used by
// init; the projection process filling the collection stays external.
func (r *Repository) EnsureCollection(ctx context.Context) error {
	_, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err == nil {
		return nil
	}

	_, err = r.client.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	return nil
}

// DeleteCollection removes the collection and all its data.
func (r *Repository) DeleteCollection(ctx context.Context) error {
	_, err := r.client.Delete(ctx, &pb.DeleteCollection{
		CollectionName: r.collection,
	})
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}

// Project upserts records into the collection. It exists for the
// projection process and integration tests, not for the engine's write
// path (ingest never dual-writes).
func (r *Repository) Project(ctx context.Context, records []entities.RawRecord) error {
	points := make([]*pb.PointStruct, 0, len(records))

	for _, rec := range records {
		points = append(points, &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: rec.ID},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: []float32{0}},
				},
			},
			Payload: recordPayload(rec),
		})
	}

	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}
	return nil
}

// QueryAll enumerates every indexed record, or misses.
func (r *Repository) QueryAll(ctx context.Context) []entities.RawRecord {
	return r.scroll(ctx, nil)
}

// QueryByID returns at most one record with the given id, or misses.
func (r *Repository) QueryByID(ctx context.Context, id string) []entities.RawRecord {
	resp, err := r.points.Get(ctx, &pb.GetPoints{
		CollectionName: r.collection,
		Ids: []*pb.PointId{
			{PointIdOptions: &pb.PointId_Uuid{Uuid: id}},
		},
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil
	}
	return pointsToRecords(resp.Result)
}

// QueryBy returns indexed records whose field equals value, or misses.
func (r *Repository) QueryBy(ctx context.Context, field, value string) []entities.RawRecord {
	return r.scroll(ctx, &pb.Filter{
		Must: []*pb.Condition{keywordCondition(field, value)},
	})
}

// QueryByTimeRange returns indexed records with a timestamp in
// [start, end] inclusive, or misses.
func (r *Repository) QueryByTimeRange(ctx context.Context, start, end time.Time) []entities.RawRecord {
	return r.scroll(ctx, &pb.Filter{
		Must: []*pb.Condition{
			{
				ConditionOneOf: &pb.Condition_Field{
					Field: &pb.FieldCondition{
						Key: keyTimestamp,
						DatetimeRange: &pb.DatetimeRange{
							Gte: timestamppb.New(start),
							Lte: timestamppb.New(end),
						},
					},
				},
			},
		},
	})
}

// scroll runs a filtered enumeration, downgrading any failure to a miss.
func (r *Repository) scroll(ctx context.Context, filter *pb.Filter) []entities.RawRecord {
	resp, err := r.points.Scroll(ctx, &pb.ScrollPoints{
		CollectionName: r.collection,
		Limit:          pb.PtrOf(r.scrollLimit),
		Filter:         filter,
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
		WithVectors: &pb.WithVectorsSelector{
			SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: false},
		},
	})
	if err != nil {
		return nil
	}
	return pointsToRecords(resp.Result)
}

func keywordCondition(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

// recordPayload renders a raw record as point payload. Metadata keeps
// its serialized text form; normalization happens on read like
// everywhere else.
func recordPayload(rec entities.RawRecord) map[string]*pb.Value {
	payload := map[string]*pb.Value{
		keyUserID:      {Kind: &pb.Value_StringValue{StringValue: rec.UserID}},
		keyAction:      {Kind: &pb.Value_StringValue{StringValue: rec.Action}},
		keyResource:    {Kind: &pb.Value_StringValue{StringValue: rec.Resource}},
		keyTimestamp:   {Kind: &pb.Value_StringValue{StringValue: rec.Timestamp}},
		keyDescription: {Kind: &pb.Value_StringValue{StringValue: rec.Description}},
	}
	if meta, ok := rec.Metadata.(string); ok && meta != "" {
		payload[keyMetadata] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: meta}}
	}
	return payload
}

// pointsToRecords converts retrieved points to raw records.
func pointsToRecords(points []*pb.RetrievedPoint) []entities.RawRecord {
	records := make([]entities.RawRecord, 0, len(points))
	for _, point := range points {
		records = append(records, pointToRecord(point))
	}
	return records
}

// pointToRecord converts a Qdrant point to a raw record.
func pointToRecord(point *pb.RetrievedPoint) entities.RawRecord {
	payload := point.Payload

	rec := entities.RawRecord{
		ID:          point.Id.GetUuid(),
		UserID:      getStringValue(payload, keyUserID),
		Action:      getStringValue(payload, keyAction),
		Resource:    getStringValue(payload, keyResource),
		Timestamp:   getStringValue(payload, keyTimestamp),
		Description: getStringValue(payload, keyDescription),
	}
	if meta := getStringValue(payload, keyMetadata); meta != "" {
		rec.Metadata = meta
	}
	return rec
}

func getStringValue(payload map[string]*pb.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}
