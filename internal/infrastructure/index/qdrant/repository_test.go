package qdrant

import (
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditra/ledgerlog/internal/domain/entities"
)

func TestRecordPayloadRoundTrip(t *testing.T) {
	rec := entities.RawRecord{
		ID:          "6f1c24ab-9d55-4c3e-8f5e-0a9b1c2d3e4f",
		UserID:      "alice",
		Action:      "LOGIN",
		Resource:    "/login",
		Timestamp:   "2024-03-01T10:00:00Z",
		Description: "logged in",
		Metadata:    `{"ip":"10.0.0.1"}`,
	}

	point := &pb.RetrievedPoint{
		Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: rec.ID}},
		Payload: recordPayload(rec),
	}

	got := pointToRecord(point)
	assert.Equal(t, rec, got)
}

func TestRecordPayload_AbsentMetadataStaysAbsent(t *testing.T) {
	rec := entities.RawRecord{
		ID:        "6f1c24ab-9d55-4c3e-8f5e-0a9b1c2d3e4f",
		UserID:    "alice",
		Action:    "VISIT",
		Resource:  "/home",
		Timestamp: "2024-03-01T10:00:00Z",
	}

	payload := recordPayload(rec)
	_, hasMeta := payload[keyMetadata]
	assert.False(t, hasMeta)

	point := &pb.RetrievedPoint{
		Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: rec.ID}},
		Payload: payload,
	}
	assert.Nil(t, pointToRecord(point).Metadata)
}

func TestKeywordCondition(t *testing.T) {
	cond := keywordCondition("action", "LOGIN")

	field := cond.GetField()
	require.NotNil(t, field)
	assert.Equal(t, "action", field.Key)
	assert.Equal(t, "LOGIN", field.Match.GetKeyword())
}
