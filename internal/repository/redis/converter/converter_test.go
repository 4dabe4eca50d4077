package converter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobWireFormat(t *testing.T) {
	conv := NewJobConverterImpl()
	job := &domain.Job{
		ID:         "0b1c",
		Type:       domain.JobDailyPurchaseReport,
		Queue:      domain.QueueReports,
		Payload:    json.RawMessage(`{"date":"2024-01-01"}`),
		Attempt:    2,
		EnqueuedAt: time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(conv.ToRedisModel(job))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "0b1c",
		"type": "daily_purchase_report",
		"queue": "reports",
		"payload": {"date": "2024-01-01"},
		"attempt": 2,
		"enqueued_at": "2024-01-02T08:00:00Z"
	}`, string(data))

	var model JobRedisModel
	require.NoError(t, json.Unmarshal(data, &model))
	assert.Equal(t, job, conv.ToEntity(&model))
}
