package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCallback(t *testing.T) {
	before := testutil.ToFloat64(CallbacksTotal.WithLabelValues("credited"))
	RecordCallback("credited")
	after := testutil.ToFloat64(CallbacksTotal.WithLabelValues("credited"))
	assert.Equal(t, before+1, after)
}

func TestRecordRewardCredited(t *testing.T) {
	before := testutil.ToFloat64(RewardsCreditedTotal.WithLabelValues("token"))
	RecordRewardCredited("token")
	after := testutil.ToFloat64(RewardsCreditedTotal.WithLabelValues("token"))
	assert.Equal(t, before+1, after)
}

func TestRecordRateLimited(t *testing.T) {
	before := testutil.ToFloat64(RateLimitedTotal)
	RecordRateLimited()
	after := testutil.ToFloat64(RateLimitedTotal)
	assert.Equal(t, before+1, after)
}
