package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCacheWrite(t *testing.T) {
	before := testutil.ToFloat64(CacheWrites.WithLabelValues("insert", "error"))
	RecordCacheWrite("insert", errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(CacheWrites.WithLabelValues("insert", "error")))
}

func TestRecordGeneration(t *testing.T) {
	before := testutil.ToFloat64(Generations.WithLabelValues("salvaged"))
	RecordGeneration("salvaged", 2*time.Second)
	assert.Equal(t, before+1, testutil.ToFloat64(Generations.WithLabelValues("salvaged")))
}

func TestRecordLockWait(t *testing.T) {
	before := testutil.ToFloat64(LockWaits.WithLabelValues("timeout"))
	RecordLockWait(false)
	assert.Equal(t, before+1, testutil.ToFloat64(LockWaits.WithLabelValues("timeout")))
}
