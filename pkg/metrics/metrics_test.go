package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorRecords(t *testing.T) {
	c := NewCollector("bloomwatch", prometheus.NewRegistry())

	c.RecordHTTPRequest("/bloomwatch/regions", "GET", "200", 20*time.Millisecond)
	c.RecordUpstream("power", nil, time.Second)
	c.RecordUpstream("power", errors.New("timeout"), time.Second)
	c.RecordCache("climate", true)
	c.RecordCache("climate", false)
	c.RecordCache("climate", false)
	c.RecordPrediction("success")
	c.RecordJob("DONE")
	c.ObserveBatch("dashboard", 3)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequestsTotal.WithLabelValues("/bloomwatch/regions", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.UpstreamRequestsTotal.WithLabelValues("power", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.CacheRequestsTotal.WithLabelValues("climate", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.PredictionsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.JobsTotal.WithLabelValues("DONE")))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordHTTPRequest("/", "GET", "200", time.Millisecond)
		c.RecordUpstream("llm", nil, time.Millisecond)
		c.RecordCache("ndvi", true)
		c.RecordPrediction("error")
		c.ObserveBatch("predictions", 2)
		c.RecordJob("FAILED")
	})
}

func TestTimerObserves(t *testing.T) {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "t"})
	d := NewTimer(h).ObserveDuration()
	assert.GreaterOrEqual(t, d, time.Duration(0))
	assert.Equal(t, 1, testutil.CollectAndCount(h))
}
