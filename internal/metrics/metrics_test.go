package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSimilarity(t *testing.T) {
	beforeOK := testutil.ToFloat64(SimilarityRequests.WithLabelValues("ok"))
	beforeScanned := testutil.ToFloat64(CandidatesScanned)

	RecordSimilarity("ok", 15*time.Millisecond, 12, 4)

	if got := testutil.ToFloat64(SimilarityRequests.WithLabelValues("ok")) - beforeOK; got != 1 {
		t.Errorf("Expected ok counter +1, got %v", got)
	}
	if got := testutil.ToFloat64(CandidatesScanned) - beforeScanned; got != 12 {
		t.Errorf("Expected 12 candidates scanned, got %v", got)
	}
}

func TestRecordIngest(t *testing.T) {
	beforeOK := testutil.ToFloat64(TracksIngested.WithLabelValues("import"))
	beforeErr := testutil.ToFloat64(IngestErrors.WithLabelValues("import"))

	RecordIngest("import", nil)
	RecordIngest("import", errors.New("bad peaks"))

	if got := testutil.ToFloat64(TracksIngested.WithLabelValues("import")) - beforeOK; got != 1 {
		t.Errorf("Expected ingested +1, got %v", got)
	}
	if got := testutil.ToFloat64(IngestErrors.WithLabelValues("import")) - beforeErr; got != 1 {
		t.Errorf("Expected errors +1, got %v", got)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/similarity", "200"))

	RecordAPIRequest("POST", "/api/similarity", "200", time.Millisecond)

	if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/similarity", "200")) - before; got != 1 {
		t.Errorf("Expected request counter +1, got %v", got)
	}
}

func TestMetricGathering(t *testing.T) {
	RecordSimilarity("empty", time.Millisecond, 0, 0)

	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, p := range problems {
		t.Logf("Metric lint problem %s: %s", p.Metric, p.Text)
	}
}
