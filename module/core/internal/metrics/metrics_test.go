package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordValidation(t *testing.T) {
	outcomes := []string{OutcomeMatch, OutcomeEmpty, OutcomeUnvalidated, OutcomeError}
	for _, o := range outcomes {
		before := testutil.ToFloat64(Validations.WithLabelValues(o))
		RecordValidation(o)
		if got := testutil.ToFloat64(Validations.WithLabelValues(o)); got != before+1 {
			t.Errorf("%s: expected %v, got %v", o, before+1, got)
		}
	}
}

func TestRecordIngested(t *testing.T) {
	tests := []struct {
		name   string
		source string
		n      int
		delta  float64
	}{
		{"http batch", SourceHTTP, 3, 3},
		{"mqtt single", SourceMQTT, 1, 1},
		{"tcp zero", SourceTCP, 0, 0},
		{"negative ignored", SourceTCP, -2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(RecordsIngested.WithLabelValues(tt.source))
			RecordIngested(tt.source, tt.n)
			after := testutil.ToFloat64(RecordsIngested.WithLabelValues(tt.source))
			if after-before != tt.delta {
				t.Errorf("expected delta %v, got %v", tt.delta, after-before)
			}
		})
	}
}

func TestRecordPlaceOperation(t *testing.T) {
	okBefore := testutil.ToFloat64(PlaceOperations.WithLabelValues("create", "ok"))
	errBefore := testutil.ToFloat64(PlaceOperations.WithLabelValues("create", "error"))

	RecordPlaceOperation("create", nil)
	RecordPlaceOperation("create", errors.New("boom"))

	if got := testutil.ToFloat64(PlaceOperations.WithLabelValues("create", "ok")); got != okBefore+1 {
		t.Errorf("ok: expected %v, got %v", okBefore+1, got)
	}
	if got := testutil.ToFloat64(PlaceOperations.WithLabelValues("create", "error")); got != errBefore+1 {
		t.Errorf("error: expected %v, got %v", errBefore+1, got)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	// Should not panic for unmatched routes.
	RecordHTTPRequest("GET", "", 404, time.Millisecond)
	RecordHTTPRequest("POST", "/place/:internalid", 201, 3*time.Millisecond)

	if n := testutil.CollectAndCount(HTTPRequestDuration); n < 2 {
		t.Errorf("expected at least 2 series, got %d", n)
	}
}

func TestRecordPublishFailure(t *testing.T) {
	before := testutil.ToFloat64(EventPublishFailures)
	RecordPublishFailure()
	if got := testutil.ToFloat64(EventPublishFailures); got != before+1 {
		t.Errorf("expected %v, got %v", before+1, got)
	}
}
