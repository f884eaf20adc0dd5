package reclear

import (
	"context"
	"testing"
	"time"

	"github.com/abgdnv/gomarket/pkg/config"
	"github.com/abgdnv/gomarket/shop_service/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

var fastRetries = config.ReclearConfig{
	InitialInterval: time.Millisecond,
	MaxInterval:     5 * time.Millisecond,
	MaxElapsedTime:  200 * time.Millisecond,
	RedeliveryDelay: time.Second,
}

func Test_LocalScheduler(t *testing.T) {
	testCases := []struct {
		name            string
		failures        int
		expectedOutcome string
		expectCleared   bool
	}{
		{name: "first attempt succeeds", failures: 0, expectedOutcome: OutcomeCleared, expectCleared: true},
		{name: "succeeds after retries", failures: 3, expectedOutcome: OutcomeCleared, expectCleared: true},
		{name: "gives up", failures: 1 << 20, expectedOutcome: OutcomeFailed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			clearer := &flakyClearer{failures: tc.failures}
			m := metrics.NewNop()
			s := NewLocalScheduler(clearer, fastRetries, m, testLogger)
			ctx, cancel := context.WithCancel(context.Background())

			// when
			err := s.Schedule(ctx, 7, 42)
			cancel()
			s.Wait()

			// then
			assert.NoError(t, err)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.Reclears.WithLabelValues(tc.expectedOutcome)))
			if tc.expectCleared {
				assert.Equal(t, []int64{7}, clearer.cleared)
				assert.Equal(t, tc.failures+1, clearer.Calls())
			} else {
				assert.Empty(t, clearer.cleared)
			}
		})
	}
}
