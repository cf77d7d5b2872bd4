package internaldefs

import (
	"testing"

	"github.com/MrEthical07/authflow"
)

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 2, 3}))
	want := [8]uint64{1, 3, 6, 6, 6, 6, 6, 6}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEveryCounterDefined(t *testing.T) {
	seen := map[authflow.MetricID]bool{}
	for _, def := range CounterDefs {
		if seen[def.ID] {
			t.Fatalf("duplicate counter %s", def.Name)
		}
		seen[def.ID] = true
	}
	for _, def := range HistogramDefs {
		seen[def.ID] = true
	}
	if len(seen) != int(authflow.MetricInvitationValidateLatency)+1 {
		t.Fatalf("expected every metric id defined, got %d", len(seen))
	}
	if len(HistogramBoundSuffix) != len(HistogramBounds)+1 {
		t.Fatalf("bucket suffixes must cover the +Inf bucket")
	}
}
