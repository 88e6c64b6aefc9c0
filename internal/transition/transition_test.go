package transition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/communityhub/registration-core/internal/model"
)

func TestPlanTable(t *testing.T) {
	tests := []struct {
		name   string
		from   model.Status
		to     model.Status
		action Action
		legal  bool
		reason Reason
	}{
		{"promotion reserves", model.StatusWaitlisted, model.StatusApproved, Reserve, true, ReasonNone},
		{"re-application reserves", model.StatusCancelled, model.StatusPending, Reserve, true, ReasonNone},
		{"rejection releases", model.StatusPending, model.StatusRejected, Release, true, ReasonNone},
		{"cancellation releases", model.StatusApproved, model.StatusCancelled, Release, true, ReasonNone},
		{"payment-due cancel releases", model.StatusPendingPayment, model.StatusCancelled, Release, true, ReasonNone},
		{"approval keeps the held slot", model.StatusPending, model.StatusApproved, None, true, ReasonNone},
		{"payment keeps the held slot", model.StatusPendingPayment, model.StatusApproved, None, true, ReasonNone},
		{"same status is a no-op", model.StatusApproved, model.StatusApproved, None, true, ReasonNone},
		{"waitlist to rejected is a no-op", model.StatusWaitlisted, model.StatusRejected, None, true, ReasonNone},
		{"re-cancel is illegal", model.StatusCancelled, model.StatusCancelled, None, false, ReasonAlreadyCancelled},
		{"unknown from is illegal", model.Status("BOGUS"), model.StatusApproved, None, false, ReasonUnknownStatus},
		{"unknown to is illegal", model.StatusApproved, model.Status("BOGUS"), None, false, ReasonUnknownStatus},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := Plan(tc.from, tc.to)
			assert.Equal(t, tc.action, d.Action)
			assert.Equal(t, tc.legal, d.Legal)
			assert.Equal(t, tc.reason, d.Reason)
		})
	}
}

// TestPlanProperties checks that for every pair of known statuses the
// planned action follows the occupancy classification exactly: reserve
// iff the transition enters the occupying set, release iff it leaves
// it, none otherwise.
func TestPlanProperties(t *testing.T) {
	statuses := model.Statuses()

	rapid.Check(t, func(t *rapid.T) {
		from := rapid.SampledFrom(statuses).Draw(t, "from")
		to := rapid.SampledFrom(statuses).Draw(t, "to")

		d := Plan(from, to)

		if from == model.StatusCancelled && to == model.StatusCancelled {
			require.False(t, d.Legal)
			require.Equal(t, ReasonAlreadyCancelled, d.Reason)
			require.Equal(t, None, d.Action)
			return
		}

		require.True(t, d.Legal)
		switch {
		case !from.Occupies() && to.Occupies():
			require.Equal(t, Reserve, d.Action)
		case from.Occupies() && !to.Occupies():
			require.Equal(t, Release, d.Action)
		default:
			require.Equal(t, None, d.Action)
		}
	})
}

// TestPlanSymmetry: any legal transition that reserves is undone by the
// reverse transition releasing, and vice versa.
func TestPlanSymmetry(t *testing.T) {
	statuses := model.Statuses()

	rapid.Check(t, func(t *rapid.T) {
		from := rapid.SampledFrom(statuses).Draw(t, "from")
		to := rapid.SampledFrom(statuses).Draw(t, "to")

		forward := Plan(from, to)
		backward := Plan(to, from)

		if forward.Action == Reserve {
			require.Equal(t, Release, backward.Action)
		}
		if forward.Action == Release && backward.Legal {
			require.Equal(t, Reserve, backward.Action)
		}
	})
}
