package enumerator

import (
	"time"

	"github.com/airhop/airhop/pkg/cfdf"
	"github.com/airhop/airhop/pkg/util"
)

// The estimate assumes a fixed cost per availability check across a fixed
// number of calendar days, plus one session setup. It exists for user
// feedback on job intake, the orchestrator never consults it.
const (
	DefaultPerCheckCost = 5 * time.Second
	DefaultDatesPerLeg  = 4
	DefaultSetupCost    = 20 * time.Second
)

type Estimate struct {
	DistinctLegs int           `groups:"basic"`
	Duration     time.Duration `groups:"basic"`
	Human        string        `groups:"basic"`
}

func EstimateCheckingTime(candidates []cfdf.CandidateItinerary) Estimate {
	distinctLegs := len(DistinctLegs(candidates))
	duration := time.Duration(distinctLegs)*DefaultPerCheckCost*DefaultDatesPerLeg + DefaultSetupCost

	return Estimate{
		DistinctLegs: distinctLegs,
		Duration:     duration,
		Human:        util.FormatApproximateDuration(duration),
	}
}
