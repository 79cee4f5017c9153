package table

import (
	"time"

	"github.com/gonfd/gonfd/core"
)

// clockNow reads the process-wide (possibly faked) clock, so PIT and CS
// expiry logic in this package never calls time.Now() directly and stays
// deterministic under core.SetClock in tests.
func clockNow() time.Time { return core.GetClock.Now() }

// defaultInterestLifetime is used for in/out records on an Interest that
// carried no explicit InterestLifetime (spec.md §4.5). Read live off
// core.C rather than cached, since cmd/gonfd applies the config file after
// package init runs.
func defaultInterestLifetime() time.Duration { return core.C.Tables.Pit.DefaultLifetime }
