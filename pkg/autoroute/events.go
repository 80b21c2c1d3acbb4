// pkg/autoroute/events.go
package autoroute

import "github.com/tsailer/vfrnav-public-sub008/pkg/fplroute"

// StatusMask is the bitfield of spec.md §4.F's status event, one bit set
// per status reported on a given iteration boundary.
type StatusMask uint32

const (
	StatusStarting StatusMask = 1 << iota
	StatusStoppingDone
	StatusStoppingErrorSID
	StatusStoppingErrorSTAR
	StatusStoppingErrorEnroute
	StatusStoppingErrorValidatorTimeout
	StatusStoppingErrorInternal
	StatusStoppingErrorIteration
	StatusStoppingErrorUser
	StatusNewFpl
	StatusNewValidateResponse
)

func (m StatusMask) Has(bit StatusMask) bool { return m&bit != 0 }

// LogKind tags a Log event's category (spec.md §4.F).
type LogKind int

const (
	LogFplProposal LogKind = iota
	LogFplLocalValidation
	LogFplRemoteValidation
	LogGraphRule
	LogGraphRuleDesc
	LogGraphRuleOprGoal
	LogGraphChange
	LogPrecompGraph
	LogWeather
	LogNormal
	LogDebug0
	LogDebug1
)

func (k LogKind) String() string {
	switch k {
	case LogFplProposal:
		return "fpl-proposal"
	case LogFplLocalValidation:
		return "fpl-local-validation"
	case LogFplRemoteValidation:
		return "fpl-remote-validation"
	case LogGraphRule:
		return "graph-rule"
	case LogGraphRuleDesc:
		return "graph-rule-desc"
	case LogGraphRuleOprGoal:
		return "graph-rule-oprgoal"
	case LogGraphChange:
		return "graph-change"
	case LogPrecompGraph:
		return "precomp-graph"
	case LogWeather:
		return "weather"
	case LogDebug0:
		return "debug0"
	case LogDebug1:
		return "debug1"
	default:
		return "normal"
	}
}

// EventKind tags which field of Event is populated — the REDESIGN
// FLAGS sum-type treatment of spec.md's three event varieties (status,
// log, and the proposed-plan/validator-response payloads) in place of a
// single struct with mostly-unused fields.
type EventKind int

const (
	EventStatus EventKind = iota
	EventLog
	EventNewFpl
	EventNewValidateResponse
)

// Event is one item of the stream the Controller emits to subscribers
// (spec.md §2's "Events stream to subscribers").
type Event struct {
	Kind EventKind

	Status StatusMask // valid when Kind == EventStatus

	LogItem LogKind // valid when Kind == EventLog
	Text    string  // valid when Kind == EventLog; validator response lines arrive as EventLog items

	Route *fplroute.Route // valid when Kind == EventNewFpl

	RouteTimeSeconds    float64 // Controller never sets this or ValidatorTimeSeconds; both stay zero
	ValidatorTimeSeconds float64
	LocalIterations      int
	RemoteIterations      int
}
