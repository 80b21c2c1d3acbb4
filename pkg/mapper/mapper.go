// pkg/mapper/mapper.go
package mapper

import (
	"regexp"
	"strconv"
	"time"

	"github.com/tsailer/vfrnav-public-sub008/pkg/routegraph"
	"github.com/tsailer/vfrnav-public-sub008/pkg/util"
)

// defaultCrossingRadiusNM is the "default radius" spec.md §4.E's
// "Overfly required: W" mutation asks for when the validator diagnostic
// doesn't name one itself.
const defaultCrossingRadiusNM = 5

// seenTTL bounds how long the Mapper remembers a diagnostic line it has
// already acted on. TransientMap is built for time-bounded membership, not
// permanent dedup, so this is set far longer than any single controller
// run is expected to last rather than tied to an actual expiry policy.
const seenTTL = 24 * time.Hour

// Mutation is what one matched diagnostic line asked the controller to do
// to the Routing Graph or Configuration (spec.md §4.E/§4.F step 7).
type Mutation struct {
	Rule        string
	Description string

	// EdgesTouched is how many graph edges RestrictAirwayByName/
	// ForbidNamed/ForbidIdentPair/RaiseAirwayLowerBound/
	// DeleteEdgesIncident actually changed; zero means the diagnostic
	// matched a rule but found nothing to mutate.
	EdgesTouched int

	RerunExclusions            bool
	InvalidatePerformanceTable bool

	NewCrossing *routegraph.Crossing
	NewTopFL    int // nonzero when "Maximum FL" lowered the cap
}

type rule struct {
	name  string
	re    *regexp.Regexp
	apply func(g *routegraph.Graph, m []string) Mutation
}

// Mapper is the Diagnostic Mapper of spec.md §4.E: a table-driven
// (regexp, handler) pattern matcher plus the "the same diagnostic line
// never triggers the same mutation twice" dedup rule.
type Mapper struct {
	rules []rule
	seen  *util.TransientMap[string, bool]
}

func New() *Mapper {
	m := &Mapper{seen: util.NewTransientMap[string, bool]()}
	m.rules = []rule{
		{"sid-star-invalid", reSIDSTARInvalid, applySIDSTARInvalid},
		{"airway-closed", reAirwayClosed, applyAirwayClosed},
		{"dct-forbidden", reDCTForbidden, applyDCTForbidden},
		{"route-fl-minimum", reRouteFLMinimum, applyRouteFLMinimum},
		{"point-closed", rePointClosed, applyPointClosed},
		{"profile-rule", reProfileRule, applyProfileRule},
		{"overfly-required", reOverflyRequired, applyOverflyRequired},
		{"maximum-fl", reMaximumFL, applyMaximumFL},
	}
	return m
}

// Apply feeds each non-empty diagnostic line through the rule table in
// registration order, applying at most the first matching rule per line
// (spec.md §9's "earliest registered wins" Open-Question resolution), and
// skipping lines it has already mutated for. Lines that match no rule are
// recorded (so they're not retried) but produce no Mutation, per spec.md
// §4.E's "the line is recorded but ignored for iteration control".
func (m *Mapper) Apply(g *routegraph.Graph, lines []string) []Mutation {
	var mutations []Mutation
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := m.seen.Get(line); ok {
			continue
		}
		m.seen.Add(line, true, seenTTL)

		for _, r := range m.rules {
			match := r.re.FindStringSubmatch(line)
			if match == nil {
				continue
			}
			mutation := r.apply(g, match)
			mutation.Rule = r.name
			mutation.Description = line
			mutations = append(mutations, mutation)
			break
		}
	}
	return mutations
}

var (
	reSIDSTARInvalid  = regexp.MustCompile(`(\S+) not a valid (SID|STAR) for (\S+)`)
	reAirwayClosed    = regexp.MustCompile(`(\S+) closed between (\S+) and (\S+)`)
	reDCTForbidden    = regexp.MustCompile(`DCT not allowed from (\S+) to (\S+)`)
	reRouteFLMinimum  = regexp.MustCompile(`Route (\S+) requires FL(\d+)\+`)
	rePointClosed     = regexp.MustCompile(`Point (\S+) closed`)
	reProfileRule     = regexp.MustCompile(`Profile rule (\S+)`)
	reOverflyRequired = regexp.MustCompile(`Overfly required: (\S+)`)
	reMaximumFL       = regexp.MustCompile(`Maximum FL (\d+)`)
)

func applySIDSTARInvalid(g *routegraph.Graph, m []string) Mutation {
	name := m[1]
	kind := routegraph.EdgeSID
	if m[2] == "STAR" {
		kind = routegraph.EdgeSTAR
	}
	return Mutation{EdgesTouched: g.ForbidNamed(name, kind)}
}

// applyAirwayClosed restricts (here: fully removes, since the diagnostic
// carries no replacement level band) every edge named after the closed
// airway, regardless of which two fixes the validator's message names —
// RestrictAirwayByName already operates airway-wide, matching spec.md
// §4.E's mutation column rather than the two named fixes in its prose.
func applyAirwayClosed(g *routegraph.Graph, m []string) Mutation {
	return Mutation{EdgesTouched: g.RestrictAirwayByName(m[1], routegraph.LevelBand{Lower: 1, Upper: 0})}
}

func applyDCTForbidden(g *routegraph.Graph, m []string) Mutation {
	return Mutation{EdgesTouched: g.ForbidIdentPair(m[1], m[2])}
}

func applyRouteFLMinimum(g *routegraph.Graph, m []string) Mutation {
	fl, _ := strconv.Atoi(m[2])
	return Mutation{EdgesTouched: g.RaiseAirwayLowerBound(m[1], fl)}
}

func applyPointClosed(g *routegraph.Graph, m []string) Mutation {
	return Mutation{EdgesTouched: g.DeleteEdgesIncident(m[1])}
}

func applyProfileRule(g *routegraph.Graph, m []string) Mutation {
	return Mutation{RerunExclusions: true}
}

func applyOverflyRequired(g *routegraph.Graph, m []string) Mutation {
	return Mutation{
		NewCrossing: &routegraph.Crossing{
			Ident:    m[1],
			RadiusNM: defaultCrossingRadiusNM,
			Band:     routegraph.LevelBand{Lower: 0, Upper: 999},
		},
	}
}

func applyMaximumFL(g *routegraph.Graph, m []string) Mutation {
	fl, _ := strconv.Atoi(m[1])
	return Mutation{NewTopFL: fl, InvalidatePerformanceTable: true}
}
