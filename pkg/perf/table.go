// pkg/perf/table.go
package perf

import (
	"errors"
	gomath "math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tsailer/vfrnav-public-sub008/pkg/geo"
	"github.com/tsailer/vfrnav-public-sub008/pkg/wx"
)

// OptTarget selects which quantity Cruise.MetricPerNM (and therefore the
// search) minimizes.
type OptTarget int

const (
	OptTime OptTarget = iota
	OptFuel
	OptPreferred
)

// Atmosphere bundles the QNH/ISA-offset/wind-enabled knobs of
// Configuration (spec.md §3.1) that feed row computation.
type Atmosphere struct {
	QNHhPa    float32
	ISAOffset float32 // degrees C
	WindEnabled bool
}

// PreferredLevel is the optional preferred-level target (spec.md §3.1):
// a level with a penalty multiplier and per-thousand-foot climb/descent
// adders used only when OptTarget == OptPreferred.
type PreferredLevel struct {
	Level          int
	Penalty        float32
	ClimbPerKft    float32
	DescentPerKft  float32
}

// ErrCeilingBelowBase is returned by Build when the aircraft cannot climb
// to the requested base flight level at all — spec.md §4.A's "aircraft
// unable to climb to base level" failure, surfaced by the Iteration
// Controller as stopping-error-internal.
var ErrCeilingBelowBase = errors.New("perf: aircraft ceiling is below the requested base level")

// Cruise is one row of the Performance Table (spec.md §3.3): a discrete
// flight level with its TAS/fuel/metric and optionally a bound wind and
// temperature layer.
type Cruise struct {
	Level        int // flight level, i.e. hundreds of feet
	PressureAlt  float32
	DensityAlt   float32
	TrueAlt      float32
	TAS          float32
	SecPerNM     float32
	FuelPerSec   float32
	MetricPerNM  float32
	RPM, MP, BHP float32

	WindU, WindV *wx.InterpolatedLayer
	Temp         *wx.InterpolatedLayer
}

// Wind returns the wind direction (degrees) and speed (kts) at coord,
// sampled from the bound wind layers, or (0,0) if none were bound —
// spec.md §4.A's "winds default to zero at query time" tolerance for
// missing layers.
func (c *Cruise) Wind(coord geo.Point2LL) (dir, speedKts float32) {
	if c.WindU == nil || c.WindV == nil {
		return 0, 0
	}
	return wx.WindVectorAt(c.WindU, c.WindV, coord)
}

// Temperature returns the temperature in Kelvin at coord, or NaN if no
// layer is bound.
func (c *Cruise) Temperature(coord geo.Point2LL) float32 {
	if c.Temp == nil {
		return float32(gomath.NaN())
	}
	return c.Temp.Sample(coord)
}

// LevelChange is the precomputed transition penalty between two rows
// (spec.md §3.3's triangular LevelChange matrix entry), valid in either
// climb or descent direction depending on which table it was read from.
type LevelChange struct {
	TrackNM        float32
	TimePenalty    float32 // seconds
	FuelPenalty    float32 // lbs
	MetricPenalty  float32
	OpsPerfTrackNM float32
}

// GroundIndex is the sentinel "ground" row index used at both ends of
// the Climb/Descent matrices to represent the initial climb from
// departure elevation and the final descent to destination elevation.
const GroundIndex = -1

// Table is the Performance Table of spec.md §3.3/§4.A.
type Table struct {
	Rows    []Cruise
	Climb   [][]LevelChange // [i][j], i<=j, rows-plus-ground-sentinel sized
	Descent [][]LevelChange

	depElevFt, destElevFt float32
	opt                   OptTarget
	pref                  *PreferredLevel
}

// Build constructs the Performance Table per spec.md §4.A/§3.3.
// baseFL/topFL are in flight-level units (hundreds of feet); maxDescentFtMin
// is Configuration's maximum-descent-rate knob. region bounds the wind/temp
// layers that get bound onto each row when atmos.WindEnabled; provider may
// be nil, in which case wind/temp layers are left unbound on every row.
func Build(depElevFt, destElevFt float32, ac Aircraft, atmos Atmosphere, opt OptTarget,
	pref *PreferredLevel, baseFL, topFL int, maxDescentFtMin float32,
	region geo.Rect, provider wx.Provider, at time.Time) (*Table, error) {

	effectiveTop := topFL
	if ceilFL := int(ac.Ceiling / 100); ceilFL < effectiveTop {
		effectiveTop = ceilFL
	}
	if effectiveTop < baseFL {
		return nil, ErrCeilingBelowBase
	}

	levels := generateLevels(baseFL, effectiveTop)

	t := &Table{depElevFt: depElevFt, destElevFt: destElevFt, opt: opt, pref: pref}
	t.Rows = make([]Cruise, len(levels))
	// Each row is independent (no row reads another row's result), so the
	// wind/temperature sampling and metric computation per level run
	// concurrently; every goroutine only ever writes its own t.Rows[i].
	var eg errgroup.Group
	for i, fl := range levels {
		i, fl := i, fl
		eg.Go(func() error {
			t.Rows[i] = t.buildCruiseRow(fl, ac, atmos, region, provider, at)
			return nil
		})
	}
	eg.Wait()

	n := len(t.Rows)
	t.Climb = newTriangularMatrix(n + 1)
	t.Descent = newTriangularMatrix(n + 1)

	for i := -1; i < n; i++ {
		for j := i + 1; j < n; j++ {
			altI := groundOrRowAlt(t.Rows, i, depElevFt)
			altJ := groundOrRowAlt(t.Rows, j, depElevFt)
			t.Climb[i+1][j+1] = t.integrateTransition(altI, altJ, i, j, ac.ClimbRateAt(altI), true)
		}
	}
	for j := -1; j < n; j++ {
		for i := j + 1; i < n; i++ {
			// Descent[i][j], i>j: from higher row i down to lower row j
			// (or to the ground sentinel, representing final descent to
			// destination elevation).
			altI := groundOrRowAlt(t.Rows, i, destElevFt)
			altJ := groundOrRowAlt(t.Rows, j, destElevFt)
			rate := ac.Rate.Descent
			if maxDescentFtMin > 0 && rate > maxDescentFtMin {
				rate = maxDescentFtMin
			}
			t.Descent[i+1][j+1] = t.integrateTransition(altJ, altI, j, i, rate, false)
		}
	}

	return t, nil
}

func groundOrRowAlt(rows []Cruise, idx int, groundElevFt float32) float32 {
	if idx < 0 {
		return groundElevFt
	}
	return rows[idx].PressureAlt
}

func newTriangularMatrix(n int) [][]LevelChange {
	m := make([][]LevelChange, n)
	for i := range m {
		m[i] = make([]LevelChange, n)
	}
	return m
}

// generateLevels produces the row FL sequence from base to top, stepping
// by 10, with the documented FL415 transitional insertion: ...,400,410,
// 415,430,440,...  — see DESIGN.md for why this particular reading of
// spec.md's "stepping by 10 (with the standard 15-level skip near
// FL415)" was chosen.
func generateLevels(base, top int) []int {
	var levels []int
	fl := base
	for fl <= top {
		levels = append(levels, fl)
		switch fl {
		case 410:
			fl = 415
		case 415:
			fl = 430
		default:
			fl += 10
		}
	}
	return levels
}

func (t *Table) buildCruiseRow(fl int, ac Aircraft, atmos Atmosphere, region geo.Rect, provider wx.Provider, at time.Time) Cruise {
	c := Cruise{Level: fl, RPM: ac.RPM, MP: ac.MP, BHP: ac.BHP}
	c.PressureAlt = float32(fl * 100)

	isaTemp := 15 - 1.98*(c.PressureAlt/1000)
	oat := isaTemp + atmos.ISAOffset
	c.DensityAlt = c.PressureAlt + 120*(oat-isaTemp)
	c.TrueAlt = c.PressureAlt + (atmos.QNHhPa-1013.25)*30

	c.TAS = ac.Speed.CruiseTAS * (1 + 0.02*c.DensityAlt/1000)
	if ac.Speed.MaxTAS > 0 && c.TAS > ac.Speed.MaxTAS {
		c.TAS = ac.Speed.MaxTAS
	}
	c.SecPerNM = 3600 / c.TAS
	c.FuelPerSec = ac.FuelFlowLbsPerHour / 3600

	c.MetricPerNM = t.metricPerNM(c, fl)

	if atmos.WindEnabled && provider != nil {
		c.WindU = bindLayer(provider, wx.UWind, region, c.PressureAlt, at)
		c.WindV = bindLayer(provider, wx.VWind, region, c.PressureAlt, at)
		c.Temp = bindLayer(provider, wx.Temperature, region, c.PressureAlt, at)
	}

	return c
}

// bindLayer resolves the gridded layer for param nearest the row's
// pressure altitude and interpolates it over region, returning nil
// (rather than erroring the whole table build) if the provider has
// nothing to offer — spec.md §4.A tolerates a Performance Table with
// partially missing wind coverage.
func bindLayer(provider wx.Provider, param wx.Parameter, region geo.Rect, pressureAltFt float32, at time.Time) *wx.InterpolatedLayer {
	pressureHPa := pressureAltToHPa(pressureAltFt)
	layers, err := provider.FindLayers(param, at, pressureHPa)
	if err != nil || len(layers) == 0 {
		return nil
	}
	interp, err := provider.InterpolateResults(region, layers, at, pressureHPa)
	if err != nil {
		return nil
	}
	return &interp
}

// pressureAltToHPa approximates the ISA standard pressure (hPa) at a
// given pressure altitude, used to pick the closest gridded pressure
// level from the atmospheric model.
func pressureAltToHPa(altFt float32) float32 {
	return 1013.25 * geo.Pow(1-altFt/145366.45, 5.2559)
}

func (t *Table) metricPerNM(c Cruise, fl int) float32 {
	switch t.opt {
	case OptFuel:
		return c.SecPerNM * c.FuelPerSec
	case OptPreferred:
		if t.pref == nil {
			return c.SecPerNM
		}
		delta := geo.Abs(float32(fl-t.pref.Level)) / 10
		return geo.Pow(t.pref.Penalty, delta)
	default:
		return c.SecPerNM
	}
}

// integrateTransition computes the level-change penalty tuple for a
// climb (climbing==true) or descent between altFrom and altTo (altFrom
// is the lower), where i and j index the cruise rows at altFrom and
// altTo (-1 for the ground sentinel); the reference cruise figures come
// from row j, or from row i when j is the ground sentinel.
func (t *Table) integrateTransition(altFrom, altTo float32, i, j int, ratePerMin float32, climbing bool) LevelChange {
	if ratePerMin <= 0 || altTo <= altFrom {
		return LevelChange{}
	}

	deltaFt := altTo - altFrom
	timeMin := deltaFt / ratePerMin
	timeSec := timeMin * 60

	var refSecPerNM, refFuelPerSec float32
	if j >= 0 {
		refSecPerNM, refFuelPerSec = t.Rows[j].SecPerNM, t.Rows[j].FuelPerSec
	} else if i >= 0 {
		refSecPerNM, refFuelPerSec = t.Rows[i].SecPerNM, t.Rows[i].FuelPerSec
	} else {
		return LevelChange{}
	}

	avgTAS := float32(3600) / refSecPerNM
	trackNM := timeMin / 60 * avgTAS

	timePenalty := timeSec - trackNM*refSecPerNM
	if timePenalty < 0 {
		timePenalty = 0
	}

	fuelDuring := timeSec * refFuelPerSec
	fuelCruiseEquivalent := trackNM * refSecPerNM * refFuelPerSec
	fuelPenalty := fuelDuring - fuelCruiseEquivalent
	if fuelPenalty < 0 {
		fuelPenalty = 0
	}

	var metricPenalty float32
	if t.opt == OptPreferred && t.pref != nil {
		perKft := t.pref.ClimbPerKft
		if !climbing {
			perKft = t.pref.DescentPerKft
		}
		metricPenalty = (deltaFt / 1000) * perKft
	} else if t.opt == OptFuel {
		metricPenalty = fuelPenalty
	} else {
		metricPenalty = timePenalty
	}

	// OpsPerf track miles require a BADA-linked performance dataset this
	// aircraft model does not carry; spec.md §4.A's explicit fallback
	// for that case is to set it to 0.
	return LevelChange{
		TrackNM:        trackNM,
		TimePenalty:    timePenalty,
		FuelPenalty:    fuelPenalty,
		MetricPenalty:  metricPenalty,
		OpsPerfTrackNM: 0,
	}
}

// CruiseRow returns the cruise record for row i (GroundIndex for the
// ground sentinel, which has no cruise record).
func (t *Table) CruiseRow(i int) *Cruise {
	if i < 0 || i >= len(t.Rows) {
		return nil
	}
	return &t.Rows[i]
}

// CruiseForTransition returns the cruise record applicable to a
// transition from i to j: the higher row for a climb, the lower for a
// descent — both cases resolve to the row at j (spec.md §4.A).
func (t *Table) CruiseForTransition(iFrom, iTo int) *Cruise {
	return t.CruiseRow(iTo)
}

// LevelChangeBetween returns the precomputed penalty tuple for a
// transition from iFrom to iTo, addressable in either direction.
func (t *Table) LevelChangeBetween(iFrom, iTo int) LevelChange {
	if iFrom <= iTo {
		return t.Climb[iFrom+1][iTo+1]
	}
	return t.Descent[iFrom+1][iTo+1]
}

// FindCruiseIndex returns the row index nearest to altFt by absolute
// difference, ties broken in favour of the lower index.
func (t *Table) FindCruiseIndex(altFt float32) int {
	best := -1
	bestDelta := float32(0)
	for i, row := range t.Rows {
		d := geo.Abs(row.PressureAlt - altFt)
		if best == -1 || d < bestDelta {
			best, bestDelta = i, d
		}
	}
	return best
}
