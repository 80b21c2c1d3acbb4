// pkg/aero/provider.go
package aero

import "github.com/tsailer/vfrnav-public-sub008/pkg/geo"

// Provider is the external aeronautical database collaborator named in
// spec.md §6.1: synchronous, read-only lookups by ICAO, by name/ident,
// and by bounding rectangle, plus airspace and procedure sub-lookups.
// The engine never constructs or owns this data itself — it is injected,
// matching spec.md §9's "no free-standing singletons" design note (the
// teacher's package-level `aviation.DB *StaticDatabase` is exactly the
// pattern that note forbids).
type Provider interface {
	// AirportByICAO returns the airport record for the given ICAO code,
	// or ok==false if unknown.
	AirportByICAO(icao string) (Airport, bool)

	// NavaidsByIdent returns every navaid with the given ident (there
	// can be more than one of the same ident in different FIRs).
	NavaidsByIdent(ident string) []Navaid

	// FixesByIdent returns every ARINC fix with the given ident.
	FixesByIdent(ident string) []Fix

	// MapElementsByIdent returns every named map element (VFR reporting
	// point, obstacle, etc) with the given ident.
	MapElementsByIdent(ident string) []MapElement

	// AirwaysByName returns every airway segment chain published under
	// the given name (an airway identifier is not necessarily unique
	// across FIRs).
	AirwaysByName(name string) []Airway

	// AirportsInRect, NavaidsInRect, FixesInRect, MapElementsInRect
	// return every record of the given kind whose position falls inside
	// rect; used by the Routing Graph's and VFR Fallback's bounding-box
	// load (spec.md §4.B step 1, §4.I step 1).
	AirportsInRect(rect geo.Rect) []Airport
	NavaidsInRect(rect geo.Rect) []Navaid
	FixesInRect(rect geo.Rect) []Fix
	MapElementsInRect(rect geo.Rect) []MapElement
	AirwaysInRect(rect geo.Rect) []Airway

	// AirspacesInRect returns every airspace volume overlapping rect,
	// used by the exclusion-zone and VFR Fallback penalty passes.
	AirspacesInRect(rect geo.Rect) []AirspaceVolume

	// AirspaceByIDAndType resolves an excluded-region reference given as
	// an airspace id+type pair (spec.md §3.1 "Excluded regions").
	AirspaceByIDAndType(id string, typ AirspaceVolumeType) (AirspaceVolume, bool)
}
