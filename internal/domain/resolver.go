package domain

import "slices"

// Resolver answers hierarchy and coordinate queries over a fixed
// [Reference]. All methods are total and safe for concurrent use: the
// reference is copied at construction and never written again.
type Resolver struct {
	ref Reference
}

// NewResolver creates a Resolver over a private copy of ref.
func NewResolver(ref Reference) *Resolver {
	return &Resolver{ref: ref.clone()}
}

// NewDefaultResolver creates a Resolver over [DefaultReference].
func NewDefaultResolver() *Resolver {
	return NewResolver(DefaultReference())
}

// ListStates returns every state in display order.
func (r *Resolver) ListStates() []string {
	return slices.Clone(r.ref.States)
}

// HasState reports whether state is part of the reference hierarchy.
func (r *Resolver) HasState(state string) bool {
	return slices.Contains(r.ref.States, state)
}

// ListDistricts returns the districts of state in display order, or an empty
// slice if the state is unknown.
func (r *Resolver) ListDistricts(state string) []string {
	districts, ok := r.ref.Districts[state]
	if !ok {
		return []string{}
	}
	return slices.Clone(districts)
}

// ListReserves returns the reserves of district in display order. Districts
// with no tracked reserve, and unknown districts, yield [NoReserve] alone.
func (r *Resolver) ListReserves(district string) []string {
	reserves := r.ref.Reserves[district]
	if len(reserves) == 0 {
		return []string{NoReserve}
	}
	return slices.Clone(reserves)
}

// Resolve returns the most specific coordinate known for the selection and
// the table it came from: reserve, then district, then state centroid, then
// [FallbackCentroid].
func (r *Resolver) Resolve(state, district, reserve string) (Coordinate, Granularity) {
	if reserve != "" {
		if c, ok := r.ref.ReserveCoords[reserve]; ok {
			return c, GranularityReserve
		}
	}
	if district != "" {
		if c, ok := r.ref.DistrictCoords[district]; ok {
			return c, GranularityDistrict
		}
	}
	if c, ok := r.ref.StateCentroids[state]; ok {
		return c, GranularityState
	}
	return FallbackCentroid(), GranularityFallback
}

// ResolveCoordinate is [Resolver.Resolve] without the granularity.
func (r *Resolver) ResolveCoordinate(state, district, reserve string) Coordinate {
	c, _ := r.Resolve(state, district, reserve)
	return c
}

// CascadeOnStateChange selects newState and resets the district and reserve
// to the first children of the new state.
func (r *Resolver) CascadeOnStateChange(newState string) Selection {
	var district string
	if districts := r.ref.Districts[newState]; len(districts) > 0 {
		district = districts[0]
	}
	return r.CascadeOnDistrictChange(newState, district)
}

// CascadeOnDistrictChange selects newDistrict under state and resets the
// reserve to the district's first reserve, or to empty when it has none.
func (r *Resolver) CascadeOnDistrictChange(state, newDistrict string) Selection {
	return r.CascadeOnReserveChange(state, newDistrict, r.firstReserve(newDistrict))
}

// CascadeOnReserveChange selects newReserve and re-resolves the coordinate.
// State and district are passed through untouched.
func (r *Resolver) CascadeOnReserveChange(state, district, newReserve string) Selection {
	c := r.ResolveCoordinate(state, district, newReserve)
	return Selection{
		State:     state,
		District:  district,
		Reserve:   newReserve,
		Latitude:  c.Lat,
		Longitude: c.Lon,
	}
}

// DefaultSelection is the tuple the prediction form opens on.
func (r *Resolver) DefaultSelection() Selection {
	return r.CascadeOnStateChange(DefaultState)
}

// Normalize turns an arbitrary client-supplied selection into a consistent
// one. It keeps every field that is still valid under its parent and
// cascades from the first field that is not. A reserve of [NoReserve] is
// read as no reserve.
func (r *Resolver) Normalize(sel Selection) Selection {
	reserve := sel.Reserve
	if reserve == NoReserve {
		reserve = ""
	}

	districts, ok := r.ref.Districts[sel.State]
	if !ok || !slices.Contains(districts, sel.District) {
		return r.CascadeOnStateChange(sel.State)
	}

	if reserves := r.ref.Reserves[sel.District]; len(reserves) == 0 {
		if reserve != "" {
			return r.CascadeOnDistrictChange(sel.State, sel.District)
		}
	} else if !slices.Contains(reserves, reserve) {
		return r.CascadeOnDistrictChange(sel.State, sel.District)
	}

	return r.CascadeOnReserveChange(sel.State, sel.District, reserve)
}

func (r *Resolver) firstReserve(district string) string {
	first := r.ListReserves(district)[0]
	if first == NoReserve {
		return ""
	}
	return first
}
