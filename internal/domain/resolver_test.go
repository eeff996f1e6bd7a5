package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUnknownState    = "Atlantis"
	testUnknownDistrict = "UnknownDistrict"
)

// sparseReference has a district without reserves and a state without a
// centroid, neither of which the built-in data contains.
func sparseReference() Reference {
	return Reference{
		States: []string{"Alpha", "Beta"},
		Districts: map[string][]string{
			"Alpha": {"Quiet", "Busy"},
			"Beta":  {},
		},
		Reserves: map[string][]string{
			"Busy": {"North Park", "South Park"},
		},
		ReserveCoords: map[string]Coordinate{
			"North Park": {10, 20},
			"South Park": {11, 21},
		},
		DistrictCoords: map[string]Coordinate{
			"Quiet": {12, 22},
			"Busy":  {13, 23},
		},
		StateCentroids: map[string]Coordinate{
			"Alpha": {14, 24},
		},
	}
}

func TestListDistricts(t *testing.T) {
	r := NewDefaultResolver()

	t.Run("every known state has districts with reserve entries", func(t *testing.T) {
		for _, state := range r.ListStates() {
			districts := r.ListDistricts(state)
			require.NotEmpty(t, districts, state)
			for _, d := range districts {
				assert.NotEmpty(t, r.ListReserves(d), d)
			}
		}
	})

	t.Run("unknown state yields empty", func(t *testing.T) {
		districts := r.ListDistricts(testUnknownState)
		assert.NotNil(t, districts)
		assert.Empty(t, districts)
	})

	t.Run("preserves order", func(t *testing.T) {
		assert.Equal(t, []string{"Baksa", "Golaghat", "Udalguri"}, r.ListDistricts("Assam"))
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		d := r.ListDistricts("Karnataka")
		d[0] = "Mutated"
		assert.Equal(t, "Chamarajanagar", r.ListDistricts("Karnataka")[0])
	})
}

func TestListReserves(t *testing.T) {
	r := NewDefaultResolver()

	assert.Equal(t, []string{"BRT", "Bandipur"}, r.ListReserves("Chamarajanagar"))
	assert.Equal(t, []string{NoReserve}, r.ListReserves(testUnknownDistrict))
	assert.Equal(t, []string{NoReserve}, r.ListReserves(""))

	sparse := NewResolver(sparseReference())
	assert.Equal(t, []string{NoReserve}, sparse.ListReserves("Quiet"))
}

func TestListStates(t *testing.T) {
	r := NewDefaultResolver()
	states := r.ListStates()
	assert.Len(t, states, 12)
	assert.Equal(t, "Assam", states[0])
	assert.Equal(t, "West Bengal", states[len(states)-1])
	assert.True(t, r.HasState("Kerala"))
	assert.False(t, r.HasState(testUnknownState))
}

func TestResolve(t *testing.T) {
	r := NewDefaultResolver()

	tests := []struct {
		name                     string
		state, district, reserve string
		want                     Coordinate
		gran                     Granularity
	}{
		{"reserve wins", "Karnataka", "Chamarajanagar", "Bandipur", Coordinate{11.7788, 76.4647}, GranularityReserve},
		{"district when reserve empty", "Karnataka", "Mysuru", "", Coordinate{12.0, 76.1}, GranularityDistrict},
		{"district when reserve unknown", "Karnataka", "Mysuru", "Nowhere", Coordinate{12.0, 76.1}, GranularityDistrict},
		{"state centroid when district unknown", "Odisha", testUnknownDistrict, "", Coordinate{21.95, 86.35}, GranularityState},
		{"fallback for unknown state", testUnknownState, "", "", FallbackCentroid(), GranularityFallback},
		{"fallback for all empty", "", "", "", FallbackCentroid(), GranularityFallback},
		{"None sentinel is not a reserve", "Karnataka", "Mysuru", NoReserve, Coordinate{12.0, 76.1}, GranularityDistrict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, g := r.Resolve(tt.state, tt.district, tt.reserve)
			assert.Equal(t, tt.want, c)
			assert.Equal(t, tt.gran, g)
			assert.Equal(t, tt.want, r.ResolveCoordinate(tt.state, tt.district, tt.reserve))
		})
	}
}

func TestResolve_ReserveIgnoresAncestors(t *testing.T) {
	r := NewDefaultResolver()
	for _, reserve := range []string{"BRT", "Gir", "Sundarbans", "Wayanad"} {
		want := r.ResolveCoordinate("", "", reserve)
		assert.Equal(t, want, r.ResolveCoordinate("Assam", "Baksa", reserve), reserve)
		assert.Equal(t, want, r.ResolveCoordinate(testUnknownState, testUnknownDistrict, reserve), reserve)
	}
}

func TestCascadeOnStateChange(t *testing.T) {
	r := NewDefaultResolver()

	t.Run("Karnataka picks first district and reserve", func(t *testing.T) {
		sel := r.CascadeOnStateChange("Karnataka")
		assert.Equal(t, Selection{
			State:     "Karnataka",
			District:  "Chamarajanagar",
			Reserve:   "BRT",
			Latitude:  11.909297,
			Longitude: 77.000465,
		}, sel)
	})

	t.Run("idempotent", func(t *testing.T) {
		for _, state := range append(r.ListStates(), testUnknownState) {
			assert.Equal(t, r.CascadeOnStateChange(state), r.CascadeOnStateChange(state), state)
		}
	})

	t.Run("unknown state clears children and falls back", func(t *testing.T) {
		sel := r.CascadeOnStateChange(testUnknownState)
		assert.Equal(t, testUnknownState, sel.State)
		assert.Empty(t, sel.District)
		assert.Empty(t, sel.Reserve)
		assert.Equal(t, FallbackCentroid(), sel.Coordinate())
	})

	t.Run("state without districts or centroid falls back", func(t *testing.T) {
		sparse := NewResolver(sparseReference())
		sel := sparse.CascadeOnStateChange("Beta")
		assert.Empty(t, sel.District)
		assert.Equal(t, FallbackCentroid(), sel.Coordinate())
	})

	t.Run("first district without reserves leaves reserve empty", func(t *testing.T) {
		sparse := NewResolver(sparseReference())
		sel := sparse.CascadeOnStateChange("Alpha")
		assert.Equal(t, "Quiet", sel.District)
		assert.Empty(t, sel.Reserve)
		assert.Equal(t, Coordinate{12, 22}, sel.Coordinate())
	})
}

func TestCascadeOnDistrictChange(t *testing.T) {
	r := NewDefaultResolver()

	sel := r.CascadeOnDistrictChange("Gujarat", "Junagadh")
	assert.Equal(t, "Gujarat", sel.State)
	assert.Equal(t, "Junagadh", sel.District)
	assert.Equal(t, "Gir", sel.Reserve)
	assert.Equal(t, Coordinate{21.124, 70.824}, sel.Coordinate())

	sel = r.CascadeOnDistrictChange("Odisha", testUnknownDistrict)
	assert.Empty(t, sel.Reserve)
	assert.Equal(t, Coordinate{21.95, 86.35}, sel.Coordinate())
}

func TestCascadeOnReserveChange(t *testing.T) {
	r := NewDefaultResolver()

	sel := r.CascadeOnReserveChange("Karnataka", "Chamarajanagar", "Bandipur")
	assert.Equal(t, "Karnataka", sel.State)
	assert.Equal(t, "Chamarajanagar", sel.District)
	assert.Equal(t, "Bandipur", sel.Reserve)
	assert.Equal(t, Coordinate{11.7788, 76.4647}, sel.Coordinate())

	// State and district are never touched, even when inconsistent.
	sel = r.CascadeOnReserveChange("Kerala", "Mysuru", "Gir")
	assert.Equal(t, "Kerala", sel.State)
	assert.Equal(t, "Mysuru", sel.District)
	assert.Equal(t, Coordinate{21.124, 70.824}, sel.Coordinate())
}

func TestDefaultSelection(t *testing.T) {
	r := NewDefaultResolver()
	assert.Equal(t, r.CascadeOnStateChange("Karnataka"), r.DefaultSelection())
}

func TestNormalize(t *testing.T) {
	r := NewDefaultResolver()

	t.Run("consistent selection keeps fields and fixes coordinates", func(t *testing.T) {
		sel := r.Normalize(Selection{State: "Karnataka", District: "Chamarajanagar", Reserve: "Bandipur", Latitude: 1, Longitude: 2})
		assert.Equal(t, "Bandipur", sel.Reserve)
		assert.Equal(t, Coordinate{11.7788, 76.4647}, sel.Coordinate())
	})

	t.Run("district outside state cascades from state", func(t *testing.T) {
		sel := r.Normalize(Selection{State: "Gujarat", District: "Mysuru", Reserve: "Nagarhole"})
		assert.Equal(t, r.CascadeOnStateChange("Gujarat"), sel)
	})

	t.Run("reserve outside district cascades from district", func(t *testing.T) {
		sel := r.Normalize(Selection{State: "Karnataka", District: "Mysuru", Reserve: "BRT"})
		assert.Equal(t, r.CascadeOnDistrictChange("Karnataka", "Mysuru"), sel)
	})

	t.Run("empty reserve under a district with reserves picks the first", func(t *testing.T) {
		sel := r.Normalize(Selection{State: "Karnataka", District: "Chamarajanagar"})
		assert.Equal(t, "BRT", sel.Reserve)
	})

	t.Run("None sentinel reads as empty", func(t *testing.T) {
		sparse := NewResolver(sparseReference())
		sel := sparse.Normalize(Selection{State: "Alpha", District: "Quiet", Reserve: NoReserve})
		assert.Equal(t, "Quiet", sel.District)
		assert.Empty(t, sel.Reserve)
	})

	t.Run("reserve under reserve-less district is dropped", func(t *testing.T) {
		sparse := NewResolver(sparseReference())
		sel := sparse.Normalize(Selection{State: "Alpha", District: "Quiet", Reserve: "North Park"})
		assert.Empty(t, sel.Reserve)
		assert.Equal(t, Coordinate{12, 22}, sel.Coordinate())
	})

	t.Run("unknown state cascades like a state change", func(t *testing.T) {
		sel := r.Normalize(Selection{State: testUnknownState, District: "Mysuru"})
		assert.Equal(t, r.CascadeOnStateChange(testUnknownState), sel)
	})

	t.Run("output is a fixed point", func(t *testing.T) {
		for _, state := range r.ListStates() {
			for _, d := range r.ListDistricts(state) {
				for _, res := range r.ListReserves(d) {
					once := r.Normalize(Selection{State: state, District: d, Reserve: res})
					assert.Equal(t, once, r.Normalize(once))
				}
			}
		}
	})
}

func TestNewResolver_CopiesReference(t *testing.T) {
	ref := sparseReference()
	r := NewResolver(ref)

	ref.Districts["Alpha"][0] = "Mutated"
	ref.ReserveCoords["North Park"] = Coordinate{0, 0}
	ref.States[0] = "Gamma"

	assert.Equal(t, []string{"Quiet", "Busy"}, r.ListDistricts("Alpha"))
	assert.Equal(t, Coordinate{10, 20}, r.ResolveCoordinate("", "", "North Park"))
	assert.True(t, r.HasState("Alpha"))
}
