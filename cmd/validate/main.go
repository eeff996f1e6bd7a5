// Command validate performs integrity checks on the built-in location
// reference: table consistency, dataset counts, cascade invariants and
// resolution precedence. Given a fixture written by cmd/genfixtures it also
// verifies the resolver still produces the same selections.
//
// Usage:
//
//	go run ./cmd/validate
//	go run ./cmd/validate -fixture data/fixtures/selections.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/couchcryptid/poaching-risk-service/internal/domain"
	"github.com/google/go-cmp/cmp"
)

const (
	wantStates    = 12
	wantDistricts = 24
	wantReserves  = 25
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// selectionFixture mirrors the document written by cmd/genfixtures.
type selectionFixture struct {
	Default  domain.Selection   `json:"default"`
	State    []domain.Selection `json:"state"`
	District []domain.Selection `json:"district"`
	Reserve  []domain.Selection `json:"reserve"`
}

func main() {
	fixture := flag.String("fixture", "", "optional path to a selection fixture from cmd/genfixtures")
	flag.Parse()

	if code := run(*fixture); code != 0 {
		os.Exit(code)
	}
}

func run(fixturePath string) int {
	fmt.Println("=== Location Reference Validation ===")
	fmt.Println()

	ref := domain.DefaultReference()
	r := domain.NewResolver(ref)

	phases := []*phase{
		validateReference(ref),
		validateCounts(ref),
		validateCascades(r),
		validatePrecedence(r, ref),
	}

	if fixturePath != "" {
		fx, err := loadFixture(fixturePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load fixture: %v\n", err)
			return 1
		}
		phases = append(phases, validateFixture(r, fx))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Reference: %d states, %d districts, %d reserves\n",
		len(ref.States), countDistricts(ref), len(ref.ReserveCoords))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadFixture(path string) (selectionFixture, error) {
	var fx selectionFixture
	data, err := os.ReadFile(path)
	if err != nil {
		return fx, err
	}
	err = json.Unmarshal(data, &fx)
	return fx, err
}

func countDistricts(ref domain.Reference) int {
	n := 0
	for _, state := range ref.States {
		n += len(ref.Districts[state])
	}
	return n
}

// ── Phase 1: Reference Integrity ──

func validateReference(ref domain.Reference) *phase {
	p := &phase{name: "Phase 1: Reference Integrity"}
	if err := ref.Validate(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			p.errorf("%s", line)
		}
	}
	return p
}

// ── Phase 2: Dataset Counts ──

func validateCounts(ref domain.Reference) *phase {
	p := &phase{name: "Phase 2: Dataset Counts"}
	if n := len(ref.States); n != wantStates {
		p.errorf("states: expected %d, got %d", wantStates, n)
	}
	if n := countDistricts(ref); n != wantDistricts {
		p.errorf("districts: expected %d, got %d", wantDistricts, n)
	}
	if n := len(ref.ReserveCoords); n != wantReserves {
		p.errorf("reserves: expected %d, got %d", wantReserves, n)
	}
	return p
}

// ── Phase 3: Cascade Invariants ──
// Every cascade result must be consistent and already normalized.

func validateCascades(r *domain.Resolver) *phase {
	p := &phase{name: "Phase 3: Cascade Invariants"}

	def := r.DefaultSelection()
	if def.State != domain.DefaultState {
		p.errorf("default selection: state %q, expected %q", def.State, domain.DefaultState)
	}
	checkSelection(p, r, "default", def)

	for _, state := range r.ListStates() {
		checkSelection(p, r, "state "+state, r.CascadeOnStateChange(state))
		for _, district := range r.ListDistricts(state) {
			sel := r.CascadeOnDistrictChange(state, district)
			if sel.District != district {
				p.errorf("district %s: cascade moved district to %q", district, sel.District)
			}
			checkSelection(p, r, "district "+district, sel)
		}
	}
	return p
}

func checkSelection(p *phase, r *domain.Resolver, label string, sel domain.Selection) {
	districts := r.ListDistricts(sel.State)
	if !slices.Contains(districts, sel.District) {
		p.errorf("%s: district %q not under state %q", label, sel.District, sel.State)
	}

	reserves := r.ListReserves(sel.District)
	switch {
	case reserves[0] == domain.NoReserve && sel.Reserve != "":
		p.errorf("%s: district %q has no reserves but got %q", label, sel.District, sel.Reserve)
	case reserves[0] != domain.NoReserve && sel.Reserve != reserves[0]:
		p.errorf("%s: reserve %q, expected first reserve %q", label, sel.Reserve, reserves[0])
	}

	if c := r.ResolveCoordinate(sel.State, sel.District, sel.Reserve); c != sel.Coordinate() {
		p.errorf("%s: coordinate %v does not match resolved %v", label, sel.Coordinate(), c)
	}
	if n := r.Normalize(sel); n != sel {
		p.errorf("%s: not a fixed point of Normalize: %+v became %+v", label, sel, n)
	}
}

// ── Phase 4: Resolution Precedence ──
// Reserve beats district beats state centroid beats fallback, and a
// reserve resolves the same regardless of its ancestors.

func validatePrecedence(r *domain.Resolver, ref domain.Reference) *phase {
	p := &phase{name: "Phase 4: Resolution Precedence"}

	for name, want := range ref.ReserveCoords {
		c, g := r.Resolve("", "", name)
		if g != domain.GranularityReserve || c != want {
			p.errorf("reserve %s: resolved %v (%s), expected %v", name, c, g, want)
		}
	}
	for _, state := range ref.States {
		for _, district := range ref.Districts[state] {
			c, g := r.Resolve(state, district, "")
			if g != domain.GranularityDistrict || c != ref.DistrictCoords[district] {
				p.errorf("district %s: resolved %v (%s), expected %v", district, c, g, ref.DistrictCoords[district])
			}
		}
		c, g := r.Resolve(state, "", "")
		if g != domain.GranularityState || c != ref.StateCentroids[state] {
			p.errorf("state %s: resolved %v (%s), expected %v", state, c, g, ref.StateCentroids[state])
		}
	}

	if c, g := r.Resolve("", "", ""); g != domain.GranularityFallback || c != domain.FallbackCentroid() {
		p.errorf("empty selection: resolved %v (%s), expected fallback %v", c, g, domain.FallbackCentroid())
	}
	return p
}

// ── Phase 5: Fixture Parity ──

func validateFixture(r *domain.Resolver, fx selectionFixture) *phase {
	p := &phase{name: "Phase 5: Fixture Parity (genfixtures)"}

	if diff := cmp.Diff(fx.Default, r.DefaultSelection()); diff != "" {
		p.errorf("default selection mismatch (-fixture +resolver):\n%s", diff)
	}

	var states, districts, reserves []domain.Selection
	for _, state := range r.ListStates() {
		states = append(states, r.CascadeOnStateChange(state))
		for _, district := range r.ListDistricts(state) {
			districts = append(districts, r.CascadeOnDistrictChange(state, district))
			for _, reserve := range r.ListReserves(district) {
				if reserve == domain.NoReserve {
					continue
				}
				reserves = append(reserves, r.CascadeOnReserveChange(state, district, reserve))
			}
		}
	}

	compareList(p, "state", fx.State, states)
	compareList(p, "district", fx.District, districts)
	compareList(p, "reserve", fx.Reserve, reserves)
	return p
}

func compareList(p *phase, level string, want, got []domain.Selection) {
	if len(want) != len(got) {
		p.errorf("%s cascades: fixture has %d, resolver produced %d", level, len(want), len(got))
		return
	}
	for i := range want {
		if diff := cmp.Diff(want[i], got[i]); diff != "" {
			p.errorf("%s cascade %d mismatch (-fixture +resolver):\n%s", level, i, diff)
		}
	}
}
