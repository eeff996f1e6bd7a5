// Command genfixtures walks the built-in location hierarchy and writes the
// selection every dropdown edit produces, for use as a golden fixture by the
// dashboard tests and by cmd/validate.
//
// Usage:
//
//	go run ./cmd/genfixtures -out data/fixtures/selections.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/poaching-risk-service/internal/domain"
)

// selectionFixture groups cascade results by the level that changed. Each
// list follows display order: states, then districts within each state,
// then reserves within each district.
type selectionFixture struct {
	Default  domain.Selection   `json:"default"`
	State    []domain.Selection `json:"state"`
	District []domain.Selection `json:"district"`
	Reserve  []domain.Selection `json:"reserve"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the selection fixture")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	r := domain.NewDefaultResolver()
	if err := domain.DefaultReference().Validate(); err != nil {
		return fmt.Errorf("built-in reference is inconsistent: %w", err)
	}

	fx := buildFixture(r)
	log.Printf("state cascades: %d", len(fx.State))
	log.Printf("district cascades: %d", len(fx.District))
	log.Printf("reserve cascades: %d", len(fx.Reserve))

	if err := writeJSON(*out, fx); err != nil {
		return fmt.Errorf("writing selection fixture: %w", err)
	}
	log.Printf("wrote selection fixture: %s", *out)

	printGranularity(r, fx)
	return nil
}

func buildFixture(r *domain.Resolver) selectionFixture {
	fx := selectionFixture{Default: r.DefaultSelection()}
	for _, state := range r.ListStates() {
		fx.State = append(fx.State, r.CascadeOnStateChange(state))
		for _, district := range r.ListDistricts(state) {
			fx.District = append(fx.District, r.CascadeOnDistrictChange(state, district))
			for _, reserve := range r.ListReserves(district) {
				if reserve == domain.NoReserve {
					continue
				}
				fx.Reserve = append(fx.Reserve, r.CascadeOnReserveChange(state, district, reserve))
			}
		}
	}
	return fx
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// printGranularity reports which coordinate table answered each district
// cascade, handy when updating test assertions.
func printGranularity(r *domain.Resolver, fx selectionFixture) {
	counts := map[domain.Granularity]int{}
	for _, sel := range fx.District {
		_, g := r.Resolve(sel.State, sel.District, sel.Reserve)
		counts[g]++
	}

	fmt.Println("\n=== District cascade granularity ===")
	fmt.Printf("reserve=%d, district=%d, state=%d, fallback=%d\n",
		counts[domain.GranularityReserve], counts[domain.GranularityDistrict],
		counts[domain.GranularityState], counts[domain.GranularityFallback])

	d := fx.Default
	fmt.Printf("\nDefault selection: %s / %s / %s (%g, %g)\n",
		d.State, d.District, d.ReserveName(), d.Latitude, d.Longitude)
}
