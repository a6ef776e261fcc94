// Package adducts holds the catalog of mass spectrometry adducts known to the
// connectors, with the spelling each source uses for them.
package adducts

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"lipidlibrarian/pkg/models"
)

//go:embed adducts.csv
var defaultCSV []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Catalog is an immutable adduct table. Every lookup returns fresh copies so
// callers may attach masses and fragments freely.
type Catalog struct {
	entries []*models.Adduct
	byAlias map[string]int
}

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(bytes.NewReader(defaultCSV))
	})
	if defaultErr != nil {
		// embedded data is validated by tests
		panic(defaultErr)
	}
	return defaultCatalog
}

// Parse reads a catalog from CSV with the columns adduct_name, adduct_mass,
// adduct_charge, adduct_swisslipids_name, adduct_swisslipids_abbrev and
// adduct_lipidmaps_name.
func Parse(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := readHeader(cr)
	if err != nil {
		return nil, errors.Wrap(err, "read adduct header")
	}

	c := &Catalog{byAlias: make(map[string]int)}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read adduct line %d", line)
		}
		name := valueAt(header, row, "adduct_name")
		if name == "" {
			continue
		}
		mass, err := strconv.ParseFloat(valueAt(header, row, "adduct_mass"), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parse mass of adduct %s", name)
		}
		charge, err := strconv.Atoi(valueAt(header, row, "adduct_charge"))
		if err != nil {
			return nil, errors.Wrapf(err, "parse charge of adduct %s", name)
		}
		a := &models.Adduct{
			Name:              name,
			AdductMass:        mass,
			Charge:            charge,
			SwissLipidsName:   valueAt(header, row, "adduct_swisslipids_name"),
			SwissLipidsAbbrev: valueAt(header, row, "adduct_swisslipids_abbrev"),
			LipidMapsName:     valueAt(header, row, "adduct_lipidmaps_name"),
		}
		idx := len(c.entries)
		c.entries = append(c.entries, a)
		for _, alias := range []string{a.Name, a.SwissLipidsName, a.SwissLipidsAbbrev, a.LipidMapsName} {
			if alias == "" {
				continue
			}
			key := strings.ToLower(alias)
			if _, dup := c.byAlias[key]; !dup {
				c.byAlias[key] = idx
			}
		}
	}
	if len(c.entries) == 0 {
		return nil, errors.New("adduct catalog is empty")
	}
	return c, nil
}

// Lookup finds an adduct by name or any source alias, case-insensitively.
func (c *Catalog) Lookup(name string) (*models.Adduct, bool) {
	idx, ok := c.byAlias[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return c.entries[idx].Clone(), true
}

func (c *Catalog) All() []*models.Adduct {
	return c.filter(func(*models.Adduct) bool { return true })
}

func (c *Catalog) Positive() []*models.Adduct {
	return c.filter(func(a *models.Adduct) bool { return a.Charge > 0 })
}

func (c *Catalog) Negative() []*models.Adduct {
	return c.filter(func(a *models.Adduct) bool { return a.Charge < 0 })
}

// Select resolves names in order, skipping unknown names and duplicates.
func (c *Catalog) Select(names []string) []*models.Adduct {
	var out []*models.Adduct
	seen := make(map[int]bool)
	for _, name := range names {
		idx, ok := c.byAlias[strings.ToLower(strings.TrimSpace(name))]
		if !ok || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, c.entries[idx].Clone())
	}
	return out
}

// MaxAbsMass is the largest absolute adduct mass in adducts.
func MaxAbsMass(adducts []*models.Adduct) float64 {
	var m float64
	for _, a := range adducts {
		v := a.AdductMass
		if v < 0 {
			v = -v
		}
		if v > m {
			m = v
		}
	}
	return m
}

// Names returns the catalog names of adducts, sorted.
func Names(adducts []*models.Adduct) []string {
	out := make([]string, 0, len(adducts))
	for _, a := range adducts {
		out = append(out, a.Name)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) filter(keep func(*models.Adduct) bool) []*models.Adduct {
	var out []*models.Adduct
	for _, a := range c.entries {
		if keep(a) {
			out = append(out, a.Clone())
		}
	}
	return out
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
