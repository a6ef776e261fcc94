package nomenclature

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"lipidlibrarian/pkg/models"
)

var (
	// ErrUnparseable is returned for names outside the shorthand grammar.
	ErrUnparseable = errors.New("unparseable lipid name")
	// ErrLevelTooHigh is returned when a name is asked for at a level above
	// the one it was written at.
	ErrLevelTooHigh = errors.New("requested level above name level")
)

// maxCarbons bounds a single chain, or the summed chains of a sum-level
// name such as "CL 80:4".
const maxCarbons = 200

var (
	classPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)
	chainPattern = regexp.MustCompile(`^([OP]-)?(\d+):(\d+)(?:\(([^()]*)\))?(?:;O(\d*))?$`)
	// alex123 writes molecular species with '-' between chains
	dashSeparator = regexp.MustCompile(`([0-9)])-((?:[OP]-)?[0-9])`)
	bondPosition  = regexp.MustCompile(`^\d+[ZE]$`)
)

// Shorthand is a Normalizer for the common subset of LIPID MAPS shorthand
// notation: "CLASS c:d", molecular "CLASS c:d_c:d", sn-positional
// "CLASS c:d/c:d" and the parenthesised "CLASS(c:d/c:d)" spelling, with O-/P-
// ether prefixes, ";On" oxidation suffixes and "(9Z,12Z)" bond positions.
type Shorthand struct{}

func NewShorthand() Shorthand { return Shorthand{} }

type chain struct {
	prefix    string
	carbons   int
	bonds     int
	positions []string
	oxygens   int
}

func (c chain) format(withPositions bool) string {
	var b strings.Builder
	b.WriteString(c.prefix)
	fmt.Fprintf(&b, "%d:%d", c.carbons, c.bonds)
	if withPositions && len(c.positions) > 0 {
		b.WriteString("(" + strings.Join(c.positions, ",") + ")")
	}
	b.WriteString(formatOxygens(c.oxygens))
	return b.String()
}

// positioned reports whether every double bond has a position with Z/E geometry.
func (c chain) positioned() bool {
	if len(c.positions) != c.bonds {
		return false
	}
	for _, p := range c.positions {
		if !bondPosition.MatchString(p) {
			return false
		}
	}
	return true
}

func formatOxygens(n int) string {
	switch {
	case n <= 0:
		return ""
	case n == 1:
		return ";O"
	}
	return ";O" + strconv.Itoa(n)
}

type parsedName struct {
	class  lipidClass
	chains []chain
	level  models.Level
}

func parseName(name string) (*parsedName, error) {
	name = strings.TrimSpace(name)
	var classPart, rest string
	if i := strings.IndexByte(name, ' '); i > 0 {
		classPart, rest = name[:i], strings.TrimSpace(name[i+1:])
	} else if i := strings.IndexByte(name, '('); i > 0 && strings.HasSuffix(name, ")") {
		classPart, rest = name[:i], name[i+1:len(name)-1]
	} else {
		return nil, errors.Wrapf(ErrUnparseable, "%q", name)
	}
	if !classPattern.MatchString(classPart) || rest == "" {
		return nil, errors.Wrapf(ErrUnparseable, "%q", name)
	}

	rest = dashSeparator.ReplaceAllString(rest, "${1}_${2}")
	var parts []string
	var level models.Level
	switch {
	case strings.Contains(rest, "_"):
		parts = strings.FieldsFunc(rest, func(r rune) bool { return r == '_' || r == '/' })
		level = models.MolecularLipidSpecies
	case strings.Contains(rest, "/"):
		parts = strings.Split(rest, "/")
		level = models.StructuralLipidSpecies
	default:
		parts = []string{rest}
		level = models.SumLipidSpecies
	}

	p := &parsedName{class: lookupClass(classPart)}
	for _, part := range parts {
		c, err := parseChain(part)
		if err != nil {
			return nil, errors.Wrapf(err, "%q", name)
		}
		p.chains = append(p.chains, c)
	}
	total := 0
	for _, c := range p.chains {
		total += c.carbons
	}
	if total > maxCarbons {
		return nil, errors.Wrapf(ErrUnparseable, "%q has %d carbons", name, total)
	}

	if len(p.chains) == 1 && p.class.singleChain {
		level = models.StructuralLipidSpecies
	}
	if level == models.StructuralLipidSpecies && p.allPositioned() {
		level = models.IsomericLipidSpecies
	}
	p.level = level
	return p, nil
}

func parseChain(s string) (chain, error) {
	m := chainPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return chain{}, errors.Wrapf(ErrUnparseable, "chain %q", s)
	}
	c := chain{prefix: m[1]}
	var err error
	if c.carbons, err = chainNumber(m[2]); err != nil {
		return chain{}, errors.Wrapf(err, "chain %q carbons", s)
	}
	if c.bonds, err = chainNumber(m[3]); err != nil {
		return chain{}, errors.Wrapf(err, "chain %q double bonds", s)
	}
	if m[4] != "" {
		for _, pos := range strings.Split(m[4], ",") {
			c.positions = append(c.positions, strings.TrimSpace(pos))
		}
	}
	if strings.Contains(s, ";O") {
		c.oxygens = 1
		if m[5] != "" {
			if c.oxygens, err = chainNumber(m[5]); err != nil {
				return chain{}, errors.Wrapf(err, "chain %q oxygens", s)
			}
		}
	}
	if c.bonds > c.carbons {
		return chain{}, errors.Wrapf(ErrUnparseable, "chain %q has more double bonds than carbons", s)
	}
	return c, nil
}

func chainNumber(digits string) (int, error) {
	n, err := strconv.Atoi(digits)
	if err != nil || n > maxCarbons {
		return 0, errors.Wrapf(ErrUnparseable, "%s out of range", digits)
	}
	return n, nil
}

func (p *parsedName) allPositioned() bool {
	found := false
	for _, c := range p.chains {
		if c.bonds == 0 {
			continue
		}
		if !c.positioned() {
			return false
		}
		found = true
	}
	return found
}

// nameAt formats the parsed name at level. level must not exceed p.level.
func (p *parsedName) nameAt(level models.Level) string {
	cls := p.class.abbrev
	switch level {
	case models.LipidCategory:
		return p.class.category
	case models.LipidClass:
		return cls
	case models.SumLipidSpecies:
		if p.class.singleChain && len(p.chains) == 1 {
			return cls + " " + p.chains[0].format(false)
		}
		var total chain
		for _, c := range p.chains {
			if total.prefix == "" {
				total.prefix = c.prefix
			}
			total.carbons += c.carbons
			total.bonds += c.bonds
			total.oxygens += c.oxygens
		}
		return cls + " " + total.format(false)
	case models.MolecularLipidSpecies:
		chains := append([]chain(nil), p.chains...)
		sort.SliceStable(chains, func(i, j int) bool {
			a, b := chains[i], chains[j]
			if (a.prefix != "") != (b.prefix != "") {
				return a.prefix != ""
			}
			if a.carbons != b.carbons {
				return a.carbons < b.carbons
			}
			return a.bonds < b.bonds
		})
		return cls + " " + joinChains(chains, "_", false)
	case models.StructuralLipidSpecies:
		return cls + " " + joinChains(p.chains, "/", false)
	case models.IsomericLipidSpecies:
		return cls + " " + joinChains(p.chains, "/", true)
	}
	return ""
}

func joinChains(chains []chain, sep string, withPositions bool) string {
	parts := make([]string, len(chains))
	for i, c := range chains {
		parts[i] = c.format(withPositions)
	}
	return strings.Join(parts, sep)
}

// Normalize returns name at level. LevelUnknown yields the canonical name at
// the name's own level; LipidCategory and LipidClass yield the category and
// class abbreviation.
func (Shorthand) Normalize(ctx context.Context, name string, level models.Level) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := parseName(name)
	if err != nil {
		return "", err
	}
	if level == models.LevelUnknown {
		level = p.level
	}
	if level > p.level {
		return "", errors.Wrapf(ErrLevelTooHigh, "%q is %s, asked for %s", name, p.level, level)
	}
	out := p.nameAt(level)
	if out == "" {
		return "", errors.Wrapf(ErrUnparseable, "%q has no %s", name, level)
	}
	return out, nil
}
