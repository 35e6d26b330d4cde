package eodatasets

import (
	"sort"
	"strconv"
	"strings"

	"github.com/GeoscienceAustralia/eodatasets/utils"
)

type namedGrid struct {
	name  string
	entry *gridEntry
}

// assignNames gives every grid a short human-readable name. The grid with
// the most measurements is always "default"; the rest are named by the first
// fully successful strategy: semantic affixes, then pixel resolution, then
// sequential letters.
func (r *MeasurementRegistry) assignNames() (named []namedGrid, err error) {
	byFrequency := make([]*gridEntry, len(r.grids))
	copy(byFrequency, r.grids)
	sort.SliceStable(byFrequency, func(i, j int) bool {
		return len(byFrequency[i].members) > len(byFrequency[j].members)
	})
	def := byFrequency[0]
	rest := byFrequency[1:]

	named = []namedGrid{{name: DEFAULT_GRID_NAME, entry: def}}
	if len(rest) == 0 {
		return
	}
	for _, strategy := range []func(*MeasurementRegistry, []*gridEntry) ([]string, bool){
		(*MeasurementRegistry).semanticNames,
		(*MeasurementRegistry).resolutionNames,
	} {
		if names, ok := strategy(r, rest); ok {
			for i, e := range rest {
				named = append(named, namedGrid{name: names[i], entry: e})
			}
			return
		}
	}
	// Last resort: grid "a", grid "b", ...
	if len(rest) > len(GridNameLetters) {
		err = ErrTooManyGrids
		named = nil
		return
	}
	for i, e := range rest {
		named = append(named, namedGrid{name: GridNameLetters[i : i+1], entry: e})
	}
	return
}

// semanticNames tries to name each non-default grid after its single
// measurement, or a common affix of its measurements. Any unnameable grid or
// name clash abandons the whole stage.
func (r *MeasurementRegistry) semanticNames(rest []*gridEntry) (names []string, ok bool) {
	all := r.Names()
	taken := map[string]bool{DEFAULT_GRID_NAME: true}
	for _, e := range rest {
		var name string
		if len(e.members) == 1 {
			name = r.arena[e.members[0]].name
		} else {
			group := make([]string, 0, len(e.members))
			for _, mi := range e.members {
				group = append(group, r.arena[mi].name)
			}
			if name = findACommonName(group, all); name == "" {
				return
			}
		}
		if taken[name] {
			return
		}
		taken[name] = true
		names = append(names, name)
	}
	ok = true
	return
}

// resolutionNames names each non-default grid by its absolute x pixel size,
// truncated to an integer when above 1. Clashes abandon the stage.
func (r *MeasurementRegistry) resolutionNames(rest []*gridEntry) (names []string, ok bool) {
	taken := map[string]bool{DEFAULT_GRID_NAME: true}
	for _, e := range rest {
		resX, _ := e.grid.Resolution()
		var name string
		if resX > 1 {
			name = strconv.Itoa(int(resX))
		} else {
			name = strconv.FormatFloat(resX, 'g', -1, 64)
		}
		if taken[name] {
			return
		}
		taken[name] = true
		names = append(names, name)
	}
	ok = true
	return
}

// findACommonName finds a nice name for a group of band names: the longest
// token-delimited common prefix or suffix not shared with any name outside
// the group. Empty result means nothing useful was found.
func findACommonName(group []string, allNames []string) string {
	inGroup := make(map[string]bool, len(group))
	for _, n := range group {
		inGroup[n] = true
	}
	var outside []string
	for _, n := range allNames {
		if !inGroup[n] {
			outside = append(outside, n)
		}
	}

	var options []string
	prefix := utils.CommonPrefix(group)
	if !anyAffix(outside, prefix, strings.HasPrefix) {
		options = append(options, strings.Trim(prefix, "_:"))
	}
	suffix := utils.CommonSuffix(group)
	if !anyAffix(outside, suffix, strings.HasSuffix) {
		options = append(options, strings.Trim(suffix, "_:"))
	}
	if len(options) == 0 {
		return ""
	}
	sort.SliceStable(options, func(i, j int) bool { return len(options[i]) > len(options[j]) })
	return options[0]
}

func anyAffix(names []string, affix string, match func(string, string) bool) bool {
	for _, n := range names {
		if match(n, affix) {
			return true
		}
	}
	return false
}
