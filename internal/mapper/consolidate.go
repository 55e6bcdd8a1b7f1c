package mapper

import (
	"sort"

	"github.com/Sjoeborg/krona/internal/model"
)

// consolidate turns flat alias/ISIN tables into symbol groups, merging
// transitively linked entries (A->B plus B->C) into a single group so a
// synonym never belongs to more than one group. The canonical symbol of
// a merged group is chosen via ChooseCanonical.
func consolidate(symbolMappings, isinMappings map[string]string) map[string]*model.SymbolGroup {
	// Union of every symbol that appears on either side of the alias
	// table, linked to everything it maps to or from.
	adjacency := make(map[string]map[string]struct{})
	link := func(a, b string) {
		if adjacency[a] == nil {
			adjacency[a] = make(map[string]struct{})
		}
		if adjacency[b] == nil {
			adjacency[b] = make(map[string]struct{})
		}
		adjacency[a][b] = struct{}{}
		adjacency[b][a] = struct{}{}
	}
	for source, target := range symbolMappings {
		if source != target {
			link(source, target)
		}
	}
	for _, canonical := range isinMappings {
		if adjacency[canonical] == nil {
			adjacency[canonical] = make(map[string]struct{})
		}
	}

	groups := make(map[string]*model.SymbolGroup)
	visited := make(map[string]struct{})

	// Iterate in sorted order so group construction is deterministic.
	symbols := make([]string, 0, len(adjacency))
	for s := range adjacency {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	for _, start := range symbols {
		if _, done := visited[start]; done {
			continue
		}

		component := collectComponent(start, adjacency, visited)
		canonical := ChooseCanonical(component)

		group := &model.SymbolGroup{CanonicalSymbol: canonical}
		for _, symbol := range component {
			if symbol != canonical && !group.HasSynonym(symbol) {
				group.Synonyms = append(group.Synonyms, symbol)
			}
		}
		groups[canonical] = group
	}

	// Attach ISINs to the group their mapped canonical ended up in.
	isins := make([]string, 0, len(isinMappings))
	for isin := range isinMappings {
		isins = append(isins, isin)
	}
	sort.Strings(isins)

	for _, isin := range isins {
		target := isinMappings[isin]
		group := findGroup(groups, target)
		if group == nil {
			group = &model.SymbolGroup{CanonicalSymbol: target}
			groups[target] = group
		}
		if !group.HasISIN(isin) {
			group.ISINs = append(group.ISINs, isin)
		}
	}

	return groups
}

// collectComponent walks the adjacency graph from start and returns the
// sorted connected component, marking every member visited.
func collectComponent(start string, adjacency map[string]map[string]struct{}, visited map[string]struct{}) []string {
	var component []string
	stack := []string{start}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, done := visited[current]; done {
			continue
		}
		visited[current] = struct{}{}
		component = append(component, current)
		for neighbor := range adjacency[current] {
			stack = append(stack, neighbor)
		}
	}
	sort.Strings(component)
	return component
}

// findGroup locates the group containing symbol as canonical or synonym.
func findGroup(groups map[string]*model.SymbolGroup, symbol string) *model.SymbolGroup {
	if group, ok := groups[symbol]; ok {
		return group
	}
	for _, group := range groups {
		if group.HasSynonym(symbol) {
			return group
		}
	}
	return nil
}
