// Package recent manages the persistence and retrieval of recently played sources.
package recent

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/metafates/gache"
	"github.com/mpvctl-cli/mpvctl/filesystem"
	"github.com/mpvctl-cli/mpvctl/key"
	"github.com/mpvctl-cli/mpvctl/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

type record struct {
	Rank   int    `json:"rank"`
	Source string `json:"source"`
}

var cacher = gache.New[map[string]*record](
	&gache.Options{
		Path:       where.Recent(),
		FileSystem: &filesystem.GacheFs{},
	},
)

var suggestionCache = make(map[string][]*record)

// Remember records a played source in the persistent registry or increments its popularity rank.
func Remember(source string, weight int) error {
	if !viper.GetBool(key.RecentEnable) {
		return nil
	}

	source = sanitize(source)
	cached, expired, err := cacher.Get()
	if expired || err != nil || cached == nil {
		cached = make(map[string]*record)
	}

	if r, ok := cached[source]; ok {
		r.Rank += weight
	} else {
		cached[source] = &record{Rank: weight, Source: source}
	}

	return cacher.Set(cached)
}

// Suggest returns the most relevant recently played source for a partial input.
func Suggest(input string) mo.Option[string] {
	suggestions := SuggestMany(input)
	if len(suggestions) == 0 {
		return mo.None[string]()
	}
	return mo.Some(suggestions[0])
}

// SuggestMany returns recently played sources matching the partial input, sorted by popularity rank.
func SuggestMany(input string) []string {
	if !viper.GetBool(key.RecentSuggestions) {
		return []string{}
	}

	input = sanitize(input)
	var records []*record

	if prev, ok := suggestionCache[input]; ok {
		records = prev
	} else {
		cached, expired, err := cacher.Get()
		if err != nil || expired || cached == nil {
			return []string{}
		}

		for _, r := range cached {
			if fuzzy.MatchFold(input, r.Source) {
				records = append(records, r)
			}
		}

		slices.SortFunc(records, func(a, b *record) int {
			return b.Rank - a.Rank // Descending rank
		})

		suggestionCache[input] = records
	}

	return lo.Map(records, func(r *record, _ int) string {
		return r.Source
	})
}

// List returns every remembered source, most played first.
func List() []string {
	cached, expired, err := cacher.Get()
	if err != nil || expired || cached == nil {
		return []string{}
	}

	records := lo.Values(cached)
	slices.SortFunc(records, func(a, b *record) int {
		return b.Rank - a.Rank
	})

	return lo.Map(records, func(r *record, _ int) string {
		return r.Source
	})
}

// Sources are paths and URLs; trim surrounding whitespace but preserve case.
func sanitize(source string) string {
	return strings.TrimSpace(source)
}
