// Package filter provides keyword-group matching for headlines.
// engine.go implements an Aho-Corasick based engine: one pass over the title
// yields the set of present words, then cheap per-group logic decides matches.
package filter

import (
	"sort"
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"github.com/google/uuid"

	"github.com/jonesrussell/trendwatch/internal/logger"
	"github.com/jonesrussell/trendwatch/internal/models"
)

// group is the compiled form of a word group: lowercased word lists split by
// kind, plus the metadata report building needs.
type group struct {
	id              uuid.UUID
	key             string
	position        int
	maxDisplayCount int
	required        []string
	normal          []string
	filter          []string
}

// matchable reports whether the group can ever match a title. Groups with
// neither required nor normal words (including filter-only groups) never do.
func (g *group) matchable() bool {
	return len(g.required) > 0 || len(g.normal) > 0
}

// Engine matches titles against the active word groups. Matching semantics,
// checked in order per group:
//  1. any filter word present → no match;
//  2. every required word must be present;
//  3. with normal words configured, at least one must be present — a group
//     carrying only required words matches on those alone.
//
// Word comparison is case-insensitive substring containment, so CJK titles
// work unchanged. UpdateGroups rebuilds the automaton atomically; Evaluate
// holds the read lock for the whole pass.
type Engine struct {
	mu      sync.RWMutex
	matcher *ahocorasick.Matcher
	words   []string // distinct lowercased words backing the matcher
	groups  []group  // active groups in position order
	source  []models.WordGroup
	log     logger.Logger
}

// NewEngine compiles the given groups into a matcher
func NewEngine(groups []models.WordGroup, log logger.Logger) *Engine {
	engine := &Engine{log: log}
	// No lock needed in the constructor, nothing shares the engine yet.
	engine.rebuildLocked(groups)

	if log != nil {
		log.Info("filter engine initialized",
			logger.Int("groups", len(engine.groups)),
			logger.Int("words", len(engine.words)))
	}
	return engine
}

// rebuildLocked compiles groups into the automaton.
// MUST be called with e.mu held for writing (or from the constructor).
func (e *Engine) rebuildLocked(source []models.WordGroup) {
	e.source = make([]models.WordGroup, len(source))
	copy(e.source, source)

	e.groups = make([]group, 0, len(source))
	seen := make(map[string]bool)
	e.words = e.words[:0]

	addWords := func(words []string) []string {
		lowered := make([]string, 0, len(words))
		for _, w := range words {
			lw := strings.ToLower(strings.TrimSpace(w))
			if lw == "" {
				continue
			}
			lowered = append(lowered, lw)
			if !seen[lw] {
				seen[lw] = true
				e.words = append(e.words, lw)
			}
		}
		return lowered
	}

	for i := range source {
		wg := &source[i]
		e.groups = append(e.groups, group{
			id:              wg.ID,
			key:             wg.GroupKey,
			position:        wg.Position,
			maxDisplayCount: wg.MaxDisplayCount,
			required:        addWords(wg.WordsOfKind(models.WordKindRequired)),
			normal:          addWords(wg.WordsOfKind(models.WordKindNormal)),
			filter:          addWords(wg.WordsOfKind(models.WordKindFilter)),
		})
	}

	sort.SliceStable(e.groups, func(i, j int) bool {
		return e.groups[i].position < e.groups[j].position
	})

	if len(e.words) > 0 {
		e.matcher = ahocorasick.NewStringMatcher(e.words)
	} else {
		e.matcher = nil
	}
}

// UpdateGroups hot-swaps the active groups without restart.
// Thread-safe: in-flight Evaluate calls finish against the old automaton.
func (e *Engine) UpdateGroups(groups []models.WordGroup) {
	e.mu.Lock()
	e.rebuildLocked(groups)
	groupCount := len(e.groups)
	wordCount := len(e.words)
	e.mu.Unlock()

	if e.log != nil {
		e.log.Info("filter engine updated",
			logger.Int("groups", groupCount),
			logger.Int("words", wordCount))
	}
}

// Evaluate reports the match decision for every group keyed by group id
func (e *Engine) Evaluate(title string) map[uuid.UUID]bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	present := e.presentWordsLocked(title)

	results := make(map[uuid.UUID]bool, len(e.groups))
	for i := range e.groups {
		results[e.groups[i].id] = e.groups[i].matches(present)
	}
	return results
}

// MatchingGroups returns the ids of matching groups in position order
func (e *Engine) MatchingGroups(title string) []uuid.UUID {
	e.mu.RLock()
	defer e.mu.RUnlock()

	present := e.presentWordsLocked(title)

	var matched []uuid.UUID
	for i := range e.groups {
		if e.groups[i].matches(present) {
			matched = append(matched, e.groups[i].id)
		}
	}
	return matched
}

// Groups returns a copy of the group snapshot the engine currently matches
// against, in position order.
func (e *Engine) Groups() []models.WordGroup {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]models.WordGroup, len(e.source))
	copy(result, e.source)
	return result
}

// GroupCount returns the number of compiled groups
func (e *Engine) GroupCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.groups)
}

// WordCount returns the number of distinct words in the automaton
func (e *Engine) WordCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.words)
}

// presentWordsLocked runs the single Aho-Corasick pass.
// MUST be called with e.mu held.
func (e *Engine) presentWordsLocked(title string) map[string]bool {
	if e.matcher == nil || title == "" {
		return nil
	}

	hits := e.matcher.Match([]byte(strings.ToLower(title)))

	present := make(map[string]bool, len(hits))
	for _, hit := range hits {
		if hit < len(e.words) {
			present[e.words[hit]] = true
		}
	}
	return present
}

func (g *group) matches(present map[string]bool) bool {
	if !g.matchable() {
		return false
	}
	for _, w := range g.filter {
		if present[w] {
			return false
		}
	}
	for _, w := range g.required {
		if !present[w] {
			return false
		}
	}
	if len(g.normal) == 0 {
		return true
	}
	for _, w := range g.normal {
		if present[w] {
			return true
		}
	}
	return false
}
