package game

import (
	"sort"
	"strings"
)

// Category is a prompt column shown to players. TimeLimit is in seconds and
// is only enforced client side.
type Category struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	TimeLimit int    `json:"time_limit"`
}

var catalog = []Category{
	{ID: "name", Label: "Name", TimeLimit: 20},
	{ID: "food", Label: "Food", TimeLimit: 25},
	{ID: "animal", Label: "Animal", TimeLimit: 25},
	{ID: "thing", Label: "Thing", TimeLimit: 25},
	{ID: "country", Label: "Country", TimeLimit: 30},
	{ID: "city", Label: "City", TimeLimit: 30},
	{ID: "profession", Label: "Profession", TimeLimit: 35},
	{ID: "plant", Label: "Plant", TimeLimit: 35},
}

var catalogByID = func() map[string]Category {
	out := make(map[string]Category, len(catalog))
	for _, c := range catalog {
		out[c.ID] = c
	}
	return out
}()

// Categories returns a copy of the category catalog.
func Categories() []Category {
	return append([]Category(nil), catalog...)
}

func CategoryIDs() []string {
	ids := make([]string, 0, len(catalog))
	for _, c := range catalog {
		ids = append(ids, c.ID)
	}
	return ids
}

func LookupCategory(id string) (Category, bool) {
	c, ok := catalogByID[strings.ToLower(strings.TrimSpace(id))]
	return c, ok
}

func DefaultConfig() Config {
	return Config{
		RoundsCount:         DefaultRoundsCount,
		SupportedCategories: CategoryIDs(),
		ExcludedLetters:     []string{},
	}
}

// normalizeConfig checks a config and returns it with categories lowercased,
// letters uppercased and both deduplicated and sorted.
func normalizeConfig(cfg Config) (Config, error) {
	if cfg.RoundsCount < MinRoundsCount || cfg.RoundsCount > MaxRoundsCount {
		return Config{}, badRequest("rounds_count must be between %d and %d", MinRoundsCount, MaxRoundsCount)
	}
	seen := make(map[string]struct{}, len(cfg.SupportedCategories))
	categories := make([]string, 0, len(cfg.SupportedCategories))
	for _, raw := range cfg.SupportedCategories {
		c, ok := LookupCategory(raw)
		if !ok {
			return Config{}, badRequest("unknown category %q", raw)
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		categories = append(categories, c.ID)
	}
	if len(categories) == 0 {
		return Config{}, badRequest("at least one category is required")
	}
	sort.Strings(categories)

	letterSeen := make(map[string]struct{}, len(cfg.ExcludedLetters))
	letters := make([]string, 0, len(cfg.ExcludedLetters))
	for _, raw := range cfg.ExcludedLetters {
		letter := strings.ToUpper(strings.TrimSpace(raw))
		if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
			return Config{}, badRequest("excluded letter %q must be a single letter A-Z", raw)
		}
		if _, dup := letterSeen[letter]; dup {
			continue
		}
		letterSeen[letter] = struct{}{}
		letters = append(letters, letter)
	}
	sort.Strings(letters)

	return Config{
		RoundsCount:         cfg.RoundsCount,
		SupportedCategories: categories,
		ExcludedLetters:     letters,
	}, nil
}
