package words

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"wordrush/internal/game"
)

// Store is the word list the oracle and validator read from.
type Store interface {
	// LetterCounts returns letter -> category -> number of known words.
	LetterCounts(ctx context.Context) (map[string]map[string]int, error)
	HasWord(ctx context.Context, category, word string) (bool, error)
}

type Entry struct {
	Category string
	Text     string
}

// Normalize lowercases a word and collapses inner whitespace.
func Normalize(word string) string {
	return strings.ToLower(strings.Join(strings.Fields(word), " "))
}

// LetterOf returns the upper case A-Z initial of a word, or "" if it does not
// start with an ASCII letter.
func LetterOf(word string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(word))
	r = unicode.ToUpper(r)
	if r < 'A' || r > 'Z' {
		return ""
	}
	return string(r)
}

// ReadCSV parses "category,word" rows. The first row is a header. Rows with
// an unknown category or an empty word are skipped.
func ReadCSV(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		category, ok := game.LookupCategory(row[0])
		if !ok {
			continue
		}
		text := Normalize(row[1])
		if text == "" {
			continue
		}
		entries = append(entries, Entry{Category: category.ID, Text: text})
	}
	return entries, nil
}

func ReadCSVFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadCSV(file)
}

// MemoryStore keeps the word list in process. It backs the server when no
// database is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	words map[string]map[string]struct{}
}

func NewMemoryStore(entries []Entry) *MemoryStore {
	s := &MemoryStore{words: make(map[string]map[string]struct{})}
	s.Add(entries...)
	return s
}

func (s *MemoryStore) Add(entries ...Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		text := Normalize(e.Text)
		if text == "" {
			continue
		}
		set, ok := s.words[e.Category]
		if !ok {
			set = make(map[string]struct{})
			s.words[e.Category] = set
		}
		set[text] = struct{}{}
	}
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, set := range s.words {
		n += len(set)
	}
	return n
}

func (s *MemoryStore) LetterCounts(ctx context.Context) (map[string]map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]map[string]int)
	for category, set := range s.words {
		for word := range set {
			letter := LetterOf(word)
			if letter == "" {
				continue
			}
			byCategory, ok := counts[letter]
			if !ok {
				byCategory = make(map[string]int)
				counts[letter] = byCategory
			}
			byCategory[category]++
		}
	}
	return counts, nil
}

func (s *MemoryStore) HasWord(ctx context.Context, category, word string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.words[category][Normalize(word)]
	return ok, nil
}
