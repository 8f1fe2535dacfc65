package db

import (
	"context"
	"errors"
	"time"

	"wordrush/internal/words"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const wordBatchSize = 500

type Word struct {
	ID        uint      `gorm:"primaryKey"`
	Category  string    `gorm:"size:32;not null;uniqueIndex:idx_words_category_text"`
	Text      string    `gorm:"size:64;not null;uniqueIndex:idx_words_category_text"`
	Letter    string    `gorm:"size:1;not null;index"`
	CreatedAt time.Time `gorm:"not null"`
}

// WordRepo serves the word list from the words table.
type WordRepo struct {
	conn *gorm.DB
}

var _ words.Store = (*WordRepo)(nil)

func NewWordRepo(conn *gorm.DB) *WordRepo {
	return &WordRepo{conn: conn}
}

type letterCount struct {
	Letter   string
	Category string
	Total    int
}

func (r *WordRepo) LetterCounts(ctx context.Context) (map[string]map[string]int, error) {
	var rows []letterCount
	err := r.conn.WithContext(ctx).
		Model(&Word{}).
		Select("letter, category, count(*) as total").
		Group("letter, category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]map[string]int)
	for _, row := range rows {
		byCategory, ok := counts[row.Letter]
		if !ok {
			byCategory = make(map[string]int)
			counts[row.Letter] = byCategory
		}
		byCategory[row.Category] = row.Total
	}
	return counts, nil
}

func (r *WordRepo) HasWord(ctx context.Context, category, word string) (bool, error) {
	var n int64
	err := r.conn.WithContext(ctx).
		Model(&Word{}).
		Where("category = ? AND text = ?", category, words.Normalize(word)).
		Limit(1).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// LoadWords inserts entries into the words table, skipping ones already
// present, and returns how many rows were added.
func LoadWords(ctx context.Context, conn *gorm.DB, entries []words.Entry) (int, error) {
	if conn == nil {
		return 0, nil
	}
	records := make([]Word, 0, len(entries))
	for _, e := range entries {
		text := words.Normalize(e.Text)
		letter := words.LetterOf(text)
		if text == "" || letter == "" {
			continue
		}
		records = append(records, Word{Category: e.Category, Text: text, Letter: letter})
	}
	if len(records) == 0 {
		return 0, nil
	}
	result := conn.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&records, wordBatchSize)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// IsUniqueViolation reports whether err is a unique constraint failure.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
