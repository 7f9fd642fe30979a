package services

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ldelattre/microgest/internal/models"
)

// Document number prefixes.
const (
	InvoicePrefix = "INV"
	QuotePrefix   = "DEV"
)

// Sequential numbers carry at most 6 digits; a longer suffix is a
// timestamp-based fallback number and must not be incremented.
var seqSuffixRe = regexp.MustCompile(`^([A-Z]+)-(\d{1,6})$`)

func prefixFor(kind string) string {
	if kind == models.SequenceKindQuote {
		return QuotePrefix
	}
	return InvoicePrefix
}

// ParseNumber extracts the sequential counter from a document number.
func ParseNumber(prefix, number string) (int, bool) {
	m := seqSuffixRe.FindStringSubmatch(number)
	if m == nil || m[1] != prefix {
		return 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatNumber renders a sequential number, zero-padded to 3 digits.
func FormatNumber(prefix string, n int) string {
	return fmt.Sprintf("%s-%03d", prefix, n)
}

// fallbackNumber is used when no sequential predecessor exists.
func fallbackNumber(prefix string, now time.Time) string {
	return prefix + "-" + now.Format("20060102150405")
}

// NextNumber derives the number following last: "INV-007" -> "INV-008".
// When last is empty or does not carry a sequential suffix, it falls back to
// a time-based number.
func NextNumber(prefix, last string) string {
	if n, ok := ParseNumber(prefix, last); ok {
		return FormatNumber(prefix, n+1)
	}
	return fallbackNumber(prefix, time.Now())
}

// AllocateNumber hands out the next document number for the owner inside the
// caller's transaction. The per-owner counter row is locked for the duration
// of the transaction, so concurrent sessions cannot obtain the same number.
// The first allocation seeds the counter from the owner's most recent
// document; with no usable predecessor the first number is time-based and
// the counter starts at 1.
func AllocateNumber(tx *gorm.DB, userID uint, kind string) (string, error) {
	prefix := prefixFor(kind)

	q := tx
	if tx.Dialector.Name() == "postgres" {
		// sqlite has no SELECT ... FOR UPDATE; its single writer covers us
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var seq models.NumberSequence
	err := q.Where("user_id = ? AND kind = ?", userID, kind).
		First(&seq).Error
	if err == nil {
		number := FormatNumber(prefix, seq.Next)
		seq.Next++
		if err := tx.Save(&seq).Error; err != nil {
			return "", err
		}
		return number, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	// No counter yet: seed from the latest existing document number.
	last, err := lastNumber(tx, userID, kind)
	if err != nil {
		return "", err
	}
	var number string
	next := 1
	if n, ok := ParseNumber(prefix, last); ok {
		number = FormatNumber(prefix, n+1)
		next = n + 2
	} else {
		number = fallbackNumber(prefix, time.Now())
	}
	seq = models.NumberSequence{UserID: userID, Kind: kind, Next: next}
	if err := tx.Create(&seq).Error; err != nil {
		return "", err
	}
	return number, nil
}

func lastNumber(tx *gorm.DB, userID uint, kind string) (string, error) {
	var numbers []string
	model := any(&models.Invoice{})
	if kind == models.SequenceKindQuote {
		model = &models.Quote{}
	}
	err := tx.Model(model).
		Where("user_id = ?", userID).
		Order("id desc").
		Limit(1).
		Pluck("number", &numbers).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}
