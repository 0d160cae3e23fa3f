package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinOfferTitleLength       = 3
	MaxOfferTitleLength       = 200
	MaxOfferDescriptionLength = 5000
	MaxCost                   = int64(100_000_000_00) // 100 миллионов в минорных единицах
	MaxListingQuantity        = 1_000_000
	MaxListingsPerOffer       = 100
	MaxMergeSessions          = 20
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateCost проверяет сумму в минорных единицах.
func ValidateCost(fieldName string, value int64) error {
	if value < 0 {
		return fmt.Errorf("%s не может быть отрицательной", fieldName)
	}
	if value > MaxCost {
		return fmt.Errorf("%s не может превышать %d", fieldName, MaxCost)
	}
	return nil
}

// SanitizeString удаляет управляющие символы и обрезает пробелы.
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}
