package viewkit

import (
	"errors"
	"strings"
	"unicode"

	"github.com/ttacon/libphonenumber"
)

// DefaultPhoneRegion используется когда поле не задает регион явно
const DefaultPhoneRegion = "KR"

var (
	ErrPhoneTooShort = errors.New("phone number is too short")
	ErrPhoneInvalid  = errors.New("phone number is not valid")
)

// NormalizePhone валидирует и форматирует номер телефона по правилам региона
// Номера короче 7 цифр отклоняются до разбора. Известные страны получают
// свой шаблон отображения: KR - национальный формат (010-NNNN-NNNN),
// остальные - международный с дефисами
func NormalizePhone(raw, region string) (string, error) {
	if region == "" {
		region = DefaultPhoneRegion
	}

	if digitCount(raw) < 7 {
		return "", ErrPhoneTooShort
	}

	p, err := libphonenumber.Parse(raw, region)
	if err != nil {
		return "", ErrPhoneInvalid
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", ErrPhoneInvalid
	}

	switch region {
	case "KR":
		// Национальный формат KR уже использует дефисы: 010-1234-5678
		return libphonenumber.Format(p, libphonenumber.NATIONAL), nil
	default:
		// +84-91-234-5678 и аналоги
		formatted := libphonenumber.Format(p, libphonenumber.INTERNATIONAL)
		return strings.ReplaceAll(formatted, " ", "-"), nil
	}
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
