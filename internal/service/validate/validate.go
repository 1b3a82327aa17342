package validate

import (
	"errors"
	"math/rand/v2"
	"strings"
)

// Length of account numbers including the check digit
const AccountNumberLen = 10

var errInvalidCharacters = errors.New("number contains invalid characters")

// Sum digits according to Luhn algorithm
// If checkDigitIncluded is false, the rightmost digit of number is doubled (check digit to be appended)
func luhnSum(number string, checkDigitIncluded bool) (int, error) {
	sum := 0
	position := 1
	if !checkDigitIncluded {
		position = 2
	}

	// It's ok to work with string as bytes here
	for i := len(number) - 1; i >= 0; i-- {
		n := number[i]
		if n < '0' || n > '9' {
			return 0, errInvalidCharacters
		}

		digit := int(n - '0')
		if position%2 == 0 {
			digit *= 2
			if digit > 9 {
				digit = (digit % 10) + 1
			}
		}

		sum += digit
		position++
	}

	return sum, nil
}

func Luhn(number string) error {
	if number == "" {
		return errors.New("number is empty")
	}

	sum, err := luhnSum(number, true)
	if err != nil {
		return err
	}

	switch sum % 10 {
	case 0:
		return nil
	default:
		return errors.New("number is not valid according to Luhn algorithm")
	}
}

// Return digit that makes payload+digit valid Luhn number
func LuhnCheckDigit(payload string) (byte, error) {
	sum, err := luhnSum(payload, false)
	if err != nil {
		return 0, err
	}

	return byte('0' + (10-sum%10)%10), nil
}

// Generate random account number: AccountNumberLen-1 random digits and Luhn check digit
// First digit is never zero
func AccountNumber() string {
	var b strings.Builder
	b.Grow(AccountNumberLen)

	b.WriteByte(byte('1' + rand.IntN(9)))
	for range AccountNumberLen - 2 {
		b.WriteByte(byte('0' + rand.IntN(10)))
	}

	payload := b.String()
	check, _ := LuhnCheckDigit(payload) // payload is always digits
	return payload + string(check)
}
