package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountInWords spells a rupee amount the way it is written on a cheque.
// Example: 146800.50 -> "RUPEES ONE LAKH FORTY SIX THOUSAND EIGHT HUNDRED AND 50/100 ONLY"
func AmountInWords(amount decimal.Decimal) string {
	amount = amount.Round(2)
	sign := ""
	if amount.IsNegative() {
		sign = "MINUS "
		amount = amount.Neg()
	}
	integerPart := amount.Truncate(0)
	paisa := amount.Sub(integerPart).Mul(decimal.NewFromInt(100)).IntPart()

	words := numberToWords(integerPart.IntPart())
	return fmt.Sprintf("RUPEES %s%s AND %02d/100 ONLY", sign, words, paisa)
}

func numberToWords(n int64) string {
	if n == 0 {
		return "ZERO"
	}
	if n < 0 {
		return "MINUS " + numberToWords(-n)
	}

	var parts []string
	for _, scale := range scales {
		if n >= scale.value {
			parts = append(parts, belowThousand(n/scale.value)+" "+scale.name)
			n %= scale.value
		}
	}
	if n > 0 {
		parts = append(parts, belowThousand(n))
	}
	return strings.Join(parts, " ")
}

// belowThousand handles 1..999; larger counts only occur for crores
func belowThousand(n int64) string {
	if n >= 1000 {
		return numberToWords(n)
	}

	var parts []string
	if n >= 100 {
		parts = append(parts, units[n/100]+" HUNDRED")
		n %= 100
	}
	switch {
	case n >= 20:
		if n%10 == 0 {
			parts = append(parts, tens[n/10])
		} else {
			parts = append(parts, tens[n/10]+" "+units[n%10])
		}
	case n > 0:
		parts = append(parts, units[n])
	}
	return strings.Join(parts, " ")
}

var scales = []struct {
	value int64
	name  string
}{
	{10000000, "CRORE"},
	{100000, "LAKH"},
	{1000, "THOUSAND"},
}

var units = []string{
	"", "ONE", "TWO", "THREE", "FOUR", "FIVE", "SIX", "SEVEN", "EIGHT", "NINE",
	"TEN", "ELEVEN", "TWELVE", "THIRTEEN", "FOURTEEN", "FIFTEEN", "SIXTEEN", "SEVENTEEN", "EIGHTEEN", "NINETEEN",
}

var tens = []string{
	"", "", "TWENTY", "THIRTY", "FORTY", "FIFTY", "SIXTY", "SEVENTY", "EIGHTY", "NINETY",
}
