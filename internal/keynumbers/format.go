package keynumbers

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// Percent formats a raw ratio for publication with one decimal place.
func Percent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// PrecisePercent formats a raw ratio with two decimal places, used for the
// very small shares where one decimal would round to zero.
func PrecisePercent(ratio float64) string {
	return fmt.Sprintf("%.2f%%", ratio*100)
}

// Millions formats a dose count as grouped millions, e.g. "1,234.5 million".
func Millions(doses float64) string {
	return printer.Sprintf("%v million", number.Decimal(doses/1e6, number.Scale(1)))
}

// Fold formats a multiplier as a grouped whole number.
func Fold(factor float64) string {
	return printer.Sprintf("%v", number.Decimal(factor, number.Scale(0)))
}
