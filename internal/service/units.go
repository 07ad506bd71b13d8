package service

// Unit codes used by the telemetry API for planogram ingredients.
const (
	UnitCodePiece      = 1
	UnitCodeMilliliter = 2
	UnitCodeGram       = 3
)

// displayThreshold is where milliliters become liters and grams kilograms.
const displayThreshold = 1000

// DisplayUnit converts a raw (unit code, amount) pair into the unit shown to
// the operator. Milliliters and grams switch to liters/kilograms once the
// amount reaches 1000; any other code counts in pieces, unconverted.
// Rounding up to whole display units is the caller's job.
func DisplayUnit(unitCode int, amount float64) (unit string, converted float64) {
	switch unitCode {
	case UnitCodeMilliliter:
		if amount >= displayThreshold {
			return "l", amount / displayThreshold
		}
		return "ml", amount
	case UnitCodeGram:
		if amount >= displayThreshold {
			return "kg", amount / displayThreshold
		}
		return "g", amount
	default:
		return "piece", amount
	}
}
