package service

import "testing"

func TestDisplayUnit_MillilitersBelowThreshold(t *testing.T) {
	t.Parallel()
	unit, amount := DisplayUnit(UnitCodeMilliliter, 999)
	if unit != "ml" || amount != 999 {
		t.Fatalf("expected 999 ml, got %v %s", amount, unit)
	}
}

func TestDisplayUnit_MillilitersAtThreshold(t *testing.T) {
	t.Parallel()
	unit, amount := DisplayUnit(UnitCodeMilliliter, 1000)
	if unit != "l" || amount != 1 {
		t.Fatalf("expected 1 l, got %v %s", amount, unit)
	}
}

func TestDisplayUnit_GramsConvertToKilograms(t *testing.T) {
	t.Parallel()
	unit, amount := DisplayUnit(UnitCodeGram, 1500)
	if unit != "kg" || amount != 1.5 {
		t.Fatalf("expected 1.5 kg, got %v %s", amount, unit)
	}
}

func TestDisplayUnit_GramsBelowThreshold(t *testing.T) {
	t.Parallel()
	unit, amount := DisplayUnit(UnitCodeGram, 999)
	if unit != "g" || amount != 999 {
		t.Fatalf("expected 999 g, got %v %s", amount, unit)
	}
}

func TestDisplayUnit_PiecesNeverConvert(t *testing.T) {
	t.Parallel()
	unit, amount := DisplayUnit(UnitCodePiece, 5000)
	if unit != "piece" || amount != 5000 {
		t.Fatalf("expected 5000 piece, got %v %s", amount, unit)
	}
}

func TestDisplayUnit_UnknownCodeFallsBackToPiece(t *testing.T) {
	t.Parallel()
	unit, amount := DisplayUnit(42, 3)
	if unit != "piece" || amount != 3 {
		t.Fatalf("expected 3 piece, got %v %s", amount, unit)
	}
}
