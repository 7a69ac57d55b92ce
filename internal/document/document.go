package document

import (
	"strings"
)

type Type string

const (
	TypeCPF  Type = "CPF"
	TypeCNPJ Type = "CNPJ"
)

const (
	cpfLength  = 11
	cnpjLength = 14
)

// Status is the progressive-validation outcome used for field-level feedback:
// a document that is too short is reported as incomplete rather than invalid.
type Status string

const (
	StatusIncomplete Status = "INCOMPLETE"
	StatusInvalid    Status = "INVALID"
	StatusValid      Status = "VALID"
)

type ValidationResult struct {
	Type    Type   `json:"type"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// Digits strips every non-digit character from raw.
func Digits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Classify decides the document type by digit count: up to 11 digits is a CPF,
// anything longer is a CNPJ.
func Classify(raw string) Type {
	if len(Digits(raw)) <= cpfLength {
		return TypeCPF
	}
	return TypeCNPJ
}

// Validate runs the checksum for the classified document type.
func Validate(raw string) ValidationResult {
	docType := Classify(raw)

	var valid bool
	if docType == TypeCPF {
		valid = ValidateCPF(raw)
	} else {
		valid = ValidateCNPJ(raw)
	}

	result := ValidationResult{Type: docType, Valid: valid}
	if !valid {
		if docType == TypeCPF {
			result.Message = "CPF inválido"
		} else {
			result.Message = "CNPJ inválido"
		}
	}
	return result
}

// Check layers the incomplete/invalid distinction on top of Validate for
// progressive input feedback; the checksum itself knows nothing about it.
func Check(raw string) Status {
	digits := Digits(raw)
	expected := cpfLength
	if Classify(raw) == TypeCNPJ {
		expected = cnpjLength
	}
	if len(digits) < expected {
		return StatusIncomplete
	}
	if Validate(raw).Valid {
		return StatusValid
	}
	return StatusInvalid
}

// ValidateCPF verifies the two check digits of an 11-digit CPF.
func ValidateCPF(raw string) bool {
	digits := Digits(raw)
	if len(digits) != cpfLength {
		return false
	}
	if allSameDigit(digits) {
		return false
	}

	d := toInts(digits)

	sum := 0
	for i := 0; i < 9; i++ {
		sum += d[i] * (10 - i)
	}
	if cpfCheckDigit(sum) != d[9] {
		return false
	}

	sum = 0
	for i := 0; i < 10; i++ {
		sum += d[i] * (11 - i)
	}
	return cpfCheckDigit(sum) == d[10]
}

// ValidateCNPJ verifies the two check digits of a 14-digit CNPJ.
func ValidateCNPJ(raw string) bool {
	digits := Digits(raw)
	if len(digits) != cnpjLength {
		return false
	}
	if allSameDigit(digits) {
		return false
	}

	d := toInts(digits)

	firstWeights := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	if cnpjCheckDigit(d[:12], firstWeights) != d[12] {
		return false
	}

	secondWeights := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	return cnpjCheckDigit(d[:13], secondWeights) == d[13]
}

func cpfCheckDigit(sum int) int {
	r := (sum * 10) % 11
	if r == 10 || r == 11 {
		return 0
	}
	return r
}

func cnpjCheckDigit(digits []int, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += digits[i] * w
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}

func allSameDigit(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}

func toInts(digits string) []int {
	out := make([]int, len(digits))
	for i := 0; i < len(digits); i++ {
		out[i] = int(digits[i] - '0')
	}
	return out
}
