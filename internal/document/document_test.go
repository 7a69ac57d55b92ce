package document

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCPF_KnownValid(t *testing.T) {
	assert.True(t, ValidateCPF("52998224725"))
	assert.True(t, ValidateCPF("529.982.247-25"), "formatted input must be accepted")
}

func TestValidateCPF_LastDigitAltered(t *testing.T) {
	assert.False(t, ValidateCPF("52998224724"))
}

func TestValidateCPF_RepeatedDigits(t *testing.T) {
	for digit := 0; digit <= 9; digit++ {
		cpf := strings.Repeat(fmt.Sprint(digit), 11)
		assert.False(t, ValidateCPF(cpf), "repeated sequence %s must be rejected", cpf)
	}
}

func TestValidateCPF_WrongLength(t *testing.T) {
	assert.False(t, ValidateCPF("5299822472"))
	assert.False(t, ValidateCPF("529982247255"))
	assert.False(t, ValidateCPF(""))
}

func TestValidateCNPJ_KnownValid(t *testing.T) {
	assert.True(t, ValidateCNPJ("11444777000161"))
	assert.True(t, ValidateCNPJ("11.444.777/0001-61"))
}

func TestValidateCNPJ_SingleDigitAlterations(t *testing.T) {
	const valid = "11444777000161"
	for pos := 0; pos < len(valid); pos++ {
		for delta := byte(1); delta <= 9; delta++ {
			altered := []byte(valid)
			altered[pos] = '0' + (altered[pos]-'0'+delta)%10
			assert.False(t, ValidateCNPJ(string(altered)),
				"altering digit %d of %s to %s must invalidate", pos, valid, altered)
		}
	}
}

func TestValidateCNPJ_RepeatedDigits(t *testing.T) {
	assert.False(t, ValidateCNPJ("11111111111111"))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, TypeCPF, Classify("52998224725"))
	assert.Equal(t, TypeCPF, Classify("529.982.247-25"))
	assert.Equal(t, TypeCNPJ, Classify("11444777000161"))
	assert.Equal(t, TypeCPF, Classify("123"), "short inputs classify as CPF")
}

func TestValidate_ReturnsTypedResult(t *testing.T) {
	res := Validate("52998224725")
	require.True(t, res.Valid)
	assert.Equal(t, TypeCPF, res.Type)
	assert.Empty(t, res.Message)

	res = Validate("52998224724")
	require.False(t, res.Valid)
	assert.Equal(t, TypeCPF, res.Type)
	assert.NotEmpty(t, res.Message)

	res = Validate("11444777000160")
	require.False(t, res.Valid)
	assert.Equal(t, TypeCNPJ, res.Type)
}

func TestCheck_ProgressiveFeedback(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Status
	}{
		{"empty", "", StatusIncomplete},
		{"partial cpf", "529982", StatusIncomplete},
		{"complete valid cpf", "52998224725", StatusValid},
		{"complete invalid cpf", "52998224724", StatusInvalid},
		{"partial cnpj", "114447770001", StatusIncomplete},
		{"complete valid cnpj", "11444777000161", StatusValid},
		{"complete invalid cnpj", "11444777000162", StatusInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Check(tt.input))
		})
	}
}
