package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbolic_RejectsBlockedTokens(t *testing.T) {
	assert.False(t, Symbolic.Validate("__import__('os')"))
	assert.False(t, Symbolic.Validate("os.system('ls')"))
	assert.False(t, Symbolic.Validate("eval(x)"))
	assert.True(t, Symbolic.Validate("x**2 + 3"))
}

func TestSymbolic_RejectsEmptyOrTooLong(t *testing.T) {
	assert.False(t, Symbolic.Validate(""))
	long := make([]byte, 501)
	for i := range long {
		long[i] = 'x'
	}
	assert.False(t, Symbolic.Validate(string(long)))
}

func TestSymbolic_RejectsNullByte(t *testing.T) {
	assert.False(t, Symbolic.Validate("x\x00y"))
}

func TestAlgebra_RejectsBlockedTokensAndSeparators(t *testing.T) {
	assert.False(t, Algebra.Validate("Exec(\"ls\")"))
	assert.False(t, Algebra.Validate("a; b"))
	assert.False(t, Algebra.Validate("a\nb"))
	assert.True(t, Algebra.Validate("SymmetricGroup(4)"))
}

func TestCalc_AcceptsPlainExpressionRejectsEmpty(t *testing.T) {
	assert.True(t, Calc.Validate("solve(x^2=4, x)"))
	assert.False(t, Calc.Validate(""))
}

func TestValidateInputs_ReportsFirstBadKey(t *testing.T) {
	key, ok := Symbolic.ValidateInputs(map[string]string{"n": "eval(1)"})
	assert.False(t, ok)
	assert.Equal(t, "n", key)

	_, ok = Symbolic.ValidateInputs(map[string]string{"n": "3", "m": "4"})
	assert.True(t, ok)
}
