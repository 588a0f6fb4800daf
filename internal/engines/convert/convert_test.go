package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var calcTable = Table{LogStyle: LogNatural, LogName: "log"}
var algebraTable = Table{GreekSigil: "%", LogStyle: LogNatural, LogName: "log"}

func TestConvert_Fraction(t *testing.T) {
	assert.Equal(t, "((a)/(b))", calcTable.Convert(`\frac{a}{b}`))
}

func TestConvert_Sqrt(t *testing.T) {
	assert.Equal(t, "sqrt(x)", calcTable.Convert(`\sqrt{x}`))
}

func TestConvert_NthRoot(t *testing.T) {
	assert.Equal(t, "((x)^(1/(n)))", calcTable.Convert(`\sqrt[n]{x}`))
}

func TestConvert_Trig(t *testing.T) {
	assert.Equal(t, "sin(x)", calcTable.Convert(`\sin(x)`))
	assert.Equal(t, "asin(x)", calcTable.Convert(`\arcsin(x)`))
	assert.Equal(t, "sinh(x)", calcTable.Convert(`\sinh(x)`))
}

func TestConvert_GreekWithSigil(t *testing.T) {
	assert.Equal(t, "%alpha+x", algebraTable.Convert(`\alpha+x`))
	assert.Equal(t, "alpha+x", calcTable.Convert(`\alpha+x`))
}

func TestConvert_PiAndE(t *testing.T) {
	assert.Equal(t, "pi", calcTable.Convert(`\pi`))
	assert.Equal(t, "exp(1)", calcTable.Convert(`\e`))
}

func TestConvert_Operators(t *testing.T) {
	assert.Equal(t, "a*b/c", calcTable.Convert(`a\cdotb\divc`))
}

func TestConvert_SuperscriptSubscript(t *testing.T) {
	assert.Equal(t, "x^(n)", calcTable.Convert(`x^{n}`))
	assert.Equal(t, "x_i", calcTable.Convert(`x_{i}`))
}

func TestConvert_ImplicitMultiplication(t *testing.T) {
	assert.Equal(t, "2*x", calcTable.Convert("2x"))
	assert.Equal(t, "x*2", calcTable.Convert("x2"))
	assert.Equal(t, ")*x", calcTable.Convert(")x"))
	assert.Equal(t, "x*(", calcTable.Convert("x("))
}

func TestConvert_BracesToParens(t *testing.T) {
	// Font-command unwrapping is preprocess's job; convert only turns
	// any remaining brace pair into parens and drops residual commands.
	assert.Equal(t, "((x+1))", calcTable.Convert(`\mathrm{(x+1)}`))
}
