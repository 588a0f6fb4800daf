package main

// symbolicScript is the fixed JS helper loaded into the goja runtime.
// It implements a minimal single-variable polynomial toolkit: parsing,
// formatting, evaluation, simplification (like-term combination),
// linear/quadratic solving, small-integer-root factoring, and
// power-rule differentiation/integration. The grammar is intentionally
// narrow — sums of terms of the form `c*x^n`, `x^n`, or a bare number.
const symbolicScript = `
function parsePoly(expr) {
  var s = expr.replace(/\s+/g, '');
  if (s.length === 0) throw new Error('empty expression');
  if (s[0] !== '+' && s[0] !== '-') s = '+' + s;
  var terms = s.match(/[+-][^+-]+/g);
  if (!terms) throw new Error('no terms found in: ' + expr);
  var coeffs = {};
  terms.forEach(function (t) {
    var sign = t[0] === '-' ? -1 : 1;
    var body = t.slice(1);
    var m = body.match(/^(\d+(\.\d+)?)?\*?x(\^(\d+))?$/);
    if (m) {
      var c = m[1] !== undefined ? parseFloat(m[1]) : 1;
      var p = m[4] !== undefined ? parseInt(m[4], 10) : 1;
      coeffs[p] = (coeffs[p] || 0) + sign * c;
      return;
    }
    var m2 = body.match(/^(\d+(\.\d+)?)$/);
    if (m2) {
      coeffs[0] = (coeffs[0] || 0) + sign * parseFloat(m2[1]);
      return;
    }
    throw new Error('unsupported term: ' + t);
  });
  return coeffs;
}

function degreeOf(coeffs) {
  var powers = Object.keys(coeffs).map(Number).filter(function (p) { return coeffs[p] !== 0; });
  if (powers.length === 0) return 0;
  return Math.max.apply(null, powers);
}

function formatPoly(coeffs) {
  var powers = Object.keys(coeffs).map(Number).filter(function (p) { return coeffs[p] !== 0; });
  powers.sort(function (a, b) { return b - a; });
  if (powers.length === 0) return '0';
  var parts = powers.map(function (p) {
    var c = coeffs[p];
    if (p === 0) return '' + c;
    if (p === 1) return c === 1 ? 'x' : (c === -1 ? '-x' : c + '*x');
    return c === 1 ? 'x^' + p : (c === -1 ? '-x^' + p : c + '*x^' + p);
  });
  var out = parts[0];
  for (var i = 1; i < parts.length; i++) {
    out += parts[i][0] === '-' ? ' - ' + parts[i].slice(1) : ' + ' + parts[i];
  }
  return out;
}

function evalPoly(coeffs, x) {
  var total = 0;
  Object.keys(coeffs).forEach(function (p) {
    total += coeffs[p] * Math.pow(x, Number(p));
  });
  return total;
}

function differentiate(coeffs) {
  var out = {};
  Object.keys(coeffs).forEach(function (p) {
    var power = Number(p);
    if (power === 0) return;
    out[power - 1] = (out[power - 1] || 0) + coeffs[p] * power;
  });
  return out;
}

function integrate(coeffs) {
  var out = {};
  Object.keys(coeffs).forEach(function (p) {
    var power = Number(p);
    out[power + 1] = (out[power + 1] || 0) + coeffs[p] / (power + 1);
  });
  return out;
}

function solveLinear(a, b) {
  if (a === 0) throw new Error('not linear');
  return [-b / a];
}

function solveQuadratic(a, b, c) {
  var disc = b * b - 4 * a * c;
  if (disc < 0) return { real: false, discriminant: disc };
  var sq = Math.sqrt(disc);
  return { real: true, roots: [(-b + sq) / (2 * a), (-b - sq) / (2 * a)] };
}

function splitEquation(expr) {
  var parts = expr.split('=');
  if (parts.length !== 2) throw new Error('expected exactly one = for an equation');
  var lhs = parsePoly(parts[0]);
  var rhs = parsePoly(parts[1]);
  var diff = {};
  Object.keys(lhs).forEach(function (p) { diff[p] = (diff[p] || 0) + lhs[p]; });
  Object.keys(rhs).forEach(function (p) { diff[p] = (diff[p] || 0) - rhs[p]; });
  return diff;
}

function symValidate(expr) {
  try {
    if (expr.indexOf('=') >= 0 && expr.indexOf('==') < 0) {
      var diff = splitEquation(expr);
      var zero = degreeOf(diff) === 0 && (diff[0] || 0) === 0;
      return { valid: zero, simplified: formatPoly(diff), parsed: expr };
    }
    var coeffs = parsePoly(expr);
    return { valid: true, simplified: formatPoly(coeffs), parsed: expr };
  } catch (e) {
    return { error: String(e.message || e) };
  }
}

function symCompute(task, inputs) {
  try {
    if (task === 'evaluate') {
      var coeffs = parsePoly(inputs.expression);
      var x = parseFloat(inputs.x);
      return { value: String(evalPoly(coeffs, x)) };
    }
    if (task === 'simplify') {
      return { value: formatPoly(parsePoly(inputs.expression)) };
    }
    if (task === 'differentiate') {
      return { value: formatPoly(differentiate(parsePoly(inputs.expression))) };
    }
    if (task === 'integrate') {
      return { value: formatPoly(integrate(parsePoly(inputs.expression))) + ' + C' };
    }
    if (task === 'solve') {
      var c = parsePoly(inputs.expression);
      var deg = degreeOf(c);
      if (deg === 1) {
        return { value: JSON.stringify(solveLinear(c[1] || 0, c[0] || 0)) };
      }
      if (deg === 2) {
        return { value: JSON.stringify(solveQuadratic(c[2] || 0, c[1] || 0, c[0] || 0)) };
      }
      return { error: 'solve supports only linear or quadratic polynomials' };
    }
    if (task === 'factor') {
      var fc = parsePoly(inputs.expression);
      var fdeg = degreeOf(fc);
      if (fdeg === 2) {
        var q = solveQuadratic(fc[2] || 0, fc[1] || 0, fc[0] || 0);
        if (q.real && Number.isInteger(q.roots[0]) && Number.isInteger(q.roots[1])) {
          var a = fc[2];
          return { value: (a === 1 ? '' : a + '*') + '(x - ' + q.roots[0] + ')*(x - ' + q.roots[1] + ')' };
        }
      }
      return { value: formatPoly(fc) };
    }
    return { error: 'unknown task: ' + task };
  } catch (e) {
    return { error: String(e.message || e) };
  }
}
`
