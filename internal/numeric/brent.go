package numeric

import (
	"math"

	"github.com/rzzdr/option-pricing-engine/pkg/utils/errors"
)

// Brent finds a root of f on the bracket [a, b] using Brent's method:
// inverse quadratic interpolation and secant steps guarded by bisection, so
// convergence is superlinear while the bracket is always maintained.
//
// f(a) and f(b) must have opposite signs; otherwise an input-validation
// error is returned. Exhausting maxIter without meeting tol is reported as a
// non-convergence error, since the inputs were valid but the iteration
// budget was not.
func Brent(f func(float64) float64, a, b, tol float64, maxIter int) (float64, error) {
	if tol <= 0 {
		return 0, errors.InvalidInput("tol must be > 0")
	}
	if maxIter < 1 {
		return 0, errors.InvalidInput("maxIter must be >= 1")
	}

	fa := f(a)
	fb := f(b)
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}
	if (fa > 0) == (fb > 0) {
		return 0, errors.InvalidInputf("cannot bracket root on [%g, %g]", a, b)
	}

	c, fc := a, fa
	d := b - a
	e := d

	for i := 0; i < maxIter; i++ {
		if (fb > 0) == (fc > 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol1 := 2*math.SmallestNonzeroFloat64*math.Abs(b) + 0.5*tol
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol1 || fb == 0 {
			return b, nil
		}

		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			// attempt inverse quadratic interpolation (secant when a == c)
			s := fb / fa
			var p, q float64
			if a == c {
				p = 2 * xm * s
				q = 1 - s
			} else {
				q = fa / fc
				r := fb / fc
				p = s * (2*xm*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			min1 := 3*xm*q - math.Abs(tol1*q)
			min2 := math.Abs(e * q)
			if 2*p < math.Min(min1, min2) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else {
			b += math.Copysign(tol1, xm)
		}
		fb = f(b)
	}

	return 0, errors.NotConvergedf("root finder did not converge within %d iterations", maxIter)
}
