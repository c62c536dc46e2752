package units

import "fmt"

// Ratio is an exact rational number Num/Den.
//
// The zero value is treated as 1/1 so that schema definitions may leave a
// scaling ratio unset.
type Ratio struct {
	Num int64
	Den int64
}

// One is the identity ratio.
var One = Ratio{Num: 1, Den: 1}

// NewRatio returns num/den reduced to lowest terms with a positive denominator.
func NewRatio(num, den int64) (Ratio, error) {
	if den == 0 {
		return Ratio{}, fmt.Errorf("invalid ratio %d/%d: zero denominator", num, den)
	}
	if num == 0 {
		return Ratio{}, fmt.Errorf("invalid ratio %d/%d: zero numerator", num, den)
	}

	return Ratio{Num: num, Den: den}.Reduce(), nil
}

// Normalize maps the zero value to One and returns r unchanged otherwise.
func (r Ratio) Normalize() Ratio {
	if r.Num == 0 && r.Den == 0 {
		return One
	}

	return r
}

// Reduce returns r in lowest terms with a positive denominator.
func (r Ratio) Reduce() Ratio {
	r = r.Normalize()
	if r.Den < 0 {
		r.Num, r.Den = -r.Num, -r.Den
	}

	g := gcd(abs(r.Num), r.Den)
	if g > 1 {
		r.Num /= g
		r.Den /= g
	}

	return r
}

// Mul returns r * o in lowest terms.
//
// Cross reduction is applied before multiplying to keep intermediate values small.
func (r Ratio) Mul(o Ratio) Ratio {
	r, o = r.Reduce(), o.Reduce()

	g1 := gcd(abs(r.Num), o.Den)
	g2 := gcd(abs(o.Num), r.Den)

	return Ratio{
		Num: (r.Num / g1) * (o.Num / g2),
		Den: (r.Den / g2) * (o.Den / g1),
	}.Reduce()
}

// Inv returns 1/r.
func (r Ratio) Inv() Ratio {
	r = r.Normalize()
	return Ratio{Num: r.Den, Den: r.Num}.Reduce()
}

// IsIdentity reports whether r equals 1.
func (r Ratio) IsIdentity() bool {
	r = r.Reduce()
	return r.Num == 1 && r.Den == 1
}

// Float returns r as a float64.
func (r Ratio) Float() float64 {
	r = r.Normalize()
	return float64(r.Num) / float64(r.Den)
}

// Apply returns v * r.
//
// The multiplication by Num happens before the division by Den so that exact
// decimal results such as 10000 * 1/100000 produce the correctly rounded value.
func (r Ratio) Apply(v float64) float64 {
	r = r.Normalize()
	return v * float64(r.Num) / float64(r.Den)
}

// Unapply returns v / r.
func (r Ratio) Unapply(v float64) float64 {
	r = r.Normalize()
	return v * float64(r.Den) / float64(r.Num)
}

func (r Ratio) String() string {
	r = r.Normalize()
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}

	return a
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}

	return v
}
