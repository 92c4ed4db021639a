package fuzzy

import "math"

type MFType int

const (
	Triangular MFType = iota
	Trapezoidal
	Gaussian
	SigmoidLeft
	SigmoidRight
	Singleton
)

// MembershipFunc is one linguistic term of a variable.
type MembershipFunc struct {
	Name   string
	Type   MFType
	Params [4]float64
}

// Evaluate returns the membership degree of value in [0, 1].
func (mf MembershipFunc) Evaluate(value float64) float64 {
	p := mf.Params

	switch mf.Type {
	case Triangular:
		a, b, c := p[0], p[1], p[2] // b is the peak
		if value < a || value > c {
			return 0
		}
		if value == b {
			return 1
		}
		if value < b {
			return (value - a) / (b - a)
		}
		// a shoulder at the range edge (b == c) stays at full membership
		if c == b {
			return 1
		}
		return (c - value) / (c - b)

	case Trapezoidal:
		a, b, c, d := p[0], p[1], p[2], p[3] // flat between b and c
		if value < a || value > d {
			return 0
		}
		if value >= b && value <= c {
			return 1
		}
		if value < b {
			if b == a {
				return 1
			}
			return (value - a) / (b - a)
		}
		if d == c {
			return 1
		}
		return (d - value) / (d - c)

	case Gaussian:
		center, sigma := p[0], p[1]
		return math.Exp(-0.5 * math.Pow((value-center)/sigma, 2))

	case SigmoidLeft:
		center, slope := p[0], p[1]
		return 1 / (1 + math.Exp(slope*(value-center)))

	case SigmoidRight:
		center, slope := p[0], p[1]
		return 1 / (1 + math.Exp(-slope*(value-center)))

	case Singleton:
		return boolToDegree(math.Abs(value-p[0]) < 0.001)

	default:
		return 0
	}
}

func boolToDegree(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func triangular(name string, a, b, c float64) MembershipFunc {
	return MembershipFunc{Name: name, Type: Triangular, Params: [4]float64{a, b, c}}
}

func trapezoidal(name string, a, b, c, d float64) MembershipFunc {
	return MembershipFunc{Name: name, Type: Trapezoidal, Params: [4]float64{a, b, c, d}}
}
