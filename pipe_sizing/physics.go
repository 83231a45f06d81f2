package pipe_sizing

// **** Pipe segment physics: hydraulics and heat loss ****

import (
	"fmt"
	"math"
)

const (
	// gravitational acceleration, m/s2
	g_acc = 9.81

	// Reynolds number below which flow is treated as laminar
	ReLaminar = 2300.0

	// smallest Reynolds number the friction correlation accepts
	reFloor = 1e-6

	// absolute roughness of commercial steel district-heating pipe, m
	DefaultRoughness = 4.5e-5
)

//---------------------------------------------------------------------------------------------------//

// HeatLossMode tells how a catalog entry specifies its thermal loss.
type HeatLossMode int

const (
	HeatLossDirect HeatLossMode = iota // W/m, independent of temperature
	HeatLossUValue                     // W/(m2 K) on the outer surface
)

func (m HeatLossMode) String() string {
	if !m.valid() {
		return fmt.Sprintf("HeatLossMode(%d)", int(m))
	}
	return [...]string{"direct", "u_value"}[m]
}

func (m HeatLossMode) valid() bool {
	return m == HeatLossDirect || m == HeatLossUValue
}

func HeatLossModeFromString(s string) HeatLossMode {
	return map[string]HeatLossMode{
		"direct":  HeatLossDirect,
		"u_value": HeatLossUValue,
	}[s]
}

// HeatLossSpec is either a direct loss per meter or a U-value, never both.
type HeatLossSpec struct {
	Mode  HeatLossMode
	Value float64 // W/m for HeatLossDirect, W/(m2 K) for HeatLossUValue
}

func DirectLoss(w_per_m float64) HeatLossSpec {
	return HeatLossSpec{Mode: HeatLossDirect, Value: w_per_m}
}

func UValueLoss(u float64) HeatLossSpec {
	return HeatLossSpec{Mode: HeatLossUValue, Value: u}
}

//---------------------------------------------------------------------------------------------------//

// Hydraulics is the hydraulic state of one segment at a trial diameter.
type Hydraulics struct {
	V        float64 // mean flow velocity, m/s
	Re       float64 // Reynolds number, -
	F        float64 // Darcy friction factor, -
	DpPa     float64 // pressure drop incl. minor losses, Pa
	HeadLoss float64 // head loss, m
}

/*
	Reynolds number.

	Args:
		rho: density, kg/m3
		v: mean velocity, m/s
		d: inner diameter, m
		mu: dynamic viscosity, Pa s

	Returns:
		Re, -
*/
func Reynolds(rho float64, v float64, d float64, mu float64) (float64, error) {
	if !(rho > 0) || !(v > 0) || !(d > 0) || !(mu > 0) {
		return 0, domainErrorf("reynolds", "rho, v, d, mu must be > 0 (got rho=%g v=%g d=%g mu=%g)", rho, v, d, mu)
	}
	return rho * v * d / mu, nil
}

/*
	Darcy friction factor.

	Args:
		epsilon: absolute roughness, m
		d: inner diameter, m
		re: Reynolds number, -

	Returns:
		f, -

	Notes:
		Re < 2300 is laminar, 64/Re.
		Otherwise the Swamee-Jain explicit approximation of Colebrook:
		f = 0.25 / (log10(epsilon/(3.7 d) + 5.74/Re^0.9))^2
*/
func SwameeJainF(epsilon float64, d float64, re float64) (float64, error) {
	if !(d > 0) {
		return 0, domainErrorf("swamee_jain_f", "d must be > 0 (got %g)", d)
	}
	if epsilon < 0 || math.IsNaN(epsilon) {
		return 0, domainErrorf("swamee_jain_f", "epsilon must be >= 0 (got %g)", epsilon)
	}
	if !(re > 0) {
		return 0, domainErrorf("swamee_jain_f", "Re must be > 0 (got %g)", re)
	}
	if re < reFloor {
		return 0, domainErrorf("swamee_jain_f", "Re %g below numeric floor %g", re, reFloor)
	}

	if re < ReLaminar {
		return 64.0 / re, nil
	}

	x := math.Log10(epsilon/(3.7*d) + 5.74/math.Pow(re, 0.9))
	return 0.25 / (x * x), nil
}

// FlowVelocity is the mean velocity of v_dot (m3/s) in a pipe of inner diameter d (m), m/s.
func FlowVelocity(v_dot float64, d float64) float64 {
	return v_dot / (math.Pi * d * d / 4.0)
}

/*
	Velocity, pressure drop and head loss of one segment.

	Args:
		v_dot: volume flow, m3/s
		d_inner: inner diameter, m
		l: segment length, m
		rho: density, kg/m3
		mu: dynamic viscosity, Pa s
		epsilon: absolute roughness, m
		k_minor: lumped minor loss coefficient, -

	Returns:
		velocity, m/s; pressure drop, Pa; head loss, m

	Notes:
		v = v_dot / (pi d^2 / 4)
		dp = f (l / d) (rho v^2 / 2) + k_minor (rho v^2 / 2)
		h = dp / (rho g)
*/
func SegmentHydraulics(
	v_dot float64,
	d_inner float64,
	l float64,
	rho float64,
	mu float64,
	epsilon float64,
	k_minor float64,
) (Hydraulics, error) {
	if !(v_dot > 0) {
		return Hydraulics{}, domainErrorf("segment_hydraulics", "V_dot must be > 0 (got %g)", v_dot)
	}
	if !(d_inner > 0) {
		return Hydraulics{}, domainErrorf("segment_hydraulics", "d_inner must be > 0 (got %g)", d_inner)
	}
	if !(l > 0) {
		return Hydraulics{}, domainErrorf("segment_hydraulics", "L must be > 0 (got %g)", l)
	}
	if k_minor < 0 || math.IsNaN(k_minor) {
		return Hydraulics{}, domainErrorf("segment_hydraulics", "K_minor must be >= 0 (got %g)", k_minor)
	}

	v := FlowVelocity(v_dot, d_inner)

	re, err := Reynolds(rho, v, d_inner, mu)
	if err != nil {
		return Hydraulics{}, err
	}

	f, err := SwameeJainF(epsilon, d_inner, re)
	if err != nil {
		return Hydraulics{}, err
	}

	// dynamic pressure, Pa
	q_dyn := rho * v * v / 2.0

	dp := f*(l/d_inner)*q_dyn + k_minor*q_dyn

	return Hydraulics{
		V:        v,
		Re:       re,
		F:        f,
		DpPa:     dp,
		HeadLoss: dp / (rho * g_acc),
	}, nil
}

/*
	Heat loss of one segment.

	Args:
		spec: catalog heat-loss figure (direct W/m or U-value W/m2K)
		d_outer: outer diameter, m (U-value mode only)
		t_fluid: fluid temperature, degree C
		t_soil: soil temperature, degree C
		l: segment length, m

	Returns:
		heat loss, W

	Notes:
		direct:  q = W/m * l (not temperature dependent)
		u_value: q = U * pi * d_outer * (t_fluid - t_soil) * l
		u_value gives a negative loss (heat gain) when the fluid is cooler than the soil.
*/
func SegmentHeatLossW(
	spec HeatLossSpec,
	d_outer float64,
	t_fluid float64,
	t_soil float64,
	l float64,
) (float64, error) {
	if !(l > 0) {
		return 0, domainErrorf("segment_heat_loss_W", "L must be > 0 (got %g)", l)
	}

	switch spec.Mode {
	case HeatLossDirect:
		if spec.Value < 0 || math.IsNaN(spec.Value) {
			return 0, domainErrorf("segment_heat_loss_W", "direct loss must be >= 0 (got %g)", spec.Value)
		}
		return spec.Value * l, nil
	case HeatLossUValue:
		if spec.Value < 0 || math.IsNaN(spec.Value) {
			return 0, domainErrorf("segment_heat_loss_W", "U-value must be >= 0 (got %g)", spec.Value)
		}
		if !(d_outer > 0) {
			return 0, domainErrorf("segment_heat_loss_W", "d_outer must be > 0 (got %g)", d_outer)
		}
		return spec.Value * math.Pi * d_outer * (t_fluid - t_soil) * l, nil
	default:
		return 0, domainErrorf("segment_heat_loss_W", "unknown heat loss mode %s", spec.Mode)
	}
}
