package pipe_sizing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReynolds(t *testing.T) {
	re, err := Reynolds(971.8, 1.0, 0.1, 3.5e-4)
	require.NoError(t, err)
	assert.InEpsilon(t, 971.8*0.1/3.5e-4, re, 1e-12)

	re2, err := Reynolds(971.8, 2.0, 0.1, 3.5e-4)
	require.NoError(t, err)
	assert.InEpsilon(t, 2*re, re2, 1e-12)

	cases := []struct {
		name          string
		rho, v, d, mu float64
	}{
		{"zero density", 0, 1, 0.1, 3.5e-4},
		{"zero velocity", 971.8, 0, 0.1, 3.5e-4},
		{"negative diameter", 971.8, 1, -0.1, 3.5e-4},
		{"zero viscosity", 971.8, 1, 0.1, 0},
		{"NaN velocity", 971.8, math.NaN(), 0.1, 3.5e-4},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Reynolds(c.rho, c.v, c.d, c.mu)
			assert.ErrorIs(t, err, ErrDomain)
		})
	}
}

func TestSwameeJainF(t *testing.T) {
	t.Run("laminar", func(t *testing.T) {
		f, err := SwameeJainF(DefaultRoughness, 0.1, 1000)
		require.NoError(t, err)
		assert.Equal(t, 0.064, f)
	})

	t.Run("turbulent", func(t *testing.T) {
		re := 2.5e5
		f, err := SwameeJainF(DefaultRoughness, 0.1, re)
		require.NoError(t, err)
		x := math.Log10(DefaultRoughness/(3.7*0.1) + 5.74/math.Pow(re, 0.9))
		assert.InEpsilon(t, 0.25/(x*x), f, 1e-12)
		assert.Greater(t, f, 0.01)
		assert.Less(t, f, 0.03)
	})

	t.Run("rougher pipe has more friction", func(t *testing.T) {
		smooth, err := SwameeJainF(1e-6, 0.1, 1e5)
		require.NoError(t, err)
		rough, err := SwameeJainF(1e-3, 0.1, 1e5)
		require.NoError(t, err)
		assert.Greater(t, rough, smooth)
	})

	t.Run("rejects", func(t *testing.T) {
		_, err := SwameeJainF(DefaultRoughness, 0, 1e5)
		assert.ErrorIs(t, err, ErrDomain)
		_, err = SwameeJainF(-1e-5, 0.1, 1e5)
		assert.ErrorIs(t, err, ErrDomain)
		_, err = SwameeJainF(DefaultRoughness, 0.1, 0)
		assert.ErrorIs(t, err, ErrDomain)
		_, err = SwameeJainF(DefaultRoughness, 0.1, 1e-9)
		assert.ErrorIs(t, err, ErrDomain)
	})
}

func TestSegmentHydraulics(t *testing.T) {
	h, err := SegmentHydraulics(0.01, 0.1, 100, 971.8, 3.5e-4, DefaultRoughness, 0)
	require.NoError(t, err)

	assert.InEpsilon(t, 0.01/(math.Pi*0.01/4), h.V, 1e-12)
	assert.InEpsilon(t, 971.8*h.V*0.1/3.5e-4, h.Re, 1e-12)

	q_dyn := 971.8 * h.V * h.V / 2
	assert.InEpsilon(t, h.F*(100/0.1)*q_dyn, h.DpPa, 1e-12)
	assert.InEpsilon(t, h.DpPa/(971.8*9.81), h.HeadLoss, 1e-12)

	t.Run("minor losses add K times dynamic pressure", func(t *testing.T) {
		hk, err := SegmentHydraulics(0.01, 0.1, 100, 971.8, 3.5e-4, DefaultRoughness, 2.5)
		require.NoError(t, err)
		assert.InEpsilon(t, h.DpPa+2.5*q_dyn, hk.DpPa, 1e-12)
	})

	t.Run("pressure drop is linear in length", func(t *testing.T) {
		h2, err := SegmentHydraulics(0.01, 0.1, 200, 971.8, 3.5e-4, DefaultRoughness, 0)
		require.NoError(t, err)
		assert.InEpsilon(t, 2*h.DpPa, h2.DpPa, 1e-12)
	})

	t.Run("rejects", func(t *testing.T) {
		_, err := SegmentHydraulics(0, 0.1, 100, 971.8, 3.5e-4, DefaultRoughness, 0)
		assert.ErrorIs(t, err, ErrDomain)
		_, err = SegmentHydraulics(0.01, 0, 100, 971.8, 3.5e-4, DefaultRoughness, 0)
		assert.ErrorIs(t, err, ErrDomain)
		_, err = SegmentHydraulics(0.01, 0.1, 0, 971.8, 3.5e-4, DefaultRoughness, 0)
		assert.ErrorIs(t, err, ErrDomain)
		_, err = SegmentHydraulics(0.01, 0.1, 100, 971.8, 3.5e-4, DefaultRoughness, -1)
		assert.ErrorIs(t, err, ErrDomain)
		_, err = SegmentHydraulics(0.01, 0.1, 100, 0, 3.5e-4, DefaultRoughness, 0)
		assert.ErrorIs(t, err, ErrDomain)
	})
}

func TestFlowVelocity(t *testing.T) {
	assert.InEpsilon(t, 4.0/math.Pi, FlowVelocity(1, 1), 1e-15)
	assert.InEpsilon(t, 1.0, FlowVelocity(math.Pi*0.2*0.2/4, 0.2), 1e-12)
}

func TestSegmentHeatLossW(t *testing.T) {
	t.Run("direct ignores temperatures", func(t *testing.T) {
		q1, err := SegmentHeatLossW(DirectLoss(20), 0.2, 80, 10, 100)
		require.NoError(t, err)
		q2, err := SegmentHeatLossW(DirectLoss(20), 0.2, 50, 10, 100)
		require.NoError(t, err)
		assert.Equal(t, 2000.0, q1)
		assert.Equal(t, q1, q2)
	})

	t.Run("u_value", func(t *testing.T) {
		q, err := SegmentHeatLossW(UValueLoss(0.5), 0.2, 40, 10, 100)
		require.NoError(t, err)
		assert.InEpsilon(t, 0.5*math.Pi*0.2*30*100, q, 1e-12)
	})

	t.Run("u_value heat gain below soil temperature", func(t *testing.T) {
		q, err := SegmentHeatLossW(UValueLoss(0.5), 0.2, 5, 10, 100)
		require.NoError(t, err)
		assert.Less(t, q, 0.0)
	})

	t.Run("rejects", func(t *testing.T) {
		_, err := SegmentHeatLossW(DirectLoss(20), 0.2, 80, 10, 0)
		assert.ErrorIs(t, err, ErrDomain)
		_, err = SegmentHeatLossW(DirectLoss(-1), 0.2, 80, 10, 100)
		assert.ErrorIs(t, err, ErrDomain)
		_, err = SegmentHeatLossW(UValueLoss(0.5), 0, 80, 10, 100)
		assert.ErrorIs(t, err, ErrDomain)
		_, err = SegmentHeatLossW(UValueLoss(-0.1), 0.2, 80, 10, 100)
		assert.ErrorIs(t, err, ErrDomain)
		_, err = SegmentHeatLossW(HeatLossSpec{Mode: 2, Value: 1}, 0.2, 80, 10, 100)
		assert.ErrorIs(t, err, ErrDomain)
	})
}

func TestHeatLossModeFromString(t *testing.T) {
	assert.Equal(t, HeatLossUValue, HeatLossModeFromString("u_value"))
	assert.Equal(t, HeatLossDirect, HeatLossModeFromString("direct"))
	assert.Equal(t, "u_value", HeatLossUValue.String())
	assert.Equal(t, "HeatLossMode(7)", HeatLossMode(7).String())
}
