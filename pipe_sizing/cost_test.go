package pipe_sizing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnualPumpEnergyMWhel(t *testing.T) {
	e, err := AnnualPumpEnergyMWhel(50000, 0.02, 0.65, 3000)
	require.NoError(t, err)
	assert.InEpsilon(t, 4.615384615, e, 1e-9)

	_, err = AnnualPumpEnergyMWhel(0, 0.02, 0.65, 3000)
	assert.ErrorIs(t, err, ErrDomain)
	_, err = AnnualPumpEnergyMWhel(50000, 0, 0.65, 3000)
	assert.ErrorIs(t, err, ErrDomain)
	_, err = AnnualPumpEnergyMWhel(50000, 0.02, 1.2, 3000)
	assert.ErrorIs(t, err, ErrDomain)
	_, err = AnnualPumpEnergyMWhel(50000, 0.02, 0, 3000)
	assert.ErrorIs(t, err, ErrDomain)
	_, err = AnnualPumpEnergyMWhel(50000, 0.02, 0.65, 0)
	assert.ErrorIs(t, err, ErrDomain)
}

func TestNPV(t *testing.T) {
	t.Run("no discounting", func(t *testing.T) {
		npv, err := NPV(1000, 100, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 2000.0, npv)
	})

	t.Run("five years at 5%", func(t *testing.T) {
		npv, err := NPV(100000, 10000, 5, 0.05)
		require.NoError(t, err)
		want := 100000.0
		for y := 1; y <= 5; y++ {
			want += 10000 / math.Pow(1.05, float64(y))
		}
		assert.InEpsilon(t, want, npv, 1e-12)
	})

	t.Run("annuity", func(t *testing.T) {
		npv, err := NPV(1e6, 5e4, 30, 0.04)
		require.NoError(t, err)
		annuity := (1 - math.Pow(1.04, -30)) / 0.04
		assert.InEpsilon(t, 1e6+5e4*annuity, npv, 1e-9)
	})

	t.Run("discounting lowers NPV", func(t *testing.T) {
		flat, err := NPV(1e6, 5e4, 30, 0)
		require.NoError(t, err)
		disc, err := NPV(1e6, 5e4, 30, 0.04)
		require.NoError(t, err)
		assert.Less(t, disc, flat)
		assert.Greater(t, disc, 1e6)
	})

	t.Run("rejects", func(t *testing.T) {
		_, err := NPV(-1, 100, 10, 0.04)
		assert.ErrorIs(t, err, ErrDomain)
		_, err = NPV(1000, -1, 10, 0.04)
		assert.ErrorIs(t, err, ErrDomain)
		_, err = NPV(1000, 100, 0, 0.04)
		assert.ErrorIs(t, err, ErrDomain)
		_, err = NPV(1000, 100, 10, -0.01)
		assert.ErrorIs(t, err, ErrDomain)
		_, err = NPV(1000, 100, 10, math.NaN())
		assert.ErrorIs(t, err, ErrDomain)
	})
}

func TestNPVSeries(t *testing.T) {
	npv, err := NPVSeries(100, []float64{110, 121}, 2, 0.1)
	require.NoError(t, err)
	assert.InEpsilon(t, 300.0, npv, 1e-12)

	npv, err = NPVSeries(100, []float64{1, 2, 3, 4}, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, 106.0, npv)

	_, err = NPVSeries(100, []float64{1, 2}, 3, 0.04)
	assert.ErrorIs(t, err, ErrDomain)

	_, err = NPVSeries(100, []float64{1, -2, 3}, 3, 0.04)
	assert.ErrorIs(t, err, ErrDomain)
}

func TestOperatingCosts(t *testing.T) {
	econ := EconomicParameters{PriceEl: 250, CostHeatProd: 60, Years: 30, R: 0.04, OAndMRate: 0.01}
	c := OperatingCosts(4, 100, 1e5, econ)
	assert.Equal(t, 1000.0, c.PumpEurPerA)
	assert.Equal(t, 6000.0, c.HeatLossEurPerA)
	assert.Equal(t, 1000.0, c.OAndMEurPerA)
	assert.Equal(t, 8000.0, c.TotalEurPerA)
}
