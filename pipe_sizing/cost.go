package pipe_sizing

// **** Cost model: pump energy, annualised costs, NPV ****

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

/*
	Annual electrical energy of the circulation pump.

	Args:
		dp_pa: pressure drop of the worst supply path, Pa
		v_dot: peak volume flow of that path, m3/s
		eta_pump: pump efficiency, (0, 1]
		hours: operating hours per year, h

	Returns:
		pump energy, MWh_el/a

	Notes:
		E = dp * v_dot * hours / (eta_pump * 1e6)
		Pass the dp / v_dot pair of the worst supply path only, never an arbitrary segment.
*/
func AnnualPumpEnergyMWhel(dp_pa float64, v_dot float64, eta_pump float64, hours float64) (float64, error) {
	if !(dp_pa > 0) {
		return 0, domainErrorf("annual_pump_energy_mwhel", "dp must be > 0 (got %g)", dp_pa)
	}
	if !(v_dot > 0) {
		return 0, domainErrorf("annual_pump_energy_mwhel", "V_dot must be > 0 (got %g)", v_dot)
	}
	if !(eta_pump > 0) || eta_pump > 1 {
		return 0, domainErrorf("annual_pump_energy_mwhel", "eta_pump must be in (0, 1] (got %g)", eta_pump)
	}
	if !(hours > 0) {
		return 0, domainErrorf("annual_pump_energy_mwhel", "hours must be > 0 (got %g)", hours)
	}
	return dp_pa * v_dot * hours / (eta_pump * 1e6), nil
}

/*
	Net present value of a design with a constant annual cost.

	Args:
		capex: investment at year 0, EUR
		annual_cost: cost repeated every year, EUR/a
		years: project lifetime, a
		r: discount rate, -

	Returns:
		NPV, EUR

	Notes:
		r = 0: capex + annual_cost * years
		r > 0: capex + sum_{y=1..years} annual_cost / (1 + r)^y
*/
func NPV(capex float64, annual_cost float64, years int, r float64) (float64, error) {
	if !(annual_cost >= 0) {
		return 0, domainErrorf("npv", "annual cost must be >= 0 (got %g)", annual_cost)
	}
	if years < 1 {
		return 0, domainErrorf("npv", "years must be >= 1 (got %d)", years)
	}
	if r == 0 {
		if err := _check_npv_args(capex, years, r); err != nil {
			return 0, err
		}
		return capex + annual_cost*float64(years), nil
	}
	costs := make([]float64, years)
	for i := range costs {
		costs[i] = annual_cost
	}
	return NPVSeries(capex, costs, years, r)
}

/*
	Net present value of a design with a cost per year.

	Args:
		capex: investment at year 0, EUR
		annual_costs: cost of year y at index y-1, EUR; at least `years` long
		years: project lifetime, a
		r: discount rate, -

	Returns:
		NPV, EUR
*/
func NPVSeries(capex float64, annual_costs []float64, years int, r float64) (float64, error) {
	if err := _check_npv_args(capex, years, r); err != nil {
		return 0, err
	}
	if len(annual_costs) < years {
		return 0, domainErrorf("npv", "%d annual costs given for %d years", len(annual_costs), years)
	}
	costs := annual_costs[:years]
	for y, c := range costs {
		if !(c >= 0) {
			return 0, domainErrorf("npv", "annual cost of year %d must be >= 0 (got %g)", y+1, c)
		}
	}

	if r == 0 {
		return capex + floats.Sum(costs), nil
	}

	npv := capex
	for y, c := range costs {
		npv += c / math.Pow(1+r, float64(y+1))
	}
	return npv, nil
}

func _check_npv_args(capex float64, years int, r float64) error {
	if !(capex >= 0) {
		return domainErrorf("npv", "capex must be >= 0 (got %g)", capex)
	}
	if years < 1 {
		return domainErrorf("npv", "years must be >= 1 (got %d)", years)
	}
	if !(r >= 0) {
		return domainErrorf("npv", "discount rate must be >= 0 (got %g)", r)
	}
	return nil
}

//---------------------------------------------------------------------------------------------------//

// AnnualCosts itemises the yearly operating cost of a design.
type AnnualCosts struct {
	PumpEurPerA     float64 `json:"pump_eur_per_a" yaml:"pump_eur_per_a"`
	HeatLossEurPerA float64 `json:"heat_loss_eur_per_a" yaml:"heat_loss_eur_per_a"`
	OAndMEurPerA    float64 `json:"o_and_m_eur_per_a" yaml:"o_and_m_eur_per_a"`
	TotalEurPerA    float64 `json:"total_eur_per_a" yaml:"total_eur_per_a"`
}

/*
	Yearly operating cost.

	Args:
		pump_mwh: pump electricity, MWh_el/a
		heat_loss_mwh: distribution heat loss, MWh_th/a
		capex: investment, EUR
		econ: prices and O&M rate

	Notes:
		opex = pump_mwh * price_el + heat_loss_mwh * cost_heat_prod + capex * o_and_m_rate
*/
func OperatingCosts(pump_mwh float64, heat_loss_mwh float64, capex float64, econ EconomicParameters) AnnualCosts {
	pump := pump_mwh * econ.PriceEl
	heat := heat_loss_mwh * econ.CostHeatProd
	om := capex * econ.OAndMRate
	return AnnualCosts{
		PumpEurPerA:     pump,
		HeatLossEurPerA: heat,
		OAndMEurPerA:    om,
		TotalEurPerA:    pump + heat + om,
	}
}
