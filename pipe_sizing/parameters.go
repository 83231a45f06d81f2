package pipe_sizing

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// DesignParameters are the thermo-hydraulic design conditions of a network.
type DesignParameters struct {
	TSupply         float64 `mapstructure:"t_supply" json:"t_supply" yaml:"t_supply"`                                            // supply temperature, degree C
	TReturn         float64 `mapstructure:"t_return" json:"t_return" yaml:"t_return"`                                            // return temperature, degree C
	TSoil           float64 `mapstructure:"t_soil" json:"t_soil" yaml:"t_soil"`                                                  // undisturbed soil temperature, degree C
	Rho             float64 `mapstructure:"rho" json:"rho" yaml:"rho" validate:"gt=0"`                                           // water density, kg/m3
	Mu              float64 `mapstructure:"mu" json:"mu" yaml:"mu" validate:"gt=0"`                                              // dynamic viscosity, Pa s
	Cp              float64 `mapstructure:"cp" json:"cp" yaml:"cp" validate:"gt=0"`                                              // specific heat, J/(kg K)
	EtaPump         float64 `mapstructure:"eta_pump" json:"eta_pump" yaml:"eta_pump" validate:"gt=0,lte=1"`                      // pump efficiency, -
	Hours           float64 `mapstructure:"hours" json:"hours" yaml:"hours" validate:"gt=0"`                                     // operating hours, h/a
	VFeasibleTarget float64 `mapstructure:"v_feasible_target" json:"v_feasible_target" yaml:"v_feasible_target" validate:"gt=0"` // soft sizing velocity, m/s
	VLimit          float64 `mapstructure:"v_limit" json:"v_limit" yaml:"v_limit" validate:"gt=0"`                               // hard velocity limit, m/s
	DeltaTMin       float64 `mapstructure:"delta_t_min" json:"delta_t_min" yaml:"delta_t_min" validate:"gte=0"`                  // minimum supply/return difference, K
	KMinor          float64 `mapstructure:"k_minor" json:"k_minor" yaml:"k_minor" validate:"gte=0"`                              // lumped minor loss coefficient, -
	Epsilon         float64 `mapstructure:"epsilon" json:"epsilon" yaml:"epsilon" validate:"gte=0"`                              // pipe roughness, m
}

// EconomicParameters are prices and the discounting horizon.
type EconomicParameters struct {
	PriceEl      float64 `mapstructure:"price_el" json:"price_el" yaml:"price_el" validate:"gte=0"`                   // electricity price, EUR/MWh
	CostHeatProd float64 `mapstructure:"cost_heat_prod" json:"cost_heat_prod" yaml:"cost_heat_prod" validate:"gte=0"` // heat production cost, EUR/MWh
	Years        int     `mapstructure:"years" json:"years" yaml:"years" validate:"gt=0"`                             // project lifetime, a
	R            float64 `mapstructure:"r" json:"r" yaml:"r" validate:"gte=0"`                                        // discount rate, -
	OAndMRate    float64 `mapstructure:"o_and_m_rate" json:"o_and_m_rate" yaml:"o_and_m_rate" validate:"gte=0"`       // O&M as fraction of CAPEX per year, -
}

func DefaultDesignParameters() DesignParameters {
	return DesignParameters{
		TSupply:         80,
		TReturn:         50,
		TSoil:           10,
		Rho:             971.8,
		Mu:              3.5e-4,
		Cp:              4190,
		EtaPump:         0.65,
		Hours:           8760,
		VFeasibleTarget: 1.5,
		VLimit:          2.0,
		DeltaTMin:       20,
		KMinor:          0,
		Epsilon:         DefaultRoughness,
	}
}

func DefaultEconomicParameters() EconomicParameters {
	return EconomicParameters{
		PriceEl:      250,
		CostHeatProd: 60,
		Years:        30,
		R:            0.04,
		OAndMRate:    0.01,
	}
}

// DeltaT is the design supply/return temperature difference, K.
func (d DesignParameters) DeltaT() float64 {
	return d.TSupply - d.TReturn
}

func (d DesignParameters) Validate() error {
	if err := _struct_error("design", validate.Struct(d)); err != nil {
		return err
	}
	if d.VFeasibleTarget > d.VLimit {
		return configurationErrorf("design", "v_feasible_target %g exceeds v_limit %g", d.VFeasibleTarget, d.VLimit)
	}
	return nil
}

func (e EconomicParameters) Validate() error {
	return _struct_error("economics", validate.Struct(e))
}

// _struct_error turns validator failures into a KindDomain error naming every offending field.
func _struct_error(op string, err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &Error{Kind: KindDomain, Op: op, Err: err}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s must be %s %s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
	}
	return &Error{Kind: KindDomain, Op: op, Msg: strings.Join(msgs, "; ")}
}
