package component

const (
	R_IDEAL        = 0.00831446261815324 // [kJ / K mol]
	P_REF          = 0.000611657         // triple point pressure of water [MPa]
	T_REF          = 273.16              // triple point temperature of water [K]
	V_REF          = 1.0                 // [m^3]
	U_REF          = 0.0                 // [kJ / mol]
	PRESSURE_SCALE = 1e6                 // MPa -> Pa
	ENERGY_SCALE   = 1e3                 // kJ -> J
)

const (
	heatCapacityRatio = 8.0 / 6.0 // ideal, triatomic gases
	// CP_REF and CV_REF are the ideal water vapour heat capacities [kJ / K mol]
	CP_REF  = heatCapacityRatio / (heatCapacityRatio - 1) * R_IDEAL
	CV_REF  = 1.0 / (heatCapacityRatio - 1) * R_IDEAL
	RHO_REF = P_REF / (R_IDEAL * T_REF) / V_REF // [mol / m^3]
	H_REF   = U_REF + P_REF/RHO_REF             // [kJ / mol]
)
