package component

// Critical data from the NIST webbook, molar masses in kg/mol
var (
	Water   = NewComponent("H2O", "7732-18-5", 0.01801528, 22.064, 647.096, 0.3443)
	CO2     = NewComponent("CO2", "124-38-9", 0.0440095, 7.3773, 304.1282, 0.22394)
	N2      = NewComponent("N2", "7727-37-9", 0.0280134, 3.3958, 126.192, 0.0372)
	H2S     = NewComponent("H2S", "7783-06-4", 0.0340809, 9.000, 373.1, 0.1005)
	Methane = NewComponent("CH4", "74-82-8", 0.0160425, 4.5992, 190.564, 0.01142)
	Ethane  = NewComponent("C2H6", "74-84-0", 0.0300690, 4.8722, 305.322, 0.0995)
	Propane = NewComponent("C3H8", "74-98-6", 0.0440956, 4.2512, 369.89, 0.1521)
	NButane = NewComponent("nC4H10", "106-97-8", 0.0581222, 3.796, 425.125, 0.201)
	// NaCl only appears as a solute of a Compound
	NaCl = NewComponent("NaCl", "7647-14-5", 0.0584428, 0, 0, 0)
)

var LibraryNameMap = map[string]*Component{
	"h2o":     Water,
	"water":   Water,
	"co2":     CO2,
	"n2":      N2,
	"h2s":     H2S,
	"ch4":     Methane,
	"methane": Methane,
	"c2h6":    Ethane,
	"ethane":  Ethane,
	"c3h8":    Propane,
	"propane": Propane,
	"nc4h10":  NButane,
	"butane":  NButane,
	"nacl":    NaCl,
}
