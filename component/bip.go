package component

// Peng-Robinson binary interaction parameters, keyed by ordered CAS pairs
var bipTable = map[[2]string]float64{
	{"124-38-9", "7727-37-9"}:  -0.0170,
	{"124-38-9", "7783-06-4"}:  0.0974,
	{"124-38-9", "74-82-8"}:    0.1000,
	{"124-38-9", "74-84-0"}:    0.1298,
	{"124-38-9", "74-98-6"}:    0.1350,
	{"124-38-9", "106-97-8"}:   0.1300,
	{"7727-37-9", "74-82-8"}:   0.0311,
	{"7727-37-9", "74-84-0"}:   0.0515,
	{"7727-37-9", "74-98-6"}:   0.0852,
	{"7727-37-9", "106-97-8"}:  0.0800,
	{"7783-06-4", "74-82-8"}:   0.0850,
	{"7783-06-4", "74-84-0"}:   0.0840,
	{"7783-06-4", "74-98-6"}:   0.0750,
	{"7783-06-4", "106-97-8"}:  0.0600,
	{"7732-18-5", "124-38-9"}:  0.1896,
	{"7732-18-5", "7727-37-9"}: 0.4778,
	{"7732-18-5", "7783-06-4"}: 0.0400,
	{"7732-18-5", "74-82-8"}:   0.4850,
}

// LoadBIP returns the tabulated parameter of two components, zero if unknown
func LoadBIP(casA, casB string) (bip float64, found bool) {
	if bip, found = bipTable[[2]string{casA, casB}]; found {
		return
	}
	bip, found = bipTable[[2]string{casB, casA}]
	return
}
