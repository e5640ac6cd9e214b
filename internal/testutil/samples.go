package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/endfgo/internal/resultmap"
)

// SectionSample is the result mapping of one section together with the
// built-in recipe that reads and writes it.
type SectionSample struct {
	Recipe string
	MF, MT int
	YAML   string
}

// Samples holds one section per built-in recipe and branch. Every float
// has at most seven significant digits so it survives an 11-column field.
var Samples = map[string]SectionSample{
	"tpid": {Recipe: "tpid", MF: 0, MT: 0, YAML: `
MAT: 1
TAPEDESCR: "Sample tape for endfgo"
`},
	"mf1_451": {Recipe: "descriptive_data", MF: 1, MT: 451, YAML: `
MAT: 125
ZA: 1001.0
AWR: 0.9991673
LRP: -1
LFI: 0
NLIB: 0
NMOD: 2
ELIS: 0.0
STA: 0.0
LIS: 0
LISO: 0
NFOR: 6
AWI: 1.0
EMAX: 2.0e7
LREL: 0
NSUB: 10
NVER: 8
TEMP: 0.0
LDRV: 0
NWD: 2
NXC: 3
DESCRIPTION: {1: " 1-H -  1 LANL       EVAL-JUL16 G.M.Hale", 2: "----ENDF/B-VIII.0      MATERIAL  125"}
MFx: {1: 1, 2: 3, 3: 4}
MTx: {1: 451, 2: 1, 3: 2}
NCx: {1: 6, 2: 4, 3: 5}
MOD: {1: 0, 2: 0, 3: 1}
`},
	"mf1_452": {Recipe: "nubar", MF: 1, MT: 452, YAML: `
MAT: 125
MT: 452
ZA: 1001.0
AWR: 0.9991673
LNU: 2
nubar_table:
  NBT: [2]
  INT: [2]
  E: [1.0e-5, 2.0e7]
  nubar: [2.4367, 5.1]
`},
	"mf1_456": {Recipe: "nubar", MF: 1, MT: 456, YAML: `
MAT: 125
MT: 456
ZA: 1001.0
AWR: 0.9991673
LNU: 1
NC: 3
C: {1: 2.4, 2: 0.0125, 3: 1.0e-4}
`},
	"mf3_1": {Recipe: "cross_section", MF: 3, MT: 1, YAML: `
MAT: 125
MT: 1
ZA: 1001.0
AWR: 0.9991673
QM: 0.0
QI: 0.0
LR: 0
xstable:
  NBT: [3]
  INT: [2]
  E: [1.0e-5, 1.0, 2.0e7]
  xs: [37.16, 20.43, 0.4827]
`},
	"mf3_102": {Recipe: "cross_section", MF: 3, MT: 102, YAML: `
MAT: 125
MT: 102
ZA: 1001.0
AWR: 0.9991673
QM: 2224631.0
QI: 2224631.0
LR: 0
xstable:
  NBT: [2, 5]
  INT: [5, 2]
  E: [1.0e-5, 0.0253, 1.0, 1.0e6, 2.0e7]
  xs: [16.69, 0.3326, 0.0332, 3.1e-5, 2.9e-5]
`},
	"mf4_2_legendre": {Recipe: "angular_distribution", MF: 4, MT: 2, YAML: `
MAT: 125
MT: 2
ZA: 1001.0
AWR: 0.9991673
LTT: 1
LI: 0
LCT: 2
NE: 2
legendre_interp:
  NBT: [2]
  INT: [2]
T: 0.0
LT: 0
E: {1: 1.0e-5, 2: 2.0e7}
NL: {1: 1, 2: 2}
a: {1: {1: 0.0}, 2: {1: 0.0125, 2: -0.002}}
`},
	"mf4_2_tabulated": {Recipe: "angular_distribution", MF: 4, MT: 2, YAML: `
MAT: 125
MT: 2
ZA: 1001.0
AWR: 0.9991673
LTT: 2
LI: 0
LCT: 2
NE: 2
tabulated_interp:
  NBT: [2]
  INT: [2]
T: 0.0
LT: 0
E: {1: 1.0e-5, 2: 2.0e7}
angdist:
  1: {NBT: [2], INT: [2], mu: [-1.0, 1.0], p: [0.5, 0.5]}
  2: {NBT: [3], INT: [2], mu: [-1.0, 0.0, 1.0], p: [0.25, 0.5, 0.75]}
`},
}

// Sample decodes the named entry of Samples.
func Sample(t *testing.T, name string) *resultmap.Map {
	t.Helper()

	s, ok := Samples[name]
	require.True(t, ok, "unknown sample %q", name)
	m, err := resultmap.Decode([]byte(s.YAML))
	require.NoError(t, err)
	return m
}
