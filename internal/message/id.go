package message

// ID is a 64-bit tag. The high bits encode payload shape (empty / scalar
// / vector / struct) as independent flags — not a mutually exclusive
// enum, per spec: "any id whose scalar-bit is set carries a single
// scalar payload; any id whose vector-bit is set carries a length-
// prefixed vector payload." The low 32 bits are a small dense integer
// that names the specific meaning (Volts, Watts, ModelStateEstimate...).
type ID uint64

const (
	scalarBit uint64 = 1 << 61
	vectorBit uint64 = 1 << 62
	structBit uint64 = 1 << 63

	valueMask uint64 = 0x00000000FFFFFFFF
)

// makeScalarID, makeVectorID, makeStructID build a catalog entry of the
// given shape with a unique low-bits value.
func makeScalarID(v uint32) ID { return ID(scalarBit | uint64(v)) }
func makeVectorID(v uint32) ID { return ID(vectorBit | uint64(v)) }
func makeStructID(v uint32) ID { return ID(structBit | uint64(v)) }
func makeEmptyID(v uint32) ID  { return ID(uint64(v)) }

// All is the wildcard id: a subscription registered with All matches
// every id published on the subscribed source.
const All ID = ID(^uint64(0))

// Catalog of message ids used by the core runtime (spec §6).
var (
	VoltsID              = makeScalarID(1)
	AmperesID            = makeScalarID(2)
	WattsID              = makeScalarID(3)
	KelvinID             = makeScalarID(4)
	CentigradeID         = makeScalarID(5)
	FahrenheitID         = makeScalarID(6)
	PascalID             = makeScalarID(7)
	RadiansPerSecondID   = makeScalarID(8)
	MetersCubedPerSecondID = makeScalarID(9)
	MetersID             = makeScalarID(10)

	// Test/fixture scalar ids used by bus and watcher tests (mirrors
	// original_source's MockClasses.h TestInput0/TestInput1).
	TestInput0ID = makeScalarID(90)
	TestInput1ID = makeScalarID(91)
	TestOutput0ID = makeScalarID(92)

	ModelStateVectorID  = makeVectorID(10)
	ModelInputVectorID  = makeVectorID(11)
	ModelOutputVectorID = makeVectorID(12)

	ModelStateEstimateID = makeStructID(20)
	PredictionID         = makeStructID(21)
	BatteryEodID         = makeStructID(22)
	BatteryEolID         = makeStructID(23)
	TestEvent0ID         = makeStructID(24)

	CentrifugalPumpImpellerWearFailureID    = makeStructID(25)
	CentrifugalPumpOilOverheatID            = makeStructID(26)
	CentrifugalPumpRadialBearingOverheatID  = makeStructID(27)
	CentrifugalPumpThrustBearingOverheatID  = makeStructID(28)

	PneumaticValveExternalBottomLeakID = makeStructID(32)
	PneumaticValveExternalTopLeakID    = makeStructID(33)
	PneumaticValveInternalLeakID       = makeStructID(34)
	PneumaticValveSpringFailureID      = makeStructID(35)
	PneumaticValveFrictionFailureID    = makeStructID(36)

	RouteSetWPID    = makeStructID(30)
	RouteDeleteWPID = makeStructID(31)

	RouteStartID = makeEmptyID(40)
	RouteEndID   = makeEmptyID(41)
	RouteClearID = makeEmptyID(42)
)

// IsScalar reports whether id's scalar-bit is set.
func (id ID) IsScalar() bool { return uint64(id)&scalarBit != 0 && id != All }

// IsVector reports whether id's vector-bit is set.
func (id ID) IsVector() bool { return uint64(id)&vectorBit != 0 && id != All }

// IsStruct reports whether id's struct-bit is set.
func (id ID) IsStruct() bool { return uint64(id)&structBit != 0 && id != All }

// IsEmpty reports whether id carries no payload at all.
func (id ID) IsEmpty() bool {
	return id != All && !id.IsScalar() && !id.IsVector() && !id.IsStruct()
}

// Matches reports whether a subscription registered for want also
// accepts an incoming message tagged got: either want is the wildcard,
// or the two ids are identical.
func (want ID) Matches(got ID) bool {
	return want == All || want == got
}

var names = map[ID]string{
	VoltsID:              "Volts",
	AmperesID:            "Amperes",
	WattsID:              "Watts",
	KelvinID:             "Kelvin",
	CentigradeID:         "Centigrade",
	FahrenheitID:         "Fahrenheit",
	PascalID:             "Pascal",
	RadiansPerSecondID:   "RadiansPerSecond",
	MetersCubedPerSecondID: "MetersCubedPerSecond",
	MetersID:             "Meters",
	TestInput0ID:         "TestInput0",
	TestInput1ID:         "TestInput1",
	TestOutput0ID:        "TestOutput0",
	ModelStateVectorID:   "ModelStateVector",
	ModelInputVectorID:   "ModelInputVector",
	ModelOutputVectorID:  "ModelOutputVector",
	ModelStateEstimateID: "ModelStateEstimate",
	PredictionID:         "Prediction",
	BatteryEodID:         "BatteryEod",
	BatteryEolID:         "BatteryEol",
	TestEvent0ID:         "TestEvent0",
	CentrifugalPumpImpellerWearFailureID:   "CentrifugalPumpImpellerWearFailure",
	CentrifugalPumpOilOverheatID:           "CentrifugalPumpOilOverheat",
	CentrifugalPumpRadialBearingOverheatID: "CentrifugalPumpRadialBearingOverheat",
	CentrifugalPumpThrustBearingOverheatID: "CentrifugalPumpThrustBearingOverheat",
	PneumaticValveExternalBottomLeakID:     "PneumaticValveExternalBottomLeak",
	PneumaticValveExternalTopLeakID:        "PneumaticValveExternalTopLeak",
	PneumaticValveInternalLeakID:           "PneumaticValveInternalLeak",
	PneumaticValveSpringFailureID:          "PneumaticValveSpringFailure",
	PneumaticValveFrictionFailureID:        "PneumaticValveFrictionFailure",
	RouteSetWPID:         "RouteSetWP",
	RouteDeleteWPID:      "RouteDeleteWP",
	RouteStartID:         "RouteStart",
	RouteEndID:           "RouteEnd",
	RouteClearID:         "RouteClear",
	All:                  "All",
}

func (id ID) String() string {
	if name, ok := names[id]; ok {
		return name
	}
	return "ID(unknown)"
}
