package ghostline

import (
	"github.com/justyntemme/ghostline/pkg/dsp/modulation"
	"github.com/justyntemme/ghostline/pkg/framework/param"
)

// Parameter IDs
const (
	ParamDelayTime uint32 = iota
	ParamFeedback
	ParamWet
	ParamDry
	ParamModRate
	ParamModDepth

	numParams
)

// Parameter keys, stable across sessions and used by configuration.
const (
	KeyDelayTime = "DELAYTIME"
	KeyFeedback  = "FEEDBACK"
	KeyWet       = "WET"
	KeyDry       = "DRY"
	KeyModRate   = "MODRATE"
	KeyModDepth  = "MODDEPTH"
)

// ParamDef describes one entry of the parameter layout.
type ParamDef struct {
	ID      uint32
	Key     string
	Name    string
	Unit    string
	Min     float64
	Max     float64
	Default float64
	Step    float64
	Skew    float64

	format func(float64) string
	parse  func(string) (float64, error)
}

var layout = [numParams]ParamDef{
	{
		ID: ParamDelayTime, Key: KeyDelayTime, Name: "Delay Time", Unit: "s",
		Min: 0.01, Max: MaxDelaySeconds, Default: 0.3, Step: 0.01, Skew: 0.3,
		format: param.SecondsFormatter, parse: param.SecondsParser,
	},
	{
		ID: ParamFeedback, Key: KeyFeedback, Name: "Feedback", Unit: "%",
		Min: 0, Max: 0.95, Default: 0.3, Step: 0.01, Skew: 1,
		format: param.PercentFormatter, parse: param.PercentParser,
	},
	{
		ID: ParamWet, Key: KeyWet, Name: "Wet Level", Unit: "dB",
		Min: 0, Max: 1, Default: 0.5, Step: 0.01, Skew: 1,
		format: param.DecibelFormatter, parse: param.DecibelParser,
	},
	{
		ID: ParamDry, Key: KeyDry, Name: "Dry Level", Unit: "dB",
		Min: 0, Max: 1, Default: 0.5, Step: 0.01, Skew: 1,
		format: param.DecibelFormatter, parse: param.DecibelParser,
	},
	{
		ID: ParamModRate, Key: KeyModRate, Name: "Mod Rate", Unit: "Hz",
		Min: 0, Max: 1, Default: 0.5, Step: 0.01, Skew: 1,
		format: param.ScaledFormatter(modulation.MaxRateHz, "Hz"),
		parse:  param.ScaledParser(modulation.MaxRateHz, "Hz"),
	},
	{
		ID: ParamModDepth, Key: KeyModDepth, Name: "Mod Depth", Unit: "ms",
		Min: 0, Max: 1, Default: 0, Step: 0.01, Skew: 1,
		format: param.ScaledFormatter(MaxModulationSeconds*1000, "ms"),
		parse:  param.ScaledParser(MaxModulationSeconds*1000, "ms"),
	},
}

// Layout returns the six parameter definitions in ID order.
func Layout() []ParamDef {
	defs := make([]ParamDef, len(layout))
	copy(defs, layout[:])
	return defs
}

// Build creates a live parameter from the definition, set to its default.
func (d ParamDef) Build() *param.Parameter {
	return param.New(d.ID, d.Key, d.Name).
		Range(d.Min, d.Max).
		Default(d.Default).
		Unit(d.Unit).
		Step(d.Step).
		Skew(d.Skew).
		Formatter(d.format, d.parse).
		Build()
}

// NewRegistry creates a registry holding the engine's parameters at their
// defaults.
func NewRegistry() *param.Registry {
	r := param.NewRegistry()
	for _, def := range layout {
		// IDs and keys in the layout are unique
		_ = r.Add(def.Build())
	}
	return r
}

// Settings is a plain copy of the six parameter values.
type Settings struct {
	DelayTime float64
	Feedback  float64
	Wet       float64
	Dry       float64
	ModRate   float64
	ModDepth  float64
}

// DefaultSettings returns the layout defaults.
func DefaultSettings() Settings {
	return Settings{
		DelayTime: layout[ParamDelayTime].Default,
		Feedback:  layout[ParamFeedback].Default,
		Wet:       layout[ParamWet].Default,
		Dry:       layout[ParamDry].Default,
		ModRate:   layout[ParamModRate].Default,
		ModDepth:  layout[ParamModDepth].Default,
	}
}

// Apply writes the settings into a registry, clamping each value into its
// parameter range. Keys missing from the registry are skipped.
func (s Settings) Apply(r *param.Registry) {
	set := func(key string, v float64) {
		if p := r.Lookup(key); p != nil {
			p.SetValue(p.Clamp(v))
		}
	}
	set(KeyDelayTime, s.DelayTime)
	set(KeyFeedback, s.Feedback)
	set(KeyWet, s.Wet)
	set(KeyDry, s.Dry)
	set(KeyModRate, s.ModRate)
	set(KeyModDepth, s.ModDepth)
}

func (s *Settings) set(id uint32, v float64) {
	switch id {
	case ParamDelayTime:
		s.DelayTime = v
	case ParamFeedback:
		s.Feedback = v
	case ParamWet:
		s.Wet = v
	case ParamDry:
		s.Dry = v
	case ParamModRate:
		s.ModRate = v
	case ParamModDepth:
		s.ModDepth = v
	}
}

func (s *Settings) get(id uint32) float64 {
	switch id {
	case ParamDelayTime:
		return s.DelayTime
	case ParamFeedback:
		return s.Feedback
	case ParamWet:
		return s.Wet
	case ParamDry:
		return s.Dry
	case ParamModRate:
		return s.ModRate
	case ParamModDepth:
		return s.ModDepth
	}
	return 0
}
