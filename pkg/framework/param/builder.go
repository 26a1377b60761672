package param

// Builder provides a fluent API for creating parameters
type Builder struct {
	param *Parameter
}

// New creates a new parameter builder
func New(id uint32, key, name string) *Builder {
	return &Builder{
		param: &Parameter{
			ID:    id,
			Key:   key,
			Name:  name,
			Min:   0,
			Max:   1,
			Skew:  1,
			Flags: CanAutomate,
		},
	}
}

// Range sets the min and max values
func (b *Builder) Range(min, max float64) *Builder {
	b.param.Min = min
	b.param.Max = max
	return b
}

// Default sets the default value (in plain range, not normalized)
func (b *Builder) Default(value float64) *Builder {
	b.param.DefaultValue = value
	return b
}

// Unit sets the unit string
func (b *Builder) Unit(unit string) *Builder {
	b.param.Unit = unit
	return b
}

// Step sets the granularity of the plain value.
func (b *Builder) Step(step float64) *Builder {
	b.param.Step = step
	return b
}

// Skew sets the skew of the normalized mapping; values below 1 give the
// lower part of the range more control travel.
func (b *Builder) Skew(skew float64) *Builder {
	b.param.Skew = skew
	return b
}

// Formatter sets custom value formatting and parsing
func (b *Builder) Formatter(format func(float64) string, parse func(string) (float64, error)) *Builder {
	b.param.formatFunc = format
	b.param.parseFunc = parse
	return b
}

// Build returns the configured parameter
func (b *Builder) Build() *Parameter {
	b.param.SetValue(b.param.DefaultValue)
	return b.param
}
