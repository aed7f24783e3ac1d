package session

// Brush is the paint stamp radius, kept within [Min, Max].
type Brush struct {
	Radius int
	Min    int
	Max    int
	Step   int
}

func (b *Brush) Grow() int {
	b.Radius = min(b.Max, b.Radius+b.Step)
	return b.Radius
}

func (b *Brush) Shrink() int {
	b.Radius = max(b.Min, b.Radius-b.Step)
	return b.Radius
}

func (b *Brush) clamp() {
	b.Radius = max(b.Min, min(b.Max, b.Radius))
}
