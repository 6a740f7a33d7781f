package rvcfg

// Vec2 represents a 2D coordinate such as centerPosition[]={x,y}.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"` // First component
	Y float64 `json:"y" yaml:"y"` // Second component
}

// Max returns the larger component.
func (v Vec2) Max() float64 {
	if v.X > v.Y {
		return v.X
	}
	return v.Y
}

// ToArray converts the vector to a float array.
func (v Vec2) ToArray() []float64 {
	return []float64{v.X, v.Y}
}

// Vec2 reads a numeric array field with at least two elements as a coordinate.
// Extra elements (such as a height component) are ignored.
func (n *Node) Vec2(name string) (Vec2, bool) {
	_, v, ok := n.Lookup(name)
	if !ok {
		return Vec2{}, false
	}

	vals, ok := v.Floats()
	if !ok || len(vals) < 2 {
		return Vec2{}, false
	}

	return Vec2{X: vals[0], Y: vals[1]}, true
}
