package glm

// Rad is an angle in radians.
type Rad float32

type float interface {
	~float32 | ~float64
}

type numeric interface {
	float | ~uint16 | ~uint32
}
