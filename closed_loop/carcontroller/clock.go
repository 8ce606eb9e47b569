package carcontroller

// DT is the control period in seconds.
const DT = 0.01

// Clock counts control ticks since the controller started.
type Clock uint64

// Every reports whether this tick falls on an n-tick cadence.
func (c Clock) Every(n uint64) bool {
	return n > 0 && uint64(c)%n == 0
}

// Half is the counter of frames sent every other tick.
func (c Clock) Half() uint64 {
	return uint64(c) / 2
}

func (c Clock) Seconds() float64 {
	return float64(c) * DT
}
