package core

// LeadAxisSensor exposes the signed, accumulated position of the sensed
// primary axis (the lathe spindle). It is updated asynchronously by an
// encoder ISR or an external decoding process; the controller never
// drives it, only reads it.
type LeadAxisSensor interface {
	GetCurrentPosition() int32
}
