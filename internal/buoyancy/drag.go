package buoyancy

import "github.com/Faultbox/waterline/pkg/math"

const (
	dragSmoothing        = 0.25
	dragSubmergedGain    = 10
	angularSubmergedGain = 0.5
)

// dragAdapter raises drag as the body sinks, using a smoothed submerged fraction.
type dragAdapter struct {
	baseDrag        float32
	baseAngularDrag float32
	percent         float32
}

func newDragAdapter(drag, angularDrag float32) dragAdapter {
	return dragAdapter{baseDrag: drag, baseAngularDrag: angularDrag}
}

// smooth moves the smoothed fraction toward submerged and returns it.
func (d *dragAdapter) smooth(submerged float32) float32 {
	d.percent = math.Lerp(d.percent, submerged, dragSmoothing)
	return d.percent
}

func (d *dragAdapter) update(rb RigidBody, submerged float32) {
	p := d.smooth(submerged)
	rb.SetDrag(d.baseDrag + d.baseDrag*(p*dragSubmergedGain))
	rb.SetAngularDrag(d.baseAngularDrag + p*angularSubmergedGain)
}
