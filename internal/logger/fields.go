package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Faultbox/waterline/pkg/math"
)

type vec3Marshaler math.Vec3

func (v vec3Marshaler) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddFloat32("x", v.X)
	enc.AddFloat32("y", v.Y)
	enc.AddFloat32("z", v.Z)
	return nil
}

// Vec3 returns a structured field for a vector.
func Vec3(key string, v math.Vec3) zap.Field {
	return zap.Object(key, vec3Marshaler(v))
}
