// Package propagator wraps the ASTROX orbit propagation endpoints.
//
// Every function takes an optional client; nil means the default client of the
// context's session scope.
package propagator

import (
	"context"
	"errors"

	"github.com/gaborage/go-astrox/httpclient"
	"github.com/gaborage/go-astrox/session"
	"github.com/gaborage/go-astrox/validation"
)

// Endpoints
const (
	EndpointTwoBody = "/Propagator/TwoBody"
	EndpointJ2      = "/Propagator/J2"
	EndpointSGP4    = "/Propagator/sgp4"
)

// Coordinate types accepted by CoordType.
const (
	CoordClassical = "Classical"
	CoordCartesian = "Cartesian"
)

// EarthJ2NormalizedValue is the normalized J2 coefficient of the Earth.
const EarthJ2NormalizedValue = 0.000484165143790815

// TwoBodyRequest propagates an orbit under two-body dynamics.
//
// OrbitalElements holds six values: SemiMajorAxis(m), Eccentricity, Inclination(deg),
// ArgumentOfPeriapsis(deg), RAAN(deg), TrueAnomaly(deg) for Classical, or
// X, Y, Z (m) and Vx, Vy, Vz (m/s) for Cartesian.
type TwoBodyRequest struct {
	Start           string    `json:"Start" validate:"required,utcg"`
	Stop            string    `json:"Stop" validate:"required,utcg"`
	OrbitEpoch      string    `json:"OrbitEpoch" validate:"required,utcg"`
	OrbitalElements []float64 `json:"OrbitalElements" validate:"len=6"`

	Step                   *float64 `json:"Step,omitempty" validate:"omitempty,gt=0"`
	CentralBody            *string  `json:"CentralBody,omitempty"`
	GravitationalParameter *float64 `json:"GravitationalParameter,omitempty" validate:"omitempty,gt=0"`
	CoordSystem            *string  `json:"CoordSystem,omitempty"`
	CoordType              *string  `json:"CoordType,omitempty" validate:"omitempty,oneof=Classical Cartesian"`
}

// J2Request propagates an orbit with the J2 perturbation.
type J2Request struct {
	Start             string    `json:"Start" validate:"required,utcg"`
	Stop              string    `json:"Stop" validate:"required,utcg"`
	J2NormalizedValue float64   `json:"J2NormalizedValue"`
	RefDistance       float64   `json:"RefDistance" validate:"gt=0"`
	OrbitEpoch        string    `json:"OrbitEpoch" validate:"required,utcg"`
	OrbitalElements   []float64 `json:"OrbitalElements" validate:"len=6"`

	Step                   *float64 `json:"Step,omitempty" validate:"omitempty,gt=0"`
	CentralBody            *string  `json:"CentralBody,omitempty"`
	GravitationalParameter *float64 `json:"GravitationalParameter,omitempty" validate:"omitempty,gt=0"`
	CoordSystem            *string  `json:"CoordSystem,omitempty"`
	CoordType              *string  `json:"CoordType,omitempty" validate:"omitempty,oneof=Classical Cartesian"`
}

// SGP4Request propagates a two-line element set.
type SGP4Request struct {
	Start string   `json:"Start" validate:"required,utcg"`
	Stop  string   `json:"Stop" validate:"required,utcg"`
	TLEs  []string `json:"TLEs" validate:"min=2,dive,required"`

	Step            *float64 `json:"Step,omitempty" validate:"omitempty,gt=0"`
	SatelliteNumber *string  `json:"SatelliteNumber,omitempty"`
}

// TwoBody calls /Propagator/TwoBody and returns the CZML position output.
func TwoBody(ctx context.Context, c httpclient.Client, req *TwoBodyRequest) (map[string]any, error) {
	return post(ctx, c, EndpointTwoBody, req)
}

// J2 calls /Propagator/J2.
func J2(ctx context.Context, c httpclient.Client, req *J2Request) (map[string]any, error) {
	return post(ctx, c, EndpointJ2, req)
}

// SGP4 calls /Propagator/sgp4.
func SGP4(ctx context.Context, c httpclient.Client, req *SGP4Request) (map[string]any, error) {
	return post(ctx, c, EndpointSGP4, req)
}

func post[T any](ctx context.Context, c httpclient.Client, endpoint string, req *T) (map[string]any, error) {
	if req == nil {
		return nil, httpclient.NewValidationError(endpoint, "request is nil", nil)
	}
	if err := validation.Default().Struct(req); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			return nil, httpclient.NewValidationError(endpoint, "invalid request", verr.Fields)
		}
		return nil, httpclient.NewValidationError(endpoint, "invalid request: "+err.Error(), nil)
	}

	return session.Resolve(ctx, c).Post(ctx, endpoint, httpclient.Struct(req))
}

// Float returns a pointer to v, for optional request fields.
func Float(v float64) *float64 { return &v }

// String returns a pointer to v, for optional request fields.
func String(v string) *string { return &v }
