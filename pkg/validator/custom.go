package validator

import "github.com/go-playground/validator/v10"

// Radius bounds in meters. Values outside are rejected at creation time;
// the registry additionally clamps on rehydration.
const (
	MinRadiusM = 50.0
	MaxRadiusM = 1000.0
)

func RegisterCustomValidations(validate *validator.Validate) {
	validate.RegisterValidation("lat", validateLat)
	validate.RegisterValidation("lng", validateLng)
	validate.RegisterValidation("radius_m", validateRadiusM)
}

func validateLat(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90.0 && lat <= 90.0
}

func validateLng(fl validator.FieldLevel) bool {
	lng := fl.Field().Float()
	return lng >= -180.0 && lng <= 180.0
}

func validateRadiusM(fl validator.FieldLevel) bool {
	radius := fl.Field().Float()
	return radius >= MinRadiusM && radius <= MaxRadiusM
}
