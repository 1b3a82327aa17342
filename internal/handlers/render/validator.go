package render

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/minibank/internal/service/validate"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	configureValidator(v)
	return v
}

func configureValidator(v *validator.Validate) {
	_ = v.RegisterValidation("luhn", validateLuhnAlgorithm)
	v.RegisterTagNameFunc(useJSONTagNames)

	// Validate decimals as their float value: 'required' means non zero
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

func validateLuhnAlgorithm(fl validator.FieldLevel) bool {
	return validate.Luhn(fl.Field().String()) == nil
}

func decimalValue(v reflect.Value) any {
	d, ok := v.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	return d.InexactFloat64()
}
