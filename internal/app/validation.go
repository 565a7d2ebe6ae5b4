package app

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"room_booking/internal/domain"
)

// RoomInput is the create-room request contract. Values are the raw client
// strings; numbers sent as JSON numbers are passed through in their text form.
type RoomInput struct {
	Description string `json:"description" validate:"required,min=5,max=200"`
	Price       string `json:"price" validate:"required,max_string=1000,decimal,max_digits=9,decimal_places=2,whole_digits=7,min_value=1.00"`
}

// BookingInput is the create-booking request contract.
type BookingInput struct {
	BeginDate string `json:"begin_date" validate:"required,isodate,storable_date"`
	EndDate   string `json:"end_date" validate:"required,isodate,storable_date"`
	RoomID    string `json:"room_id" validate:"required,pk"`
}

const (
	msgBeginAfterEnd = "begin_date must be less than or equal to end_date"
	msgBlank         = "This field may not be blank."
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// report fields by their wire names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s: %v", tag, err))
		}
	}
	must("max_string", func(fl validator.FieldLevel) bool {
		limit, _ := strconv.Atoi(fl.Param())
		return len(fl.Field().String()) <= limit
	})
	must("decimal", func(fl validator.FieldLevel) bool {
		_, err := decimal.NewFromString(fl.Field().String())
		return err == nil
	})

	// The digit checks read only the coefficient and the exponent, so they
	// stay cheap for inputs such as 1e2000000000. min_value runs last and only
	// sees values that already fit the column.
	digitRule := func(pick func(total, decimals, whole int) int) validator.Func {
		return func(fl validator.FieldLevel) bool {
			d, err := decimal.NewFromString(fl.Field().String())
			if err != nil {
				return false
			}
			limit, _ := strconv.Atoi(fl.Param())
			return pick(digitCounts(d)) <= limit
		}
	}
	must("max_digits", digitRule(func(total, _, _ int) int { return total }))
	must("decimal_places", digitRule(func(_, decimals, _ int) int { return decimals }))
	must("whole_digits", digitRule(func(_, _, whole int) int { return whole }))

	must("min_value", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		return d.GreaterThanOrEqual(decimal.RequireFromString(fl.Param()))
	})
	must("isodate", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseDate(fl.Field().String())
		return err == nil
	})
	must("storable_date", func(fl validator.FieldLevel) bool {
		d, err := domain.ParseDate(fl.Field().String())
		return err == nil && d.Storable()
	})
	must("pk", func(fl validator.FieldLevel) bool {
		id, err := strconv.ParseInt(fl.Field().String(), 10, 64)
		return err == nil && id > 0
	})
	return v
}

// digitCounts splits the digits of d as written into the total, the
// fractional and the whole-part count. 100.50 is (5, 2, 3), 0.05 is (2, 2, 0)
// and 1e3 is (4, 0, 4).
func digitCounts(d decimal.Decimal) (total, decimals, whole int) {
	n := len(d.Coefficient().Text(10))
	if d.Sign() < 0 {
		n-- // minus sign
	}
	exp := int(d.Exponent())
	switch {
	case exp >= 0:
		total, decimals = n+exp, 0
	case -exp > n:
		total, decimals = -exp, -exp
	default:
		total, decimals = n, -exp
	}
	return total, decimals, total - decimals
}

// ValidateRoom trims and checks a room request and returns the room to store.
func ValidateRoom(in RoomInput) (domain.Room, error) {
	blank := in.Description != "" && strings.TrimSpace(in.Description) == ""
	in.Description = strings.TrimSpace(in.Description)
	in.Price = strings.TrimSpace(in.Price)

	if ve := validateStruct(in); !ve.Empty() {
		if blank {
			ve.Fields["description"] = []string{msgBlank}
		}
		return domain.Room{}, ve
	}
	price, err := decimal.NewFromString(in.Price)
	if err != nil {
		return domain.Room{}, err
	}
	return domain.Room{Description: in.Description, Price: price}, nil
}

// ValidateBooking checks a booking request field by field and then across
// fields. Room existence is checked later by the store.
func ValidateBooking(in BookingInput) (domain.Booking, error) {
	in.BeginDate = strings.TrimSpace(in.BeginDate)
	in.EndDate = strings.TrimSpace(in.EndDate)
	in.RoomID = strings.TrimSpace(in.RoomID)

	if ve := validateStruct(in); !ve.Empty() {
		return domain.Booking{}, ve
	}

	begin, _ := domain.ParseDate(in.BeginDate)
	end, _ := domain.ParseDate(in.EndDate)
	roomID, _ := strconv.ParseInt(in.RoomID, 10, 64)

	b := domain.Booking{BeginDate: begin, EndDate: end, RoomID: roomID}
	if !b.Range().Valid() {
		ve := domain.NewValidationError()
		ve.Add(domain.NonFieldErrors, msgBeginAfterEnd)
		return domain.Booking{}, ve
	}
	return b, nil
}

func validateStruct(s any) *domain.ValidationError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		ve := domain.NewValidationError()
		ve.Add(domain.NonFieldErrors, err.Error())
		return ve
	}
	ve := domain.NewValidationError()
	for _, fe := range fieldErrs {
		ve.Add(fe.Field(), messageFor(fe))
	}
	return ve
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "min":
		return "Ensure this field has at least " + fe.Param() + " characters."
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "decimal":
		return "A valid number is required."
	case "decimal_places":
		return "Ensure that there are no more than " + fe.Param() + " decimal places."
	case "max_digits":
		return "Ensure that there are no more than " + fe.Param() + " digits in total."
	case "whole_digits":
		return "Ensure that there are no more than " + fe.Param() + " digits before the decimal point."
	case "max_string":
		return "String value too large."
	case "min_value":
		return "Ensure this value is greater than or equal to " + fe.Param() + "."
	case "isodate":
		return "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
	case "storable_date":
		return "Ensure this date is between " + domain.MinDate.String() + " and " + domain.MaxDate.String() + "."
	case "pk":
		if _, err := strconv.ParseInt(fmt.Sprint(fe.Value()), 10, 64); err != nil {
			return "Incorrect type. Expected pk value, received str."
		}
		return fmt.Sprintf("Invalid pk %q - object does not exist.", fe.Value())
	default:
		return "Invalid value."
	}
}
