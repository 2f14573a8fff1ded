// Package validate holds the form rules shared by every request form.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"booking-requests-api/internal/model"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^[+]?[1-9][\d]{0,15}$`)

	// swapped in tests
	now = time.Now

	v    *validator.Validate
	once sync.Once
)

type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string { return e.Field + ": " + e.Message }

func get() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		must(v.RegisterValidation("emailaddr", func(fl validator.FieldLevel) bool { return Email(fl.Field().String()) }))
		must(v.RegisterValidation("phone", func(fl validator.FieldLevel) bool { return Phone(fl.Field().String()) }))
		must(v.RegisterValidation("personname", func(fl validator.FieldLevel) bool { return Name(fl.Field().String()) }))
		must(v.RegisterValidation("pdate", func(fl validator.FieldLevel) bool { return PreferredDate(fl.Field().String()) }))
		must(v.RegisterValidation("ptime", func(fl validator.FieldLevel) bool { return PreferredTime(fl.Field().String()) }))
		must(v.RegisterValidation("relationship", enum(model.Relationships)))
		must(v.RegisterValidation("department", enum(model.Departments)))
		must(v.RegisterValidation("helptype", enum(model.HelpTypes)))
		must(v.RegisterValidation("urgency", enum(model.UrgencyLevels)))
		must(v.RegisterValidation("contactpref", enum(model.ContactPreferences)))
	})
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func enum(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return slices.Contains(allowed, fl.Field().String())
	}
}

func Email(s string) bool { return emailRe.MatchString(s) }

// Phone strips whitespace before matching.
func Phone(s string) bool {
	return phoneRe.MatchString(strings.Join(strings.Fields(s), ""))
}

func Password(s string) bool { return utf8.RuneCountInString(s) >= 6 }

// Name needs two characters after trimming, counted as runes.
func Name(s string) bool { return utf8.RuneCountInString(strings.TrimSpace(s)) >= 2 }

// PreferredDate accepts YYYY-MM-DD no earlier than today (UTC).
func PreferredDate(s string) bool {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return false
	}
	today, _ := time.Parse(DateLayout, now().UTC().Format(DateLayout))
	return !d.Before(today)
}

func PreferredTime(s string) bool {
	_, err := time.Parse(TimeLayout, s)
	return err == nil
}

// Struct validates v and flattens the result into readable field errors.
// A nil slice means v is valid.
func Struct(s any) []FieldError {
	err := get().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "request", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, FieldError{Field: e.Field(), Message: message(e)})
	}
	return out
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "emailaddr":
		return "must be a valid email address"
	case "phone":
		return "must be a valid phone number"
	case "personname":
		return "must be at least 2 characters"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", e.Param())
	case "eqfield":
		return "does not match"
	case "pdate":
		return "must be a date (YYYY-MM-DD) no earlier than today"
	case "ptime":
		return "must be a time (HH:MM)"
	case "relationship":
		return "must be one of " + strings.Join(model.Relationships, ", ")
	case "department":
		return "must be one of " + strings.Join(model.Departments, ", ")
	case "helptype":
		return "must be one of " + strings.Join(model.HelpTypes, ", ")
	case "urgency":
		return "must be one of " + strings.Join(model.UrgencyLevels, ", ")
	case "contactpref":
		return "must be one of " + strings.Join(model.ContactPreferences, ", ")
	default:
		return e.Error()
	}
}
