package dto

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/terang55/rainbow-rich-auth-server/internal/auth"
	"github.com/terang55/rainbow-rich-auth-server/internal/subscription"
)

type AdminRequest struct {
	AdminSecret string `json:"adminSecret" validate:"required"`
}

type SubscribeRequest struct {
	SubjectID    string `json:"subjectId" validate:"required,subject"`
	DurationDays int    `json:"durationDays" validate:"required,min=1,max=36500"`
	AdminSecret  string `json:"adminSecret" validate:"required"`
}

type RenewRequest struct {
	SubjectID    string `json:"subjectId" validate:"required,subject"`
	DurationDays int    `json:"durationDays" validate:"required,min=1,max=36500"`
	AdminSecret  string `json:"adminSecret" validate:"required"`
}

type CancelRequest struct {
	SubjectID   string `json:"subjectId" validate:"required,subject"`
	AdminSecret string `json:"adminSecret" validate:"required"`
}

// Result is the body of every subscription API response.
type Result struct {
	Success      bool                `json:"success"`
	Status       subscription.Status `json:"status"`
	Message      string              `json:"message"`
	Expires      string              `json:"expires,omitempty"`
	LicenseToken string              `json:"license_token,omitempty"`
	Errors       []string            `json:"errors,omitempty"`
}

type ListResult struct {
	Result
	Subscriptions []subscription.Entry `json:"subscriptions"`
}

type StatsResult struct {
	Result
	Stats subscription.Stats `json:"stats"`
}

var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("subject", func(fl validator.FieldLevel) bool {
		return auth.IsSubject(fl.Field().String())
	})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Problems turns a validator error into one readable line per field.
func Problems(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out = append(out, fmt.Sprintf("%s is required", fe.Field()))
		case "subject":
			out = append(out, fmt.Sprintf("%s must be an email address", fe.Field()))
		case "min":
			out = append(out, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "max":
			out = append(out, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
		default:
			out = append(out, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return out
}

func (r AdminRequest) Credentials() (subject, secret string) { return "", r.AdminSecret }

func (r SubscribeRequest) Credentials() (subject, secret string) {
	return r.SubjectID, r.AdminSecret
}

func (r RenewRequest) Credentials() (subject, secret string) {
	return r.SubjectID, r.AdminSecret
}

func (r CancelRequest) Credentials() (subject, secret string) {
	return r.SubjectID, r.AdminSecret
}
