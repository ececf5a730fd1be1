package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
)

// Field error codes reported by the draft validator.
const (
	CodeRequired      = "required"
	CodeInvalidEmail  = "invalid_email"
	CodeInvalidDate   = "invalid_date"
	CodeInvalidNumber = "invalid_number"
	CodeImageTooLarge = "image_too_large"
	CodeInvalidImage  = "invalid_image"
)

// DefaultMaxImageBytes is the dispatch ticket size limit.
const DefaultMaxImageBytes int64 = 5 << 20

const locationSeparator = " - "

// draftFields is the mandatory allow-list in reporting order.
var draftFields = []string{
	"country", "state", "city", "date", "key", "firstName", "lastName",
	"email", "weight", "job", "company", "dispatchTicket",
}

type draftRules struct {
	Country        string `json:"country" validate:"required"`
	State          string `json:"state" validate:"required"`
	City           string `json:"city" validate:"required"`
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
	Key            string `json:"key" validate:"required"`
	FirstName      string `json:"firstName" validate:"required"`
	LastName       string `json:"lastName" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Weight         string `json:"weight" validate:"required,positive_decimal"`
	Job            int64  `json:"job" validate:"required"`
	Company        int64  `json:"company" validate:"required"`
	DispatchTicket string `json:"dispatchTicket" validate:"required"`
}

var tagCodes = map[string]string{
	"required":         CodeRequired,
	"email":            CodeInvalidEmail,
	"datetime":         CodeInvalidDate,
	"positive_decimal": CodeInvalidNumber,
	"nonneg_decimal":   CodeInvalidNumber,
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("positive_decimal", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
		return err == nil && d.IsPositive()
	})
	_ = v.RegisterValidation("nonneg_decimal", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
		return err == nil && !d.IsNegative()
	})
	return v
}

// fieldErrors maps validator failures to field codes keyed by json name.
func fieldErrors(err error) map[string]string {
	fields := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fields
	}
	for _, fe := range verrs {
		code, ok := tagCodes[fe.Tag()]
		if !ok {
			code = fe.Tag()
		}
		fields[fe.Field()] = code
	}
	return fields
}

// DraftValidator checks order drafts before anything reaches the network.
type DraftValidator struct {
	validate      *validator.Validate
	images        ImageConverter
	maxImageBytes int64
}

// NewDraftValidator constructs DraftValidator. A non-positive limit means 5 MiB.
func NewDraftValidator(images ImageConverter, maxImageBytes int64) *DraftValidator {
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	return &DraftValidator{validate: newValidator(), images: images, maxImageBytes: maxImageBytes}
}

// Check returns a field to code map for every failing check; empty when valid.
func (v *DraftValidator) Check(draft model.OrderDraft) map[string]string {
	rules := draftRules{
		Country:   strings.TrimSpace(draft.Country),
		State:     strings.TrimSpace(draft.State),
		City:      strings.TrimSpace(draft.City),
		Date:      strings.TrimSpace(draft.Date),
		Key:       strings.TrimSpace(draft.Reference),
		FirstName: strings.TrimSpace(draft.FirstName),
		LastName:  strings.TrimSpace(draft.LastName),
		Email:     strings.TrimSpace(draft.Email),
		Weight:    strings.TrimSpace(draft.Weight),
		Job:       draft.JobID,
		Company:   draft.CompanyID,
	}
	if draft.DispatchTicket != nil {
		rules.DispatchTicket = strings.TrimSpace(draft.DispatchTicket.URI)
	}

	fields := fieldErrors(v.validate.Struct(rules))
	if _, missing := fields["dispatchTicket"]; !missing && draft.DispatchTicket != nil {
		if code := v.checkImage(*draft.DispatchTicket); code != "" {
			fields["dispatchTicket"] = code
		}
	}
	return fields
}

func (v *DraftValidator) checkImage(img model.Image) string {
	size := img.FileSize
	if size <= 0 && v.images != nil {
		probed, err := v.images.Probe(img)
		if err != nil {
			return CodeInvalidImage
		}
		size = probed.FileSize
	}
	if size > v.maxImageBytes {
		return CodeImageTooLarge
	}
	return ""
}

// Validate runs Check and folds the outcome into a *errors.ValidationError
// whose cause is the dominant notice.
func (v *DraftValidator) Validate(draft model.OrderDraft) error {
	fields := v.Check(draft)
	if len(fields) == 0 {
		return nil
	}
	return &domainErrors.ValidationError{Fields: fields, Cause: dominantCause(fields)}
}

func dominantCause(fields map[string]string) error {
	for _, name := range []string{"country", "state", "city"} {
		if _, ok := fields[name]; ok {
			return domainErrors.ErrLocationRequired
		}
	}
	for _, name := range draftFields {
		code, ok := fields[name]
		if !ok {
			continue
		}
		switch code {
		case CodeImageTooLarge:
			return domainErrors.ErrImageTooLarge
		case CodeInvalidImage:
			return errors.New("dispatch ticket cannot be read")
		case CodeInvalidEmail:
			return errors.New("email is not valid")
		case CodeInvalidDate:
			return errors.New("date must use the YYYY-MM-DD format")
		case CodeInvalidNumber:
			return fmt.Errorf("%s must be a positive number", name)
		default:
			return fmt.Errorf("%s is required", name)
		}
	}
	return domainErrors.ErrValidation
}

// ComposeLocation joins the cascade values into "country - state - city".
// It fails closed when any level is empty.
func ComposeLocation(country, state, city string) (string, error) {
	country, state, city = strings.TrimSpace(country), strings.TrimSpace(state), strings.TrimSpace(city)
	if country == "" || state == "" || city == "" {
		return "", domainErrors.ErrLocationRequired
	}
	return country + locationSeparator + state + locationSeparator + city, nil
}

// SplitLocation decomposes a composed location string.
func SplitLocation(composed string) (country, state, city string, ok bool) {
	parts := strings.SplitN(composed, locationSeparator, 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	country, state, city = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])
	if country == "" || state == "" || city == "" {
		return "", "", "", false
	}
	return country, state, city, true
}

func buildPayload(draft model.OrderDraft, location, ticket string) model.OrderPayload {
	return model.OrderPayload{
		Reference: strings.TrimSpace(draft.Reference),
		Date:      strings.TrimSpace(draft.Date),
		Weight:    strings.TrimSpace(draft.Weight),
		JobID:     draft.JobID,
		CompanyID: draft.CompanyID,
		Location:  location,
		Contact: model.Contact{
			FirstName: strings.TrimSpace(draft.FirstName),
			LastName:  strings.TrimSpace(draft.LastName),
			Email:     strings.TrimSpace(draft.Email),
			Phone:     strings.TrimSpace(draft.Phone),
			Address:   strings.TrimSpace(draft.Address),
		},
		DispatchTicket: ticket,
	}
}
