package usecase

import (
	"errors"
	"testing"

	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
	testhelpers "github.com/GS-Pro2025/movewise/internal/test"
)

func TestDraftValidatorAcceptsCompleteDraft(t *testing.T) {
	v := NewDraftValidator(testhelpers.ImageConverterStub{}, 0)
	if fields := v.Check(validDraft()); len(fields) != 0 {
		t.Fatalf("expected no errors, got %v", fields)
	}
	if err := v.Validate(validDraft()); err != nil {
		t.Fatalf("expected valid draft, got %v", err)
	}
}

func TestDraftValidatorReportsEachMissingField(t *testing.T) {
	mutations := map[string]func(*model.OrderDraft){
		"country":        func(d *model.OrderDraft) { d.Country = "" },
		"state":          func(d *model.OrderDraft) { d.State = "  " },
		"city":           func(d *model.OrderDraft) { d.City = "" },
		"date":           func(d *model.OrderDraft) { d.Date = "" },
		"key":            func(d *model.OrderDraft) { d.Reference = "" },
		"firstName":      func(d *model.OrderDraft) { d.FirstName = "" },
		"lastName":       func(d *model.OrderDraft) { d.LastName = "" },
		"email":          func(d *model.OrderDraft) { d.Email = "" },
		"weight":         func(d *model.OrderDraft) { d.Weight = "" },
		"job":            func(d *model.OrderDraft) { d.JobID = 0 },
		"company":        func(d *model.OrderDraft) { d.CompanyID = 0 },
		"dispatchTicket": func(d *model.OrderDraft) { d.DispatchTicket = nil },
	}
	if len(mutations) != len(draftFields) {
		t.Fatalf("test covers %d fields, allow-list has %d", len(mutations), len(draftFields))
	}

	v := NewDraftValidator(testhelpers.ImageConverterStub{}, 0)
	for field, mutate := range mutations {
		t.Run(field, func(t *testing.T) {
			draft := validDraft()
			mutate(&draft)
			fields := v.Check(draft)
			if fields[field] != CodeRequired {
				t.Fatalf("expected %s to be required, got %v", field, fields)
			}
			if len(fields) != 1 {
				t.Fatalf("expected exactly one failing field, got %v", fields)
			}
			err := v.Validate(draft)
			var vErr *domainErrors.ValidationError
			if !errors.As(err, &vErr) || vErr.Fields[field] != CodeRequired {
				t.Fatalf("expected validation error for %s, got %v", field, err)
			}
		})
	}
}

func TestDraftValidatorFormatCodes(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*model.OrderDraft)
		field  string
		code   string
	}{
		{"bad email", func(d *model.OrderDraft) { d.Email = "jane-at-x" }, "email", CodeInvalidEmail},
		{"bad date", func(d *model.OrderDraft) { d.Date = "15/01/2024" }, "date", CodeInvalidDate},
		{"text weight", func(d *model.OrderDraft) { d.Weight = "heavy" }, "weight", CodeInvalidNumber},
		{"zero weight", func(d *model.OrderDraft) { d.Weight = "0" }, "weight", CodeInvalidNumber},
		{"negative weight", func(d *model.OrderDraft) { d.Weight = "-3" }, "weight", CodeInvalidNumber},
	}

	v := NewDraftValidator(testhelpers.ImageConverterStub{}, 0)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			draft := validDraft()
			tc.mutate(&draft)
			if got := v.Check(draft)[tc.field]; got != tc.code {
				t.Fatalf("expected %s=%s, got %q", tc.field, tc.code, got)
			}
			if err := v.Validate(draft); err == nil || err.Error() == "" {
				t.Fatalf("expected dominant error message, got %v", err)
			}
		})
	}
}

func TestDraftValidatorLocationDominates(t *testing.T) {
	v := NewDraftValidator(testhelpers.ImageConverterStub{}, 0)
	draft := validDraft()
	draft.City = ""
	draft.Email = ""

	err := v.Validate(draft)
	if !errors.Is(err, domainErrors.ErrLocationRequired) {
		t.Fatalf("expected location required to dominate, got %v", err)
	}
	if !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatal("expected validation sentinel")
	}
	var vErr *domainErrors.ValidationError
	if !errors.As(err, &vErr) || vErr.Fields["email"] != CodeRequired || vErr.Fields["city"] != CodeRequired {
		t.Fatalf("expected field map to carry every failure, got %+v", vErr)
	}
}

func TestDraftValidatorRejectsOversizedTicket(t *testing.T) {
	v := NewDraftValidator(testhelpers.ImageConverterStub{}, 0)
	draft := validDraft()
	draft.DispatchTicket.FileSize = 6 * 1024 * 1024

	fields := v.Check(draft)
	if len(fields) != 1 || fields["dispatchTicket"] != CodeImageTooLarge {
		t.Fatalf("expected only dispatchTicket=image_too_large, got %v", fields)
	}
	if err := v.Validate(draft); !errors.Is(err, domainErrors.ErrImageTooLarge) {
		t.Fatalf("expected file too large, got %v", err)
	}

	draft.DispatchTicket.FileSize = 5 * 1024 * 1024
	if fields := v.Check(draft); len(fields) != 0 {
		t.Fatalf("expected exactly 5 MiB to pass, got %v", fields)
	}
}

func TestDraftValidatorProbesUnknownSize(t *testing.T) {
	probed := 0
	images := testhelpers.ImageConverterStub{ProbeFn: func(img model.Image) (model.Image, error) {
		probed++
		img.FileSize = 6 << 20
		return img, nil
	}}
	v := NewDraftValidator(images, 0)
	draft := validDraft()
	draft.DispatchTicket.FileSize = 0

	if got := v.Check(draft)["dispatchTicket"]; got != CodeImageTooLarge {
		t.Fatalf("expected probe result to be enforced, got %q", got)
	}
	if probed != 1 {
		t.Fatalf("expected one probe, got %d", probed)
	}

	broken := NewDraftValidator(testhelpers.ImageConverterStub{ProbeFn: func(model.Image) (model.Image, error) {
		return model.Image{}, errors.New("stat failed")
	}}, 0)
	if got := broken.Check(draft)["dispatchTicket"]; got != CodeInvalidImage {
		t.Fatalf("expected invalid image, got %q", got)
	}
}

func TestComposeLocation(t *testing.T) {
	cases := []struct {
		country, state, city string
		want                 string
		ok                   bool
	}{
		{"United States", "Texas", "Austin", "United States - Texas - Austin", true},
		{"", "Texas", "Austin", "", false},
		{"United States", "", "Austin", "", false},
		{"United States", "Texas", " ", "", false},
	}
	for _, tc := range cases {
		got, err := ComposeLocation(tc.country, tc.state, tc.city)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("ComposeLocation(%q,%q,%q) = %q, %v", tc.country, tc.state, tc.city, got, err)
			}
			continue
		}
		if got != "" || !errors.Is(err, domainErrors.ErrLocationRequired) {
			t.Fatalf("expected composition to fail closed for %q,%q,%q, got %q, %v", tc.country, tc.state, tc.city, got, err)
		}
	}
}

func TestSplitLocation(t *testing.T) {
	country, state, city, ok := SplitLocation("United States - Texas - Austin")
	if !ok || country != "United States" || state != "Texas" || city != "Austin" {
		t.Fatalf("unexpected split %q %q %q %v", country, state, city, ok)
	}
	for _, raw := range []string{"", "Texas - Austin", "A -  - C"} {
		if _, _, _, ok := SplitLocation(raw); ok {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}
