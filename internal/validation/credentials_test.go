package validation

import (
	"strings"
	"testing"
)

func TestIsEmail_Valid(t *testing.T) {
	valid := []string{
		"a@b.com",
		"user.name+tag@example.co.uk",
		"device-owner@farm.example.org",
		"UPPER@EXAMPLE.COM",
	}
	for _, email := range valid {
		if !IsEmail(email) {
			t.Errorf("expected %q to be a valid email", email)
		}
	}
}

func TestIsEmail_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"not-an-email",
		"@b.com",
		"a@",
		"a@b",
		"a@b.c",
		"a@-b.com",
		"a@b..com",
		"Ann <a@b.com>",
		"<a@b.com>",
		" a@b.com",
		"a@b.com ",
		"a@b@c.com",
		strings.Repeat("x", 65) + "@b.com",
		"a@" + strings.Repeat("x", 250) + ".com",
	}
	for _, email := range invalid {
		if IsEmail(email) {
			t.Errorf("expected %q to be rejected", email)
		}
	}
}

func TestValidateCredentials_Valid(t *testing.T) {
	if errs := ValidateCredentials("a@b.com", "secret"); errs != nil {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestValidateCredentials_ReportsEveryField(t *testing.T) {
	errs := ValidateCredentials("not-an-email", "")

	if len(errs) != 2 {
		t.Fatalf("expected 2 field errors, got %d: %v", len(errs), errs)
	}
	if errs[0].Param != "email" || errs[0].Msg != MsgInvalidEmail || errs[0].Value != "not-an-email" {
		t.Errorf("unexpected email error %+v", errs[0])
	}
	if errs[1].Param != "password" || errs[1].Msg != MsgEmptyPassword {
		t.Errorf("unexpected password error %+v", errs[1])
	}
}

func TestValidateCredentials_SingleField(t *testing.T) {
	errs := ValidateCredentials("a@b.com", "")
	if len(errs) != 1 || errs[0].Param != "password" {
		t.Errorf("expected only password error, got %v", errs)
	}

	errs = ValidateCredentials("bad", "secret")
	if len(errs) != 1 || errs[0].Param != "email" {
		t.Errorf("expected only email error, got %v", errs)
	}
}

func TestValidateCredentials_NeverEchoesPassword(t *testing.T) {
	errs := ValidateCredentials("bad", "")
	for _, e := range errs {
		if e.Param == "password" && e.Value != "" {
			t.Errorf("password value must not be echoed, got %q", e.Value)
		}
	}
}

func TestValidateCredentials_PasswordLengthLimit(t *testing.T) {
	if errs := ValidateCredentials("a@b.com", strings.Repeat("p", 72)); len(errs) != 0 {
		t.Errorf("expected 72-byte password to be accepted, got %v", errs)
	}

	errs := ValidateCredentials("a@b.com", strings.Repeat("p", 80))
	if len(errs) != 1 || errs[0].Param != "password" || errs[0].Msg != MsgLongPassword {
		t.Fatalf("expected too-long password error, got %v", errs)
	}
	if errs[0].Value != "" {
		t.Errorf("password value must not be echoed, got %q", errs[0].Value)
	}
}
