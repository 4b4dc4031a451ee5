package checkout

import (
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/folio-storefront/pkg/errors"
)

func TestValidateAttempt(t *testing.T) {
	valid := AttemptInput{Email: "a@b.co", PublicKey: "pk_test", Total: decimal.NewFromInt(10), Lines: 1}
	if err := ValidateAttempt(valid); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*AttemptInput)
		code   pkgerrors.Code
	}{
		{"blank email", func(in *AttemptInput) { in.Email = "  " }, pkgerrors.CodeValidation},
		{"missing key", func(in *AttemptInput) { in.PublicKey = "" }, pkgerrors.CodeDependency},
		{"no lines", func(in *AttemptInput) { in.Lines = 0 }, pkgerrors.CodeValidation},
		{"zero total", func(in *AttemptInput) { in.Total = decimal.Zero }, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			err := ValidateAttempt(in)
			if !pkgerrors.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestValidateAttemptChecksEmailBeforeKey(t *testing.T) {
	err := ValidateAttempt(AttemptInput{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMinorUnits(t *testing.T) {
	cases := map[string]int64{
		"2":      200,
		"35.294": 3529,
		"0.005":  1,
		"3000":   300000,
	}
	for in, want := range cases {
		if got := MinorUnits(decimal.RequireFromString(in)); got != want {
			t.Fatalf("MinorUnits(%s) = %d, want %d", in, got, want)
		}
	}
}

func TestRandomReferenceRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		ref := RandomReference()
		if !strings.HasPrefix(ref, "ref_") {
			t.Fatalf("unexpected reference %q", ref)
		}
		n, err := strconv.ParseInt(strings.TrimPrefix(ref, "ref_"), 10, 64)
		if err != nil || n < 1 || n > maxReferenceNumber {
			t.Fatalf("reference %q out of range", ref)
		}
	}
}
