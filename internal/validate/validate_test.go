package validate

import (
	"errors"
	"testing"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type sample struct {
	Email    string `json:"email" validate:"required,email"`
	CPF      string `json:"cpf" validate:"required,min=14"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		in      sample
		wantMsg string
	}{
		{name: "valid", in: sample{Email: "a@b.com", CPF: "000.000.000-00", Quantity: 1}},
		{name: "missing email", in: sample{CPF: "000.000.000-00", Quantity: 1}, wantMsg: "email is required"},
		{name: "bad email", in: sample{Email: "nope", CPF: "000.000.000-00", Quantity: 1}, wantMsg: "email must be a valid e-mail"},
		{name: "short cpf", in: sample{Email: "a@b.com", CPF: "123", Quantity: 1}, wantMsg: "cpf must have at least 14 characters"},
		{name: "zero quantity", in: sample{Email: "a@b.com", CPF: "000.000.000-00"}, wantMsg: "quantity must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("expected %q, got %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestID(t *testing.T) {
	if err := ID("item_id", "c1000000-0000-4000-8000-000000000001"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := ID("item_id", "42")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err.Error() != "item_id must be a valid id" {
		t.Errorf("unexpected message %q", err.Error())
	}

	if err := ID("item_id", ""); err == nil || err.Error() != "item_id is required" {
		t.Errorf("expected required error, got %v", err)
	}
}
