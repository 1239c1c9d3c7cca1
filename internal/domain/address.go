package domain

import (
	"strings"
	"time"
)

type ShippingAddress struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	CPF          string    `json:"cpf"`
	Phone        string    `json:"phone"`
	ZipCode      string    `json:"cep"`
	Street       string    `json:"address"`
	Number       string    `json:"number"`
	Complement   string    `json:"complement,omitempty"`
	Neighborhood string    `json:"neighborhood"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	CreatedAt    time.Time `json:"created_at"`
}

// Format renders the address on one line, the way it is listed for selection.
func (a ShippingAddress) Format() string {
	var b strings.Builder
	b.WriteString(a.FullName)
	b.WriteString(" • ")
	b.WriteString(a.Street)
	b.WriteString(", ")
	b.WriteString(a.Number)
	if a.Complement != "" {
		b.WriteString(", ")
		b.WriteString(a.Complement)
	}
	b.WriteString(", ")
	b.WriteString(a.Neighborhood)
	b.WriteString(", ")
	b.WriteString(a.City)
	b.WriteString(" - ")
	b.WriteString(a.State)
	b.WriteString(" • CEP: ")
	b.WriteString(a.ZipCode)
	return b.String()
}
