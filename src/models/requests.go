package models

type SignUpRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	Address     string `json:"address" validate:"required"`
	City        string `json:"city" validate:"required"`
	State       string `json:"state" validate:"required,len=2"`
	PostalCode  string `json:"postal_code" validate:"required"`
	DateOfBirth string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	SSN         string `json:"ssn" validate:"required,numeric,min=4,max=9"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ExchangeTokenRequest struct {
	PublicToken string `json:"public_token" validate:"required"`
	AccountID   string `json:"account_id"`
}
