package models

type User struct {
	ID                int64  `json:"id"`
	Email             string `json:"email"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Address           string `json:"address"`
	City              string `json:"city"`
	State             string `json:"state"`
	PostalCode        string `json:"postal_code"`
	DateOfBirth       string `json:"date_of_birth"`
	IdentityLast4     string `json:"-"`
	PasswordHash      []byte `json:"-"`
	DwollaCustomerID  string `json:"-"`
	DwollaCustomerURL string `json:"-"`
	CreatedAt         string `json:"created_at"`
}
