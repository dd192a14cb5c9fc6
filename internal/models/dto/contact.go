package dto

import "github.com/hongminglow/phonebook/internal/models"

// ContactUpdate carries replacement values for an existing contact. Blank
// values keep the current field.
type ContactUpdate struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Address   string `json:"address,omitempty"`
}

// Fields returns the replacement values keyed by column.
func (u ContactUpdate) Fields() map[models.Field]string {
	return map[models.Field]string{
		models.FieldFirstName: u.FirstName,
		models.FieldLastName:  u.LastName,
		models.FieldPhone:     u.Phone,
		models.FieldEmail:     u.Email,
		models.FieldAddress:   u.Address,
	}
}

type RejectedRow struct {
	Line    int            `json:"line"`
	Contact models.Contact `json:"contact"`
	Reason  string         `json:"reason"`
}

// ImportReport summarises a bulk import. Every accepted row was persisted on
// its own.
type ImportReport struct {
	Added    int           `json:"added"`
	Rejected []RejectedRow `json:"rejected,omitempty"`
}
