package model

type Patient struct {
	Base
	FullName   string `db:"full_name" json:"full_name"`
	NationalID string `db:"national_id" json:"national_id"`
	DOB        string `db:"dob" json:"dob"`
	Address    string `db:"address" json:"address"`
	Phone      string `db:"phone" json:"phone"`
}

type CreatePatientRequest struct {
	FullName   string `json:"full_name" validate:"required,min=3,max=200"`
	NationalID string `json:"national_id" validate:"required,min=5,max=50"`
	DOB        string `json:"dob" validate:"required,calendardate"`
	Address    string `json:"address" validate:"required,min=5,max=500"`
	Phone      string `json:"phone" validate:"required,min=7,max=30,phone"`
}

type UpdatePatientRequest struct {
	FullName   *string `json:"full_name,omitempty"`
	NationalID *string `json:"national_id,omitempty"`
	DOB        *string `json:"dob,omitempty"`
	Address    *string `json:"address,omitempty"`
	Phone      *string `json:"phone,omitempty"`
}

// Apply copies the set fields onto p.
func (r *UpdatePatientRequest) Apply(p *Patient) {
	if r.FullName != nil {
		p.FullName = *r.FullName
	}
	if r.NationalID != nil {
		p.NationalID = *r.NationalID
	}
	if r.DOB != nil {
		p.DOB = *r.DOB
	}
	if r.Address != nil {
		p.Address = *r.Address
	}
	if r.Phone != nil {
		p.Phone = *r.Phone
	}
}

// PatientFilters narrows patient listings. Search matches full name or
// national id, case-insensitively.
type PatientFilters struct {
	Search string `form:"search"`
	Pagination
}
