package models

import "time"

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "New"
	LeadStatusContacted LeadStatus = "Contacted"
	LeadStatusQualified LeadStatus = "Qualified"
	LeadStatusConverted LeadStatus = "Converted"
	LeadStatusLost      LeadStatus = "Lost"
)

// Valid reports whether s is a known lead status.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusConverted, LeadStatusLost:
		return true
	}
	return false
}

type Lead struct {
	ID        uint64     `gorm:"primarykey" json:"id"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	Phone     string     `gorm:"type:varchar(30)" json:"phone"`
	Email     string     `gorm:"type:varchar(255)" json:"email"`
	Address   string     `gorm:"type:text" json:"address"`
	Source    string     `gorm:"type:varchar(100)" json:"source"`
	Status    LeadStatus `gorm:"type:varchar(20);not null;default:'New';index" json:"status"`
	Notes     string     `gorm:"type:text" json:"notes"`
	CreatedBy uint64     `gorm:"not null" json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
