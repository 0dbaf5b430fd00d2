package models

// SequenceTask names the counter behind task numbers.
const SequenceTask = "task"

// Sequence is a named monotonically increasing counter.
type Sequence struct {
	Name  string `gorm:"primarykey;type:varchar(50)" json:"name"`
	Value uint64 `gorm:"not null" json:"value"`
}
