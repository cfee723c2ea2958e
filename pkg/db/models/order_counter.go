package models

// OrderCounter is a single-row table backing the monotonic order number
// sequence. The value is advanced with an atomic UPDATE ... RETURNING so
// concurrent checkouts never observe the same number.
type OrderCounter struct {
	ID    int   `gorm:"column:id;primaryKey"`
	Value int64 `gorm:"column:value;not null;default:0"`
}
