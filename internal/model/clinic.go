package model

// Clinic is a dental clinic location.
type Clinic struct {
	ID        int64   `db:"id" json:"id"`
	Name      string  `db:"name" json:"name"`
	Latitude  float64 `db:"latitude" json:"latitude"`
	Longitude float64 `db:"longitude" json:"longitude"`
}

// ClinicUpdate carries the fields of a partial clinic update. Nil fields are
// left untouched.
type ClinicUpdate struct {
	Name      *string  `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Empty reports whether the update sets no field at all.
func (u ClinicUpdate) Empty() bool {
	return u.Name == nil && u.Latitude == nil && u.Longitude == nil
}
