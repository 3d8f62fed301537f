package model

// User roles
const (
	RoleAdmin   = "admin"
	RoleDentist = "dentist"
	RolePatient = "patient"
)

// User represents a system user. Dentists reference the clinic they work at.
type User struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Name     string `db:"name" json:"name"`
	Password string `db:"password" json:"-"`
	Role     string `db:"role" json:"role"`
	ClinicID *int64 `db:"clinic_id" json:"clinic_id"`
}

// UserProfile is a user with the average rating patients gave them.
type UserProfile struct {
	*User
	AverageRating *float64 `json:"averageRating"`
}

// UserUpdate carries the fields of a partial user update. PasswordHash must
// already be hashed.
type UserUpdate struct {
	Username     *string
	Name         *string
	PasswordHash *string
}

func (u UserUpdate) Empty() bool {
	return u.Username == nil && u.Name == nil && u.PasswordHash == nil
}
