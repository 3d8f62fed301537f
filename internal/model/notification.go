package model

type Notification struct {
	ID      int64  `db:"id" json:"id"`
	UserID  int64  `db:"user_id" json:"user_id"`
	Read    bool   `db:"read" json:"read"`
	Content string `db:"content" json:"content"`
}
