package entities

import "time"

// Customer хранит либо ссылку на зарегистрированного пользователя,
// либо гостевые контакты. Ровно один режим заполнен.
type Customer struct {
	ID        string
	UserID    string
	FullName  string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c Customer) Guest() bool {
	return c.UserID == ""
}
