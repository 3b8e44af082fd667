package models

// All lists every persisted model in dependency order, for migrations.
func All() []any {
	return []any{
		&User{},
		&Product{},
		&Client{},
		&Order{},
		&OrderLine{},
		&Notification{},
	}
}
