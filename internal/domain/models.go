package domain

// Models lists every persistent entity, in dependency order, for
// AutoMigrate-based schema setup (SQLite development and tests).
func Models() []any {
	return []any{
		&IdentityAccount{},
		&User{},
		&Studio{},
		&Branch{},
		&Room{},
		&Class{},
		&Enrollment{},
		&Payment{},
		&Attendance{},
	}
}
