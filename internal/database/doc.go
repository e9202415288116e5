// Package database provides the data access layer for the application.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup and migrations
//	└── users/           # Credential store for user records
//
// The connection is process-wide: open it once in the entrypoint before
// serving and close it on shutdown. Repositories receive the *gorm.DB
// explicitly:
//
//	db, err := database.NewDatabase("./secrets.db")
//	defer db.Close()
//
//	usersRepo := users.NewRepository(db.DB)
//	user, err := usersRepo.FindByUsername(ctx, "alice")
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Implement the required interface
//  5. Add a compile-time interface check in internal/interfaces
package database
