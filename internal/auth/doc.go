// Package auth provides authentication and authorization for the application.
//
// Users sign in either with a local username and password or through Google.
// Both paths end the same way: a *entities.User is bound to a server-side
// session, and every later request resolves that user again from the
// credential store.
//
// # Components
//
//   - LocalVerifier checks passwords (bcrypt) and registers local accounts.
//   - FederatedReconciler finds or creates the user for a provider identity.
//   - Strategies dispatches LocalCredentials and FederatedCredentials.
//   - Serializer maps a user to its session token (the user id) and back.
//   - SessionManager stores sessions in SQLite via scs.
//   - Gate answers IsAuthenticated / RequireAuthenticated and logs out.
//
// # Errors
//
// Failed logins always yield ErrInvalidCredentials. A taken username or
// federated id yields ErrConflict, and store failures ErrStoreUnavailable.
// A session whose user has been deleted yields ErrAuthenticationExpired from
// the Serializer, which the Gate reports as ErrUnauthenticated.
//
// # Usage
//
//	store := users.NewRepository(db.DB)
//	serializer := auth.NewSerializer(store)
//	sessions, _ := auth.NewSessionManager(sqlDB, serializer, cfg.Auth)
//	gate := auth.NewGate(sessions)
//	router.Use(sessions.SessionLoadSave(), auth.NewMiddleware(gate).Handler())
//
// Protect routes and read the user in handlers:
//
//	router.GET("/secrets", mw.RequireAuth(), func(c *gin.Context) {
//		user := auth.CurrentUser(c)
//	})
package auth
