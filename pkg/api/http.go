package api

import (
	"github.com/gorilla/mux"

	"civicdesk/pkg/api/handlers"
	"civicdesk/pkg/auth"
)

// Handler builds the /v1 REST surface. Admin routes live under
// /v1/admin behind a role check; everything else only needs a valid
// principal (enforced by the outer auth middleware).
func Handler() *mux.Router {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()

	handlers.RegisterNotifications(v1)
	handlers.RegisterChats(v1)
	handlers.RegisterReports(v1)
	handlers.RegisterAlerts(v1)
	handlers.RegisterContact(v1)
	handlers.RegisterFeedback(v1)
	handlers.RegisterUsers(v1)

	admin := v1.PathPrefix("/admin").Subrouter()
	admin.Use(auth.RequireAdmin)
	handlers.RegisterAdminNotifications(admin)
	handlers.RegisterAdminReports(admin)
	handlers.RegisterAdminAlerts(admin)
	handlers.RegisterAdminContact(admin)
	handlers.RegisterAdminFeedback(admin)
	handlers.RegisterAdminUsers(admin)

	return r
}
