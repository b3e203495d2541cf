package fakeback

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sqlparrot/sqlparrot/internal/logging"
	"github.com/sqlparrot/sqlparrot/internal/models"
)

const authRequiredMsg = "authentication required"

// API holds the dependencies shared by the REST handlers.
type API struct {
	engine *Engine
	auth   *Authenticator
	logger logging.Logger
}

func NewAPI(engine *Engine, auth *Authenticator, logger logging.Logger) *API {
	return &API{engine: engine, auth: auth, logger: logger}
}

// Router returns the REST surface. Password and health endpoints stay
// reachable while locked; everything else requires a valid session token
// once a password is set.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", a.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Get("/password-status", a.PasswordStatus)
			r.Post("/check-password", a.CheckPassword)
			r.Post("/set-password", a.SetPassword)
			r.Post("/change-password", a.ChangePassword)
			r.Post("/remove-password", a.RemovePassword)
			r.Post("/skip-password", a.SkipPassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(a.RequireAuth)

			r.Get("/settings", a.GetSettings)
			r.Put("/settings", a.UpdateSettings)

			r.Get("/connection", a.GetConnection)
			r.Put("/connection", a.SaveConnection)
			r.Post("/connection/test", a.TestConnection)

			r.Get("/metadata/databases", a.GetDatabases)
			r.Get("/metadata/status", a.GetMetadataStatus)

			r.Get("/groups", a.GetGroups)
			r.Post("/groups", a.CreateGroup)
			r.Put("/groups/{id}", a.UpdateGroup)
			r.Delete("/groups/{id}", a.DeleteGroup)

			r.Get("/snapshots", a.GetSnapshots)
			r.Post("/snapshots", a.CreateSnapshot)
			r.Post("/snapshots/verify", a.VerifySnapshots)
			r.Delete("/snapshots/{id}", a.DeleteSnapshot)
			r.Post("/snapshots/{id}/rollback", a.RollbackSnapshot)

			r.Get("/history", a.GetHistory)
			r.Delete("/history", a.ClearHistory)
			r.Post("/history/trim", a.TrimHistory)
		})
	})

	return r
}

// RequireAuth enforces the session token once a password is set; an
// unprotected backend passes every request through.
func (a *API) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status, err := a.auth.Status(r.Context())
		if err != nil {
			a.writeFail(w, err.Error())
			return
		}
		if !status.Protected() {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" || a.auth.ValidateToken(token) != nil {
			a.writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	a.writeOK(w, a.engine.Health(r.Context()))
}

func (a *API) PasswordStatus(w http.ResponseWriter, r *http.Request) {
	status, err := a.auth.Status(r.Context())
	if err != nil {
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, status)
}

func (a *API) CheckPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		a.writeFail(w, err.Error())
		return
	}

	check, err := a.auth.Check(r.Context(), req.Password)
	if err != nil {
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, check)
}

func (a *API) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
		Confirm  string `json:"confirm"`
	}
	if err := decodeBody(r, &req); err != nil {
		a.writeFail(w, err.Error())
		return
	}
	if err := a.auth.Set(r.Context(), req.Password, req.Confirm); err != nil {
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, nil)
}

func (a *API) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
		Confirm         string `json:"confirm"`
	}
	if err := decodeBody(r, &req); err != nil {
		a.writeFail(w, err.Error())
		return
	}
	if err := a.auth.Change(r.Context(), req.CurrentPassword, req.NewPassword, req.Confirm); err != nil {
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, nil)
}

func (a *API) RemovePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
	}
	if err := decodeBody(r, &req); err != nil {
		a.writeFail(w, err.Error())
		return
	}
	if err := a.auth.Remove(r.Context(), req.CurrentPassword); err != nil {
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, nil)
}

func (a *API) SkipPassword(w http.ResponseWriter, r *http.Request) {
	if err := a.auth.Skip(r.Context()); err != nil {
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, nil)
}

func (a *API) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := a.engine.Settings(r.Context())
	if err != nil {
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, settings)
}

func (a *API) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Preferences      models.SettingsPreferences `json:"preferences"`
		AutoVerification models.AutoVerification    `json:"autoVerification"`
	}
	if err := decodeBody(r, &req); err != nil {
		a.writeFail(w, err.Error())
		return
	}

	updated, err := a.engine.UpdateSettings(r.Context(), models.Settings{
		Preferences:      req.Preferences,
		AutoVerification: req.AutoVerification,
	})
	if err != nil {
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, updated)
}

func (a *API) GetConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := a.engine.Connection(r.Context())
	if err != nil {
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, conn)
}

func (a *API) SaveConnection(w http.ResponseWriter, r *http.Request) {
	var req models.ConnectionRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeFail(w, err.Error())
		return
	}
	if err := a.engine.SaveConnection(r.Context(), req); err != nil {
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, nil)
}

func (a *API) TestConnection(w http.ResponseWriter, r *http.Request) {
	var req models.ConnectionRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeFail(w, err.Error())
		return
	}

	version, err := a.engine.TestConnection(r.Context(), req)
	if err != nil {
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, version)
}

func (a *API) GetDatabases(w http.ResponseWriter, r *http.Request) {
	dbs, err := a.engine.Databases(r.Context())
	if err != nil {
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, dbs)
}

func (a *API) GetMetadataStatus(w http.ResponseWriter, r *http.Request) {
	a.writeOK(w, a.engine.MetadataStatus())
}

func (a *API) GetGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := a.engine.Groups(r.Context())
	if err != nil {
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, groups)
}

func (a *API) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string   `json:"name"`
		Databases []string `json:"databases"`
	}
	if err := decodeBody(r, &req); err != nil {
		a.writeFail(w, err.Error())
		return
	}

	group, err := a.engine.CreateGroup(r.Context(), req.Name, req.Databases)
	if err != nil {
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, group)
}

func (a *API) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string   `json:"name"`
		Databases []string `json:"databases"`
	}
	if err := decodeBody(r, &req); err != nil {
		a.writeFail(w, err.Error())
		return
	}

	group, err := a.engine.UpdateGroup(r.Context(), chi.URLParam(r, "id"), req.Name, req.Databases)
	if err != nil {
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, group)
}

func (a *API) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := a.engine.DeleteGroup(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, nil)
}

func (a *API) GetSnapshots(w http.ResponseWriter, r *http.Request) {
	groupID := r.URL.Query().Get("groupId")
	if groupID == "" {
		a.writeFail(w, "groupId is required")
		return
	}

	snaps, err := a.engine.Snapshots(r.Context(), groupID)
	if err != nil {
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, snaps)
}

func (a *API) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupID      string `json:"groupId"`
		SnapshotName string `json:"snapshotName"`
	}
	if err := decodeBody(r, &req); err != nil {
		a.writeFail(w, err.Error())
		return
	}

	snap, err := a.engine.CreateSnapshot(r.Context(), req.GroupID, req.SnapshotName)
	if err != nil {
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, snap)
}

func (a *API) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := a.engine.DeleteSnapshot(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, nil)
}

// RollbackSnapshot reports partial failures as a failed envelope that still
// carries the result payload, so clients can list what restored.
func (a *API) RollbackSnapshot(w http.ResponseWriter, r *http.Request) {
	res, err := a.engine.Rollback(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if len(res.Results) > 0 {
			a.writeFailWith(w, err.Error(), res)
			return
		}
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, res)
}

func (a *API) VerifySnapshots(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupID string `json:"groupId"`
	}
	if err := decodeBody(r, &req); err != nil {
		a.writeFail(w, err.Error())
		return
	}

	res, err := a.engine.Verify(r.Context(), req.GroupID)
	if err != nil {
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, res)
}

func (a *API) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			a.writeFail(w, "invalid limit: "+v)
			return
		}
		limit = n
	}

	entries, err := a.engine.History(r.Context(), limit)
	if err != nil {
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, entries)
}

func (a *API) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := a.engine.ClearHistory(r.Context()); err != nil {
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, nil)
}

func (a *API) TrimHistory(w http.ResponseWriter, r *http.Request) {
	deleted, err := a.engine.TrimHistory(r.Context())
	if err != nil {
		a.writeFail(w, err.Error())
		return
	}
	a.writeOK(w, deleted)
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}

func (a *API) writeEnvelope(w http.ResponseWriter, status int, env models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func (a *API) writeOK(w http.ResponseWriter, v any) {
	env, err := models.OKResponse(v)
	if err != nil {
		a.writeFail(w, "encoding response payload: "+err.Error())
		return
	}
	a.writeEnvelope(w, http.StatusOK, env)
}

// writeFail reports an operation failure. The status stays 200 so clients
// surface messages.error instead of a transport sentinel.
func (a *API) writeFail(w http.ResponseWriter, msg string) {
	a.writeEnvelope(w, http.StatusOK, models.ErrResponse(msg))
}

// writeFailWith is writeFail with a partial result payload attached.
func (a *API) writeFailWith(w http.ResponseWriter, msg string, v any) {
	env := models.ErrResponse(msg)
	if data, err := json.Marshal(v); err == nil {
		env.Data = data
	}
	a.writeEnvelope(w, http.StatusOK, env)
}

func (a *API) writeUnauthorized(w http.ResponseWriter) {
	a.writeEnvelope(w, http.StatusUnauthorized, models.ErrResponse(authRequiredMsg))
}
