package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/odontoforense/case-api/api"
	"github.com/odontoforense/case-api/api/collab"
	"github.com/odontoforense/case-api/config"
	"github.com/odontoforense/case-api/databases"
	"github.com/odontoforense/case-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	Collab   *collab.Service
	// UserDB backs both the REST bearer middleware and the socket handshake.
	// Exported for testing purposes
	UserDB   databases.UserDatabase
	dbHelper databases.DatabaseHelper
	client   databases.ClientHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	if a.UserDB == nil {
		a.UserDB = databases.NewUserDatabase(a.dbHelper)
	}
	udb := a.UserDB
	cdb := databases.NewCaseDatabase(a.dbHelper)
	verifier := api.TokenVerifier{
		Secret: []byte(a.Config.JWTSecret),
		TTL:    a.Config.TokenTTL,
		DB:     udb,
	}

	// setup go-guardian for middleware
	m := api.NewMiddleware(verifier)

	if a.Collab == nil {
		a.Collab = a.newCollab(verifier, udb, cdb)
	}

	ws := Collab{Service: a.Collab, AllowedOrigin: a.Config.AllowedOrigin}
	c := Case{
		DB:     cdb,
		EDB:    databases.NewEvidenceDatabase(a.dbHelper),
		Collab: a.Collab,
	}
	auth := Auth{UDB: udb, Verifier: verifier}

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware)

	// healthchex
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/ws", ws.WebSocketHandler).Methods("GET")

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(api.QueryTimeout))

	apiCreate.Handle("/auth/login", http.HandlerFunc(auth.LoginHandler)).Methods("POST")

	apiCreate.Handle("/cases/{caseId}/messages", m.Middleware(http.HandlerFunc(c.CaseMessagesHandler))).Methods("GET")
	apiCreate.Handle("/cases/{caseId}/evidence", m.Middleware(http.HandlerFunc(c.CreateEvidenceHandler))).Methods("POST")
	apiCreate.Handle("/cases/{caseId}", m.Middleware(http.HandlerFunc(c.UpdateCaseHandler))).Methods("PATCH")

	return r
}

func (a *App) newCollab(verifier api.TokenVerifier, udb databases.UserDatabase, cdb databases.CaseDatabase) *collab.Service {
	store := collab.NewMessageStore(databases.NewMessageDatabase(a.dbHelper), udb)
	svc := collab.NewService(collab.NewRegistry(), store, verifier, cdb)
	svc.Strict = a.Config.CollabStrict
	if a.Config.HistoryLimit > 0 {
		svc.HistoryLimit = a.Config.HistoryLimit
	}
	if a.Config.MessageRate > 0 {
		svc.MessageRate = rate.Limit(a.Config.MessageRate)
	}
	if a.Config.MessageBurst > 0 {
		svc.MessageBurst = a.Config.MessageBurst
	}
	return svc
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.client = client
	a.dbHelper = databases.NewDatabase(&a.Config, client)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = client.Connect(ctx)
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("case-api has connected to the database")

	// initialize api router
	a.initializeRoutes()
	return nil

}

// Close disconnects the database client opened by Initialize
func (a *App) Close(ctx context.Context) error {
	if a.client == nil {
		return nil
	}
	if err := a.client.Disconnect(ctx); err != nil {
		zap.S().Errorw("failed to disconnect from database", "error", err)
		return err
	}
	zap.S().Info("case-api has disconnected from the database")
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
