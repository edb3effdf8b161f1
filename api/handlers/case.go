package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/odontoforense/case-api/api"
	"github.com/odontoforense/case-api/api/collab"
	"github.com/odontoforense/case-api/config"
	"github.com/odontoforense/case-api/databases"
	"github.com/odontoforense/case-api/models"
)

// Case exported for testing purposes
type Case struct {
	DB     databases.CaseDatabase
	EDB    databases.EvidenceDatabase
	Collab *collab.Service
}

type caseUpdateResponse struct {
	ID     string                 `json:"_id"`
	Update map[string]interface{} `json:"update"`
}

// CaseMessagesHandler returns a page of the case chat, oldest first
func (c Case) CaseMessagesHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	caseID := mux.Vars(r)["caseId"]
	if !collab.ValidCaseID(caseID) {
		config.ErrorStatus("invalid case id", http.StatusBadRequest, w, fmt.Errorf("caseId %q", caseID))
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		config.ErrorStatus("invalid limit", http.StatusBadRequest, w, err)
		return
	}
	skip, err := queryInt(r, "skip")
	if err != nil {
		config.ErrorStatus("invalid skip", http.StatusBadRequest, w, err)
		return
	}

	messages, err := c.Collab.Store.History(r.Context(), caseID, limit, skip)
	if err != nil {
		config.ErrorStatus("failed to get messages", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(c.Collab.Store.Views(r.Context(), messages))
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateCaseHandler sets the given case fields and notifies the case room
func (c Case) UpdateCaseHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	identity, _ := api.IdentityFrom(r.Context())
	if !identity.CanUpdateStatus() {
		config.ErrorStatus("permission denied", http.StatusForbidden, w, fmt.Errorf("role %q", identity.Role))
		return
	}

	caseID := mux.Vars(r)["caseId"]
	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("invalid case id", http.StatusBadRequest, w, err)
		return
	}

	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	update := make(map[string]interface{})
	for k, v := range body {
		if models.CaseUpdatableFields[k] {
			update[k] = v
		}
	}
	if len(update) == 0 {
		config.ErrorStatus("no updatable fields", http.StatusBadRequest, w, errors.New("empty update"))
		return
	}
	if status, ok := update["status"]; ok {
		s, _ := status.(string)
		if !models.ValidCaseStatus(s) {
			config.ErrorStatus("invalid status", http.StatusBadRequest, w, fmt.Errorf("status %v", status))
			return
		}
	}

	set := bson.M{"updatedAt": time.Now()}
	for k, v := range update {
		set[k] = v
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	err = c.DB.UpdateOne(ctx, bson.M{"_id": cID}, bson.M{"$set": set})
	if errors.Is(err, mongo.ErrNoDocuments) {
		config.ErrorStatus("case not found", http.StatusNotFound, w, err)
		return
	}
	if err != nil {
		config.ErrorStatus("failed to update case", http.StatusInternalServerError, w, err)
		return
	}

	c.Collab.EmitCaseUpdate(caseID, update)

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(caseUpdateResponse{ID: caseID, Update: update})
}

// CreateEvidenceHandler stores new evidence, links it to the case and notifies the
// case room
func (c Case) CreateEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	identity, _ := api.IdentityFrom(r.Context())

	caseID := mux.Vars(r)["caseId"]
	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("invalid case id", http.StatusBadRequest, w, err)
		return
	}

	var evidence models.Evidence
	if err := json.NewDecoder(r.Body).Decode(&evidence); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if strings.TrimSpace(evidence.Tipo) == "" {
		config.ErrorStatus("tipo is required", http.StatusBadRequest, w, errors.New("missing tipo"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	_, err = c.DB.FindOne(ctx, bson.M{"_id": cID})
	if errors.Is(err, mongo.ErrNoDocuments) {
		config.ErrorStatus("case not found", http.StatusNotFound, w, err)
		return
	}
	if err != nil {
		config.ErrorStatus("failed to get case", http.StatusInternalServerError, w, err)
		return
	}

	now := time.Now().UTC()
	evidence.ID = primitive.NewObjectID()
	evidence.CaseID = caseID
	if evidence.ColetadoPor == "" {
		evidence.ColetadoPor = identity.UserID
	}
	if evidence.DataColeta.IsZero() {
		evidence.DataColeta = now
	}
	evidence.CreatedAt = now
	evidence.UpdatedAt = now

	if _, err := c.EDB.InsertOne(ctx, evidence); err != nil {
		config.ErrorStatus("failed to create evidence", http.StatusInternalServerError, w, err)
		return
	}
	err = c.DB.UpdateOne(ctx, bson.M{"_id": cID}, bson.M{"$push": bson.M{"evidencias": evidence.ID}})
	if err != nil {
		config.ErrorStatus("failed to link evidence to case", http.StatusInternalServerError, w, err)
		return
	}

	c.Collab.EmitNewEvidence(caseID, evidence)

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(evidence)
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}
