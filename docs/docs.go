// Package docs Forensic Case API.
//
// Documentation of the forensic case collaboration API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - bearer
//
//    SecurityDefinitions:
//    bearer:
//      type: apiKey
//      name: Authorization
//      in: header
//
// swagger:meta
package docs

import (
	"github.com/odontoforense/case-api/api/collab"
	"github.com/odontoforense/case-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route POST /api/v1/auth/login auth login
// Exchanges email and senha for a bearer token, also accepted by GET /ws.
// responses:
//   200: userResponse

// The authenticated user. The token is returned next to it.
// swagger:response userResponse
type userResponseWrapper struct {
	// in:body
	Body models.User
}

// swagger:route GET /api/v1/cases/{caseId}/messages cases caseMessages
// Gets a page of the case chat, oldest first. Accepts limit (default 50, max 200) and skip.
// responses:
//   200: caseMessagesResponse

// Chat messages with the sender populated
// swagger:response caseMessagesResponse
type caseMessagesResponseWrapper struct {
	// in:body
	Body []models.MessageView
}

// swagger:route PATCH /api/v1/cases/{caseId} cases updateCase
// Sets case fields and emits caseUpdated to the case room.
// responses:
//   200: caseUpdatedResponse

// The case id and the fields that were set
// swagger:response caseUpdatedResponse
type caseUpdatedResponseWrapper struct {
	// in:body
	Body struct {
		ID     string                 `json:"_id"`
		Update map[string]interface{} `json:"update"`
	}
}

// Frames exchanged on GET /ws are {"event": name, "data": payload}
// swagger:model wsEnvelope
type wsEnvelope collab.Envelope

// swagger:route POST /api/v1/cases/{caseId}/evidence cases createEvidence
// Creates evidence for the case and emits newEvidence to the case room.
// responses:
//   201: evidenceResponse

// The created evidence
// swagger:response evidenceResponse
type evidenceResponseWrapper struct {
	// in:body
	Body models.Evidence
}
