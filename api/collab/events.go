package collab

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/odontoforense/case-api/models"
)

// Client to server events
const (
	EventJoinCase         = "joinCase"
	EventLeaveCase        = "leaveCase"
	EventSendMessage      = "sendMessage"
	EventCaseStatusUpdate = "caseStatusUpdate"
)

// Server to client events
const (
	EventUserJoined     = "userJoined"
	EventMessageHistory = "messageHistory"
	EventUserLeft       = "userLeft"
	EventNewMessage     = "newMessage"
	EventStatusUpdated  = "statusUpdated"
	EventCaseUpdated    = "caseUpdated"
	EventNewEvidence    = "newEvidence"
	EventError          = "error"
)

// Notices sent with the error event. The frontend shows them as is.
const (
	msgJoinFailed     = "Erro ao entrar no chat do caso"
	msgSendFailed     = "Erro ao enviar mensagem"
	msgInvalidCase    = "Identificador de caso inválido"
	msgNotInCase      = "Você não está no chat deste caso"
	msgEmptyMessage   = "A mensagem não pode estar vazia"
	msgRateLimited    = "Muitas mensagens, aguarde um momento"
	msgNoAccess       = "Você não tem permissão para acessar este chat"
	msgForbidden      = "Permissão negada"
	msgInvalidStatus  = "Status de caso inválido"
	msgUnknownEvent   = "Evento desconhecido"
	msgMalformedFrame = "Mensagem mal formatada"
)

// Envelope is the frame exchanged over the socket in both directions
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// caseRef is the payload of joinCase and leaveCase. Clients may also send the bare
// case id as a JSON string.
type caseRef struct {
	CaseID string `json:"caseId"`
	Limit  int    `json:"limit,omitempty"`
	Skip   int    `json:"skip,omitempty"`
}

func (c *caseRef) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		c.CaseID = id
		return nil
	}
	type plain caseRef
	return json.Unmarshal(b, (*plain)(c))
}

type sendMessageData struct {
	CaseID  string `json:"caseId"`
	Message string `json:"message"`
}

type statusUpdateData struct {
	CaseID string `json:"caseId"`
	Status string `json:"status"`
}

// Presence is the payload of userJoined and userLeft
type Presence struct {
	UserID string `json:"userId"`
	Nome   string `json:"nome"`
	Role   string `json:"role"`
}

func presenceOf(identity models.Identity) Presence {
	return Presence{UserID: identity.UserID, Nome: identity.Name, Role: identity.Role}
}

// StatusUpdate is the payload of statusUpdated
type StatusUpdate struct {
	CaseID        string    `json:"caseId"`
	Status        string    `json:"status"`
	UpdatedBy     string    `json:"updatedBy"`
	UpdatedByName string    `json:"updatedByName"`
	Timestamp     time.Time `json:"timestamp"`
}

// CaseUpdate is the payload of caseUpdated
type CaseUpdate struct {
	CaseID    string      `json:"caseId"`
	Update    interface{} `json:"update"`
	Timestamp time.Time   `json:"timestamp"`
}

// EvidenceNotice is the payload of newEvidence
type EvidenceNotice struct {
	CaseID    string      `json:"caseId"`
	Evidence  interface{} `json:"evidence"`
	Timestamp time.Time   `json:"timestamp"`
}

// ErrorNotice is the payload of error
type ErrorNotice struct {
	Message string `json:"message"`
}

// ValidCaseID accepts mongo hex ids as well as short slugs
func ValidCaseID(id string) bool {
	if id == "" || len(id) > 64 || strings.TrimSpace(id) != id {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
