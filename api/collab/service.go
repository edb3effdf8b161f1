package collab

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/odontoforense/case-api/api"
	"github.com/odontoforense/case-api/databases"
	"github.com/odontoforense/case-api/models"
)

// Verifier resolves the credential presented on connect to an identity
type Verifier interface {
	Verify(ctx context.Context, token string) (models.Identity, error)
}

// Session is the state of one admitted connection. It is owned by the connection's read
// loop and never shared.
type Session struct {
	ID       string
	Identity models.Identity

	limiter *rate.Limiter
}

// Service runs the collaboration lifecycle of every connection: admission, room
// membership, chat, status broadcasts and departure
type Service struct {
	Registry    *Registry
	Broadcaster *Broadcaster
	Store       *MessageStore
	Verifier    Verifier
	Cases       databases.CaseDatabase

	// Strict enables the case access check on join and reports forbidden or invalid
	// status updates back to the sender instead of dropping them
	Strict       bool
	HistoryLimit int
	MessageRate  rate.Limit
	MessageBurst int

	now func() time.Time
}

// NewService wires a service around the registry
func NewService(reg *Registry, store *MessageStore, v Verifier, cases databases.CaseDatabase) *Service {
	return &Service{
		Registry:     reg,
		Broadcaster:  NewBroadcaster(reg),
		Store:        store,
		Verifier:     v,
		Cases:        cases,
		HistoryLimit: DefaultHistoryLimit,
		MessageRate:  5,
		MessageBurst: 10,
		now:          time.Now,
	}
}

// Authenticate verifies the credential of a connection about to be admitted
func (s *Service) Authenticate(ctx context.Context, token string) (models.Identity, error) {
	if token == "" {
		return models.Identity{}, api.ErrInvalidToken
	}
	return s.Verifier.Verify(ctx, token)
}

// Admit registers an authenticated connection. The returned session is passed to every
// later call for that connection.
func (s *Service) Admit(connID string, identity models.Identity, sink Sink) (*Session, error) {
	if err := s.Registry.Register(connID, identity, sink); err != nil {
		zap.S().Errorw("failed to register connection",
			"connId", connID,
			"userId", identity.UserID,
			"error", err)
		return nil, err
	}
	s.observe()
	zap.S().Infow("connection admitted",
		"connId", connID,
		"userId", identity.UserID,
		"role", identity.Role)

	burst := s.MessageBurst
	if burst <= 0 {
		burst = 1
	}
	limit := s.MessageRate
	if limit <= 0 {
		limit = rate.Inf
	}
	return &Session{ID: connID, Identity: identity, limiter: rate.NewLimiter(limit, burst)}, nil
}

// Handle decodes one client frame and runs the matching operation
func (s *Service) Handle(ctx context.Context, sess *Session, frame []byte) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil || env.Event == "" {
		eventsTotal.WithLabelValues("malformed").Inc()
		s.notify(sess, msgMalformedFrame)
		return
	}

	switch env.Event {
	case EventJoinCase:
		var ref caseRef
		if !s.decode(sess, env, &ref) {
			return
		}
		s.Join(ctx, sess, ref.CaseID, ref.Limit, ref.Skip)
	case EventLeaveCase:
		var ref caseRef
		if !s.decode(sess, env, &ref) {
			return
		}
		s.Leave(sess, ref.CaseID)
	case EventSendMessage:
		var data sendMessageData
		if !s.decode(sess, env, &data) {
			return
		}
		s.SendMessage(ctx, sess, data.CaseID, data.Message)
	case EventCaseStatusUpdate:
		var data statusUpdateData
		if !s.decode(sess, env, &data) {
			return
		}
		s.UpdateStatus(sess, data.CaseID, data.Status)
	default:
		eventsTotal.WithLabelValues("unknown").Inc()
		s.notify(sess, msgUnknownEvent)
		return
	}
	eventsTotal.WithLabelValues(env.Event).Inc()
}

func (s *Service) decode(sess *Session, env Envelope, v interface{}) bool {
	if len(env.Data) == 0 {
		s.notify(sess, msgMalformedFrame)
		return false
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		zap.S().Debugw("undecodable event payload",
			"connId", sess.ID,
			"event", env.Event,
			"error", err)
		s.notify(sess, msgMalformedFrame)
		return false
	}
	return true
}

// Join moves the connection into the case room, announces it and replays the history
func (s *Service) Join(ctx context.Context, sess *Session, caseID string, limit, skip int) {
	if !ValidCaseID(caseID) {
		s.notify(sess, msgInvalidCase)
		return
	}
	if s.Strict {
		if notice := s.checkAccess(ctx, sess.Identity, caseID); notice != "" {
			s.notify(sess, notice)
			return
		}
	}

	prev, err := s.Registry.SetCurrentCase(sess.ID, caseID)
	if err != nil {
		zap.S().Errorw("failed to join case",
			"connId", sess.ID,
			"caseId", caseID,
			"error", err)
		s.notify(sess, msgJoinFailed)
		return
	}
	s.observe()

	presence := presenceOf(sess.Identity)
	if prev != caseID {
		if prev != "" {
			s.Broadcaster.Broadcast(prev, EventUserLeft, presence)
		}
		s.Broadcaster.Broadcast(caseID, EventUserJoined, presence)
		zap.S().Infow("user joined case",
			"connId", sess.ID,
			"userId", sess.Identity.UserID,
			"caseId", caseID)
	}

	if limit <= 0 {
		limit = s.HistoryLimit
	}
	messages, err := s.Store.History(ctx, caseID, limit, skip)
	if err != nil {
		zap.S().Errorw("failed to load message history",
			"connId", sess.ID,
			"caseId", caseID,
			"error", err)
		s.notify(sess, msgJoinFailed)
		return
	}
	s.Broadcaster.Unicast(sess.ID, EventMessageHistory, s.Store.Views(ctx, messages))
}

// checkAccess returns the notice to send when the identity may not open the case chat
func (s *Service) checkAccess(ctx context.Context, identity models.Identity, caseID string) string {
	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		return msgInvalidCase
	}
	if s.Cases == nil {
		return msgJoinFailed
	}

	ctx, cancel := api.WithQueryTimeout(ctx)
	defer cancel()

	c, err := s.Cases.FindOne(ctx, bson.M{"_id": cID})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return msgNoAccess
	}
	if err != nil {
		zap.S().Errorw("failed to find case",
			"caseId", caseID,
			"error", err)
		return msgJoinFailed
	}
	if identity.Role == models.RoleAdmin || c.Responsavel.Hex() == identity.UserID {
		return ""
	}
	return msgNoAccess
}

// Leave takes the connection out of caseID if it is currently there
func (s *Service) Leave(sess *Session, caseID string) {
	if !s.Registry.ClearCaseIf(sess.ID, caseID) {
		return
	}
	s.observe()
	s.Broadcaster.Broadcast(caseID, EventUserLeft, presenceOf(sess.Identity))
	zap.S().Infow("user left case",
		"connId", sess.ID,
		"userId", sess.Identity.UserID,
		"caseId", caseID)
}

// SendMessage persists a chat message and delivers it to the whole room, sender included
func (s *Service) SendMessage(ctx context.Context, sess *Session, caseID, content string) {
	m, ok := s.Registry.Lookup(sess.ID)
	if !ok || caseID == "" || m.CaseID != caseID {
		s.notify(sess, msgNotInCase)
		return
	}
	if sess.limiter != nil && !sess.limiter.Allow() {
		s.notify(sess, msgRateLimited)
		return
	}

	msg, err := s.Store.Append(ctx, caseID, sess.Identity.UserID, content)
	if errors.Is(err, ErrInvalidContent) {
		s.notify(sess, msgEmptyMessage)
		return
	}
	if err != nil {
		zap.S().Errorw("failed to persist message",
			"connId", sess.ID,
			"caseId", caseID,
			"error", err)
		s.notify(sess, msgSendFailed)
		return
	}

	view := msg.View(models.MessageSender{Nome: sess.Identity.Name, Role: sess.Identity.Role})
	s.Broadcaster.Broadcast(caseID, EventNewMessage, view)
}

// UpdateStatus broadcasts a case status change made by a perito or admin. Nothing is
// persisted.
func (s *Service) UpdateStatus(sess *Session, caseID, status string) {
	if !sess.Identity.CanUpdateStatus() {
		zap.S().Debugw("status update ignored",
			"connId", sess.ID,
			"userId", sess.Identity.UserID,
			"role", sess.Identity.Role)
		if s.Strict {
			s.notify(sess, msgForbidden)
		}
		return
	}
	if !ValidCaseID(caseID) {
		s.notify(sess, msgInvalidCase)
		return
	}
	if status == "" || (s.Strict && !models.ValidCaseStatus(status)) {
		s.notify(sess, msgInvalidStatus)
		return
	}

	s.Broadcaster.Broadcast(caseID, EventStatusUpdated, StatusUpdate{
		CaseID:        caseID,
		Status:        status,
		UpdatedBy:     sess.Identity.UserID,
		UpdatedByName: sess.Identity.Name,
		Timestamp:     s.timestamp(),
	})
}

// Disconnect removes the connection and tells its room. Calling it again is a no-op.
func (s *Service) Disconnect(sess *Session) {
	m, ok := s.Registry.Unregister(sess.ID)
	if !ok {
		return
	}
	s.observe()
	if m.CaseID != "" {
		s.Broadcaster.Broadcast(m.CaseID, EventUserLeft, presenceOf(m.Identity))
	}
	zap.S().Infow("connection closed",
		"connId", sess.ID,
		"userId", m.Identity.UserID,
		"caseId", m.CaseID)
}

// EmitCaseUpdate tells the room of caseID that the case record changed
func (s *Service) EmitCaseUpdate(caseID string, update interface{}) int {
	return s.Broadcaster.Broadcast(caseID, EventCaseUpdated, CaseUpdate{
		CaseID:    caseID,
		Update:    update,
		Timestamp: s.timestamp(),
	})
}

// EmitNewEvidence tells the room of caseID that evidence was added
func (s *Service) EmitNewEvidence(caseID string, evidence interface{}) int {
	return s.Broadcaster.Broadcast(caseID, EventNewEvidence, EvidenceNotice{
		CaseID:    caseID,
		Evidence:  evidence,
		Timestamp: s.timestamp(),
	})
}

// ReportPresence logs the occupancy of every room and refreshes the gauges
func (s *Service) ReportPresence() Stats {
	stats := s.Registry.Stats()
	ObserveRooms(stats)
	zap.S().Infow("collaboration presence",
		"connections", stats.Connections,
		"rooms", len(stats.Rooms),
		"occupancy", stats.Rooms)
	return stats
}

func (s *Service) notify(sess *Session, message string) {
	s.Broadcaster.Unicast(sess.ID, EventError, ErrorNotice{Message: message})
}

func (s *Service) observe() {
	ObserveRooms(s.Registry.Stats())
}

func (s *Service) timestamp() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}
