package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eylulcan/amora/models"
	"github.com/eylulcan/amora/repository"
	"github.com/eylulcan/amora/ws"
)

// CallError kodları — istemci bunlarla programatik olarak davranır.
const (
	CallCodeNotFound       = "call_not_found"
	CallCodeInvalidState   = "invalid_state"
	CallCodeNotCaller      = "not_caller"
	CallCodeNotCallee      = "not_callee"
	CallCodeNotParticipant = "not_participant"
	CallCodeUserBusy       = "user_busy"
	CallCodeUserOffline    = "user_offline"
	CallCodeInvalidTarget  = "invalid_target"

	// Transport seviyesi kodlar — state machine'e hiç ulaşmayan frame'ler.
	CallCodeInvalidMessage = "invalid_message"
	CallCodeUnknownType    = "unknown_type"
	CallCodeInternal       = "internal_error"
)

// CallError, sinyal operasyonlarının tipli hatası.
// Handler bunu call.error frame'ine çevirir; bağlantı düşürülmez.
type CallError struct {
	Code    string
	Message string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func callErr(code, format string, args ...any) *CallError {
	return &CallError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// liveCall, aktif arama tablosundaki kayıt. lastBeat, heartbeat
// zaman aşımı denetiminde kullanılır.
type liveCall struct {
	call     *models.Call
	lastBeat time.Time
}

// CallService, arama state machine'ini yürütür.
//
// Eşzamanlılık modeli: her state geçişi, aramanın İKİ katılımcısının
// lock'ları altında yapılır (manager.WithUserLocks, deterministik sıra).
// İki kullanıcının birbirini aynı anda araması yarışında kilidi önce
// alan kazanır; kaybeden tarafın invite'ı user_busy ile reddedilir.
type CallService struct {
	manager *CallSignalManager
	blocks  repository.BlockRepository

	cmu   sync.Mutex
	calls map[string]*liveCall
}

// NewCallService, constructor.
func NewCallService(manager *CallSignalManager, blocks repository.BlockRepository) *CallService {
	return &CallService{
		manager: manager,
		blocks:  blocks,
		calls:   make(map[string]*liveCall),
	}
}

// Snapshot, call.init için kullanıcının mevcut oturumunu ve varsa
// bağlı aramayı döner. Reconnect eden istemci bununla senkronize olur.
func (s *CallService) Snapshot(userID string) (models.UserCallSession, *models.Call) {
	session := s.manager.Session(userID)
	if session.CurrentCallID == "" {
		return session, nil
	}
	if lc := s.getCall(session.CurrentCallID); lc != nil {
		c := *lc.call
		return session, &c
	}
	return session, nil
}

// Invite, yeni arama başlatır: ringing durumunda bir Call oluşturur,
// iki tarafın oturumunu bağlar, callee'ye call.incoming, caller'a
// call.invite_ack gönderir.
func (s *CallService) Invite(ctx context.Context, callerID string, ev *ws.CallInvite) (*models.Call, error) {
	if ev.TargetID == "" || ev.TargetID == callerID {
		return nil, callErr(CallCodeInvalidTarget, "invalid call target")
	}
	mediaType := models.MediaType(ev.MediaType)
	if !mediaType.Valid() {
		return nil, callErr(CallCodeInvalidTarget, "invalid media type %q", ev.MediaType)
	}

	// Bloklu kullanıcı aranamaz — blok bilgisi sızdırılmaz, generic kod döner.
	blocked, err := s.blocks.IsBlockedEither(ctx, callerID, ev.TargetID)
	if err != nil {
		log.Printf("[call] block check failed: %v", err)
		return nil, callErr(CallCodeInvalidTarget, "call target unavailable")
	}
	if blocked {
		return nil, callErr(CallCodeInvalidTarget, "call target unavailable")
	}

	var call *models.Call
	var opErr *CallError

	s.manager.WithUserLocks(callerID, ev.TargetID, func() {
		if s.manager.IsBusy(callerID) {
			opErr = callErr(CallCodeUserBusy, "you are already in a call")
			return
		}
		if !s.manager.IsOnline(ev.TargetID) {
			opErr = callErr(CallCodeUserOffline, "target is not reachable")
			return
		}
		if s.manager.IsBusy(ev.TargetID) {
			opErr = callErr(CallCodeUserBusy, "target is busy")
			return
		}

		call = &models.Call{
			ID:        uuid.NewString(),
			CallerID:  callerID,
			CalleeID:  ev.TargetID,
			MediaType: mediaType,
			State:     models.CallStateRinging,
			CreatedAt: time.Now().UTC(),
		}
		s.putCall(call)
		s.manager.SetSession(callerID, models.UserCallStateRinging, call.ID)
		s.manager.SetSession(ev.TargetID, models.UserCallStateRinging, call.ID)
	})
	if opErr != nil {
		return nil, opErr
	}

	s.manager.SendToUser(call.CalleeID, ws.CallPayload(ws.CallTypeIncoming, map[string]any{
		"call_id":    call.ID,
		"caller_id":  call.CallerID,
		"media_type": call.MediaType,
		"context_id": ev.ContextID,
	}))
	s.manager.SendToUser(call.CallerID, ws.CallPayload(ws.CallTypeInviteAck, map[string]any{
		"call_id":    call.ID,
		"target_id":  call.CalleeID,
		"media_type": call.MediaType,
		"status":     "ringing",
	}))
	return call, nil
}

// Answer, callee'nin kabulü: ringing → active, iki tarafa call.accepted.
func (s *CallService) Answer(userID string, ev *ws.CallAnswer) error {
	return s.transition(ev.CallID, func(c *models.Call) *CallError {
		if userID != c.CalleeID {
			return callErr(CallCodeNotCallee, "only the callee can answer")
		}
		if c.State != models.CallStateRinging {
			return callErr(CallCodeInvalidState, "call is %s, expected ringing", c.State)
		}
		c.State = models.CallStateActive
		s.manager.SetSession(c.CallerID, models.UserCallStateInCall, c.ID)
		s.manager.SetSession(c.CalleeID, models.UserCallStateInCall, c.ID)
		s.manager.SendToUsers(ws.CallPayload(ws.CallTypeAccepted, map[string]any{
			"call_id": c.ID,
		}), c.CallerID, c.CalleeID)
		return nil
	})
}

// Reject, callee'nin reddi: ringing → rejected, caller'a call.rejected.
func (s *CallService) Reject(userID string, ev *ws.CallReject) error {
	return s.transition(ev.CallID, func(c *models.Call) *CallError {
		if userID != c.CalleeID {
			return callErr(CallCodeNotCallee, "only the callee can reject")
		}
		if c.State != models.CallStateRinging {
			return callErr(CallCodeInvalidState, "call is %s, expected ringing", c.State)
		}
		s.finish(c, models.CallStateRejected, ev.Reason)
		s.manager.SendToUser(c.CallerID, ws.CallPayload(ws.CallTypeRejected, map[string]any{
			"call_id": c.ID,
			"reason":  ev.Reason,
		}))
		return nil
	})
}

// Cancel, caller'ın çalan aramayı iptali: ringing → canceled.
func (s *CallService) Cancel(userID string, ev *ws.CallCancel) error {
	return s.transition(ev.CallID, func(c *models.Call) *CallError {
		if userID != c.CallerID {
			return callErr(CallCodeNotCaller, "only the caller can cancel")
		}
		if c.State != models.CallStateRinging {
			return callErr(CallCodeInvalidState, "call is %s, expected ringing", c.State)
		}
		s.finish(c, models.CallStateCanceled, "")
		s.manager.SendToUser(c.CalleeID, ws.CallPayload(ws.CallTypeCanceled, map[string]any{
			"call_id": c.ID,
		}))
		return nil
	})
}

// End, aktif aramanın iki taraftan biriyle bitirilmesi: active → ended.
// Katılımcı olmayan biri call_id'yi bilse bile aramayı kapatamaz.
func (s *CallService) End(userID string, ev *ws.CallEnd) error {
	return s.transition(ev.CallID, func(c *models.Call) *CallError {
		if c.Peer(userID) == "" {
			return callErr(CallCodeNotParticipant, "not a participant of this call")
		}
		if c.State != models.CallStateActive {
			return callErr(CallCodeInvalidState, "call is %s, expected active", c.State)
		}
		reason := ev.Reason
		if reason == "" {
			reason = "ended_by_participant"
		}
		s.finish(c, models.CallStateEnded, reason)
		s.manager.SendToUsers(ws.CallPayload(ws.CallTypeEnded, map[string]any{
			"call_id":  c.ID,
			"ended_by": userID,
			"reason":   reason,
		}), c.CallerID, c.CalleeID)
		return nil
	})
}

// Heartbeat, aktif aramada canlılık izini günceller.
// Yanlış call_id veya terminal arama sessizce geçilir — heartbeat
// best-effort'tur, hata frame'i üretmez.
func (s *CallService) Heartbeat(userID string, ev *ws.CallHeartbeat) {
	s.cmu.Lock()
	defer s.cmu.Unlock()

	lc, ok := s.calls[ev.CallID]
	if !ok || lc.call.Peer(userID) == "" {
		return
	}
	lc.lastBeat = time.Now()
}

// RelayOffer, caller'ın SDP offer'ını karşı tarafa iletir.
func (s *CallService) RelayOffer(userID string, ev *ws.WebRTCOffer) error {
	return s.relaySDP(userID, ev.CallID, ws.CallTypeOffer, ev.SDP, ev.SDPType)
}

// RelayAnswer, callee'nin SDP answer'ını karşı tarafa iletir.
func (s *CallService) RelayAnswer(userID string, ev *ws.WebRTCAnswer) error {
	return s.relaySDP(userID, ev.CallID, ws.CallTypeAnswerSDP, ev.SDP, ev.SDPType)
}

// relaySDP, offer/answer relay'inin ortak yolu. Arama ringing veya
// active değilse invalid_state döner — SDP müzakeresi canlı arama ister.
func (s *CallService) relaySDP(userID, callID, frameType, sdp, sdpType string) error {
	lc := s.getCall(callID)
	if lc == nil {
		return callErr(CallCodeNotFound, "call not found")
	}
	c := lc.call
	peer := c.Peer(userID)
	if peer == "" {
		return callErr(CallCodeNotParticipant, "not a participant of this call")
	}
	if c.State != models.CallStateRinging && c.State != models.CallStateActive {
		return callErr(CallCodeInvalidState, "call is %s", c.State)
	}

	s.manager.SendToUser(peer, ws.CallPayload(frameType, map[string]any{
		"call_id":  callID,
		"from":     userID,
		"sdp":      sdp,
		"sdp_type": sdpType,
	}))
	return nil
}

// RelayICE, ICE adayını karşı tarafa iletir.
//
// SDP relay'inden farklı olarak ölü/bilinmeyen aramada SESSİZCE yutulur:
// ICE adayları arama kapanırken doğal olarak geç gelir, her birine
// hata frame'i üretmek istemciyi gereksiz gürültüye boğar.
func (s *CallService) RelayICE(userID string, ev *ws.ICECandidate) error {
	lc := s.getCall(ev.CallID)
	if lc == nil {
		return nil
	}
	c := lc.call
	peer := c.Peer(userID)
	if peer == "" {
		return callErr(CallCodeNotParticipant, "not a participant of this call")
	}
	if c.State != models.CallStateRinging && c.State != models.CallStateActive {
		return nil
	}

	s.manager.SendToUser(peer, ws.CallPayload(ws.CallTypeICE, map[string]any{
		"call_id":         ev.CallID,
		"from":            userID,
		"candidate":       ev.Candidate,
		"sdp_mid":         ev.SDPMid,
		"sdp_mline_index": ev.SDPMLineIndex,
	}))
	return nil
}

// HandleDisconnect, sinyal bağlantısı kopan kullanıcının yaşayan
// aramasını failed/peer_disconnected ile kapatır ve karşı tarafa bildirir.
// Kullanıcı aramada değilse no-op.
func (s *CallService) HandleDisconnect(userID string) {
	session := s.manager.Session(userID)
	if session.CurrentCallID == "" {
		return
	}

	err := s.transition(session.CurrentCallID, func(c *models.Call) *CallError {
		if c.State.Terminal() {
			return nil
		}
		peer := c.Peer(userID)
		s.finish(c, models.CallStateFailed, "peer_disconnected")
		// Arama kaydı failed'e geçer ama karşı taraf normal bir
		// call.ended frame'i görür — istemci tarafında ayrı bir
		// "bağlantı koptu" yolu gerekmez.
		s.manager.SendToUser(peer, ws.CallPayload(ws.CallTypeEnded, map[string]any{
			"call_id":  c.ID,
			"ended_by": userID,
			"reason":   "peer_disconnected",
		}))
		return nil
	})
	if err != nil {
		log.Printf("[call] disconnect cleanup for %s: %v", userID, err)
	}
}

// ExpireStale, heartbeat'i maxAge'den eski aktif aramaları failed yapar.
// main periyodik çağırır.
func (s *CallService) ExpireStale(maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)

	s.cmu.Lock()
	var stale []string
	for id, lc := range s.calls {
		if lc.call.State == models.CallStateActive && lc.lastBeat.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	s.cmu.Unlock()

	for _, id := range stale {
		err := s.transition(id, func(c *models.Call) *CallError {
			if c.State != models.CallStateActive {
				return nil
			}
			log.Printf("[call] expiring stale call %s", c.ID)
			s.finish(c, models.CallStateFailed, "heartbeat_timeout")
			s.manager.SendToUsers(ws.CallPayload(ws.CallTypeFailed, map[string]any{
				"call_id": c.ID,
				"reason":  "heartbeat_timeout",
			}), c.CallerID, c.CalleeID)
			return nil
		})
		if err != nil {
			log.Printf("[call] expire failed for %s: %v", id, err)
		}
	}
}

// transition, verilen fn'i aramanın iki katılımcısının lock'ları altında
// çalıştırır. Katılımcı ve durum kontrolünü fn yapar.
func (s *CallService) transition(callID string, fn func(c *models.Call) *CallError) error {
	lc := s.getCall(callID)
	if lc == nil {
		return callErr(CallCodeNotFound, "call not found")
	}
	c := lc.call

	var opErr *CallError
	s.manager.WithUserLocks(c.CallerID, c.CalleeID, func() {
		// Lock beklerken arama terminal'e geçmiş olabilir — fn tekrar kontrol eder.
		opErr = fn(c)
	})
	if opErr != nil {
		return opErr
	}
	return nil
}

// finish, aramayı terminal duruma alır, oturumları koşullu temizler
// ve aramayı canlı tablodan düşürür. İlgili lock'lar tutulurken çağrılır.
func (s *CallService) finish(c *models.Call, state models.CallState, reason string) {
	c.State = state
	c.Reason = reason
	s.manager.ClearSession(c.CallerID, c.ID)
	s.manager.ClearSession(c.CalleeID, c.ID)
	s.dropCall(c.ID)
}

func (s *CallService) putCall(c *models.Call) {
	s.cmu.Lock()
	defer s.cmu.Unlock()
	s.calls[c.ID] = &liveCall{call: c, lastBeat: time.Now()}
}

func (s *CallService) getCall(id string) *liveCall {
	s.cmu.Lock()
	defer s.cmu.Unlock()
	return s.calls[id]
}

func (s *CallService) dropCall(id string) {
	s.cmu.Lock()
	defer s.cmu.Unlock()
	delete(s.calls, id)
}
