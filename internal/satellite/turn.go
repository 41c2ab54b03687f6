package satellite

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/voxsat/internal/protocol"
	"github.com/MrWong99/voxsat/internal/wakeword"
)

// trigger starts a voice turn if the gates allow it. manual triggers
// (push-to-talk, continue-conversation, announce follow-ups) bypass the
// refractory cooldown and the mute switch. Runs on the loop.
func (e *Engine) trigger(phrase string, manual bool) {
	if e.turn != nil {
		slog.Debug("trigger ignored: turn already active", "turn_id", e.turn.id)
		return
	}
	if e.state == StateAnnouncing && e.cfg.SuppressDuringAnnouncement {
		slog.Debug("trigger ignored: announcement in progress")
		return
	}
	if !manual && time.Now().Before(e.cooldownUntil) {
		slog.Debug("trigger ignored: refractory cooldown",
			"remaining", time.Until(e.cooldownUntil))
		return
	}
	if !e.subscribed || !e.hasSession() {
		slog.Debug("trigger ignored: no subscribed hub")
		return
	}
	e.startTurn(&turn{
		id:       uuid.NewString(),
		wakeWord: phrase,
		started:  time.Now(),
		manual:   manual,
	})
}

func (e *Engine) startTurn(t *turn) {
	e.cancelClear()
	e.stopOnAnnounce = false
	e.turn = t
	e.setState(StateStreaming)
	slog.Info("voice turn started",
		"turn_id", t.id,
		"wake_word", t.wakeWord,
		"conversation_id", t.conversationID,
		"manual", t.manual,
	)

	e.coord.Duck()
	if e.cfg.WakeSound != "" {
		e.coord.PlayCue(e.cfg.WakeSound, nil)
	}
	e.send(&protocol.VoiceAssistantRequest{
		Start:          true,
		ConversationID: t.conversationID,
		WakeWordPhrase: t.wakeWord,
	})
}

// handleVoiceEvent applies one hub pipeline event to the active turn.
func (e *Engine) handleVoiceEvent(m *protocol.VoiceAssistantEventResponse) {
	t := e.turn
	if t == nil {
		slog.Debug("voice event without active turn", "event", m.EventType)
		return
	}

	switch m.EventType {
	case protocol.VoiceEventRunStart:
		// A streaming-capable hub announces the eventual TTS URL up front.
		if url := m.DataValue("url"); url != "" {
			t.ttsURL = url
		}

	case protocol.VoiceEventSTTStart:
		e.setState(StateStreaming)

	case protocol.VoiceEventSTTEnd:
		if text := m.DataValue("text"); text != "" {
			e.activeSTT.Update(text)
		}
		e.setState(StateAwaitingResponse)

	case protocol.VoiceEventSTTVADEnd:
		// The hub's VAD decided the user stopped talking.
		e.setState(StateAwaitingResponse)

	case protocol.VoiceEventIntentProgress:
		if m.DataValue("tts_start_streaming") == "1" && t.ttsURL != "" && !t.ttsStarted {
			slog.Info("starting early TTS playback", "turn_id", t.id, "url", t.ttsURL)
			e.playTTS(t)
		}

	case protocol.VoiceEventIntentEnd:
		if id := m.DataValue("conversation_id"); id != "" {
			t.conversationID = id
		}
		if m.DataValue("continue_conversation") == "1" {
			t.continueConv = true
		}

	case protocol.VoiceEventTTSStart:
		if text := m.DataValue("text"); text != "" {
			e.activeTTS.Update(text)
		}

	case protocol.VoiceEventTTSEnd:
		if url := m.DataValue("url"); url != "" {
			t.ttsURL = url
		}

	case protocol.VoiceEventRunEnd:
		e.pipelineFinished(t)

	case protocol.VoiceEventError:
		slog.Warn("pipeline error",
			"turn_id", t.id,
			"code", m.DataValue("code"),
			"message", m.DataValue("message"),
		)
		e.finishTurn(t, "error")
	}
}

// pipelineFinished handles the hub's run-end: play the response if there is
// one, otherwise the turn is over.
func (e *Engine) pipelineFinished(t *turn) {
	if t.ttsStarted {
		// Early streaming playback already owns turn completion.
		e.setState(StateAnnouncing)
		return
	}
	if t.ttsURL == "" {
		e.finishTurn(t, "ok")
		return
	}
	e.playTTS(t)
}

// playTTS renders the turn's response audio; completion finishes the turn
// unless the turn was superseded meanwhile.
func (e *Engine) playTTS(t *turn) {
	t.ttsStarted = true
	e.setState(StateAnnouncing)
	url := t.ttsURL
	e.coord.PlayAnnouncement([]string{url}, func() {
		e.post(func() {
			if e.turn != t {
				return
			}
			e.finishTurn(t, "ok")
		})
	})
}

// finishTurn completes t: notify the hub, release the duck, start the
// cooldown, and either chain into a follow-up listening round or schedule
// the attribute clear.
func (e *Engine) finishTurn(t *turn, outcome string) {
	if e.turn != t {
		return
	}
	e.turn = nil
	e.send(&protocol.VoiceAssistantAnnounceFinished{Success: outcome == "ok"})
	e.coord.Unduck()
	e.cooldownUntil = time.Now().Add(e.cfg.Refractory)
	e.setState(StateIdle)
	e.metrics.RecordTurn(context.Background(), outcome, time.Since(t.started).Seconds())
	slog.Info("voice turn finished", "turn_id", t.id, "outcome", outcome)

	if outcome == "ok" && t.continueConv {
		slog.Info("continuing conversation", "conversation_id", t.conversationID)
		e.startTurn(&turn{
			id:             uuid.NewString(),
			started:        time.Now(),
			conversationID: t.conversationID,
			manual:         true,
		})
		return
	}
	e.scheduleClear()
}

// cancelTurn aborts the active turn early (stop word). The hub is told to
// stop its pipeline; every abort path releases the duck.
func (e *Engine) cancelTurn(t *turn) {
	if e.turn != t {
		return
	}
	e.turn = nil
	if e.state == StateStreaming || e.state == StateAwaitingResponse {
		e.send(&protocol.VoiceAssistantRequest{Start: false})
	}
	e.coord.StopAnnouncement()
	e.coord.Unduck()
	e.cooldownUntil = time.Now().Add(e.cfg.Refractory)
	e.setState(StateIdle)
	e.metrics.RecordTurn(context.Background(), "cancelled", time.Since(t.started).Seconds())
	slog.Info("voice turn cancelled", "turn_id", t.id)
	e.scheduleClear()
}

// handleStopWord routes a stop-word detection to whatever it interrupts.
func (e *Engine) handleStopWord() {
	switch {
	case e.ringing:
		slog.Info("stop word silences ringing timer")
		e.stopRinging()
	case e.turn != nil:
		slog.Info("stop word cancels turn", "turn_id", e.turn.id)
		e.cancelTurn(e.turn)
	case e.state == StateAnnouncing:
		slog.Info("stop word aborts announcement")
		e.coord.StopAnnouncement()
		e.announceOver(false, false)
	}
}

// sessionLost forces the engine to idle: the in-flight turn is abandoned with
// no outbound message (there is no peer), playback is released, and the
// cooldown still starts. Runs on the loop.
func (e *Engine) sessionLost() {
	e.subscribed = false
	if e.ringing {
		e.stopRinging()
	}
	if t := e.turn; t != nil {
		e.turn = nil
		e.coord.StopAnnouncement()
		e.coord.Unduck()
		e.cooldownUntil = time.Now().Add(e.cfg.Refractory)
		e.metrics.RecordTurn(context.Background(), "abandoned", time.Since(t.started).Seconds())
		slog.Info("voice turn abandoned: session lost", "turn_id", t.id)
	}
	e.stopOnAnnounce = false
	e.setState(StateIdle)
	e.cancelClear()
	e.activeSTT.Update("")
	e.activeTTS.Update("")
}

// handleAnnounce plays a hub-initiated announcement (preannounce chime first
// when given) and reports completion. The stop word is armed for its
// duration.
func (e *Engine) handleAnnounce(m *protocol.VoiceAssistantAnnounceRequest) {
	if e.turn != nil {
		slog.Warn("announce request refused: voice turn active")
		e.send(&protocol.VoiceAssistantAnnounceFinished{})
		return
	}

	var urls []string
	if m.PreannounceMediaID != "" {
		urls = append(urls, m.PreannounceMediaID)
	}
	if m.MediaID != "" {
		urls = append(urls, m.MediaID)
	}
	if len(urls) == 0 {
		e.send(&protocol.VoiceAssistantAnnounceFinished{Success: true})
		return
	}

	slog.Info("playing announcement", "sources", len(urls), "start_conversation", m.StartConversation)
	e.setState(StateAnnouncing)
	e.stopOnAnnounce = true
	start := time.Now()
	startConv := m.StartConversation
	e.coord.PlayAnnouncement(urls, func() {
		e.post(func() {
			if e.state != StateAnnouncing || e.turn != nil {
				return
			}
			e.metrics.AnnouncementDuration.Record(context.Background(), time.Since(start).Seconds())
			e.announceOver(true, startConv)
		})
	})
}

// announceOver finishes a hub announcement and optionally opens a listening
// round.
func (e *Engine) announceOver(success, startConversation bool) {
	e.stopOnAnnounce = false
	e.send(&protocol.VoiceAssistantAnnounceFinished{Success: success})
	e.setState(StateIdle)
	if success && startConversation {
		e.trigger("", true)
	}
}

// handleTimerEvent tracks hub timers and rings when one finishes.
func (e *Engine) handleTimerEvent(m *protocol.VoiceAssistantTimerEventResponse) {
	slog.Info("timer event",
		"event", m.EventType,
		"timer_id", m.TimerID,
		"name", m.Name,
		"seconds_left", m.SecondsLeft,
	)
	switch m.EventType {
	case protocol.TimerEventStarted:
		e.metrics.ActiveTimers.Add(context.Background(), 1)
	case protocol.TimerEventCancelled:
		e.metrics.ActiveTimers.Add(context.Background(), -1)
	case protocol.TimerEventFinished:
		e.metrics.ActiveTimers.Add(context.Background(), -1)
		e.startRinging()
	}
}

// startRinging loops the timer-finished sound until the wake or stop word is
// heard. Timers ring independently of voice turns but share the announcement
// player, so a live turn's audio wins until it completes.
func (e *Engine) startRinging() {
	if e.cfg.TimerFinishedSound == "" || e.ringing {
		return
	}
	e.ringing = true
	e.coord.Duck()
	e.ringOnce()
}

func (e *Engine) ringOnce() {
	if !e.ringing || e.turn != nil {
		return
	}
	e.coord.PlayCue(e.cfg.TimerFinishedSound, func() {
		e.post(func() {
			if !e.ringing {
				return
			}
			e.ringTimer = time.AfterFunc(e.cfg.TimerRingGap, func() {
				e.post(e.ringOnce)
			})
		})
	})
}

func (e *Engine) stopRinging() {
	if !e.ringing {
		return
	}
	e.ringing = false
	if e.ringTimer != nil {
		e.ringTimer.Stop()
		e.ringTimer = nil
	}
	e.coord.StopAnnouncement()
}

// sendConfiguration answers the wake word configuration exchange.
func (e *Engine) sendConfiguration() {
	var avail []protocol.WakeWordDescriptor
	for _, w := range e.det.Available() {
		avail = append(avail, protocol.WakeWordDescriptor{
			ID:               w.ID,
			WakeWord:         w.Phrase,
			TrainedLanguages: w.Languages,
		})
	}
	e.send(&protocol.VoiceAssistantConfigurationResponse{
		AvailableWakeWords: avail,
		ActiveWakeWords:    e.det.Active(),
		MaxActiveWakeWords: wakeword.MaxActive,
	})
}

// applyConfiguration swaps the active wake word set and lets the owner
// persist it.
func (e *Engine) applyConfiguration(ids []string) {
	if err := e.det.SetActive(ids); err != nil {
		slog.Warn("wake word configuration rejected", "ids", ids, "error", err)
		return
	}
	slog.Info("active wake words changed", "active", e.det.Active())
	if e.cfg.OnConfigChange != nil {
		e.cfg.OnConfigChange(e.det.Active())
	}
}

// setState moves the lifecycle state and mirrors it into the assistant
// activity attribute.
func (e *Engine) setState(s State) {
	if e.state == s {
		return
	}
	e.state = s
	e.activeAssistant.Update(s.String())
}

// scheduleClear wipes the pipeline text attributes a little while after a
// turn completes, so the hub UI shows the last exchange briefly.
func (e *Engine) scheduleClear() {
	e.cancelClear()
	e.clearTimer = time.AfterFunc(e.cfg.AttributeClearDelay, func() {
		e.post(func() {
			if e.turn != nil {
				return
			}
			e.activeSTT.Update("")
			e.activeTTS.Update("")
		})
	})
}

func (e *Engine) cancelClear() {
	if e.clearTimer != nil {
		e.clearTimer.Stop()
		e.clearTimer = nil
	}
}
