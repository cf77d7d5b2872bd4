package authflow

import (
	"context"
	"errors"
	"io"
	"time"

	internalaudit "github.com/MrEthical07/authflow/internal/audit"
)

// Event is one flow transition delivered to an EventSink.
type Event = internalaudit.Event

// EventSink receives flow events.
type EventSink = internalaudit.Sink

// NoOpSink drops events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers events in a channel.
type ChannelSink = internalaudit.ChannelSink

// EventStats counts delivered, dropped, and failed events.
type EventStats = internalaudit.Stats

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// Event types.
const (
	EventFlowStarted        = "flow_started"
	EventStepSwitched       = "step_switched"
	EventInvitationChecked  = "invitation_checked"
	EventInvitationVerified = "invitation_verified"
	EventInvitationRejected = "invitation_rejected"
	EventCodeSent           = "code_sent"
	EventCodeSendFailed     = "code_send_failed"
	EventVerifyFailed       = "verify_failed"
	EventLoginSucceeded     = "login_succeeded"
	EventLoginFailed        = "login_failed"
	EventLogout             = "logout"
)

// EventErrorCode is the error classification attached to failed events.
type EventErrorCode string

const (
	eventErrEmptyCode    EventErrorCode = "empty_code"
	eventErrInvalidEmail EventErrorCode = "invalid_email"
	eventErrRejected     EventErrorCode = "rejected"
	eventErrNetwork      EventErrorCode = "network"
	eventErrLogin        EventErrorCode = "login_failed"
	eventErrInternal     EventErrorCode = "internal_error"
)

func (f *Flow) emit(
	ctx context.Context,
	eventType string,
	success bool,
	err error,
	metadataBuilder func() map[string]string,
) {
	if f == nil || f.events == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := Event{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		FlowID:    f.id,
		Step:      string(f.CurrentStep()),
		Success:   success,
		Metadata:  metadata,
	}
	if code := eventErrorCode(err); code != "" {
		event.Error = string(code)
	}
	f.events.Emit(ctx, event)
}

func eventErrorCode(err error) EventErrorCode {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrEmptyCode):
		return eventErrEmptyCode
	case errors.Is(err, ErrInvalidEmail):
		return eventErrInvalidEmail
	case errors.Is(err, ErrCodeRejected), errors.Is(err, ErrRejected):
		return eventErrRejected
	case errors.Is(err, ErrNetwork):
		return eventErrNetwork
	case errors.Is(err, ErrLoginFailed):
		return eventErrLogin
	default:
		return eventErrInternal
	}
}
