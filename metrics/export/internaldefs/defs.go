package internaldefs

import (
	"github.com/MrEthical07/authflow"
)

// CounterDef names one flow counter.
type CounterDef struct {
	ID   authflow.MetricID
	Name string
	Help string
}

// HistogramDef names one flow histogram.
type HistogramDef struct {
	ID   authflow.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: authflow.MetricFlowStarted, Name: "authflow_flow_started_total", Help: "Flows started."},
	{ID: authflow.MetricStepSwitched, Name: "authflow_step_switched_total", Help: "Visible step changes."},
	{ID: authflow.MetricInvitationRequired, Name: "authflow_invitation_required_total", Help: "Sessions gated on an invitation code."},
	{ID: authflow.MetricInvitationBypassed, Name: "authflow_invitation_bypassed_total", Help: "Sessions that skipped the invitation step."},
	{ID: authflow.MetricInvitationFailOpen, Name: "authflow_invitation_fail_open_total", Help: "Required-checks that failed and continued ungated."},
	{ID: authflow.MetricInvitationAccepted, Name: "authflow_invitation_accepted_total", Help: "Accepted invitation codes."},
	{ID: authflow.MetricInvitationRejected, Name: "authflow_invitation_rejected_total", Help: "Rejected invitation codes."},
	{ID: authflow.MetricInvitationNetworkError, Name: "authflow_invitation_network_error_total", Help: "Invitation validations that could not reach the server."},
	{ID: authflow.MetricInvitationStale, Name: "authflow_invitation_stale_total", Help: "Invitation responses discarded as superseded."},
	{ID: authflow.MetricEmailSubmitted, Name: "authflow_email_submitted_total", Help: "Emails that passed local validation."},
	{ID: authflow.MetricEmailInvalid, Name: "authflow_email_invalid_total", Help: "Emails rejected by local validation."},
	{ID: authflow.MetricCodeSent, Name: "authflow_code_sent_total", Help: "Login codes sent."},
	{ID: authflow.MetricCodeSendFailure, Name: "authflow_code_send_failure_total", Help: "Failed login code sends."},
	{ID: authflow.MetricVerifySuccess, Name: "authflow_verify_success_total", Help: "Accepted login codes."},
	{ID: authflow.MetricVerifyFailure, Name: "authflow_verify_failure_total", Help: "Rejected or failed login code checks."},
	{ID: authflow.MetricLoginSuccess, Name: "authflow_login_success_total", Help: "Successful logins."},
	{ID: authflow.MetricLoginFailure, Name: "authflow_login_failure_total", Help: "Logins refused by the auth provider."},
	{ID: authflow.MetricLogout, Name: "authflow_logout_total", Help: "Logouts."},
	{ID: authflow.MetricSyncPass, Name: "authflow_sync_pass_total", Help: "Presentation reconciliation passes."},
	{ID: authflow.MetricSyncCorrection, Name: "authflow_sync_correction_total", Help: "Passes that corrected the presentation."},
	{ID: authflow.MetricSyncNotReady, Name: "authflow_sync_not_ready_total", Help: "Passes skipped for missing elements or state."},
	{ID: authflow.MetricSyncPollingCanceled, Name: "authflow_sync_polling_canceled_total", Help: "Polling loops stopped."},
}

var HistogramDefs = []HistogramDef{
	{ID: authflow.MetricInvitationValidateLatency, Name: "authflow_invitation_validate_latency_seconds", Help: "Invitation validation latency."},
}

// EventStatDef names one event dispatcher counter.
type EventStatDef struct {
	Name  string
	Help  string
	Value func(authflow.EventStats) uint64
}

var EventStatDefs = []EventStatDef{
	{
		Name:  "authflow_events_delivered_total",
		Help:  "Flow events handed to the sink.",
		Value: func(s authflow.EventStats) uint64 { return s.Delivered },
	},
	{
		Name:  "authflow_events_dropped_total",
		Help:  "Flow events dropped under dispatcher backpressure.",
		Value: func(s authflow.EventStats) uint64 { return s.Dropped },
	},
	{
		Name:  "authflow_events_failed_total",
		Help:  "Flow events whose sink panicked.",
		Value: func(s authflow.EventStats) uint64 { return s.Failed },
	},
}

// HistogramBounds are the upper bounds in seconds of every bucket but the last.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, +Inf included, for instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling short input.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
