package authflow

import (
	internalmetrics "github.com/MrEthical07/authflow/internal/metrics"
)

// MetricID identifies one counter or histogram.
type MetricID = internalmetrics.MetricID

// Counter ids. MetricInvitationValidateLatency is the only histogram.
const (
	MetricFlowStarted               = internalmetrics.MetricFlowStarted
	MetricStepSwitched              = internalmetrics.MetricStepSwitched
	MetricInvitationRequired        = internalmetrics.MetricInvitationRequired
	MetricInvitationBypassed        = internalmetrics.MetricInvitationBypassed
	MetricInvitationFailOpen        = internalmetrics.MetricInvitationFailOpen
	MetricInvitationAccepted        = internalmetrics.MetricInvitationAccepted
	MetricInvitationRejected        = internalmetrics.MetricInvitationRejected
	MetricInvitationNetworkError    = internalmetrics.MetricInvitationNetworkError
	MetricInvitationStale           = internalmetrics.MetricInvitationStale
	MetricEmailSubmitted            = internalmetrics.MetricEmailSubmitted
	MetricEmailInvalid              = internalmetrics.MetricEmailInvalid
	MetricCodeSent                  = internalmetrics.MetricCodeSent
	MetricCodeSendFailure           = internalmetrics.MetricCodeSendFailure
	MetricVerifySuccess             = internalmetrics.MetricVerifySuccess
	MetricVerifyFailure             = internalmetrics.MetricVerifyFailure
	MetricLoginSuccess              = internalmetrics.MetricLoginSuccess
	MetricLoginFailure              = internalmetrics.MetricLoginFailure
	MetricLogout                    = internalmetrics.MetricLogout
	MetricSyncPass                  = internalmetrics.MetricSyncPass
	MetricSyncCorrection            = internalmetrics.MetricSyncCorrection
	MetricSyncNotReady              = internalmetrics.MetricSyncNotReady
	MetricSyncPollingCanceled       = internalmetrics.MetricSyncPollingCanceled
	MetricInvitationValidateLatency = internalmetrics.MetricInvitationValidateLatency
)

// MetricsSnapshot is a point-in-time copy of every counter and histogram.
type MetricsSnapshot = internalmetrics.Snapshot

// Metrics is the lock-free counter store of a Flow.
type Metrics = internalmetrics.Metrics

// NewMetrics returns a counter store configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:                 cfg.Enabled,
		EnableLatencyHistograms: cfg.EnableLatencyHistograms,
	})
}
