package observability

import "testing"

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordConnectionAccepted()
	RecordHandshakeFailure()
	RecordLaunchFailure()
	SetActiveInstances(3)
	RecordFrameRelayed("recv")
	RecordFrameRelayed("send")
	RecordRelayError("send")
}
