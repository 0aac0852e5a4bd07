package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

// valueOf gathers reg and returns the value of the named series whose labels
// include every pair in labels.
func valueOf(reg *prometheus.Registry, name string, labels map[string]string) float64 {
	families, err := reg.Gather()
	if err != nil {
		return -1
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	series:
		for _, metric := range f.GetMetric() {
			have := map[string]string{}
			for _, lp := range metric.GetLabel() {
				have[lp.GetName()] = lp.GetValue()
			}
			for k, v := range labels {
				if have[k] != v {
					continue series
				}
			}
			switch {
			case metric.GetCounter() != nil:
				return metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				return metric.GetGauge().GetValue()
			}
		}
	}
	return 0
}

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then metrics register on the given registry", func() {
				So(m, ShouldNotBeNil)
				m.RecordSearch("stalled", 2, 4, 12)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestManagerRecording(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		reg := prometheus.NewRegistry()
		m := NewManager(WithPrometheusRegistry(reg))

		Convey("When recording domain events", func() {
			m.RecordChatTurn("CONFIRM")
			m.RecordChatTurn("CONFIRM")
			m.RecordSearch("target_reached", 1, 10, 35)
			m.RecordMetricFetch("online", "degraded")
			m.RecordRateLimitRejection("search")
			m.UpdateSnapshotRepos(42)

			Convey("Then the counters and gauges reflect them", func() {
				So(valueOf(reg, "openramp_matcher_chat_turns_total", map[string]string{"action": "CONFIRM"}), ShouldEqual, 2)
				So(valueOf(reg, "openramp_matcher_searches_total", map[string]string{"stop_reason": "target_reached"}), ShouldEqual, 1)
				So(valueOf(reg, "openramp_matcher_metric_fetches_total", map[string]string{"source": "online", "outcome": "degraded"}), ShouldEqual, 1)
				So(valueOf(reg, "openramp_matcher_rate_limit_rejections_total", map[string]string{"capability": "search"}), ShouldEqual, 1)
				So(valueOf(reg, "openramp_matcher_snapshot_repositories", nil), ShouldEqual, 42)
			})
		})

		Convey("When metrics are disabled", func() {
			offReg := prometheus.NewRegistry()
			off := NewManager(WithPrometheusRegistry(offReg), WithMetricsEnabled(false))
			off.RecordChatTurn("NONE")
			So(valueOf(offReg, "openramp_matcher_chat_turns_total", map[string]string{"action": "NONE"}), ShouldEqual, 0)
		})
	})

	Convey("Given the global helpers", t, func() {
		So(func() {
			RecordChatTurn("NONE")
			UpdateActiveSessions(3)
			RecordSearch("stalled", 2, 4, 10)
			RecordMetricFetch("offline", "ok")
			RecordMetricFetchLatency(5)
			UpdateSnapshotRepos(1)
			RecordRateLimitRejection("metrics")
			RecordHTTPRequest("/search", "POST", "200", 12)
			RecordHTTPError("/search", "POST", "client_error", "medium")
			UpdateSystem(1024, 10)
		}, ShouldNotPanic)
		So(GetRegistry(), ShouldNotBeNil)
	})
}
