package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/justestif/go-voice-diary/internal/emotion"
)

// counterValue sums every series of the named metric family.
func counterValue(reg *prometheus.Registry, name string) float64 {
	families, err := reg.Gather()
	if err != nil {
		return -1
	}
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			if c := m.GetCounter(); c != nil {
				total += c.GetValue()
			}
			if h := m.GetHistogram(); h != nil {
				total += float64(h.GetSampleCount())
			}
		}
	}
	return total
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager()

			Convey("Then it should own a registry", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Registry(), ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithRegistry(registry),
			)

			Convey("Then it should register on the given registry", func() {
				So(manager.Registry(), ShouldEqual, registry)
				manager.ObserveAggregation(true)
				So(counterValue(registry, "test_daily_aggregations_total"), ShouldEqual, 1)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a metrics manager", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithRegistry(registry))

		Convey("When recording domain events", func() {
			m.ObserveClassification(emotion.Happy)
			m.ObserveClassification(emotion.Sad)
			m.ObserveAssessment(emotion.Assess(emotion.VAD{Arousal: 4, Valence: 4, Dominance: 4}))
			m.ObserveAggregation(false)
			m.ObserveQuarantined(3)
			m.ObserveQuarantined(0)
			m.ObserveRecording("ok")

			Convey("Then counters should reflect them", func() {
				So(counterValue(registry, "voice_diary_classifications_total"), ShouldEqual, 2)
				So(counterValue(registry, "voice_diary_assessments_total"), ShouldEqual, 1)
				So(counterValue(registry, "voice_diary_daily_aggregations_total"), ShouldEqual, 1)
				So(counterValue(registry, "voice_diary_quarantined_labels_total"), ShouldEqual, 3)
				So(counterValue(registry, "voice_diary_recordings_total"), ShouldEqual, 1)
			})
		})

		Convey("When recording transport events", func() {
			m.ObserveHTTP("/api/classify", "POST", 200, 20*time.Millisecond)
			m.ObserveExternalCall("openai", "chat", time.Second, errors.New("boom"))
			m.ObserveCache(true)
			m.ObserveCache(false)

			Convey("Then counters should reflect them", func() {
				So(counterValue(registry, "voice_diary_http_requests_total"), ShouldEqual, 1)
				So(counterValue(registry, "voice_diary_http_request_duration_seconds"), ShouldEqual, 1)
				So(counterValue(registry, "voice_diary_external_calls_total"), ShouldEqual, 1)
				So(counterValue(registry, "voice_diary_cache_lookups_total"), ShouldEqual, 2)
			})
		})

		Convey("When scraping the handler", func() {
			m.ObserveClassification(emotion.Calm)
			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
			body, _ := io.ReadAll(rec.Body)

			Convey("Then the exposition should include the metric", func() {
				So(rec.Code, ShouldEqual, 200)
				So(string(body), ShouldContainSubstring, `voice_diary_classifications_total{emotion="calm"} 1`)
			})
		})
	})
}

func TestNilManager(t *testing.T) {
	Convey("Given a nil manager", t, func() {
		var m *Manager

		Convey("Then recording should be a no-op", func() {
			So(func() {
				m.ObserveClassification(emotion.Happy)
				m.ObserveAssessment(emotion.Assessment{})
				m.ObserveAggregation(true)
				m.ObserveQuarantined(1)
				m.ObserveRecording("ok")
				m.ObserveHTTP("/", "GET", 200, time.Millisecond)
				m.ObserveExternalCall("x", "y", time.Millisecond, nil)
				m.ObserveCache(true)
			}, ShouldNotPanic)
		})
	})
}
