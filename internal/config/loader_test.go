package config_test

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/justestif/go-voice-diary/internal/config"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.HTTP.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.HTTP.ShutdownTimeout, convey.ShouldEqual, 10*time.Second)
				convey.So(cfg.Diary.DailyRecordingLimit, convey.ShouldEqual, 5)
				convey.So(cfg.Diary.CalendarLimit, convey.ShouldEqual, 30)
				convey.So(cfg.Thresholds.Mid, convey.ShouldEqual, 4.0)
				convey.So(cfg.Thresholds.ValenceVeryLow, convey.ShouldEqual, 3.8)
				convey.So(cfg.OpenAI.ChatModel, convey.ShouldEqual, "gpt-4o-mini")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("VOICE_DIARY_HTTP__ADDR", ":9090")
			_ = os.Setenv("VOICE_DIARY_DATABASE__URL", "postgres://diary@localhost/diary")
			_ = os.Setenv("VOICE_DIARY_DIARY__DAILY_RECORDING_LIMIT", "7")
			_ = os.Setenv("VOICE_DIARY_REDIS__SUMMARY_TTL", "90s")
			_ = os.Setenv("VOICE_DIARY_STORAGE__USE_SSL", "false")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.HTTP.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Database.URL, convey.ShouldEqual, "postgres://diary@localhost/diary")
				convey.So(cfg.Diary.DailyRecordingLimit, convey.ShouldEqual, 7)
				convey.So(cfg.Redis.SummaryTTL, convey.ShouldEqual, 90*time.Second)
				convey.So(cfg.Storage.UseSSL, convey.ShouldBeFalse)
				convey.So(cfg.Diary.CalendarLimit, convey.ShouldEqual, 30)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
http:
  addr: ":7070"
  shutdown_timeout: 5s
thresholds:
  mid: 3.9
diary:
  time_zone: UTC
  calendar_limit: 14
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("VOICE_DIARY_CONFIG", tmpFile)
			_ = os.Setenv("VOICE_DIARY_DIARY__CALENDAR_LIMIT", "60")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.HTTP.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.HTTP.ShutdownTimeout, convey.ShouldEqual, 5*time.Second)
				convey.So(cfg.HTTP.ReadTimeout, convey.ShouldEqual, 15*time.Second)
				convey.So(cfg.Thresholds.Mid, convey.ShouldEqual, 3.9)
				convey.So(cfg.Thresholds.ArousalVeryHigh, convey.ShouldEqual, 4.3)
				convey.So(cfg.Diary.TimeZone, convey.ShouldEqual, "UTC")
				convey.So(cfg.Diary.CalendarLimit, convey.ShouldEqual, 60)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("VOICE_DIARY_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("VOICE_DIARY_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("VOICE_DIARY_HTTP__ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "http.addr must not be empty")
			})
		})

		convey.Convey("When thresholds are out of order", func() {
			_ = os.Setenv("VOICE_DIARY_THRESHOLDS__MID", "4.5")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should reject the configuration", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the time zone is unknown", func() {
			_ = os.Setenv("VOICE_DIARY_DIARY__TIME_ZONE", "Mars/Olympus_Mons")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should reject the configuration", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "voice-diary-config-*.yaml")
	if err != nil {
		panic(err)
	}
	defer func() { _ = tmpFile.Close() }()

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"VOICE_DIARY_CONFIG",
		"VOICE_DIARY_HTTP__ADDR",
		"VOICE_DIARY_DATABASE__URL",
		"VOICE_DIARY_DIARY__DAILY_RECORDING_LIMIT",
		"VOICE_DIARY_DIARY__CALENDAR_LIMIT",
		"VOICE_DIARY_DIARY__TIME_ZONE",
		"VOICE_DIARY_REDIS__SUMMARY_TTL",
		"VOICE_DIARY_STORAGE__USE_SSL",
		"VOICE_DIARY_THRESHOLDS__MID",
	} {
		_ = os.Unsetenv(key)
	}
}
