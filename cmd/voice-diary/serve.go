package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/justestif/go-voice-diary/internal/analyzer"
	"github.com/justestif/go-voice-diary/internal/cache"
	"github.com/justestif/go-voice-diary/internal/config"
	"github.com/justestif/go-voice-diary/internal/db"
	"github.com/justestif/go-voice-diary/internal/diary"
	"github.com/justestif/go-voice-diary/internal/emotion"
	"github.com/justestif/go-voice-diary/internal/metrics"
	"github.com/justestif/go-voice-diary/internal/mood"
	"github.com/justestif/go-voice-diary/internal/openai"
	"github.com/justestif/go-voice-diary/internal/storage"
	"github.com/justestif/go-voice-diary/internal/web"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	database, err := db.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer database.Close()

	if cfg.Database.MigrateOnStart {
		applied, err := database.Migrate(ctx)
		if err != nil {
			return err
		}
		logger.WithField("applied", applied).Info("migrations complete")
	}

	classifier := emotion.NewClassifier(cfg.Thresholds.Emotion())
	m := metrics.NewManager()
	checks := map[string]func(context.Context) error{"database": database.Ping}

	opts := []diary.Option{
		diary.WithLogger(logger),
		diary.WithMetrics(m),
		diary.WithClassifier(classifier),
		diary.WithLocation(loc),
		diary.WithDailyLimit(cfg.Diary.DailyRecordingLimit),
		diary.WithCalendarLimit(cfg.Diary.CalendarLimit),
		diary.WithConcurrency(cfg.Diary.RefreshConcurrency),
		diary.WithMoodConfig(mood.Config{
			NumClusters:    cfg.Diary.MoodClusters,
			MinClusterSize: cfg.Diary.MoodMinClusterSize,
			Classifier:     classifier,
		}),
	}

	backends, err := buildBackends(ctx, cfg, logger, checks)
	if err != nil {
		return err
	}
	defer backends.close()
	opts = append(opts, backends.options...)

	svc := diary.New(diary.StoresFromDB(database), opts...)

	server, err := web.NewServer(web.ServerConfig{
		Addr:            cfg.HTTP.Addr,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		IdleTimeout:     cfg.HTTP.IdleTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		MaxUploadBytes:  cfg.HTTP.MaxUploadBytes,
	}, web.Deps{
		Diary:      svc,
		Classifier: classifier,
		Metrics:    m,
		Logger:     logger,
		Checks:     checks,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run(ctx)
}

type backends struct {
	options []diary.Option
	closers []func() error
}

func (b *backends) close() {
	for _, c := range b.closers {
		_ = c()
	}
}

// buildBackends wires the optional collaborators. Unconfigured ones are
// skipped so the API still serves classification and stored data.
func buildBackends(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger, checks map[string]func(context.Context) error) (*backends, error) {
	b := &backends{}

	if cfg.OpenAI.APIKey != "" {
		client, err := openai.New(openai.Config{
			APIKey:             cfg.OpenAI.APIKey,
			BaseURL:            cfg.OpenAI.BaseURL,
			ChatModel:          cfg.OpenAI.ChatModel,
			TranscriptionModel: cfg.OpenAI.TranscriptionModel,
			Language:           cfg.OpenAI.Language,
			Timeout:            cfg.OpenAI.Timeout,
		})
		if err != nil {
			return nil, err
		}
		b.options = append(b.options, diary.WithTranscriber(client), diary.WithChatModel(client))
	} else {
		logger.Warn("openai.api_key not set: recordings, chat and summaries are disabled")
	}

	if cfg.Analyzer.URL != "" {
		client, err := analyzer.New(analyzer.Config{URL: cfg.Analyzer.URL, Timeout: cfg.Analyzer.Timeout})
		if err != nil {
			return nil, err
		}
		b.options = append(b.options, diary.WithAnalyzer(client))
	} else {
		logger.Warn("analyzer.url not set: recordings will not be analysed")
	}

	if cfg.Storage.Endpoint != "" {
		store, err := storage.New(storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		b.options = append(b.options, diary.WithAudioStore(store))
		checks["storage"] = store.EnsureBucket
	}

	if cfg.Redis.URL != "" {
		c, err := cache.New(ctx, cfg.Redis.URL, cfg.Redis.KeyPrefix, cfg.Redis.SummaryTTL)
		if err != nil {
			return nil, err
		}
		b.options = append(b.options, diary.WithCache(c))
		b.closers = append(b.closers, c.Close)
		checks["redis"] = c.Ping
	}

	return b, nil
}
