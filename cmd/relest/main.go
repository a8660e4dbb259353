package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"relest/internal/cfg"
	"relest/internal/dataset"
	"relest/internal/estimate"
	"relest/internal/learner"
	"relest/internal/metrics"
	"relest/internal/report"
)

func main() {
	_ = godotenv.Load()
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Warn().Msg("shutdown requested")
		cancel()
	}()

	m := metrics.New()
	if c.MetricsPort > 0 {
		go func() {
			addr := fmt.Sprintf(":%d", c.MetricsPort)
			log.Info().Str("addr", addr).Msg("metrics endpoint up")
			if err := http.ListenAndServe(addr, promhttp.Handler()); err != nil {
				log.Error().Err(err).Msg("metrics endpoint failed")
			}
		}()
	}

	if err := run(ctx, c, m); err != nil {
		log.Fatal().Err(err).Msg("evaluation failed")
	}
}

func run(ctx context.Context, c cfg.Settings, m *metrics.Metrics) error {
	ds, err := dataset.LoadCSV(c.DatasetPath, c.LabelColumn)
	if err != nil {
		return err
	}
	m.DatasetExamples.Set(float64(ds.Len()))
	log.Info().
		Str("dataset", c.DatasetPath).
		Int("examples", ds.Len()).
		Int("features", ds.Dim()).
		Int("folds", c.Folds).
		Msg("starting reliability evaluation")

	base := learner.NewKNN(c.KNNNeighbors)

	rng := rand.New(rand.NewSource(c.Seed))
	folds, err := estimate.CrossValidateWithMetrics(ctx, ds, base, c.Estimation, c.Folds, rng, m)
	if err != nil {
		return err
	}

	corrs, err := estimate.DiagnoseByFolds(folds)
	if err != nil {
		return err
	}
	rep := report.FromCorrelations(c.DatasetPath, c.Folds, c.Seed, corrs)

	if c.Estimation.ICV {
		selected, err := estimate.SelectMethod(ctx, ds, base, c.Estimation)
		if err != nil {
			return err
		}
		m.ICVSelectionSet(selected)
		id := int(selected)
		rep.Selected = &id
		log.Info().Str("method", selected.String()).Msg("internal cross-validation selection")
	}

	fmt.Print(rep.Table())

	if c.DataPath != "" {
		store, err := report.NewStore(c.DataPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Save(rep); err != nil {
			return err
		}
		log.Info().Str("path", c.DataPath).Msg("report persisted")
	}
	return nil
}
