// Command prognose is a minimal driver for the prognostics runtime: it
// reads a CSV of (time, power, temperature, voltage) readings, publishes
// them to a message bus as a Battery model's input (power) and outputs
// (voltage, temperature), and prints each
// battery End-of-Discharge prediction as it arrives. Grounded on
// original_source/examples/async/main.cpp's PredictionPrinter /
// read_file example, restructured around flag-based configuration and
// the teacher's net/http-served Prometheus handler instead of the
// original's hand-rolled CSV sleep loop.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/cuemby/prognose/internal/bus"
	"github.com/cuemby/prognose/internal/config"
	"github.com/cuemby/prognose/internal/log"
	"github.com/cuemby/prognose/internal/message"
	"github.com/cuemby/prognose/internal/metrics"
	"github.com/cuemby/prognose/internal/prognoser"
)

var (
	dataPath   = flag.String("data", "data_const_load.csv", "CSV file of time,power,temperature,voltage readings")
	configPath = flag.String("config", "", "ConfigMap file to load (optional)")
	source     = flag.String("source", "sensor", "source identifier for the monitored unit")
	metricsAddr = flag.String("metrics-addr", "", "address to serve Prometheus metrics on (empty disables)")
	batch      = flag.Bool("batch", false, "publish one Prediction message per step instead of one per event")
)

type reading struct {
	t           float64
	power       float64
	temperature float64
	voltage     float64
}

func main() {
	flag.Parse()
	log.Init(log.Config{Level: log.InfoLevel})

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Logger.Error().Err(err).Msg("metrics server exited")
			}
		}()
	}

	readings, err := readCSV(*dataPath)
	if err != nil {
		log.Logger.Fatal().Err(err).Str("path", *dataPath).Msg("failed to read data file")
	}

	cfg := config.New(nil)
	if *configPath != "" {
		if err := cfg.LoadFile(*configPath); err != nil {
			log.Logger.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
		}
	}
	if !cfg.Has("model") {
		cfg.Set("model", "Battery")
	}
	if !cfg.Has("observer") {
		cfg.Set("observer", "UKF")
	}
	if !cfg.Has("predictor") {
		cfg.Set("predictor", "MonteCarlo")
	}
	if !cfg.Has("LoadEstimator") {
		cfg.Set("LoadEstimator", "Const")
	}
	if !cfg.Has("LoadEstimator.Loading") {
		cfg.Set("LoadEstimator.Loading", "8.0")
	}
	if !cfg.Has("Observer.Q") {
		cfg.Set("Observer.Q", zeros(64)...)
	}
	if !cfg.Has("Observer.R") {
		cfg.Set("Observer.R", zeros(4)...)
	}
	if !cfg.Has("Predictor.SampleCount") {
		cfg.Set("Predictor.SampleCount", "100")
	}
	if !cfg.Has("Predictor.Horizon") {
		cfg.Set("Predictor.Horizon", "100000")
	}
	if !cfg.Has("Model.ProcessNoise") {
		cfg.Set("Model.ProcessNoise", zeros(8)...)
	}

	b := bus.New(bus.Deferred)
	defer b.Close()

	printer := &predictionPrinter{}
	b.Subscribe(printer, *source, message.BatteryEodID, printer.onPrediction)

	builder := prognoser.NewBuilder(prognoser.NewDefaultRegistry())
	prog, err := builder.Build(b, cfg, *source, *batch)
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("failed to build prognoser")
	}
	defer prog.Close()

	for _, r := range readings {
		ts := message.FromSeconds(r.t)
		b.Publish(message.New(message.WattsID, *source, ts, r.power))
		b.Publish(message.New(message.CentigradeID, *source, ts, r.temperature))
		b.Publish(message.New(message.VoltsID, *source, ts, r.voltage))
		b.WaitAll()
	}
}

// predictionPrinter subscribes to BatteryEod predictions and prints the
// median time-of-event from each one's samples-variant UData, mirroring
// the original example's PredictionPrinter.
type predictionPrinter struct{}

func (p *predictionPrinter) onPrediction(m *message.Message) {
	ev, ok := m.Payload.(message.ProgEvent)
	if !ok {
		log.Logger.Error().Msg("prediction message payload was not a ProgEvent")
		return
	}
	samples, err := ev.ToE.Samples()
	if err != nil {
		fmt.Printf("predicted EoD: %.1f s\n", ev.ToE.Get())
		return
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	median := sorted[len(sorted)/2]
	fmt.Printf("predicted median EoD: %.1f s (T- %.1f s)\n", median, median-m.Timestamp.Seconds())
}

func readCSV(path string) ([]reading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []reading
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if first {
			first = false
			continue // header
		}
		fields := strings.Split(line, ",")
		if len(fields) < 4 {
			continue
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			return nil, err
		}
		power, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, err
		}
		temperature, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			return nil, err
		}
		voltage, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, reading{t: t, power: power, temperature: temperature, voltage: voltage})
	}
	return out, scanner.Err()
}

func zeros(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "0"
	}
	return out
}
