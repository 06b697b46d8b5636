// Command goicc runs the intraday futures trading engine: historical
// backtests from CSV data, or a replayed live-style session with the web
// dashboard attached.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/evdnx/goicc/alert"
	"github.com/evdnx/goicc/backtest"
	"github.com/evdnx/goicc/broker"
	"github.com/evdnx/goicc/config"
	"github.com/evdnx/goicc/event"
	"github.com/evdnx/goicc/logger"
	"github.com/evdnx/goicc/market"
	"github.com/evdnx/goicc/oms"
	"github.com/evdnx/goicc/session"
	"github.com/evdnx/goicc/store"
	"github.com/evdnx/goicc/trader"
	"github.com/evdnx/goicc/web"
)

var version = "dev"

var (
	configPath string
	csvPath    string
	symbol     string
)

func main() {
	root := &cobra.Command{
		Use:   "goicc",
		Short: "Intraday micro-futures trading engine",
		PersistentPreRun: func(*cobra.Command, []string) {
			// Optional .env, loaded into the process environment. The
			// configuration itself comes only from the YAML file.
			_ = godotenv.Load()
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")

	backtestCmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay a CSV candle file through the engine and print the report",
		RunE:  runBacktest,
	}
	backtestCmd.Flags().StringVar(&csvPath, "csv", "", "candle CSV file (timestamp,open,high,low,close,volume)")
	backtestCmd.Flags().StringVar(&symbol, "symbol", "MES", "instrument symbol")
	_ = backtestCmd.MarkFlagRequired("csv")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Run a CSV file as a live-style session with dashboard and sinks",
		RunE:  runReplay,
	}
	replayCmd.Flags().StringVar(&csvPath, "csv", "", "candle CSV file")
	replayCmd.Flags().StringVar(&symbol, "symbol", "MES", "instrument symbol")
	_ = replayCmd.MarkFlagRequired("csv")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(*cobra.Command, []string) {
			fmt.Println("goicc", version)
		},
	}

	root.AddCommand(backtestCmd, replayCmd, versionCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadAll() (config.Config, logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}
	log, err := logger.NewWithLevel(cfg.LogLevel)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

func runBacktest(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadAll()
	if err != nil {
		return err
	}
	candles, err := market.LoadCSV(csvPath, symbol)
	if err != nil {
		return err
	}
	eng := backtest.NewEngine(cfg, candles, log)
	result, err := eng.Run()
	if err != nil {
		return err
	}
	for k, v := range result.Summary() {
		fmt.Printf("%-14s %v\n", k, v)
	}
	return nil
}

func runReplay(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadAll()
	if err != nil {
		return err
	}
	candles, err := market.LoadCSV(csvPath, symbol)
	if err != nil {
		return err
	}

	sim := broker.NewBacktestBroker(cfg.Risk.SlippageTicks, cfg.Instrument.TickSize, cfg.Risk.CommissionPerSide)
	sim.Connect()
	defer sim.Disconnect()

	bus := event.NewBus(event.DefaultCapacity, log)
	manager := oms.NewManager(sim, log)

	router := alert.NewRouter(log)
	router.AddChannel(alert.NewBusChannel(bus))
	if cfg.Alerts.ConsoleEnabled {
		router.AddChannel(alert.NewConsoleChannel(log))
	}
	if cfg.Alerts.EmailEnabled {
		router.AddChannel(alert.NewEmailChannel(cfg.Alerts, log))
	}
	if cfg.Alerts.WebhookURL != "" {
		router.AddChannel(alert.NewWebhookChannel(cfg.Alerts.WebhookURL, log))
	}

	tr, err := trader.New(cfg, manager, log,
		trader.WithEventBus(bus),
		trader.WithAlertRouter(router),
	)
	if err != nil {
		return err
	}

	sink, err := store.Open(cfg.DBPath, log)
	if err != nil {
		return err
	}

	sess := session.New(tr, market.NewReplayFeed(candles), bus, log).WithSink(sink)

	var srv *web.Server
	if cfg.Web.Enabled {
		srv = web.NewServer(cfg.Web.Addr, tr.Snapshot, log)
		srv.Start()
		defer srv.Stop()
		sess.WithEventHandler(srv.Broadcast)
	}

	if err := sess.Start(); err != nil {
		return err
	}
	sess.Wait()
	sess.Stop()

	state := tr.Risk().State()
	fmt.Printf("session %s done: trades=%d daily_pnl=%.2f\n",
		sess.ID(), tr.TradeCount(), state.DailyPnL)
	return nil
}
