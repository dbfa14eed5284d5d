package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"PriceOracle/internal/bot"
	"PriceOracle/internal/config"
	"PriceOracle/internal/logging"
	"PriceOracle/internal/model"
	"PriceOracle/internal/pipeline"
)

type options struct {
	configPath string
	asJSON     bool
	lags       int
	days       int
	minRows    int
	model      string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "forecast <listing-url>",
		Short: "Forecast the daily price of a Steam Community Market item",
		Long: `Fetches the market listing page of an item, normalizes its sale history
into a daily series and prints a price forecast for the following days.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForecast(cmd, opts, args[0])
		},
	}

	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", defaultPath, "path to the YAML config")
	f.BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	f.IntVar(&opts.lags, "lags", 0, "number of lag features (overrides config)")
	f.IntVar(&opts.days, "days", 0, "number of days to forecast (overrides config)")
	f.IntVar(&opts.minRows, "min-rows", 0, "minimum training rows (overrides config)")
	f.StringVar(&opts.model, "model", "", "regressor: gbt, linear or forest (overrides config)")
	return cmd
}

func runForecast(cmd *cobra.Command, opts *options, link string) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if _, err := logging.SetupWriter(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, cmd.ErrOrStderr()); err != nil {
		return err
	}
	if cmd.Flags().Changed("lags") {
		cfg.Forecast.Lags = opts.lags
	}
	if cmd.Flags().Changed("days") {
		cfg.Forecast.Days = opts.days
	}
	if cmd.Flags().Changed("min-rows") {
		cfg.Forecast.MinTrainingRows = opts.minRows
	}
	if opts.model != "" {
		cfg.Forecast.Model = opts.model
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	p, err := pipeline.New(cfg.Pipeline())
	if err != nil {
		return err
	}
	defer p.Close()

	log.Debug().Str("url", link).Str("model", string(p.Config().Model)).Msg("running forecast")
	res, err := p.Run(cmd.Context(), link)
	if err != nil {
		return err
	}
	return printResult(cmd, res, opts.asJSON)
}

func printResult(cmd *cobra.Command, res *model.Result, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(out, "%s (%s)\n", res.Item.Name, res.Item.Type)
	fmt.Fprintf(out, "Sales: %d over %d days, last price %.2f %s\n",
		res.Summary.Sales, res.Summary.Days, res.Summary.LastPrice, bot.CurrencyLabel)
	for _, p := range res.Forecast {
		fmt.Fprintf(out, "%s - %s %s\n", p.Date.Format(model.ForecastDateLayout), p.Value.StringFixed(2), bot.CurrencyLabel)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
