package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/geospoof/geospoof/addon"
	"github.com/geospoof/geospoof/geo"
	"github.com/geospoof/geospoof/internal/helper"
	"github.com/geospoof/geospoof/internal/server"
	"github.com/geospoof/geospoof/log"
)

var rootCmd = &cobra.Command{
	Use:   "geospoof",
	Short: "Intercepting proxy that pins dating API geolocation",
	Long: `geospoof is a man-in-the-middle HTTP(S) proxy. JSON POST requests to the
dating API host that carry "lat" and "lon" members get both replaced with
fixed coordinates. All other traffic passes through untouched.

Install the generated CA certificate (see --cert-path) on the client device
and point its HTTP proxy at --addr.

Every flag can also be set in a config file (--config, yaml/json/toml) or
through GEOSPOOF_<FLAG> environment variables, e.g. GEOSPOOF_METRICS_ADDR.`,
	Example: `  geospoof
  geospoof --addr :8080 --lat 51.5072 --lon -0.1276
  geospoof --web-addr :9081 --metrics-addr :9090 --log-level debug`,
	SilenceUsage: true,
	RunE:         runRoot,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "Config file (yaml, json or toml)")

	flags := rootCmd.Flags()
	flags.String("addr", ":9080", "Proxy listen address")
	flags.String("web-addr", "", "Web interface listen address (disabled when empty)")
	flags.String("metrics-addr", "", "Prometheus metrics listen address (disabled when empty)")
	flags.Bool("ssl-insecure", false, "Do not verify upstream server TLS certificates")
	flags.String("cert-path", "", "Directory holding the root CA (default ~/.mitmproxy)")
	flags.String("upstream", "", "Upstream proxy URL")
	flags.Int("debug", 0, "Proxy engine debug level")
	flags.Int64("stream-large-bodies", 1024*1024*5, "Stream bodies larger than this many bytes")
	flags.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")
	flags.StringSlice("allow-hosts", helper.DefaultAllowHosts, "Only intercept TLS for these host patterns")
	flags.StringSlice("ignore-hosts", nil, "Never intercept TLS for these host patterns (ignored when --allow-hosts is set)")
	flags.Bool("log-flows", false, "Log every proxied flow")
	flags.String("host", geo.DefaultHost, "API host substring to rewrite requests for")
	flags.Float64("lat", geo.DefaultCoordinates.Lat, "Replacement latitude")
	flags.Float64("lon", geo.DefaultCoordinates.Lon, "Replacement longitude")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text, json)")

	for _, name := range []string{
		"addr", "web-addr", "metrics-addr", "ssl-insecure", "cert-path", "upstream",
		"debug", "stream-large-bodies", "shutdown-timeout", "allow-hosts", "ignore-hosts",
		"log-flows", "host", "lat", "lon", "log-level", "log-format",
	} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	viper.SetEnvPrefix("geospoof")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// config is the resolved set of settings for one run.
type config struct {
	server    server.Options
	host      string
	coords    geo.Coordinates
	logLevel  string
	logFormat string
}

func loadConfig(v *viper.Viper) (*config, error) {
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrReadConfig, err)
		}
	}

	cfg := &config{
		server: server.Options{
			Debug:             v.GetInt("debug"),
			Addr:              v.GetString("addr"),
			StreamLargeBodies: v.GetInt64("stream-large-bodies"),
			SslInsecure:       v.GetBool("ssl-insecure"),
			CaRootPath:        v.GetString("cert-path"),
			Upstream:          v.GetString("upstream"),
			ShutdownTimeout:   v.GetDuration("shutdown-timeout"),
			WebAddr:           v.GetString("web-addr"),
			MetricsAddr:       v.GetString("metrics-addr"),
			AllowHosts:        v.GetStringSlice("allow-hosts"),
			IgnoreHosts:       v.GetStringSlice("ignore-hosts"),
			LogFlows:          v.GetBool("log-flows"),
		},
		host:      strings.TrimSpace(v.GetString("host")),
		coords:    geo.Coordinates{Lat: v.GetFloat64("lat"), Lon: v.GetFloat64("lon")},
		logLevel:  v.GetString("log-level"),
		logFormat: v.GetString("log-format"),
	}

	if cfg.host == "" {
		return nil, ErrEmptyHost
	}
	if err := cfg.coords.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCoords, err)
	}
	return cfg, nil
}

func runRoot(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if err := log.Configure(cfg.logLevel, cfg.logFormat, os.Stderr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLogLevel, err)
	}

	rewriter := geo.NewRewriter(
		geo.WithHost(cfg.host),
		geo.WithCoordinates(cfg.coords),
		geo.WithMaxBodySize(cfg.server.StreamLargeBodies),
	)
	s, err := server.New(&cfg.server, addon.NewGeoSpoof(rewriter, log.DefaultLogger))
	if err != nil {
		return err
	}
	log.Infof("Rewriting %s geolocation to %s", rewriter.Host(), rewriter.Coordinates())
	return s.Start()
}
