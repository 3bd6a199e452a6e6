package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/go-viper/mapstructure/v2"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/eringen/pubsite"
	"github.com/eringen/pubsite/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pubsite",
	Short: "A Markdown blog that builds to static HTML or serves itself",
	Long: `pubsite reads Markdown and MDX posts from content/posts and either
pre-renders them into a static site (mode: static) or serves them with
server-side rendering and on-demand image optimization (mode: server).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("✗ "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "config file (default is ./site.yaml)")
	f.String("mode", "", "static or server")
	f.String("out", "", "static export directory")
	f.String("addr", "", "listen address for serve")
	f.String("log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(buildCmd, serveCmd, routesCmd, previewCmd, newCmd, versionCmd)
}

// configKeys lists every SiteConfig key so environment variables can
// supply values that no config file mentions.
var configKeys = []string{
	"name", "url", "description", "author", "footer_text",
	"mode", "content_dir", "public_dir", "out_dir", "addr",
	"images.widths", "images.quality", "images.minimum_cache_ttl", "images.cache_path",
	"highlight_style", "post_cache_ttl", "concurrency", "log_level",
	"analytics_enabled", "analytics_database_path", "analytics_retention",
	"admin_password", "session_secret", "cookie_secure",
}

// legacyEnv maps the environment names older deployments used.
var legacyEnv = map[string]string{
	"name":        "BLOG_NAME",
	"footer_text": "BLOG_FOOTER_TEXT",
}

// loadConfig merges, lowest first: built-in defaults, site.yaml, .env and
// the process environment, then command-line flags.
func loadConfig(cmd *cobra.Command) (pubsite.SiteConfig, error) {
	var cfg pubsite.SiteConfig

	if err := gotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("site")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(xdg.ConfigHome, "pubsite"))
	}

	v.SetEnvPrefix("PUBSITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range configKeys {
		envs := []string{key, "PUBSITE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
		if legacy, ok := legacyEnv[key]; ok {
			envs = append(envs, legacy)
		}
		if err := v.BindEnv(envs...); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Root().PersistentFlags()
	for key, flag := range map[string]string{
		"mode":      "mode",
		"out_dir":   "out",
		"addr":      "addr",
		"log_level": "log-level",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return cfg, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		stringToIntSliceHook,
	))); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}

	if !v.IsSet("mode") && os.Getenv("ENV") == string(pubsite.ModeStatic) {
		cfg.Mode = pubsite.ModeStatic
	}
	return cfg, nil
}

// stringToIntSliceHook decodes "640, 1080" as found in environment
// variables into image widths.
func stringToIntSliceHook(f, t reflect.Type, data any) (any, error) {
	if f.Kind() != reflect.String || t != reflect.TypeOf([]int(nil)) {
		return data, nil
	}
	raw := strings.TrimSpace(data.(string))
	if raw == "" {
		return []int{}, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q in list", p)
		}
		out = append(out, n)
	}
	return out, nil
}

// newLogger writes colored output to terminals and JSON lines otherwise.
func newLogger(cfg pubsite.SiteConfig) *logger.Logger {
	l := logger.Parse(os.Stderr, cfg.LogLevel)
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		l.SetFormatter(log.JSONFormatter)
	}
	return l
}

// newApp loads the configuration and builds the App.
func newApp(cmd *cobra.Command) (*pubsite.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return pubsite.New(cfg, pubsite.WithLogger(newLogger(cfg))), nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pubsite version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pubsite %s\n", version)
	},
}
