package cmd

import (
	"context"
	"errors"
	"fmt"
	u "net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanq16/leccap/internal/archive"
	"github.com/tanq16/leccap/internal/catalog"
	"github.com/tanq16/leccap/internal/config"
	"github.com/tanq16/leccap/internal/flow"
	"github.com/tanq16/leccap/internal/navigator"
	"github.com/tanq16/leccap/internal/output"
	"github.com/tanq16/leccap/internal/utils"
)

var (
	threaded    bool
	courseUID   string
	outputDir   string
	chromePath  string
	firefoxPath string
	backendKind string
	workers     int
	navTimeout  time.Duration
	strict      bool
	year        int
	headless    bool
	user        string
	cookie      string
	token       string
	userAgent   string
	proxyURL    string
	s3Mirror    string
	awsProfile  string
	configPath  string
	debug       bool
	headers     []string
)

var LeccapVersion = "dev"

var rootCmd = &cobra.Command{
	Use:          "leccap",
	Short:        "Download lecture recordings from a lecture capture catalog",
	Version:      LeccapVersion,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		utils.InitLogger(debug)
		cfg, err := loadConfig(cmd)
		if err != nil {
			output.FprintError(os.Stderr, err.Error())
			os.Exit(1)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		batch, err := run(ctx, cfg)
		if err != nil {
			stop()
			output.FprintError(os.Stderr, describe(err))
			os.Exit(1)
		}
		if !batch.OK() {
			stop()
			output.FprintError(os.Stderr, "Encountered failed operation(s)")
			os.Exit(1)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaults := config.Default()
	rootCmd.Flags().BoolVarP(&threaded, "threaded", "t", false, "Download selected recordings concurrently")
	rootCmd.Flags().StringVarP(&courseUID, "course-uid", "i", "", "Course identifier (skips year navigation)")
	rootCmd.Flags().StringVarP(&outputDir, "output-directory", "o", defaults.OutputDirectory, "Directory to write recordings into")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Maximum concurrent downloads with --threaded (0 means no limit)")
	rootCmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers for media downloads; can be specified multiple times")

	// flags without shorthand
	rootCmd.Flags().StringVar(&chromePath, "chrome-path", "", "Path to a Chrome/Chromium executable")
	rootCmd.Flags().StringVar(&firefoxPath, "firefox-path", "", "Path to a Firefox executable")
	rootCmd.Flags().StringVar(&backendKind, "backend", defaults.Backend, "Page backend: auto, playwright, rod or http")
	rootCmd.Flags().DurationVar(&navTimeout, "nav-timeout", defaults.NavTimeout, "Page navigation timeout (eg. 30s, 2m)")
	rootCmd.Flags().BoolVar(&strict, "strict", false, "Abort when any selected recording has no playable media")
	rootCmd.Flags().IntVar(&year, "year", 0, "Year to start browsing from (default current year)")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "Run the browser without a window")
	rootCmd.Flags().StringVar(&user, "user", "", "Login username (prompted if empty)")
	rootCmd.Flags().StringVar(&cookie, "cookie", "", "Existing session cookie header; skips the login form")
	rootCmd.Flags().StringVar(&token, "token", "", "Bearer token for the catalog; skips the login form")
	rootCmd.Flags().StringVar(&userAgent, "user-agent", utils.ToolUserAgent, "User agent for media downloads")
	rootCmd.Flags().StringVar(&proxyURL, "proxy", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")
	rootCmd.Flags().StringVar(&s3Mirror, "s3-mirror", "", "Mirror completed files to s3://bucket/prefix")
	rootCmd.Flags().StringVar(&awsProfile, "aws-profile", defaults.AWSProfile, "AWS shared config profile for --s3-mirror")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config (default $HOME/.config/leccap/config.yaml)")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

// loadConfig layers explicitly set flags over the config file.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, required := configPath, true
	if path == "" {
		path, required = config.DefaultPath(), false
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("threaded") {
		cfg.Threaded = threaded
	}
	if flags.Changed("output-directory") {
		cfg.OutputDirectory = outputDir
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("chrome-path") {
		cfg.ChromePath = chromePath
	}
	if flags.Changed("firefox-path") {
		cfg.FirefoxPath = firefoxPath
	}
	if flags.Changed("backend") {
		cfg.Backend = backendKind
	}
	if flags.Changed("nav-timeout") {
		cfg.NavTimeout = navTimeout
	}
	if flags.Changed("strict") {
		cfg.Strict = strict
	}
	if flags.Changed("headless") {
		cfg.Headless = &headless
	}
	if flags.Changed("user") {
		cfg.User = user
	}
	if flags.Changed("cookie") {
		cfg.Cookie = cookie
	}
	if flags.Changed("token") {
		cfg.Token = token
	}
	if flags.Changed("user-agent") || cfg.UserAgent == "" {
		cfg.UserAgent = userAgent
	}
	if flags.Changed("proxy") {
		cfg.Proxy = proxyURL
	}
	if flags.Changed("s3-mirror") {
		cfg.S3Mirror = s3Mirror
	}
	if flags.Changed("aws-profile") {
		cfg.AWSProfile = awsProfile
	}
	return cfg, nil
}

func httpConfig(cfg config.Config) utils.HTTPClientConfig {
	hc := utils.HTTPClientConfig{
		Timeout:   0,
		KATimeout: 90 * time.Second,
		ProxyURL:  cfg.Proxy,
		UserAgent: cfg.UserAgent,
		Headers:   utils.ParseHeaderArgs(headers),
	}
	// Check if proxy URL contains auth
	parsedProxy, err := u.Parse(cfg.Proxy)
	if err == nil && parsedProxy.User != nil {
		hc.ProxyUsername = parsedProxy.User.Username()
		if password, set := parsedProxy.User.Password(); set {
			hc.ProxyPassword = password
		}
		parsedProxy.User = nil
		hc.ProxyURL = parsedProxy.String()
	}
	return hc
}

func run(ctx context.Context, cfg config.Config) (utils.BatchResult, error) {
	hc := httpConfig(cfg)
	opts := catalog.Options{
		Endpoints:   catalog.Endpoints{LoginURL: cfg.LoginURL, CatalogURL: cfg.CatalogURL},
		NavTimeout:  cfg.NavTimeout,
		Headless:    cfg.IsHeadless(),
		ChromePath:  cfg.ChromePath,
		FirefoxPath: cfg.FirefoxPath,
		Cookie:      cfg.Cookie,
		Token:       cfg.Token,
		HTTPConfig:  hc,
	}
	lines := navigator.NewLinePrompter(os.Stdin, os.Stdout)

	var creds *utils.Credentials
	if cfg.Cookie == "" && cfg.Token == "" {
		c, err := askCredentials(cfg.User, lines)
		if err != nil {
			return utils.BatchResult{}, err
		}
		creds = &c
	}

	candidates, err := catalog.Candidates(cfg.Backend, opts)
	if err != nil {
		return utils.BatchResult{}, err
	}
	backend, err := catalog.OpenFirst(ctx, candidates)
	if err != nil {
		return utils.BatchResult{}, err
	}
	defer backend.Close()
	log.Info().Str("op", "cmd/root").Msgf("using %s backend", backend.Name())

	session := &flow.Session{
		Provider: backend,
		Auth:     backend,
		Prompter: lines,
		Client:   utils.NewLeccapHTTPClient(hc),
		Out:      os.Stdout,
	}
	if cfg.S3Mirror != "" {
		mirror, err := archive.NewS3Mirror(ctx, cfg.S3Mirror, cfg.AWSProfile)
		if err != nil {
			log.Warn().Str("op", "cmd/root").Err(err).Msg("S3 mirror disabled")
		} else {
			session.Mirror = mirror
		}
	}
	return session.Run(ctx, flow.Options{
		CourseID:    courseUID,
		Year:        year,
		OutputDir:   cfg.OutputDirectory,
		Extension:   cfg.Extension,
		Concurrent:  cfg.Threaded,
		Workers:     cfg.Workers,
		Strict:      cfg.Strict,
		Credentials: creds,
	})
}

// describe turns the sentinel errors into the one-line diagnostics shown
// on stderr.
func describe(err error) string {
	switch {
	case errors.Is(err, utils.ErrBackendInit):
		return "Could not start any browser backend (install Chrome or Firefox, or pass --chrome-path/--firefox-path): " + err.Error()
	case errors.Is(err, utils.ErrNoInput):
		return "Input closed before a selection was made"
	case errors.Is(err, context.Canceled):
		return "Interrupted"
	case errors.Is(err, utils.ErrNavigationTimeout):
		return "Timed out waiting for the catalog: " + err.Error()
	}
	return err.Error()
}
