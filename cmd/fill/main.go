package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/applyforge/applyforge/internal/browser"
	"github.com/applyforge/applyforge/internal/config"
	"github.com/applyforge/applyforge/internal/domain"
	"github.com/applyforge/applyforge/internal/escalation"
	"github.com/applyforge/applyforge/internal/fill"
)

var (
	green  = color.New(color.FgGreen, color.Bold)
	red    = color.New(color.FgRed, color.Bold)
	yellow = color.New(color.FgYellow, color.Bold)
	cyan   = color.New(color.FgCyan, color.Bold)
	bold   = color.New(color.Bold)
	dim    = color.New(color.Faint)
)

func main() {
	godotenv.Load()

	targetURL := flag.String("url", "", "Application page URL")
	profilePath := flag.String("profile", "profile.json", "Candidate profile JSON file")
	site := flag.String("site", "", "Site profile (greenhouse, lever, generic; default from config)")
	overridesPath := flag.String("answers", "", "Pre-resolved answers JSON file (from -questions output)")
	questionsOnly := flag.Bool("questions", false, "Collect AI questions without filling")
	headless := flag.Bool("headless", true, "Run the browser headless")
	verbose := flag.Bool("verbose", false, "Verbose output")

	flag.Parse()

	if *targetURL == "" {
		red.Println("✗ -url is required")
		flag.Usage()
		os.Exit(1)
	}

	var logger *zap.Logger
	if *verbose {
		logger, _ = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.OutputPaths = []string{"/dev/null"}
		logger, _ = cfg.Build()
	}
	defer logger.Sync()

	cfg, err := config.LoadWithDefaults()
	if err != nil {
		red.Printf("✗ Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.Browser.Headless = *headless

	profile, err := loadProfile(*profilePath)
	if err != nil {
		red.Printf("✗ Failed to load profile: %v\n", err)
		os.Exit(1)
	}

	opts := fill.Options{Site: *site}
	if opts.Site == "" {
		opts.Site = cfg.Fill.Site
	}
	if *overridesPath != "" {
		overrides, err := loadOverrides(*overridesPath)
		if err != nil {
			red.Printf("✗ Failed to load answers: %v\n", err)
			os.Exit(1)
		}
		opts.AnswerOverrides = overrides
	}

	cyan.Println("ApplyForge")
	fmt.Printf("→ Target:  %s\n", *targetURL)
	fmt.Printf("→ Profile: %s (%s)\n", *profilePath, profile.FullName())
	fmt.Printf("→ Site:    %s\n", opts.Site)
	fmt.Println()

	escRouter := buildEscalation(cfg, logger)
	if escRouter == nil && !*questionsOnly {
		yellow.Println("⚠ ANTHROPIC_API_KEY not set; custom questions will go unanswered")
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("   Opening page..."),
		progressbar.OptionSpinnerType(14),
	)
	done := make(chan bool)
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				bar.Add(1)
				time.Sleep(100 * time.Millisecond)
			}
		}
	}()

	runner, err := browser.NewRunner(cfg.Browser, logger)
	if err != nil {
		close(done)
		bar.Finish()
		red.Printf("✗ Failed to launch browser: %v\n", err)
		os.Exit(1)
	}
	defer runner.Close()

	page, cleanup, err := runner.OpenPage(*targetURL)
	if err != nil {
		close(done)
		bar.Finish()
		red.Printf("✗ Failed to open page: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	session, err := fill.NewSession(page, profile, escRouter, nil, nil, logger, opts)
	if err != nil {
		close(done)
		bar.Finish()
		red.Printf("✗ %v\n", err)
		os.Exit(1)
	}

	bar.Describe("   Working...")

	ctx := context.Background()
	start := time.Now()

	if *questionsOnly {
		questions, err := session.CollectQuestions(ctx)
		close(done)
		bar.Finish()
		printQuestions(questions, err)
		return
	}

	result := session.Run(ctx)
	close(done)
	bar.Finish()

	fmt.Println()
	printResult(result, time.Since(start))

	if result.Kind == domain.PassError {
		os.Exit(1)
	}
}

func loadProfile(path string) (*domain.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var profile domain.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &profile, nil
}

func loadOverrides(path string) ([]domain.AIAnswer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var answers []domain.AIAnswer
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return answers, nil
}

// buildEscalation wires the answering model and, when configured, the
// cross-run answer cache. Either is optional.
func buildEscalation(cfg *config.Config, logger *zap.Logger) *escalation.Router {
	if cfg.Claude.APIKey == "" {
		return nil
	}

	clientCfg := escalation.DefaultClientConfig()
	clientCfg.APIKey = cfg.Claude.APIKey
	clientCfg.Model = cfg.Claude.Model
	clientCfg.Timeout = cfg.Claude.Timeout
	clientCfg.RateLimitRPM = cfg.Claude.RateLimitRPM
	clientCfg.MaxRetries = cfg.Claude.MaxRetries

	client, err := escalation.NewClient(clientCfg)
	if err != nil {
		yellow.Printf("⚠ Escalation disabled: %v\n", err)
		return nil
	}

	var cache *escalation.AnswerCache
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			redisClient.Close()
		} else {
			cache = escalation.NewAnswerCache(redisClient, cfg.Redis.AnswerTTL)
		}
	}

	return escalation.NewRouter(client, cache, logger)
}

func printQuestions(questions []domain.AIQuestion, err error) {
	fmt.Println()
	if err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) && appErr.Code == domain.ErrCodeRedirect {
			yellow.Println("↪ Form lives elsewhere")
			if u, ok := appErr.Metadata["url"].(string); ok {
				fmt.Printf("   %s\n", u)
			}
			return
		}
		red.Printf("✗ %v\n", err)
		os.Exit(1)
	}

	if len(questions) == 0 {
		green.Println("✓ No questions need external answers")
		return
	}

	bold.Printf("%d question(s) need answers:\n", len(questions))
	for _, q := range questions {
		fmt.Printf("  • [%s] %s", q.ID, q.Label)
		if q.Required {
			red.Print(" *")
		}
		fmt.Println()
		if len(q.Options) > 0 {
			dim.Printf("      options: %s\n", strings.Join(q.Options, " | "))
		}
	}

	// Machine-readable copy for piping into -answers.
	data, _ := json.MarshalIndent(questions, "", "  ")
	fmt.Println()
	fmt.Println(string(data))
}

func printResult(result domain.PassResult, elapsed time.Duration) {
	switch result.Kind {
	case domain.PassCompleted:
		s := result.Summary
		green.Printf("✓ Filled %d/%d fields", s.Filled, s.Total)
		fmt.Printf("  (%.1fs)\n", elapsed.Seconds())
		if s.AIQuestionsHandled > 0 {
			cyan.Printf("  %d answered by AI\n", s.AIQuestionsHandled)
		}
		if s.Unmatched > 0 {
			yellow.Printf("  %d unmatched — review before submitting\n", s.Unmatched)
		}
	case domain.PassRedirect:
		yellow.Println("↪ Form lives elsewhere:")
		fmt.Printf("   %s\n", result.RedirectURL)
		fmt.Println("   Re-run against that URL.")
	case domain.PassError:
		red.Printf("✗ Pass failed: %s\n", result.Message)
	}
}
