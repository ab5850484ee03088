package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"course-quiz-service/internal/app"
	"course-quiz-service/internal/auth"
	"course-quiz-service/internal/config"
	"course-quiz-service/internal/infra/memory"
	"course-quiz-service/internal/infra/recaptcha"
	redisstore "course-quiz-service/internal/infra/redis"
	transport "course-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := checkJWTSecret(cfg.Auth.JWTSecret); err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	redisClient, err := openRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	sessionTTL := config.TTLDuration(cfg.Session.TTL, 2*time.Hour)

	var banks app.QuestionBankRepository
	var sessions app.SessionRepository
	if redisClient != nil {
		banks = redisstore.NewQuestionBankRepository(redisClient, backend, quizTTL)
		sessions = redisstore.NewSessionStore(redisClient, sessionTTL)
	} else {
		banks = memory.NewQuestionBankRepository(backend, quizTTL)
		sessions = memory.NewSessionStore(sessionTTL)
	}

	writer := app.NewSubmissionWriter(backend, backend, app.SubmissionMode(cfg.Submission.Mode))
	log.Printf("submissions use %s mode", writer.Mode())

	verifier := newVerifier(cfg)
	service := app.NewQuizService(banks, sessions, verifier, writer, cfg.Quiz.MaxQuestions)
	roster := app.NewRosterService(backend, backend)

	authenticator := auth.NewAuthenticator(cfg.Auth.JWTSecret)
	handler := transport.NewHandler(service, writer, roster, verifier)
	router := transport.NewRouter(handler, transport.NewWSHandler(service), transport.NewAuthMiddleware(authenticator))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting course quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newVerifier picks the verification gate: an external endpoint, siteverify, or a pass-through for development.
func newVerifier(cfg config.Config) app.Verifier {
	timeout := config.TTLDuration(cfg.Recaptcha.Timeout, 10*time.Second)
	switch {
	case cfg.Recaptcha.Endpoint != "":
		return recaptcha.NewEndpointVerifier(cfg.Recaptcha.Endpoint, timeout)
	case cfg.Recaptcha.Secret != "":
		return recaptcha.NewClient(cfg.Recaptcha.Secret, cfg.Recaptcha.VerifyURL, timeout)
	case cfg.Recaptcha.SkipVerification:
		log.Printf("WARNING: recaptcha.skipVerification is set, every verification token passes; never enable this in production")
		return recaptcha.Static{}
	default:
		log.Printf("recaptcha secret missing; verification will fail")
		return recaptcha.Static{Err: recaptcha.ErrNotConfigured}
	}
}

// placeholderSecrets are sample values that must never sign real tokens.
var placeholderSecrets = map[string]struct{}{
	"change-me": {},
	"changeme":  {},
	"secret":    {},
}

func checkJWTSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("auth.jwtSecret or JWT_SECRET must be set")
	}
	if _, ok := placeholderSecrets[strings.ToLower(secret)]; ok {
		return fmt.Errorf("auth.jwtSecret %q is a placeholder, set a real secret", secret)
	}
	return nil
}
