package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	authsession "github.com/jrsteele09/go-auth-session"
	"github.com/jrsteele09/go-auth-session/internal/config"
	"github.com/jrsteele09/go-auth-session/provider"
	"github.com/jrsteele09/go-auth-session/session"
	"github.com/jrsteele09/go-auth-session/storage/redisrepo"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	providerClient, err := provider.NewOIDCClient(ctx, provider.Config{
		IssuerURL:    c.GetIssuerURL(),
		ClientID:     c.GetClientID(),
		ClientSecret: c.GetClientSecret(),
		RedirectURL:  c.GetRedirectURL(),
		Scopes:       c.GetScopes(),
	})
	if err != nil {
		return fmt.Errorf("provider.NewOIDCClient: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     c.GetRedisAddr(),
		Password: c.GetRedisPassword(),
		DB:       c.GetRedisDB(),
	})
	defer redisClient.Close()

	storageRepo, err := redisrepo.NewRepo(redisClient, c.GetSessionNamespace())
	if err != nil {
		return fmt.Errorf("redisrepo.NewRepo: %w", err)
	}

	observer := func(user *session.Identity) {
		if user == nil {
			log.Info().Msg("identity cleared")
			return
		}
		log.Info().Str("subject", user.Subject).Str("email", user.Email).Msg("identity updated")
	}

	manager, err := authsession.New(ctx, providerClient, storageRepo, observer,
		authsession.WithLogger(log),
		authsession.WithRefreshCheckInterval(c.GetRefreshCheckInterval()),
	)
	if err != nil {
		return fmt.Errorf("authsession.New: %w", err)
	}
	defer manager.Close()

	if !manager.IsAuthenticated() {
		state := uuid.New().String()
		fmt.Printf("Open the following URL to log in:\n\n  %s\n\n", manager.AuthCodeURL(state))
	}

	server := &http.Server{Addr: c.GetCallbackAddr(), Handler: callbackHandler(manager, log)}
	go listenAndServe(server, log)
	waitForStopSignal()
	return shutdown(server)
}

// callbackHandler receives the provider redirect and feeds the
// authorization code into the session manager.
func callbackHandler(manager *authsession.Manager, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.FormValue("code")
		if code == "" {
			http.Error(w, "missing code parameter", http.StatusBadRequest)
			return
		}

		manager.Login(r.Context(), code)
		if errMsg := manager.Err(); errMsg != "" {
			log.Warn().Str("error", errMsg).Msg("login failed")
			http.Error(w, errMsg, http.StatusUnauthorized)
			return
		}
		fmt.Fprintln(w, "Logged in. You can close this window.")
	})
	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		manager.Logout()
		fmt.Fprintln(w, "Logged out.")
	})
	return mux
}

func listenAndServe(server *http.Server, log zerolog.Logger) {
	log.Info().Str("addr", server.Addr).Msg("callback listener started")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("callback listener stopped")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
