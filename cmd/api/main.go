package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"praktika.org/internal/account"
	"praktika.org/internal/httpapi"
	"praktika.org/internal/internship"
	"praktika.org/internal/obs"
	"praktika.org/internal/session"
	"praktika.org/internal/store/mongo"
	"praktika.org/internal/store/pg"
	"praktika.org/internal/upload"
)

var version = "1.0.0"

func main() {
	// .env опционален, в контейнере переменные приходят из окружения
	_ = godotenv.Load()

	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("PRAKTIKA_COMMIT"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	accStore, internStore, probe, closeStores, err := openStores(ctx)
	if err != nil {
		log.Fatalf("open stores: %v", err)
	}
	defer closeStores()

	sessStore, err := openSessions(ctx)
	if err != nil {
		log.Fatalf("open sessions: %v", err)
	}

	accounts, err := account.NewService(accStore)
	if err != nil {
		log.Fatalf("account service: %v", err)
	}
	sessions, err := session.NewManager(sessStore)
	if err != nil {
		log.Fatalf("session manager: %v", err)
	}
	internships, err := internship.NewService(internStore, accStore)
	if err != nil {
		log.Fatalf("internship service: %v", err)
	}

	uploadDir := envOr("PRAKTIKA_UPLOAD_DIR", "uploads")
	files, err := upload.NewDiskStore(uploadDir)
	if err != nil {
		log.Fatalf("upload dir %s: %v", uploadDir, err)
	}

	if err := bootstrapFaculty(ctx, accounts); err != nil {
		log.Fatalf("bootstrap faculty: %v", err)
	}

	api := httpapi.New(probe, version, accounts, sessions, internships, files)

	srv := &http.Server{
		Addr:              envOr("PRAKTIKA_ADDR", ":8080"),
		Handler:           api.Handler(),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting praktika-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Println("Stopped")
}

// openStores picks the persistence backend: Mongo when PRAKTIKA_MONGO_URI is
// set, else Postgres when PRAKTIKA_PG_DSN is set, else in-memory.
func openStores(ctx context.Context) (account.Store, internship.Store, httpapi.ReadyProbe, func(), error) {
	if uri := os.Getenv("PRAKTIKA_MONGO_URI"); uri != "" {
		st, err := mongo.Open(ctx, uri, os.Getenv("PRAKTIKA_MONGO_DB"))
		if err != nil {
			return nil, nil, httpapi.ReadyProbe{}, nil, err
		}
		probe := httpapi.ReadyProbe{Ping: st.Ping}
		return st, st, probe, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = st.Close(closeCtx)
		}, nil
	}
	if dsn := os.Getenv("PRAKTIKA_PG_DSN"); dsn != "" {
		st, err := pg.Open(dsn)
		if err != nil {
			return nil, nil, httpapi.ReadyProbe{}, nil, err
		}
		probe := httpapi.ReadyProbe{Ping: func(ctx context.Context) error {
			return st.DB().PingContext(ctx)
		}}
		return st, st, probe, func() { _ = st.Close() }, nil
	}
	log.Println("no PRAKTIKA_MONGO_URI or PRAKTIKA_PG_DSN set, using in-memory store")
	return account.NewMemory(), internship.NewMemory(), httpapi.ReadyProbe{}, func() {}, nil
}

// openSessions uses Redis when configured, so multiple instances share one
// session collection. Otherwise sessions live in process memory.
func openSessions(ctx context.Context) (session.Store, error) {
	addr := os.Getenv("PRAKTIKA_REDIS_ADDR")
	if addr == "" {
		return session.NewMemoryStore(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("PRAKTIKA_REDIS_PASSWORD"),
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	st, err := session.NewRedisStore(client)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// bootstrapFaculty creates the faculty account from the environment on first
// start. There is no self-service faculty registration.
func bootstrapFaculty(ctx context.Context, accounts *account.Service) error {
	id := os.Getenv("PRAKTIKA_FACULTY_ID")
	if id == "" {
		return nil
	}
	password := os.Getenv("PRAKTIKA_FACULTY_PASSWORD")
	_, err := accounts.Register(ctx, account.RegisterInput{
		ID:              id,
		Role:            account.RoleFaculty,
		Name:            envOr("PRAKTIKA_FACULTY_NAME", "Faculty Coordinator"),
		Email:           os.Getenv("PRAKTIKA_FACULTY_EMAIL"),
		Department:      os.Getenv("PRAKTIKA_FACULTY_DEPARTMENT"),
		Password:        password,
		ConfirmPassword: password,
	})
	if errors.Is(err, account.ErrDuplicate) {
		return nil
	}
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
