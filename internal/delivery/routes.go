package delivery

import (
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouteOptions struct {
	// RateLimitPerMinute ограничивает маршруты, которые ходят во внешние сервисы.
	RateLimitPerMinute int
	// WaitTimeout: предел ожидания при ?wait=1.
	WaitTimeout time.Duration
}

func NewRouter(
	hConv *ConversationHandler,
	hSpeech *SpeechHandler,
	hProfile *ProfileHandler,
	hVocab *VocabularyHandler,
	opts RouteOptions,
) chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	RegisterRoutes(r, hConv, hSpeech, hProfile, hVocab, opts)

	r.With(httputil.RecoverMiddleware).Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("pong"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func RegisterRoutes(
	r chi.Router,
	hConv *ConversationHandler,
	hSpeech *SpeechHandler,
	hProfile *ProfileHandler,
	hVocab *VocabularyHandler,
	opts RouteOptions,
) {
	limited := func(next http.Handler) http.Handler { return next }
	if opts.RateLimitPerMinute > 0 {
		limited = httprate.LimitByIP(opts.RateLimitPerMinute, time.Minute)
	}

	// поток событий живёт без recover-обёртки: ей нужен исходный http.Flusher
	r.Get("/conversation/events", hConv.Events)

	r.Group(func(pr chi.Router) {
		pr.Use(httputil.RecoverMiddleware)

		// --- диалог ---
		pr.Get("/conversation", hConv.Get)
		pr.Delete("/conversation", hConv.Clear)
		pr.Post("/conversation/recording", hConv.StartRecording)
		pr.Put("/conversation/recording", hConv.PushChunk)

		pr.Group(func(lr chi.Router) {
			lr.Use(limited, WaitIdleTimeout(opts.WaitTimeout))
			lr.Post("/conversation/recording/stop", hConv.StopRecording)
			lr.Post("/conversation/audio", hConv.Upload)
			lr.Post("/conversation/messages/{index}/speech", hSpeech.Toggle)
		})

		// --- профиль ---
		pr.Get("/profile", hProfile.Get)
		pr.Put("/profile", hProfile.Update)
		pr.Post("/profile/interests", hProfile.AddInterest)
		pr.Delete("/profile/interests/{index}", hProfile.RemoveInterest)

		// --- словарь ---
		pr.Get("/vocabulary", hVocab.List)
		pr.Post("/vocabulary", hVocab.Add)
		pr.Post("/vocabulary/{index}/review", hVocab.Review)
		pr.Delete("/vocabulary/{index}", hVocab.Remove)
	})
}
