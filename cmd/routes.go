package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/KromaEnergia/speaker-booking/internal/activity"
	"github.com/KromaEnergia/speaker-booking/internal/auth"
	"github.com/KromaEnergia/speaker-booking/internal/config"
	"github.com/KromaEnergia/speaker-booking/internal/contract"
	"github.com/KromaEnergia/speaker-booking/internal/deal"
	"github.com/KromaEnergia/speaker-booking/internal/firmoffer"
	"github.com/KromaEnergia/speaker-booking/internal/logger"
	"github.com/KromaEnergia/speaker-booking/internal/notification"
	"github.com/KromaEnergia/speaker-booking/internal/project"
	"github.com/KromaEnergia/speaker-booking/internal/proposal"
	"github.com/KromaEnergia/speaker-booking/internal/staff"
	"github.com/KromaEnergia/speaker-booking/internal/token"
	"github.com/KromaEnergia/speaker-booking/internal/utils"
)

func newMailer(cfg config.Config, log zerolog.Logger) notification.Mailer {
	if cfg.EmailAPIURL == "" {
		log.Warn().Msg("EMAIL_API_URL not set, emails are only logged")
		return notification.LogMailer{Log: log}
	}
	return notification.NewHTTPMailer(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailTimeout)
}

// openCORS marks every webhook response readable from any origin, including requests
// that carry no Origin header. Bare OPTIONS requests are answered here.
func openCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, X-Webhook-Secret")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func newRouter(cfg config.Config, database *gorm.DB, log zerolog.Logger) http.Handler {
	issuer := token.NewIssuer(cfg.LinkSecret)
	signer := auth.NewSigner(cfg.JWTSecret)
	notifier := notification.NewDispatcher(newMailer(cfg, log), cfg.EmailFrom, cfg.AgencyName, log)

	deals := deal.NewRepository(database)
	activities := activity.NewRepository(database)
	proposals := proposal.NewRepository(database)
	projects := project.NewRepository(database)

	dealSvc := deal.NewService(database, deals, activities, log)
	proposalSvc := proposal.NewService(proposals, dealSvc)
	contracts := contract.NewEngine(database, contract.NewRepository(database), deals, issuer, notifier,
		contract.Options{
			Prefix:     cfg.ContractPrefix,
			TTL:        cfg.ContractTTL(),
			BaseURL:    cfg.PublicBaseURL,
			AgencyName: cfg.AgencyName,
		}, log)
	offerRepo := firmoffer.NewRepository(database)
	materializer := project.NewMaterializer(database, projects, log)
	offers := firmoffer.NewEngine(database, offerRepo, deals, proposals, issuer,
		notifier, materializer, cfg.PublicBaseURL, log)

	dealHandler := deal.NewHandler(dealSvc, cfg.WebhookSecret)
	activityHandler := activity.NewHandler(activities)
	proposalHandler := proposal.NewHandler(proposalSvc)
	contractHandler := contract.NewHandler(contracts)
	offerHandler := firmoffer.NewHandler(offers)
	projectHandler := project.NewHandler(projects, materializer, offerRepo)
	staffHandler := staff.NewHandler(database, signer)

	r := mux.NewRouter()

	// public
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/inquiries", dealHandler.CreateInquiry).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", staffHandler.Login).Methods(http.MethodPost)
	r.HandleFunc("/sign/{token}", contractHandler.SignerView).Methods(http.MethodGet)
	r.HandleFunc("/sign/{token}", contractHandler.Sign).Methods(http.MethodPost)
	r.HandleFunc("/speaker/firm-offers/{token}", offerHandler.SpeakerView).Methods(http.MethodGet)
	r.HandleFunc("/speaker/firm-offers/{token}", offerHandler.SpeakerRespond).Methods(http.MethodPatch)

	// admin
	admin := r.NewRoute().Subrouter()
	admin.Use(signer.Authenticate, auth.RequireAdmin)

	admin.HandleFunc("/auth/me", staffHandler.Me).Methods(http.MethodGet)
	admin.HandleFunc("/deals", dealHandler.List).Methods(http.MethodGet)
	admin.HandleFunc("/deals/{id}", dealHandler.Get).Methods(http.MethodGet)
	admin.HandleFunc("/deals/{id}", dealHandler.Update).Methods(http.MethodPatch)
	admin.HandleFunc("/deals/{id}/status", dealHandler.UpdateStatus).Methods(http.MethodPatch)
	admin.HandleFunc("/deals/{id}/notes", dealHandler.AddNote).Methods(http.MethodPost)
	admin.HandleFunc("/deals/{id}/activities", activityHandler.ListByDeal).Methods(http.MethodGet)
	admin.HandleFunc("/deals/{id}/proposals", proposalHandler.ListByDeal).Methods(http.MethodGet)

	admin.HandleFunc("/proposals", proposalHandler.Create).Methods(http.MethodPost)
	admin.HandleFunc("/proposals/{id}", proposalHandler.Get).Methods(http.MethodGet)
	admin.HandleFunc("/proposals/{id}/status", proposalHandler.UpdateStatus).Methods(http.MethodPatch)

	admin.HandleFunc("/contracts", contractHandler.Create).Methods(http.MethodPost)
	admin.HandleFunc("/contracts", contractHandler.List).Methods(http.MethodGet)
	admin.HandleFunc("/contracts/{id}", contractHandler.Get).Methods(http.MethodGet)
	admin.HandleFunc("/contracts/{id}", contractHandler.UpdateStatus).Methods(http.MethodPut)
	admin.HandleFunc("/contracts/{id}/terms", contractHandler.UpdateTerms).Methods(http.MethodPatch)
	admin.HandleFunc("/contracts/{id}", contractHandler.Delete).Methods(http.MethodDelete)

	admin.HandleFunc("/firm-offers", offerHandler.Create).Methods(http.MethodPost)
	admin.HandleFunc("/firm-offers", offerHandler.List).Methods(http.MethodGet)
	admin.HandleFunc("/firm-offers/{id}", offerHandler.Get).Methods(http.MethodGet)
	admin.HandleFunc("/firm-offers/{id}", offerHandler.Update).Methods(http.MethodPatch)
	admin.HandleFunc("/firm-offers/{id}/project", projectHandler.FromFirmOffer).Methods(http.MethodPost)

	admin.HandleFunc("/projects", projectHandler.List).Methods(http.MethodGet)
	admin.HandleFunc("/projects/{id}", projectHandler.Get).Methods(http.MethodGet)

	browser := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	}).Handler(r)

	// webhook answers any origin
	webhook := cors.AllowAll().Handler(openCORS(http.HandlerFunc(dealHandler.Webhook)))

	root := http.NewServeMux()
	root.Handle("POST /deals", webhook)
	root.Handle("OPTIONS /deals", webhook)
	root.Handle("/", browser)

	return logger.Middleware(log)(logger.Timeout(cfg.RequestTimeout)(root))
}
