package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"openshelf/internal/http/middleware"
	"openshelf/internal/service"
)

// Deps are the collaborators the HTTP surface delegates to.
type Deps struct {
	BasePath  string
	DB        Pinger
	Gatherer  prometheus.Gatherer
	Documents service.DocumentService
	Payments  service.PaymentService
	Auth      service.AuthService
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Operational endpoints live at the root; the API lives under BasePath.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group(d.BasePath)
	api.Get("/", Root())
	api.Post("/signup", Signup(d.Auth))
	api.Post("/login", Login(d.Auth))

	requireAuth := middleware.Auth(d.Auth)

	api.Post("/upload-files", requireAuth, UploadDocument(d.Documents))
	api.Get("/get-files", requireAuth, ListDocuments(d.Documents))
	api.Get("/purchased-books", requireAuth, ListPurchased(d.Documents))
	api.Get("/files/:id", requireAuth, GetDocument(d.Documents))
	api.Get("/files/:id/pdf", requireAuth, GetDocumentPDF(d.Documents))
	api.Get("/files/:id/cover", requireAuth, GetDocumentCover(d.Documents))
	api.Put("/files/:id", requireAuth, UpdateDocument(d.Documents))
	api.Delete("/files/:id", requireAuth, DeleteDocument(d.Documents))

	pay := api.Group("/payment", requireAuth)
	pay.Post("/create-order", CreateOrder(d.Payments))
	pay.Post("/verify", VerifyPayment(d.Payments))
	pay.Get("/status/:id", PaymentStatus(d.Payments))
}
