package fiber

import (
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"

	"github.com/lborres/studysync"
)

type Adapter struct {
	app *fiber.App
}

var _ studysync.HTTPAdapter = (*Adapter)(nil)

func New(app *fiber.App) *Adapter {
	return &Adapter{app: app}
}

// RegisterRoutes installs the route guard, binds every registry endpoint to
// its handler by OperationID and exposes /metrics when metrics are enabled.
func (a *Adapter) RegisterRoutes(s *studysync.StudySync) error {
	handlers := map[string]fiber.Handler{
		"register":   handleRegister(s),
		"login":      handleLogin(s),
		"logout":     handleLogout(s),
		"getSession": handleSession(s),

		"listMaterials":      handleListMaterials(s),
		"createMaterial":     handleCreateMaterial(s),
		"getMaterial":        handleGetMaterial(s),
		"updateMaterial":     handleUpdateMaterial(s),
		"deleteMaterial":     handleDeleteMaterial(s),
		"generateSummary":    handleGenerateSummary(s),
		"generateFlashcards": handleGenerateFlashcards(s),
		"explainConcept":     handleExplainConcept(s),

		"listFlashcards":  handleListFlashcards(s),
		"createFlashcard": handleCreateFlashcard(s),
		"updateFlashcard": handleUpdateFlashcard(s),
		"deleteFlashcard": handleDeleteFlashcard(s),

		"dashboardStats": handleDashboardStats(s),
	}

	a.app.Use(RouteGuard(s.Routes))

	if s.Metrics != nil {
		a.app.Get("/metrics", adaptor.HTTPHandler(s.Metrics.Handler()))
	}

	api := a.app.Group(s.BasePath)
	for _, ep := range s.Endpoints.Endpoints() {
		handler, ok := handlers[ep.Metadata.OperationID]
		if !ok {
			return fmt.Errorf("no fiber handler for operation %q (%s %s)", ep.Metadata.OperationID, ep.Method, ep.Path)
		}
		api.Add([]string{ep.Method}, ep.Path, handler)
	}

	return nil
}
