package internal

import (
	"net/http"

	"srd/internal/controllers"
	"srd/internal/providers"
	"srd/internal/structures"
)

func InitRoutes(apiController *controllers.ApiController, conf *structures.Config) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/cards", http.HandlerFunc(apiController.AddCard))
	routers.Delete("/cards", http.HandlerFunc(apiController.RemoveCard))
	routers.Get("/cards/saved", http.HandlerFunc(apiController.IsCardSaved))

	routers.Get("/due", http.HandlerFunc(apiController.GetDueCards))

	routers.Post("/review", http.HandlerFunc(apiController.RecordReview))
	routers.Post("/review/undo", http.HandlerFunc(apiController.UndoReview))
	routers.Get("/review/preview", http.HandlerFunc(apiController.PreviewIntervals))

	routers.Get("/packs", http.HandlerFunc(apiController.GetPacks))
	routers.Post("/packs", http.HandlerFunc(apiController.CreatePack))
	routers.Delete("/packs", http.HandlerFunc(apiController.DeletePack))
	routers.Post("/packs/rename", http.HandlerFunc(apiController.RenamePack))
	routers.Post("/packs/assign", http.HandlerFunc(apiController.AssignCard))
	routers.Post("/packs/unassign", http.HandlerFunc(apiController.UnassignCard))

	routers.Get("/stats", http.HandlerFunc(apiController.GetStats))
	routers.Get("/summary", http.HandlerFunc(apiController.GetSummary))

	routers.Get("/export", http.HandlerFunc(apiController.ExportData))
	routers.Post("/import", http.HandlerFunc(apiController.ImportData))
	routers.Delete("/data", http.HandlerFunc(apiController.ClearData))

	return routers
}
