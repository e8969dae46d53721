package handlers_fiber

import "github.com/gofiber/fiber/v2"

// RegisterHandlers mounts the API routes on router. Authentication is expected
// to run before these handlers.
func RegisterHandlers(router fiber.Router, h *Handler) {
	router.Post("/groups", h.PostGroup)
	router.Get("/groups/:groupId/members", h.GetGroupMembers)
	router.Post("/groups/:groupId/members", h.PostGroupMember)
	router.Post("/groups/:groupId/tasks", h.PostGroupTask)
	router.Get("/groups/:groupId/tasks", h.GetGroupTasks)

	router.Post("/tasks/:taskId/status", h.PostTaskStatus)
	router.Get("/tasks/:taskId/history", h.GetTaskHistory)

	router.Get("/workload/group/:groupId", h.GetGroupWorkload)
	router.Get("/workload/preview", h.GetWorkloadPreview)

	router.Post("/distribution/generate", h.PostDistributionGenerate)
	router.Get("/distribution/preview/:id", h.GetDistributionPreview)
	router.Post("/distribution/:id/apply", h.PostDistributionApply)

	router.Get("/monitoring/performance", h.GetPerformance)
}

// NewApp builds the fiber application serving the API. Request strings reach
// storage and background generation, so they must not alias fasthttp buffers.
func NewApp(cfg fiber.Config) *fiber.App {
	cfg.Immutable = true
	return fiber.New(cfg)
}
