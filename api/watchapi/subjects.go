package watchapi

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/devspacehq/pulse/storage/model"
)

// registerSubjects wires handlers using a SubjectsStore abstraction.
func registerSubjects(r fiber.Router, subjects model.SubjectsStore, checkpoints model.CheckpointStore) {
	g := r.Group("/subjects")

	g.Get(
		"/", func(c *fiber.Ctx) error {
			list, err := subjects.List()
			if err != nil {
				return serverError(c, err.Error())
			}
			return c.JSON(list)
		},
	)

	type createReq struct {
		OwnerID      string            `json:"owner_id"`
		Kind         model.SubjectKind `json:"kind"`
		DisplayName  string            `json:"display_name"`
		RepoFullName string            `json:"repo_full_name"`
	}
	g.Post(
		"/", func(c *fiber.Ctx) error {
			var req createReq
			if err := c.BodyParser(&req); err != nil {
				return invalidRequest(c, "invalid body")
			}
			if req.OwnerID == "" || req.RepoFullName == "" {
				return invalidRequest(c, "owner_id and repo_full_name are required")
			}
			if !req.Kind.Valid() {
				return invalidRequest(c, "invalid subject kind")
			}
			subject := model.Subject{
				OwnerID:      req.OwnerID,
				Kind:         req.Kind,
				DisplayName:  req.DisplayName,
				RepoFullName: req.RepoFullName,
				WatchEnabled: true,
			}
			if err := subjects.Write(&subject); err != nil {
				var alreadyExistsError model.AlreadyExistsError
				if errors.As(err, &alreadyExistsError) {
					return conflict(c, "subject already exists")
				}
				return serverError(c, err.Error())
			}
			return c.Status(fiber.StatusCreated).JSON(subject)
		},
	)

	g.Get(
		"/:subjectID", func(c *fiber.Ctx) error {
			id, err := parseSubjectID(c)
			if err != nil {
				return invalidRequest(c, "invalid subject id")
			}
			subject, err := subjects.Get(id)
			if err != nil {
				var notFoundError model.NotFoundError
				if errors.As(err, &notFoundError) {
					return notFound(c, "subject not found")
				}
				return serverError(c, err.Error())
			}
			return c.JSON(subject)
		},
	)

	type watchReq struct {
		Enabled bool `json:"enabled"`
	}
	g.Post(
		"/:subjectID/watch", func(c *fiber.Ctx) error {
			id, err := parseSubjectID(c)
			if err != nil {
				return invalidRequest(c, "invalid subject id")
			}
			var req watchReq
			if err = c.BodyParser(&req); err != nil {
				return invalidRequest(c, "invalid body")
			}
			if err = subjects.SetWatch(id, req.Enabled); err != nil {
				var notFoundError model.NotFoundError
				if errors.As(err, &notFoundError) {
					return notFound(c, "subject not found")
				}
				return serverError(c, err.Error())
			}
			return c.SendStatus(fiber.StatusNoContent)
		},
	)

	g.Get(
		"/:subjectID/checkpoint", func(c *fiber.Ctx) error {
			id, err := parseSubjectID(c)
			if err != nil {
				return invalidRequest(c, "invalid subject id")
			}
			cp, err := checkpoints.Get(id)
			if err != nil {
				return serverError(c, err.Error())
			}
			if cp == nil {
				return notFound(c, "no checkpoint for subject")
			}
			return c.JSON(cp)
		},
	)

	g.Delete(
		"/:subjectID/checkpoint", func(c *fiber.Ctx) error {
			id, err := parseSubjectID(c)
			if err != nil {
				return invalidRequest(c, "invalid subject id")
			}
			if err = checkpoints.Delete(id); err != nil {
				return serverError(c, err.Error())
			}
			return c.SendStatus(fiber.StatusNoContent)
		},
	)
}

func parseSubjectID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("subjectID"), 10, 32)
	return uint(id), err
}
