package watchapi

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/devspacehq/pulse/storage/model"
)

const defaultJournalLimit = 20

// registerJournal wires the journal handlers. Appending an entry is what
// makes a subject "fresh" again for the staleness evaluation.
func registerJournal(r fiber.Router, subjects model.SubjectsStore, journal model.JournalStore) {
	g := r.Group("/subjects/:subjectID/journal")

	g.Get(
		"/", func(c *fiber.Ctx) error {
			id, err := parseSubjectID(c)
			if err != nil {
				return invalidRequest(c, "invalid subject id")
			}
			limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultJournalLimit)))
			if err != nil || limit <= 0 {
				return invalidRequest(c, "invalid limit")
			}
			entries, err := journal.ForSubject(id, limit)
			if err != nil {
				return serverError(c, err.Error())
			}
			return c.JSON(entries)
		},
	)

	type appendReq struct {
		AuthorID string `json:"author_id"`
		Body     string `json:"body"`
		Public   bool   `json:"public"`
		// LoggedAt in unix milliseconds; zero means "now".
		LoggedAt int64 `json:"logged_at"`
	}
	g.Post(
		"/", func(c *fiber.Ctx) error {
			id, err := parseSubjectID(c)
			if err != nil {
				return invalidRequest(c, "invalid subject id")
			}
			if _, err = subjects.Get(id); err != nil {
				return notFound(c, "subject not found")
			}
			var req appendReq
			if err = c.BodyParser(&req); err != nil {
				return invalidRequest(c, "invalid body")
			}
			if req.AuthorID == "" || req.Body == "" {
				return invalidRequest(c, "author_id and body are required")
			}
			if req.LoggedAt == 0 {
				req.LoggedAt = time.Now().UnixMilli()
			}
			entry := model.JournalEntry{
				SubjectID: id,
				AuthorID:  req.AuthorID,
				Body:      req.Body,
				Public:    req.Public,
				LoggedAt:  req.LoggedAt,
			}
			if err = journal.Append(&entry); err != nil {
				return serverError(c, err.Error())
			}
			return c.Status(fiber.StatusCreated).JSON(entry)
		},
	)
}
