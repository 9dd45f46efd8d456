// ABOUTME: REST surface for notes on fiber: CRUD routes plus the paged listing.
// ABOUTME: Maps validation to 400 and missing notes to 404, tags requests with an id, and logs each one.

package httpapi

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/harper/notes/internal/notes"
	"github.com/harper/notes/internal/query"
	"github.com/harper/notes/internal/validate"
	"github.com/rs/zerolog"
)

const (
	// HeaderRequestID carries the per-request id, echoed when the client sends one.
	HeaderRequestID = "X-Request-ID"
	// HeaderTotalCount carries the filtered total for a listing.
	HeaderTotalCount = "X-Total-Count"

	bodyLimit = 64 * 1024
)

type Server struct {
	app *fiber.App
	svc *notes.Service
	log zerolog.Logger
}

type Option func(*options)

type options struct {
	log          zerolog.Logger
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// WithLogger sets the access and error logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithTimeouts bounds reading a request and writing its response.
func WithTimeouts(read, write time.Duration) Option {
	return func(o *options) {
		o.readTimeout = read
		o.writeTimeout = write
	}
}

func New(svc *notes.Service, opts ...Option) *Server {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{svc: svc, log: o.log}
	s.app = fiber.New(fiber.Config{
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
		BodyLimit:             bodyLimit,
		ReadTimeout:           o.readTimeout,
		WriteTimeout:          o.writeTimeout,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(s.requestLog)

	api := s.app.Group("/api/notes")
	api.Post("/", s.create)
	api.Get("/", s.list)
	api.Get("/:id<int>", s.get)
	api.Put("/:id<int>", s.update)
	api.Delete("/:id<int>", s.remove)
	return s
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		errc <- s.app.Listen(addr)
	}()
	s.log.Info().Str("addr", addr).Msg("http server listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.log.Info().Msg("http server shutting down")
		return s.app.Shutdown()
	}
}

type noteInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *Server) create(c *fiber.Ctx) error {
	in, err := parseInput(c)
	if err != nil {
		return err
	}
	note, err := s.svc.Create(c.UserContext(), in.Title, in.Content)
	if err != nil {
		return err
	}
	c.Location(fmt.Sprintf("/api/notes/%d", note.ID))
	return c.Status(fiber.StatusCreated).JSON(note)
}

func (s *Server) get(c *fiber.Ctx) error {
	id, err := noteID(c)
	if err != nil {
		return err
	}
	note, err := s.svc.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(note)
}

func (s *Server) list(c *fiber.Ctx) error {
	p, err := listParams(c)
	if err != nil {
		return err
	}
	page, err := s.svc.List(c.UserContext(), p)
	if err != nil {
		return err
	}
	c.Set(HeaderTotalCount, strconv.Itoa(page.Total))
	return c.JSON(page.Items)
}

func (s *Server) update(c *fiber.Ctx) error {
	id, err := noteID(c)
	if err != nil {
		return err
	}
	in, err := parseInput(c)
	if err != nil {
		return err
	}
	note, err := s.svc.Update(c.UserContext(), id, in.Title, in.Content)
	if err != nil {
		return err
	}
	return c.JSON(note)
}

func (s *Server) remove(c *fiber.Ctx) error {
	id, err := noteID(c)
	if err != nil {
		return err
	}
	if err := s.svc.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseInput(c *fiber.Ctx) (noteInput, error) {
	var in noteInput
	if err := json.Unmarshal(c.Body(), &in); err != nil {
		return in, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return in, nil
}

// An id that does not fit in int64 cannot name a note.
func noteID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fiber.ErrNotFound
	}
	return id, nil
}

// listParams reads q, page, pageSize, sort and dir. Absent paging takes the
// defaults; present but non-integer paging is rejected.
func listParams(c *fiber.Ctx) (query.Params, error) {
	p := query.Params{
		Filter:   c.Query("q"),
		Page:     query.DefaultPage,
		PageSize: query.DefaultPageSize,
		Sort:     c.Query("sort"),
		Dir:      c.Query("dir"),
	}

	verr := &validate.Error{}
	for _, f := range []struct {
		name string
		dst  *int
	}{{"page", &p.Page}, {"pageSize", &p.PageSize}} {
		raw := c.Query(f.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			verr.Add(f.name, validate.RuleInteger, f.name+" must be an integer")
			continue
		}
		*f.dst = n
	}
	return p, verr.Err()
}

type errorBody struct {
	Status  int                   `json:"status"`
	Message string                `json:"message"`
	Fields  []validate.FieldError `json:"fields,omitempty"`
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var (
		verr *validate.Error
		ferr *fiber.Error
		body errorBody
	)
	switch {
	case errors.As(err, &verr):
		body = errorBody{Status: fiber.StatusBadRequest, Message: "validation failed", Fields: verr.Fields}
	case notes.IsNotFound(err):
		body = errorBody{Status: fiber.StatusNotFound, Message: err.Error()}
	case errors.As(err, &ferr):
		body = errorBody{Status: ferr.Code, Message: ferr.Message}
	default:
		s.log.Error().Err(err).
			Str("request_id", requestID(c)).
			Str("path", c.Path()).
			Msg("request failed")
		body = errorBody{Status: fiber.StatusInternalServerError, Message: "internal server error"}
	}
	return c.Status(body.Status).JSON(fiber.Map{"error": body})
}

func (s *Server) requestLog(c *fiber.Ctx) error {
	start := time.Now()

	id := c.Get(HeaderRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Locals(HeaderRequestID, id)
	c.Set(HeaderRequestID, id)

	if err := c.Next(); err != nil {
		// Render now so the logged status is the one the client sees.
		if herr := c.App().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	s.log.Info().
		Str("request_id", id).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("latency", time.Since(start)).
		Msg("request")
	return nil
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(HeaderRequestID).(string)
	return id
}
