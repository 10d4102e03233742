package pulse

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	log "github.com/sirupsen/logrus"

	"github.com/devspacehq/pulse/internal/version"
)

// EndpointConf is a type for configuring an endpoint with an internal and external path
type EndpointConf struct {
	Path string `yaml:"path"`
	URL  string `yaml:"url"`
}

// IsSet returns a bool indicating if this endpoint was configured or not
func (c EndpointConf) IsSet() bool {
	return c.Path != "" || c.URL != ""
}

// ValidateURL validates that an external URL is set,
// and if not prefixes the internal path with the passed rootURL and sets it
// as the external url
func (c *EndpointConf) ValidateURL(rootURL string) string {
	if c.URL == "" {
		c.URL, _ = url.JoinPath(rootURL, c.Path)
	}
	return c.URL
}

// Pulse is the Dev Space watcher service: it hosts the run trigger
// endpoint, the management API, and the notification read API.
type Pulse struct {
	server     *fiber.App
	serverConf ServerConf
}

// FiberServerConfig is the fiber.Config that is used to init the http fiber.App
var FiberServerConfig = fiber.Config{
	ReadTimeout:    3 * time.Second,
	WriteTimeout:   20 * time.Second,
	IdleTimeout:    150 * time.Second,
	ReadBufferSize: 8192,
	ErrorHandler:   handleError,
	Network:        "tcp",
}

func handleError(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if e, ok := err.(*fiber.Error); ok {
		fiberErr = e
		code = e.Code
	}
	if code >= fiber.StatusInternalServerError {
		log.WithError(err).WithField("path", ctx.Path()).Error("request failed")
		// No internal details leave the server on 5xx.
		return ctx.Status(code).JSON(
			fiber.Map{
				"error": "internal_server_error",
			},
		)
	}
	msg := err.Error()
	if fiberErr != nil {
		msg = fiberErr.Message
	}
	return ctx.Status(code).JSON(
		fiber.Map{
			"error":             http.StatusText(code),
			"error_description": msg,
		},
	)
}

// NewPulse creates a new Pulse service
func NewPulse(serverConf ServerConf) *Pulse {
	if tps := serverConf.TrustedProxies; len(tps) > 0 {
		FiberServerConfig.TrustedProxies = serverConf.TrustedProxies
		FiberServerConfig.EnableTrustedProxyCheck = true
	}
	FiberServerConfig.ProxyHeader = serverConf.ForwardedIPHeader
	server := fiber.New(FiberServerConfig)
	server.Use(recover.New())
	server.Use(compress.New())
	server.Use(logger.New())
	server.Use(requestid.New())

	server.Get(
		"/up", func(ctx *fiber.Ctx) error {
			return ctx.JSON(
				fiber.Map{
					"status":  "up",
					"version": version.VERSION,
				},
			)
		},
	)

	return &Pulse{
		server:     server,
		serverConf: serverConf,
	}
}

// Server returns the underlying fiber.App for registering routes
func (p *Pulse) Server() *fiber.App {
	return p.server
}

// HttpHandlerFunc returns an http.HandlerFunc for serving all the necessary endpoints
func (p *Pulse) HttpHandlerFunc() http.HandlerFunc {
	return adaptor.FiberApp(p.server)
}

// Listen starts an http server at the specific address for serving all the
// necessary endpoints
func (p *Pulse) Listen(addr string) error {
	return p.server.Listen(addr)
}

// Start starts the service according to its ServerConf
func (p *Pulse) Start() {
	conf := p.serverConf
	if !conf.TLS.Enabled {
		log.WithField("port", conf.Port).Info("TLS is disabled starting http server")
		log.WithError(p.server.Listen(fmt.Sprintf(":%d", conf.Port))).Fatal()
	}
	// TLS enabled
	if conf.TLS.RedirectHTTP {
		httpServer := fiber.New(FiberServerConfig)
		httpServer.All(
			"*", func(ctx *fiber.Ctx) error {
				//goland:noinspection HttpUrlsUsage
				return ctx.Redirect(
					strings.Replace(ctx.Request().URI().String(), "http://", "https://", 1),
					fiber.StatusPermanentRedirect,
				)
			},
		)
		log.Info("TLS and http redirect enabled, starting redirect server on port 80")
		go func() {
			log.WithError(httpServer.Listen(":80")).Fatal()
		}()
	}
	log.Info("TLS enabled, starting https server on port 443")
	log.WithError(p.server.ListenTLS(":443", conf.TLS.Cert, conf.TLS.Key)).Fatal()
}
