// Package scriptsmgr serves PowerShell scripts to remote clients and the
// authenticated admin API used to manage them.
package scriptsmgr

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/scriptsmgr/scriptsmgr/api/adminapi"
	"github.com/scriptsmgr/scriptsmgr/auth"
	"github.com/scriptsmgr/scriptsmgr/internal/cache"
	"github.com/scriptsmgr/scriptsmgr/internal/version"
	"github.com/scriptsmgr/scriptsmgr/storage/blob"
	"github.com/scriptsmgr/scriptsmgr/storage/model"
)

// DefaultMenuLifetime is used when no menu cache lifetime is configured
const DefaultMenuLifetime = time.Minute

// FiberServerConfig is the fiber.Config that is used to init the http fiber.App
var FiberServerConfig = fiber.Config{
	ReadTimeout:    3 * time.Second,
	WriteTimeout:   20 * time.Second,
	IdleTimeout:    150 * time.Second,
	ReadBufferSize: 8192,
	ErrorHandler:   handleError,
	Network:        "tcp",
}

// UsageRecorder records script deliveries without blocking
type UsageRecorder interface {
	Record(scriptID, ip string)
}

// Deps holds the collaborators of a ScriptsManager
type Deps struct {
	// AppURL is the public origin used when a request carries no host
	AppURL   string
	Salts    auth.SaltSource
	Verifier *auth.Verifier
	Tokens   *auth.Tokens
	Backends model.Backends
	Blobs    blob.Store
	// MaxUploadSize limits uploads in bytes
	MaxUploadSize int64
	// PresignTTL is the validity of presigned download links
	PresignTTL   time.Duration
	Menus        cache.Cache
	MenuLifetime time.Duration
	Usage        UsageRecorder
	AccessLog    io.Writer
}

// ScriptsManager is the http application
type ScriptsManager struct {
	server     *fiber.App
	serverConf ServerConf
	deps       Deps
}

func handleError(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		msg = e.Message
	} else {
		log.WithError(err).WithField("path", ctx.Path()).Error("unhandled error")
	}
	return ctx.Status(code).JSON(fiber.Map{"error": msg})
}

// NewScriptsManager creates a new ScriptsManager and registers all routes
func NewScriptsManager(serverConf ServerConf, deps Deps) (*ScriptsManager, error) {
	if deps.Salts == nil || deps.Verifier == nil || deps.Tokens == nil {
		return nil, errors.New("scriptsmgr: salt source, verifier and tokens are required")
	}
	if deps.Blobs == nil {
		return nil, errors.New("scriptsmgr: a blob store is required")
	}
	if deps.Menus == nil {
		deps.Menus = cache.Noop{}
	}
	if deps.MenuLifetime <= 0 {
		deps.MenuLifetime = DefaultMenuLifetime
	}
	if deps.AccessLog == nil {
		deps.AccessLog = os.Stderr
	}
	fiberConf := FiberServerConfig
	if tps := serverConf.TrustedProxies; len(tps) > 0 {
		fiberConf.TrustedProxies = serverConf.TrustedProxies
		fiberConf.EnableTrustedProxyCheck = true
	}
	fiberConf.ProxyHeader = serverConf.ForwardedIPHeader
	if deps.MaxUploadSize > 0 {
		// leave room for the multipart envelope
		fiberConf.BodyLimit = int(deps.MaxUploadSize) + 64*1024
	}
	server := fiber.New(fiberConf)
	server.Use(recover.New())
	server.Use(compress.New())
	server.Use(logger.New(logger.Config{Output: deps.AccessLog}))
	server.Use(requestid.New())
	server.Use(
		func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderServer, version.ServerHeader())
			return c.Next()
		},
	)
	server.Use(adminapi.Gate(deps.Tokens, adminapi.DefaultGateConf))

	sm := &ScriptsManager{
		server:     server,
		serverConf: serverConf,
		deps:       deps,
	}
	sm.registerLoader()
	sm.registerMenu()
	sm.registerRun()
	sm.registerAuth()
	sm.registerFiles()
	sm.registerPages()

	if err := adminapi.Register(
		server.Group("/api"), strings.TrimSuffix(deps.AppURL, "/")+"/api", adminapi.Deps{
			Backends:      deps.Backends,
			Blobs:         deps.Blobs,
			MaxUploadSize: deps.MaxUploadSize,
			Menus:         deps.Menus,
		},
	); err != nil {
		return nil, err
	}
	return sm, nil
}

// HttpHandlerFunc returns an http.HandlerFunc for serving all the necessary endpoints
func (sm *ScriptsManager) HttpHandlerFunc() http.HandlerFunc {
	return adaptor.FiberApp(sm.server)
}

// Listen starts an http server at the specific address for serving all the
// necessary endpoints
func (sm *ScriptsManager) Listen(addr string) error {
	return sm.server.Listen(addr)
}

// Shutdown gracefully stops the server
func (sm *ScriptsManager) Shutdown() error {
	return sm.server.Shutdown()
}

// Start serves according to the ServerConf; it only returns on failure
func (sm *ScriptsManager) Start() error {
	conf := sm.serverConf
	if !conf.TLS.Enabled {
		log.WithField("port", conf.Port).Info("TLS is disabled starting http server")
		return sm.server.Listen(fmt.Sprintf("%s:%d", conf.IPListen, conf.Port))
	}
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
			log.WithError(httpServer.Listen(fmt.Sprintf("%s:80", conf.IPListen))).Error("redirect server stopped")
		}()
	}
	log.Info("TLS enabled, starting https server on port 443")
	return sm.server.ListenTLS(fmt.Sprintf("%s:443", conf.IPListen), conf.TLS.Cert, conf.TLS.Key)
}
