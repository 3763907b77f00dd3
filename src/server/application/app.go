package application

import (
	"fmt"
	"github.com/cockroachdb/errors"
	separationgateway "github.com/hollowtone/vocal-remover-be/src/server/internal/separation/gateway"
	separationusecase "github.com/hollowtone/vocal-remover-be/src/server/internal/separation/usecase"
	"github.com/hollowtone/vocal-remover-be/src/server/internal/separation/validation"
	"github.com/hollowtone/vocal-remover-be/src/shared/engine"
	"github.com/hollowtone/vocal-remover-be/src/shared/engine/executor"
	"github.com/hollowtone/vocal-remover-be/src/shared/session/janitor"
	sessionstorage "github.com/hollowtone/vocal-remover-be/src/shared/session/storage"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"net/http"
	"time"
)

type HTTPMethod string

const (
	GET    HTTPMethod = "GET"
	POST   HTTPMethod = "POST"
	DELETE HTTPMethod = "DELETE"
)

const sweepInterval = 10 * time.Minute

type App struct {
	echo    *echo.Echo
	janitor *janitor.Janitor
	port    string
}

type Config struct {
	SpleeterBinPath        string
	SpleeterWorkingDirPath string
	SessionStorageDirPath  string
	MaxFileSize            int64
	SeparationTimeout      time.Duration
	// zero disables the background sweep - the original behavior, where
	// workspaces live until explicit cleanup
	SessionRetention   time.Duration
	CORSAllowedOrigins []string
	Port               string
	Log                bool
}

func NewApp(config Config) App {
	e := echo.New()

	if config.Log {
		e.Use(middleware.Logger())
	}

	// blunt transport-level cap, a bit above the policy ceiling to leave
	// room for multipart framing; the policy check is the one that counts
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dK", (config.MaxFileSize/1024)+2048)))

	corsMiddleware := makeCorsMiddleware(config)

	handleRoute := func(method HTTPMethod, path string, handlerFunc echo.HandlerFunc) {
		params := func() (string, echo.HandlerFunc, echo.MiddlewareFunc) {
			return path, handlerFunc, corsMiddleware
		}

		e.OPTIONS(params())

		switch method {
		case GET:
			e.GET(params())
		case POST:
			e.POST(params())
		case DELETE:
			e.DELETE(params())
		default:
			panic("unhandled http method!")
		}
	}

	workspaces := makeWorkspaces(config)
	separationGateway := makeSeparationGateway(config, workspaces)

	handleRoute(GET, "/", separationGateway.Root)
	handleRoute(GET, "/health", separationGateway.Health)

	handleRoute(POST, "/separate", separationGateway.Separate)

	handleRoute(GET, "/download/:session_id/:track_kind", func(c echo.Context) error {
		sessionID := c.Param("session_id")
		trackKind := c.Param("track_kind")
		return separationGateway.DownloadTrack(c, sessionID, trackKind)
	})

	handleRoute(DELETE, "/cleanup/:session_id", func(c echo.Context) error {
		sessionID := c.Param("session_id")
		return separationGateway.CleanupSession(c, sessionID)
	})

	return App{
		echo:    e,
		janitor: makeJanitor(config, workspaces),
		port:    config.Port,
	}
}

func (a *App) Start() error {
	if a.janitor != nil {
		a.janitor.Start()
	}

	err := a.echo.Start(a.port)
	if err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "Couldn't start echo server")
	}

	return nil
}

func (a *App) Stop() error {
	if a.janitor != nil {
		a.janitor.Stop()
	}

	err := a.echo.Close()
	if err != nil {
		return errors.Wrap(err, "Failed to stop echo server")
	}

	return nil
}

func makeWorkspaces(config Config) sessionstorage.Workspaces {
	workspaces, err := sessionstorage.NewWorkspaces(config.SessionStorageDirPath)
	if err != nil {
		panic(errors.Wrap(err, "Failed to initialize the session workspace storage"))
	}

	return workspaces
}

func makeSeparationGateway(config Config, workspaces sessionstorage.Workspaces) separationgateway.Gateway {
	splitter, err := engine.NewSpleeterSplitter(
		config.SpleeterBinPath,
		config.SpleeterWorkingDirPath,
		config.SeparationTimeout,
		executor.BinaryFileExecutor{},
	)
	if err != nil {
		panic(errors.Wrap(err, "Failed to initialize the spleeter splitter"))
	}

	policy := validation.DefaultPolicy(config.MaxFileSize)
	usecase := separationusecase.NewUsecase(workspaces, splitter, policy)
	return separationgateway.NewGateway(usecase)
}

func makeJanitor(config Config, workspaces sessionstorage.Workspaces) *janitor.Janitor {
	if config.SessionRetention == 0 {
		return nil
	}

	return janitor.NewJanitor(workspaces, config.SessionRetention, sweepInterval)
}

func makeCorsMiddleware(config Config) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: config.CORSAllowedOrigins,
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	})
}
