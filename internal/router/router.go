package router

import (
	"time"

	"nominapro/internal/config"
	"nominapro/internal/handler"
	"nominapro/internal/infra"
	"nominapro/internal/middleware"
	"nominapro/internal/repository"
	"nominapro/internal/service"
	"nominapro/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, calculoCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	calculoClient := infra.NewCalculoClient(cfg.CalculoServiceURL, time.Duration(cfg.CalculoTimeoutSec)*time.Second)

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	empleadoRepo := repository.NewEmpleadoRepository(db)
	periodoRepo := repository.NewPeriodoRepository(db)
	novedadRepo := repository.NewNovedadRepository(db)
	ajusteRepo := repository.NewAjusteRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb, cfg.NotificacionesEmail)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	empleadoSvc := service.NewEmpleadoService(empleadoRepo)
	calculoSvc := service.NewCalculoService(calculoClient, calculoCB)
	reconciliadorSvc := service.NewReconciliadorService(novedadRepo, ajusteRepo)
	novedadSvc := service.NewNovedadService(novedadRepo, ajusteRepo, periodoRepo, empleadoRepo, calculoSvc, reconciliadorSvc)
	periodoSvc := service.NewPeriodoService(periodoRepo, ajusteRepo, novedadRepo, empleadoRepo, calculoSvc, reconciliadorSvc, dispatcher)
	previsualizador := service.NewPrevisualizador(calculoSvc, empleadoRepo, time.Duration(cfg.PreviewDebounceMs)*time.Millisecond)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	empleadosH := handler.NewEmpleadosHandler(empleadoSvc)
	periodosH := handler.NewPeriodosHandler(periodoSvc)
	novedadesH := handler.NewNovedadesHandler(novedadSvc, previsualizador)
	liquidacionH := handler.NewLiquidacionHandler(reconciliadorSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, calculoCB))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: analista, supervisor, administrador — declared per-endpoint
		todos := middleware.RequireRole("analista", "supervisor", "administrador")

		// Catálogo de tipos — read-only, any authenticated role
		v1.GET("/tipos-novedad", todos, handler.TiposNovedad())

		// Novedades
		v1.POST("/novedades", todos, novedadesH.Registrar)
		v1.POST("/novedades/lote", todos, novedadesH.RegistrarLote)
		v1.POST("/novedades/preview", todos, novedadesH.Preview)
		v1.DELETE("/novedades/:id", todos, novedadesH.Eliminar)

		// Ajustes pendientes — discarding a queued adjustment is a close
		// decision, same roles as cerrar/reabrir
		v1.DELETE("/ajustes/:id", middleware.RequireRole("supervisor", "administrador"), novedadesH.DescartarAjuste)

		// Períodos — reabrir restricted to supervisor/administrador
		v1.GET("/periodos", todos, periodosH.Listar)
		v1.GET("/periodos/:id", todos, periodosH.Obtener)
		v1.POST("/periodos", middleware.RequireRole("supervisor", "administrador"), periodosH.Crear)
		v1.POST("/periodos/:id/cerrar", middleware.RequireRole("supervisor", "administrador"), periodosH.Cerrar)
		v1.POST("/periodos/:id/reabrir", middleware.RequireRole("supervisor", "administrador"), periodosH.Reabrir)

		// Liquidación read side
		v1.GET("/periodos/:id/empleados/:empleadoId/novedades", todos, liquidacionH.Novedades)
		v1.GET("/periodos/:id/empleados/:empleadoId/totales", todos, liquidacionH.Totales)

		// Empleados — writes restricted to administrador
		v1.GET("/empleados", todos, empleadosH.Listar)
		v1.GET("/empleados/:id", todos, empleadosH.Obtener)
		empleados := v1.Group("/empleados", middleware.RequireRole("administrador"))
		{
			empleados.POST("", empleadosH.Crear)
			empleados.PUT("/:id/salario", empleadosH.ActualizarSalario)
			empleados.DELETE("/:id", empleadosH.Desactivar)
		}

		usuarios := v1.Group("/usuarios", middleware.RequireRole("administrador"))
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
