// Command ts-judge starts a http server that runs TypeScript snippets against
// the test cases of practice problems.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/criyle/ts-judge/cmd/ts-judge/config"
	restexecutor "github.com/criyle/ts-judge/cmd/ts-judge/rest_executor"
	"github.com/criyle/ts-judge/cmd/ts-judge/version"
	wsexecutor "github.com/criyle/ts-judge/cmd/ts-judge/ws_executor"
	"github.com/criyle/ts-judge/judger"
	"github.com/criyle/ts-judge/language"
	"github.com/criyle/ts-judge/problem"
	"github.com/criyle/ts-judge/progress"
	"github.com/criyle/ts-judge/runner"
	"github.com/criyle/ts-judge/worker"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

var logger *zap.Logger

func main() {
	conf := loadConf()
	if conf.Version {
		fmt.Println(version.Version)
		return
	}
	initLogger(conf)
	defer logger.Sync()
	if ce := logger.Check(zap.InfoLevel, "Config loaded"); ce != nil {
		ce.Write(zap.String("config", fmt.Sprintf("%+v", conf)))
	}

	catalog := newCatalog(conf)
	store, storeCleanUp := newProgressStore(conf)
	work := newWorker(conf)
	work.Start()
	logger.Info("Worker started",
		zap.Int("parallelism", conf.Parallelism),
		zap.Int("problems", len(catalog.All())),
		zap.Duration("timeLimit", conf.TimeLimit))

	j := &judger.Judger{
		Catalog:  catalog,
		Worker:   work,
		Progress: store,
		Logger:   logger,
	}

	servers := []initFunc{
		cleanUpWorker(work),
		cleanUpStore(storeCleanUp),
		initHTTPServer(conf, work, j),
		initMonitorHTTPServer(conf),
	}

	// Gracefully shutdown, with signal / HTTP server / Monitor HTTP server
	sig := make(chan os.Signal, 1+len(servers))

	stops := []stopFunc{}
	for _, s := range servers {
		start, stop := s()
		if start != nil {
			go func() {
				start()
				sig <- os.Interrupt
			}()
		}
		if stop != nil {
			stops = append(stops, stop)
		}
	}

	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	signal.Reset(syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Shutting Down...")

	ctx, cancel := context.WithTimeout(context.TODO(), time.Second*3)
	defer cancel()

	var eg errgroup.Group
	for _, s := range stops {
		eg.Go(func() error {
			return s(ctx)
		})
	}

	go func() {
		logger.Info("Shutdown Finished", zap.Error(eg.Wait()))
		cancel()
	}()
	<-ctx.Done()
}

func loadConf() *config.Config {
	var conf config.Config
	if err := conf.Load(); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		log.Fatalln("load config failed ", err)
	}
	return &conf
}

type (
	stopFunc func(ctx context.Context) error
	initFunc func() (start func(), cleanUp stopFunc)
)

func cleanUpWorker(work worker.Worker) initFunc {
	return func() (start func(), cleanUp stopFunc) {
		return nil, func(ctx context.Context) error {
			work.Shutdown()
			logger.Info("Worker shutdown")
			return nil
		}
	}
}

func cleanUpStore(storeCleanUp func() error) initFunc {
	return func() (start func(), cleanUp stopFunc) {
		if storeCleanUp == nil {
			return nil, nil
		}
		return nil, func(ctx context.Context) error {
			err := storeCleanUp()
			logger.Info("Progress store closed")
			return err
		}
	}
}

func initHTTPServer(conf *config.Config, work worker.Worker, j *judger.Judger) initFunc {
	return func() (start func(), cleanUp stopFunc) {
		r := initHTTPMux(conf, work, j)
		srv := http.Server{
			Addr:    conf.HTTPAddr,
			Handler: r,
		}

		return func() {
				logger.Info("Starting http server", zap.String("addr", conf.HTTPAddr))
				if err := srv.ListenAndServe(); errors.Is(err, http.ErrServerClosed) {
					logger.Info("Http server stopped", zap.Error(err))
				} else {
					logger.Error("Http server stopped", zap.Error(err))
				}
			}, func(ctx context.Context) error {
				logger.Info("Http server shutting down")
				return srv.Shutdown(ctx)
			}
	}
}

func initMonitorHTTPServer(conf *config.Config) initFunc {
	return func() (start func(), cleanUp stopFunc) {
		mr := initMonitorHTTPMux(conf)
		if mr == nil {
			return nil, nil
		}
		msrv := http.Server{
			Addr:    conf.MonitorAddr,
			Handler: mr,
		}
		return func() {
				logger.Info("Starting monitoring http server", zap.String("addr", conf.MonitorAddr))
				logger.Info("Monitoring http server stopped", zap.Error(msrv.ListenAndServe()))
			}, func(ctx context.Context) error {
				logger.Info("Monitoring http server shutdown")
				return msrv.Shutdown(ctx)
			}
	}
}

func initLogger(conf *config.Config) {
	if conf.Silent {
		logger = zap.NewNop()
		return
	}

	var err error
	if conf.Release {
		logger, err = zap.NewProduction()
	} else {
		config := zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		if !conf.EnableDebug {
			config.Level.SetLevel(zap.InfoLevel)
		}
		logger, err = config.Build()
	}
	if err != nil {
		log.Fatalln("init logger failed ", err)
	}
}

func newCatalog(conf *config.Config) problem.Catalog {
	var (
		c   *problem.StaticCatalog
		err error
	)
	if conf.ProblemDir == "" {
		c, err = problem.Builtin()
	} else {
		c, err = problem.LoadDir(conf.ProblemDir)
	}
	if err != nil {
		logger.Fatal("load problems failed", zap.String("dir", conf.ProblemDir), zap.Error(err))
	}
	return c
}

func newProgressStore(conf *config.Config) (progress.Store, func() error) {
	if conf.RedisAddr == "" {
		return progress.NewMemoryStore(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     conf.RedisAddr,
		Password: conf.RedisPassword,
		DB:       conf.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal("connect redis failed", zap.String("addr", conf.RedisAddr), zap.Error(err))
	}
	logger.Info("Progress stored in redis", zap.String("addr", conf.RedisAddr), zap.String("prefix", conf.RedisPrefix))
	return progress.NewRedisStore(client, conf.RedisPrefix), client.Close
}

func newRunner(conf *config.Config) *runner.Runner {
	r := runner.New(logger)
	r.Language = &language.Static{
		Target:           conf.Target,
		TimeLimit:        conf.TimeLimit,
		EvalTimeLimit:    conf.EvalTimeLimit,
		MaxCallStackSize: conf.MaxCallStackSize,
		OutputLimit:      conf.OutputLimit,
	}
	switch conf.Resolver {
	case "", "default":
	case "last":
		r.Resolver = runner.LastDeclared{}
	default:
		logger.Fatal("unknown resolver", zap.String("resolver", conf.Resolver))
	}
	return r
}

func newWorker(conf *config.Config) worker.Worker {
	return worker.New(worker.Config{
		Runner:       newRunner(conf),
		Parallelism:  conf.Parallelism,
		ExecObserver: execObserve,
	})
}

func initHTTPMux(conf *config.Config, work worker.Worker, j *judger.Judger) http.Handler {
	var r *gin.Engine
	if conf.Release {
		gin.SetMode(gin.ReleaseMode)
	}
	r = gin.New()
	r.Use(ginzap.Ginzap(logger, "", false))
	r.Use(ginzap.RecoveryWithZap(logger, true))

	// Metrics Handle
	if conf.EnableMetrics {
		initGinMetrics(r)
	}

	// Version handle
	r.GET("/version", generateHandleVersion(conf))

	// Config handle
	r.GET("/config", generateHandleConfig(conf))

	// Add auth token
	if conf.AuthToken != "" {
		r.Use(tokenAuth(conf.AuthToken))
		logger.Info("Attach token auth")
	}

	// Rest Handle
	restexecutor.NewRunHandle(work, logger).Register(r)
	restexecutor.NewProblemHandle(j, logger).Register(r)
	restexecutor.NewProgressHandle(j.Catalog, j.Progress, logger).Register(r)

	// WebSocket Handle
	wsexecutor.New(j, logger).Register(r)

	return r
}

func initMonitorHTTPMux(conf *config.Config) http.Handler {
	if !conf.EnableMetrics && !conf.EnableDebug {
		return nil
	}
	mux := http.NewServeMux()
	if conf.EnableMetrics {
		mux.Handle("/metrics", promhttp.Handler())
	}
	if conf.EnableDebug {
		initDebugRoute(mux)
	}
	return mux
}

func initDebugRoute(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
}

func initGinMetrics(r *gin.Engine) {
	p := ginprometheus.NewWithConfig(ginprometheus.Config{
		Subsystem:          "gin",
		DisableBodyReading: true,
	})
	p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
		return c.FullPath()
	}
	r.Use(p.HandlerFunc())
}

func tokenAuth(token string) gin.HandlerFunc {
	const bearer = "Bearer "
	return func(c *gin.Context) {
		reqToken := c.GetHeader("Authorization")
		if strings.HasPrefix(reqToken, bearer) && reqToken[len(bearer):] == token {
			c.Next()
			return
		}
		c.AbortWithStatus(http.StatusUnauthorized)
	}
}

func generateHandleVersion(_ *config.Config) func(*gin.Context) {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"buildVersion": version.Version,
			"goVersion":    runtime.Version(),
			"platform":     runtime.GOARCH,
			"os":           runtime.GOOS,
			"languages":    []string{"typescript", "javascript"},
			"websocket":    true,
		})
	}
}

func generateHandleConfig(conf *config.Config) func(*gin.Context) {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"parallelism":      conf.Parallelism,
			"timeLimit":        conf.TimeLimit.String(),
			"evalTimeLimit":    conf.EvalTimeLimit.String(),
			"maxCallStackSize": conf.MaxCallStackSize,
			"outputLimit":      conf.OutputLimit,
			"target":           conf.Target,
			"resolver":         conf.Resolver,
			"problemDir":       conf.ProblemDir,
			"progressStore":    progressStoreName(conf),
		})
	}
}

func progressStoreName(conf *config.Config) string {
	if conf.RedisAddr != "" {
		return "redis"
	}
	return "memory"
}
