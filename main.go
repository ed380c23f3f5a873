package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "HRM-backend/docs"
	"HRM-backend/internal/alerting"
	"HRM-backend/internal/attendance"
	"HRM-backend/internal/employee"
	"HRM-backend/internal/masterdata"
	"HRM-backend/internal/notification"
	"HRM-backend/internal/platform/auth"
	"HRM-backend/internal/platform/db"
	"HRM-backend/internal/platform/mail"
	"HRM-backend/internal/platform/push"
	"HRM-backend/internal/settings"
	"HRM-backend/internal/threshold"
)

func main() {
	cfg, err := db.LoadConfig(db.ConfigFilePath)
	if err != nil {
		panic(err)
	}

	mode := cfg.Mode
	log.Printf("[INFO] mode:%s\n", mode)

	if mode != "dev" && mode != "release" {
		fmt.Println("config mode must be dev or release")
		return
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("[ERROR] auth.jwt_secret (or JWT_SECRET) is required")
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	loc := cfg.Location()
	log.Printf("[INFO] timezone: %s", loc)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// ===== infrastructure =====
	mailer := mail.NewSMTPSender(mail.SMTPConfig{
		Server:       cfg.Mail.SMTPServer,
		Port:         cfg.Mail.SMTPPort,
		Username:     cfg.Mail.Username,
		Password:     cfg.Mail.Password,
		FromEmail:    cfg.Mail.FromEmail,
		FromName:     cfg.Mail.FromName,
		TLSEnabled:   cfg.Mail.TLSEnabled,
		SkipTLSCheck: cfg.Mail.SkipTLSCheck,
	})

	// must stay an untyped nil when push is off
	var pusher push.Sender
	if cfg.Push.Enabled {
		fcm, err := push.NewFCMSender(ctx, cfg.Push.CredentialsFile, cfg.Push.Topic)
		if err != nil {
			log.Printf("[WARN] push disabled: %v", err)
		} else {
			pusher = fcm
			log.Printf("[INFO] push alerts on topic %q", cfg.Push.Topic)
		}
	}

	notifySettings := settings.NewProvider(settings.NewStore(conn), settings.Notification{
		AlertRecipient: cfg.Mail.DefaultRecipient,
		OpsRecipient:   cfg.Mail.OpsRecipient,
	})

	// ===== domain services =====
	employees := employee.NewDirectory(conn)
	attendanceStore := attendance.NewStore(conn)
	rules := threshold.NewService(threshold.NewStore(conn))
	notes := notification.NewService(notification.NewStore(conn))
	masters := masterdata.NewService(masterdata.NewStore(conn))

	pipeline := alerting.NewPipeline(
		alerting.NewAggregator(attendanceStore, employees, loc),
		rules,
		alerting.NewNotifier(notes, mailer, pusher, notifySettings, cfg.Mail.DefaultRecipient),
		loc,
	)
	queue := alerting.NewQueue(pipeline, cfg.Alerting.QueueSize, cfg.Alerting.JobTimeout, loc)
	workerDone := make(chan struct{})
	go func() {
		queue.Run(ctx)
		close(workerDone)
	}()

	sched, err := alerting.NewScheduler(cfg.Alerting.SweepSchedule, loc, queue)
	if err != nil {
		log.Fatalf("[ERROR] sweep schedule: %v", err)
	}
	sched.Start()

	attendanceSvc := attendance.NewService(attendanceStore, employees, queue, mailer, notifySettings, attendance.Options{
		Location:           loc,
		MaxImportRows:      cfg.Import.MaxRows,
		MaxErrorsInSummary: cfg.Import.MaxErrorsInSummary,
	})

	// ===== http =====
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if mode == "dev" {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowCredentials: true,
		}))
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	// /api/v2
	api := r.Group("/api/v2", auth.RequireAuth([]byte(cfg.Auth.JWTSecret)))

	staff := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleHR))
	attendance.RegisterRoutes(staff, attendanceSvc)
	notification.RegisterRoutes(staff, notes)
	masterdata.RegisterRoutes(staff, masters)

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	attendance.RegisterAdminRoutes(admin, attendanceSvc)
	masterdata.RegisterAdminRoutes(admin, masters)
	threshold.RegisterRoutes(admin, rules)
	settings.RegisterRoutes(admin, notifySettings)
	alerting.RegisterRoutes(admin, pipeline, loc)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		var err error
		if cfg.Certificate.Cert != "" && cfg.Certificate.Key != "" {
			certFile := fmt.Sprintf("config/tls/%s/%s", mode, cfg.Certificate.Cert)
			keyFile := fmt.Sprintf("config/tls/%s/%s", mode, cfg.Certificate.Key)
			log.Printf("[INFO] listening on https://%s", cfg.Server.Addr)
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			log.Printf("[WARN] no certificate configured, listening on http://%s", cfg.Server.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("[INFO] shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] http shutdown: %v", err)
	}

	sched.Stop()
	stop()
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Println("[WARN] alert worker did not stop in time")
	}
}
