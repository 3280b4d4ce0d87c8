package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Wikid82/formguard/internal/config"
	"github.com/Wikid82/formguard/internal/database"
	"github.com/Wikid82/formguard/internal/logger"
	"github.com/Wikid82/formguard/internal/models"
	"github.com/Wikid82/formguard/internal/services"
)

type demoSubmission struct {
	visitor    string
	confidence float64
	ip         string
	userAgent  string
	repeat     int
}

var demo = []demoSubmission{
	{visitor: "a1b2c3d4e5f6", confidence: 0.99, ip: "198.51.100.10", userAgent: "Mozilla/5.0 (X11; Linux x86_64) Firefox/128.0", repeat: 2},
	{visitor: "f0e1d2c3b4a5", confidence: 0.95, ip: "198.51.100.11", userAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) Safari/605.1.15", repeat: 1},
	{visitor: "0badc0ffee00", confidence: 0.21, ip: "203.0.113.50", userAgent: "python-requests/2.32.3", repeat: 1},
	{visitor: "deadbeef0001", confidence: 0.97, ip: "203.0.113.77", userAgent: "curl/8.8.0", repeat: 8},
	{visitor: models.VisitorError, ip: "192.0.2.33", userAgent: "Mozilla/5.0 (Windows NT 10.0) Chrome/126.0", repeat: 1},
	{visitor: "", ip: "192.0.2.34", userAgent: "Go-http-client/1.1", repeat: 1},
}

func main() {
	logger.Init(true, os.Stdout)
	ctx := context.Background()

	cfg, err := config.Load(os.Getenv("FORMGUARD_CONFIG"))
	if err != nil {
		logger.Log().WithError(err).Fatal("load config")
	}

	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		logger.Log().WithError(err).Fatal("connect database")
	}

	fmt.Println("✓ Database migrated successfully")

	auth := services.NewAuthService(db, cfg)
	if _, err := auth.Register("admin@example.com", "changeme123", "Administrator"); err != nil {
		logger.Log().WithError(err).Warn("admin account not created (it may already exist)")
	} else {
		fmt.Println("✓ Created admin: admin@example.com / changeme123")
	}

	logs := services.NewFingerprintLogService(db, cfg.StoreTimeout)
	guard := services.NewGuardService(logs, nil, cfg.Guard)

	created := 0
	for _, s := range demo {
		conf := s.confidence
		for i := 0; i < s.repeat; i++ {
			sub := services.Submission{
				VisitorID: s.visitor,
				IPAddress: s.ip,
				UserAgent: s.userAgent,
			}
			if s.visitor != "" && !services.IsSentinelVisitor(s.visitor) {
				sub.Confidence = &conf
			}
			d := guard.Evaluate(ctx, sub)
			created += len(d.LogIDs)
		}
	}
	fmt.Printf("✓ Created %d decision records\n", created)

	affected, err := logs.MarkSpam(ctx, "deadbeef0001")
	if err != nil {
		logger.Log().WithError(err).Fatal("mark demo spammer")
	}
	fmt.Printf("✓ Marked %d records of deadbeef0001 as spam\n", affected)

	stats, err := logs.AggregateCounts(ctx, nil)
	if err != nil {
		logger.Log().WithError(err).Fatal("aggregate counts")
	}
	fmt.Printf("\n✓ Seed complete: %d total, %d allowed, %d blocked, %d spam, %d suspicious\n",
		stats.Total, stats.Allowed, stats.Blocked, stats.Spam, stats.Suspicious)
}
