package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Wikid82/formguard/internal/logger"
	"github.com/Wikid82/formguard/internal/models"
	"github.com/Wikid82/formguard/internal/services"
)

func logService() *services.FingerprintLogService {
	return services.NewFingerprintLogService(env.db, env.cfg.StoreTimeout)
}

func auditService() *services.AuditService {
	return services.NewAuditService(env.db, env.cfg.StoreTimeout)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cliAudit(cmd *cobra.Command, action, visitorID string, affected int64, details string) {
	a := &models.AdminAudit{
		Actor:     "cli",
		Action:    action,
		VisitorID: visitorID,
		Affected:  affected,
		Details:   details,
	}
	if err := auditService().LogAudit(cmd.Context(), a); err != nil {
		logger.Log().WithError(err).Warn("failed to record audit entry")
	}
}

func logsCommand() *cobra.Command {
	var (
		status  string
		limit   int
		visitor string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "List recent submission decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				logs []models.FingerprintLog
				err  error
			)
			if visitor != "" {
				logs, err = logService().QueryByVisitor(cmd.Context(), visitor, limit)
			} else {
				logs, err = logService().Query(cmd.Context(), status, limit)
			}
			if err != nil {
				return err
			}
			return printJSON(logs)
		},
	}
	cmd.Flags().StringVar(&status, "status", services.StatusFilterAll, "status filter: all, allowed, blocked, spam or suspicious")
	cmd.Flags().IntVar(&limit, "limit", services.DefaultQueryLimit, "maximum number of records")
	cmd.Flags().StringVar(&visitor, "visitor", "", "only show records for this visitor id")
	return cmd
}

func statsCommand() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-status totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			var period *int
			if cmd.Flags().Changed("days") {
				period = &days
			}
			stats, err := logService().AggregateCounts(cmd.Context(), period)
			if err != nil {
				return err
			}
			return printJSON(stats)
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "only count the last N days (default all time)")
	return cmd
}

func purgeCommand() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete records older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("days") {
				days = env.cfg.RetentionDays
			}
			retention := services.NewRetentionService(logService(), env.cfg.RetentionDays, env.cfg.PurgeSchedule, nil)
			deleted, err := retention.Purge(cmd.Context(), days)
			if err != nil {
				return err
			}
			cliAudit(cmd, "purge", "", deleted, fmt.Sprintf("days=%d", days))
			fmt.Printf("deleted %d records\n", deleted)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "retention in days (default from config)")
	return cmd
}

func markSpamCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-spam <visitor-id>",
		Short: "Mark every record of a visitor as spam",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			affected, err := logService().MarkSpam(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cliAudit(cmd, "mark_spam", args[0], affected, "")
			fmt.Printf("marked %d records as spam\n", affected)
			return nil
		},
	}
}

func unmarkSpamCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unmark-spam <visitor-id>",
		Short: "Return a visitor's spam records to allowed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			affected, err := logService().UnmarkSpam(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cliAudit(cmd, "unmark_spam", args[0], affected, "")
			fmt.Printf("restored %d records to allowed\n", affected)
			return nil
		},
	}
}
