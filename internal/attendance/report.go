package attendance

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/park285/nearcade-kakao-bot/internal/domain"
	"github.com/park285/nearcade-kakao-bot/internal/msgcat"
)

// Origin identifies who sent a report and from where; it ends up in the
// submission comment and the last-reporter record.
type Origin struct {
	UserID    string
	UserName  string
	ChannelID string
	GroupName string
}

type ReportEngine struct {
	remote    Remote
	reporters Reporters
	cat       *msgcat.Catalog
	platform  string
	now       func() time.Time
	log       *zap.Logger
}

// Submit turns one triple into an absolute headcount, submits it and returns the
// result line. Failures are reported in the line and never returned.
func (e *ReportEngine) Submit(ctx context.Context, target *Target, t Triple, origin Origin) string {
	count := t.Count
	var live int
	if t.Op != OpAbsolute {
		snapshot, err := e.remote.GetAttendance(ctx, target.Key.Source, target.Key.ExternalID)
		if err != nil {
			return e.cat.Text("report.live_failed", map[string]any{"Arcade": target.Name, "Error": err.Error()})
		}
		found := false
		for _, g := range snapshot.Games {
			if g.GameID == target.GameUnitID {
				live, found = g.Total, true
				break
			}
		}
		if !found {
			return e.cat.Text("report.game_missing", map[string]any{"Arcade": target.Name, "GameID": target.GameUnitID})
		}
		if t.Op == OpIncrement {
			count = clampCount(live + t.Count)
		} else {
			count = clampCount(live - t.Count)
		}
	}

	resp, err := e.remote.ReportAttendance(ctx, target.Key.Source, target.Key.ExternalID, target.GameUnitID, count, e.comment(origin))
	if err != nil {
		e.log.Warn("attendance_report_submit_failed",
			zap.String("arcade", target.Key.String()),
			zap.Int64("game_unit", target.GameUnitID),
			zap.Error(err),
		)
		return e.cat.Text("report.failed", map[string]any{"Arcade": target.Name, "Error": err.Error()})
	}
	if resp == nil || !resp.Success {
		return e.cat.Text("report.failed", map[string]any{"Arcade": target.Name, "Error": e.cat.Text("report.unknown_error", nil)})
	}

	rec := &domain.ReporterRecord{
		Source:       target.Key.Source,
		ExternalID:   target.Key.ExternalID,
		ReporterID:   origin.UserID,
		ReporterName: origin.UserName,
		UpdatedAt:    e.now(),
	}
	if err := e.reporters.UpsertLastReporter(ctx, rec); err != nil {
		e.log.Warn("last_reporter_upsert_failed", zap.String("arcade", target.Key.String()), zap.Error(err))
	}
	e.log.Info("attendance_report_submit",
		zap.String("arcade", target.Key.String()),
		zap.Int64("game_unit", target.GameUnitID),
		zap.String("op", t.Op.String()),
		zap.Int("count", count),
		zap.String("user_id", origin.UserID),
	)

	gameName, version := e.cat.Text("report.unknown_game", nil), e.cat.Text("report.unknown_version", nil)
	if g, ok := target.Game(); ok {
		gameName, version = g.Name, g.Version
	}
	data := map[string]any{"Arcade": target.Name, "Game": gameName, "Version": version, "Count": count}
	if t.Op == OpAbsolute {
		return e.cat.Text("report.success", data)
	}
	data["Live"] = live
	return e.cat.Text("report.success_relative", data)
}

func (e *ReportEngine) comment(o Origin) string {
	group := o.ChannelID
	if o.GroupName != "" {
		group = e.cat.Text("report.group_named", map[string]any{"Name": o.GroupName, "ID": o.ChannelID})
	}
	return e.cat.Text("report.comment", map[string]any{
		"User": o.UserName, "UserID": o.UserID, "Platform": e.platform, "Group": group,
	})
}
