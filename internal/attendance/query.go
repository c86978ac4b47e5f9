package attendance

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/park285/nearcade-kakao-bot/internal/domain"
	"github.com/park285/nearcade-kakao-bot/internal/msgcat"
	"github.com/park285/nearcade-kakao-bot/pkg/nearcadedto"
)

const timeLayout = "2006-01-02 15:04:05"

type queryCandidate struct {
	key  domain.ArcadeKey
	name string
}

type queryResult struct {
	data *nearcadedto.AttendanceResponse
	err  error
}

type QueryEngine struct {
	remote      Remote
	reporters   Reporters
	cat         *msgcat.Catalog
	selfID      string
	loc         *time.Location
	searchLimit int
	log         *zap.Logger
}

// Run answers a headcount query. It returns an empty reply when the residual names
// nothing known locally or remotely.
func (q *QueryEngine) Run(ctx context.Context, residual string, bindings []*domain.ArcadeBinding) Reply {
	candidates := q.candidates(ctx, residual, bindings)
	if len(candidates) == 0 {
		return Reply{}
	}

	// all fetches run at once; latency is the slowest single fetch
	results := make([]queryResult, len(candidates))
	var g errgroup.Group
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			data, err := q.remote.GetAttendance(ctx, c.key.Source, c.key.ExternalID)
			results[i] = queryResult{data: data, err: err}
			return nil
		})
	}
	_ = g.Wait()

	blocks := make([]string, 0, len(candidates))
	for i, c := range candidates {
		blocks = append(blocks, q.render(ctx, c, results[i]))
	}
	q.log.Debug("attendance_query",
		zap.String("residual", residual),
		zap.Int("candidates", len(candidates)),
	)
	return Batch(q.cat.Text("query.header", nil), blocks)
}

func (q *QueryEngine) candidates(ctx context.Context, residual string, bindings []*domain.ArcadeBinding) []queryCandidate {
	residual = strings.TrimSpace(residual)
	if residual == "" {
		return allCandidates(bindings)
	}

	lowered := strings.ToLower(residual)
	var out []queryCandidate
	for _, b := range bindings {
		for _, n := range b.Names {
			if n != "" && strings.HasPrefix(lowered, strings.ToLower(n)) {
				out = append(out, queryCandidate{key: b.Key(), name: b.PrimaryName()})
				break
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	// a bound alias such as "jt" wins over the generic word
	if IsAllArcades(residual) {
		return allCandidates(bindings)
	}
	if utf8.RuneCountInString(residual) < minRemoteQueryRunes {
		return nil
	}

	shops, err := q.remote.SearchShops(ctx, residual, q.searchLimit)
	if err != nil {
		q.log.Warn("query_remote_fallback_failed", zap.String("query", residual), zap.Error(err))
		return nil
	}
	for _, s := range shops {
		out = append(out, queryCandidate{
			key:  domain.ArcadeKey{Source: strings.ToLower(s.Source), ExternalID: s.ID},
			name: s.Name,
		})
	}
	return out
}

func allCandidates(bindings []*domain.ArcadeBinding) []queryCandidate {
	out := make([]queryCandidate, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, queryCandidate{key: b.Key(), name: b.PrimaryName()})
	}
	return out
}

func (q *QueryEngine) render(ctx context.Context, c queryCandidate, res queryResult) string {
	if res.err != nil || res.data == nil {
		msg := q.cat.Text("report.unknown_error", nil)
		if res.err != nil {
			msg = res.err.Error()
		}
		return q.cat.Text("query.fetch_failed", map[string]any{"Name": c.name, "Error": msg})
	}
	data := res.data
	var lines []string
	if len(data.Reported) > 0 {
		latest := data.Reported[0]
		lines = append(lines, q.cat.Text("query.arcade_reported", map[string]any{
			"Name":     c.name,
			"Total":    data.Total,
			"Reporter": q.reporterLabel(ctx, c.key, latest),
			"At":       q.formatTime(latest.ReportedAt),
		}))
	} else {
		lines = append(lines, q.cat.Text("query.arcade", map[string]any{"Name": c.name, "Total": data.Total}))
	}
	for _, g := range data.Games {
		if !hasActivity(data, g.GameID) {
			continue
		}
		lines = append(lines, q.cat.Text("query.game", map[string]any{
			"Name": g.Name, "Version": g.Version, "Total": g.Total,
		}))
	}
	return strings.Join(lines, "\n")
}

// reporterLabel names who filed a report. nearcade shows reports submitted through
// this bot as the bot account, so those are attributed from the local record.
func (q *QueryEngine) reporterLabel(ctx context.Context, key domain.ArcadeKey, r nearcadedto.Reported) string {
	if q.selfID != "" && r.ReportedBy == q.selfID {
		rec, err := q.reporters.GetLastReporter(ctx, key.Source, key.ExternalID)
		if err != nil {
			q.log.Warn("last_reporter_lookup_failed", zap.String("arcade", key.String()), zap.Error(err))
		}
		if rec != nil {
			return q.cat.Text("query.self_reporter", map[string]any{"Name": rec.ReporterName, "ID": rec.ReporterID})
		}
		return q.cat.Text("query.unknown_reporter", nil)
	}
	if label := r.Reporter.Label(); label != "" {
		return label
	}
	if r.ReportedBy != "" {
		return r.ReportedBy
	}
	return q.cat.Text("query.unknown_reporter", nil)
}

func (q *QueryEngine) formatTime(raw string) string {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return raw
	}
	if q.loc != nil {
		t = t.In(q.loc)
	}
	return t.Format(timeLayout)
}

func hasActivity(data *nearcadedto.AttendanceResponse, gameUnitID int64) bool {
	for _, r := range data.Reported {
		if r.GameID == gameUnitID {
			return true
		}
	}
	for _, r := range data.Registered {
		if r.GameID == gameUnitID {
			return true
		}
	}
	return false
}
