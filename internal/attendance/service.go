package attendance

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/nearcade-kakao-bot/internal/domain"
	"github.com/park285/nearcade-kakao-bot/internal/msgcat"
	"github.com/park285/nearcade-kakao-bot/pkg/nearcadedto"
)

// Message is a chat message in the shape the core needs.
type Message struct {
	Origin
	Text string
}

type Config struct {
	SelfID      string // nearcade user id of the bot account
	Platform    string // shown in submission comments, e.g. "KakaoTalk"
	SearchLimit int
	Location    *time.Location
	Titles      *TitleTable
	Now         func() time.Time
}

// Service routes non-command chat messages to the query or report path.
type Service struct {
	bindings BindingLister
	resolver *Resolver
	query    *QueryEngine
	report   *ReportEngine
	cat      *msgcat.Catalog
	log      *zap.Logger
}

func NewService(bindings BindingLister, reporters Reporters, remote Remote, cat *msgcat.Catalog, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cat == nil {
		cat = msgcat.MustDefault()
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = DefaultSearchLimit
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		bindings: bindings,
		resolver: NewResolver(remote, cfg.Titles, cfg.SearchLimit, log),
		query: &QueryEngine{
			remote:      remote,
			reporters:   reporters,
			cat:         cat,
			selfID:      cfg.SelfID,
			loc:         cfg.Location,
			searchLimit: cfg.SearchLimit,
			log:         log,
		},
		report: &ReportEngine{
			remote:    remote,
			reporters: reporters,
			cat:       cat,
			platform:  cfg.Platform,
			now:       cfg.Now,
			log:       log,
		},
		cat: cat,
		log: log,
	}
}

// Resolver exposes the resolver for the command layer.
func (s *Service) Resolver() *Resolver { return s.resolver }

// Handle returns an empty reply for anything that is not a query or report about a
// known or discoverable arcade.
func (s *Service) Handle(ctx context.Context, msg Message) Reply {
	intent := Classify(msg.Text)
	if intent.Kind == IntentNone {
		return Reply{}
	}
	var triples []Triple
	if intent.Kind == IntentReport {
		if triples = ParseReports(intent.Lines); len(triples) == 0 {
			return Reply{}
		}
	}

	bindings, err := s.bindings.ListBindings(ctx, msg.ChannelID)
	if err != nil {
		s.log.Error("list_bindings_failed", zap.String("channel", msg.ChannelID), zap.Error(err))
		return Reply{}
	}

	if intent.Kind == IntentQuery {
		return s.query.Run(ctx, intent.Residual, bindings)
	}
	return s.runReports(ctx, msg.Origin, triples, bindings)
}

// runReports processes triples strictly in order; a later relative report may
// depend on the state an earlier one left behind.
func (s *Service) runReports(ctx context.Context, origin Origin, triples []Triple, bindings []*domain.ArcadeBinding) Reply {
	var items []string
	for _, t := range triples {
		res := s.resolver.Resolve(ctx, t.Target, bindings)
		switch {
		case res.Found():
			items = append(items, s.report.Submit(ctx, res.Target, t, origin))
		case len(res.Ambiguous) > 0:
			items = append(items, s.ambiguous(t.Target, res.Ambiguous))
		default:
			s.log.Debug("resolve_miss", zap.String("target", t.Target))
		}
	}
	return Batch("", items)
}

func (s *Service) ambiguous(ref string, shops []nearcadedto.Shop) string {
	lines := []string{s.cat.Text("report.ambiguous", map[string]any{"Query": ref, "Count": len(shops)})}
	for i, shop := range shops {
		key := domain.ArcadeKey{Source: shop.Source, ExternalID: shop.ID}
		lines = append(lines, s.cat.Text("report.candidate", map[string]any{
			"Index": i + 1, "Name": shop.Name, "ID": key.String(),
		}))
	}
	return strings.Join(lines, "\n")
}
