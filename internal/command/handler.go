package command

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/nearcade-kakao-bot/internal/attendance"
	"github.com/park285/nearcade-kakao-bot/internal/domain"
	"github.com/park285/nearcade-kakao-bot/internal/msgcat"
	"github.com/park285/nearcade-kakao-bot/internal/store"
	"github.com/park285/nearcade-kakao-bot/pkg/nearcadedto"
)

const timeLayout = "2006-01-02 15:04:05"

// SiteBase is where shop pages live on the nearcade website.
const SiteBase = "https://nearcade.phizone.cn"

type Remote interface {
	SearchShops(ctx context.Context, query string, maxResults int) ([]nearcadedto.Shop, error)
	GetShop(ctx context.Context, source string, id int64) (*nearcadedto.Shop, error)
}

// Asker waits for the next message of one user in one channel.
type Asker interface {
	Ask(ctx context.Context, channelID, userID string, timeout time.Duration) (string, error)
}

// Sender delivers an intermediate reply while a command is still running.
type Sender interface {
	Send(ctx context.Context, channelID string, reply attendance.Reply) error
}

// Request is one parsed command invocation.
type Request struct {
	ChannelID string
	UserID    string
	UserName  string
	Name      string
	Args      []string
}

type Options struct {
	Prefix        string
	PromptTimeout time.Duration
	Location      *time.Location
	Now           func() time.Time
}

type Handler struct {
	store   store.BindingStore
	remote  Remote
	prompts Asker
	sender  Sender
	cat     *msgcat.Catalog
	opts    Options
	log     *zap.Logger

	commands map[string]runFunc
}

type runFunc func(h *Handler, ctx context.Context, req Request) attendance.Reply

// Command names, first one canonical.
var commandTable = []struct {
	names []string
	run   runFunc
}{
	{[]string{"bind", "add", "绑定机厅", "添加机厅"}, (*Handler).bind},
	{[]string{"list", "机厅列表"}, (*Handler).list},
	{[]string{"unbind", "remove", "解绑机厅", "删除机厅"}, (*Handler).unbind},
	{[]string{"alias.add", "添加别名", "添加机厅别名"}, (*Handler).aliasAdd},
	{[]string{"alias.remove", "删除别名", "删除机厅别名"}, (*Handler).aliasRemove},
	{[]string{"info", "机厅信息"}, (*Handler).info},
	{[]string{"default-game", "设置默认机台", "默认机台", "设置默认游戏", "默认游戏"}, (*Handler).defaultGame},
	{[]string{"alias.game.add", "添加机台别名", "添加游戏别名"}, (*Handler).gameAliasAdd},
	{[]string{"alias.game.remove", "删除机台别名", "删除游戏别名"}, (*Handler).gameAliasRemove},
	{[]string{"help", "帮助"}, (*Handler).help},
}

func NewHandler(bindings store.BindingStore, remote Remote, prompts Asker, sender Sender, cat *msgcat.Catalog, opts Options, log *zap.Logger) *Handler {
	if cat == nil {
		cat = msgcat.MustDefault()
	}
	if opts.Prefix == "" {
		opts.Prefix = "/nc"
	}
	if opts.PromptTimeout <= 0 {
		opts.PromptTimeout = time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		store: bindings, remote: remote, prompts: prompts, sender: sender,
		cat: cat, opts: opts, log: log,
		commands: make(map[string]runFunc),
	}
	for _, c := range commandTable {
		for _, n := range c.names {
			h.commands[strings.ToLower(n)] = c.run
		}
	}
	return h
}

// Parse splits "<prefix> <name> [args...]". ok is false when text does not start
// with the prefix. A bare prefix is the help command.
func (h *Handler) Parse(text string) (name string, args []string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, h.opts.Prefix) {
		return "", nil, false
	}
	rest := text[len(h.opts.Prefix):]
	if rest != "" && !strings.HasPrefix(rest, " ") && !strings.HasPrefix(rest, "\n") && !strings.HasPrefix(rest, "\t") {
		// "/ncx" is not ours
		return "", nil, false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "help", nil, true
	}
	return fields[0], fields[1:], true
}

// Handle runs a parsed command and returns the final reply.
func (h *Handler) Handle(ctx context.Context, req Request) attendance.Reply {
	run, ok := h.commands[strings.ToLower(req.Name)]
	if !ok {
		return h.text("command.unknown", map[string]any{"Prefix": h.opts.Prefix})
	}
	h.log.Info("command",
		zap.String("name", req.Name),
		zap.String("channel", req.ChannelID),
		zap.String("user_id", req.UserID),
	)
	return run(h, ctx, req)
}

func (h *Handler) help(ctx context.Context, req Request) attendance.Reply {
	return h.text("command.help", map[string]any{"Prefix": h.opts.Prefix})
}

func (h *Handler) text(key string, data any) attendance.Reply {
	return attendance.Reply{Text: h.cat.Text(key, data)}
}

func (h *Handler) usage(usage string) attendance.Reply {
	return h.text("command.usage", map[string]any{"Prefix": h.opts.Prefix, "Usage": usage})
}

func (h *Handler) storeFailed(err error) attendance.Reply {
	h.log.Error("command_store_failed", zap.Error(err))
	return h.text("command.store_failed", map[string]any{"Error": err.Error()})
}

func (h *Handler) requestFailed(err error) attendance.Reply {
	return h.text("command.request_failed", map[string]any{"Error": err.Error()})
}

func (h *Handler) formatTime(t time.Time) string {
	return t.In(h.opts.Location).Format(timeLayout)
}

func (h *Handler) joinAliases(list []string) string {
	if len(list) == 0 {
		return h.cat.Text("command.none", nil)
	}
	return strings.Join(list, h.cat.Text("command.separator", nil))
}

func (h *Handler) printArcades(bindings []*domain.ArcadeBinding) string {
	lines := make([]string, 0, len(bindings))
	for _, b := range bindings {
		lines = append(lines, h.cat.Text("command.arcade_entry", map[string]any{
			"Name":         b.PrimaryName(),
			"ID":           b.Key().String(),
			"Aliases":      h.joinAliases(b.Aliases()),
			"Game":         b.DefaultGame.Name,
			"Version":      b.DefaultGame.Version,
			"GameID":       b.DefaultGame.GameUnitID,
			"Registrant":   b.RegistrantName,
			"RegistrantID": b.RegistrantID,
			"At":           h.formatTime(b.RegisteredAt),
		}))
	}
	return strings.Join(lines, "\n")
}

// lookup finds exactly one binding by name or "source/id". With retry, leading
// extra tokens may be folded into the name; rest is what is left of extra.
// A non-empty reply means the lookup failed and the reply explains why.
func (h *Handler) lookup(ctx context.Context, channelID, name string, extra []string, retry bool) (b *domain.ArcadeBinding, all []*domain.ArcadeBinding, rest []string, fail attendance.Reply) {
	all, err := h.store.ListBindings(ctx, channelID)
	if err != nil {
		return nil, nil, nil, h.storeFailed(err)
	}
	if len(all) == 0 {
		return nil, nil, nil, h.text("command.no_bindings", nil)
	}
	var matched []*domain.ArcadeBinding
	rest = extra
	if retry {
		var consumed int
		matched, consumed = attendance.MatchBindings(name, extra, all)
		rest = extra[consumed:]
	} else {
		matched, _ = attendance.MatchBindings(name, nil, all)
	}
	switch len(matched) {
	case 0:
		return nil, nil, nil, h.text("command.not_matched", nil)
	case 1:
		return matched[0], all, rest, attendance.Reply{}
	default:
		text := h.cat.Text("command.ambiguous", nil) + "\n" + h.printArcades(matched)
		return nil, nil, nil, attendance.Reply{Text: text, Forward: len(matched) > attendance.ForwardThreshold}
	}
}
