package command

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/park285/nearcade-kakao-bot/internal/attendance"
	"github.com/park285/nearcade-kakao-bot/internal/domain"
	"github.com/park285/nearcade-kakao-bot/pkg/nearcadedto"
)

func (h *Handler) list(ctx context.Context, req Request) attendance.Reply {
	bindings, err := h.store.ListBindings(ctx, req.ChannelID)
	if err != nil {
		return h.storeFailed(err)
	}
	if len(bindings) == 0 {
		return h.text("command.no_bindings", nil)
	}
	header := h.cat.Text("command.list_header", nil)
	return attendance.Reply{
		Header:  header,
		Text:    header + "\n" + h.printArcades(bindings),
		Forward: len(bindings) > attendance.ForwardThreshold,
	}
}

func (h *Handler) unbind(ctx context.Context, req Request) attendance.Reply {
	if len(req.Args) == 0 {
		return h.usage("unbind <名称>")
	}
	b, _, _, fail := h.lookup(ctx, req.ChannelID, strings.Join(req.Args, " "), nil, false)
	if b == nil {
		return fail
	}
	if err := h.store.DeleteBinding(ctx, b.ID); err != nil {
		return h.storeFailed(err)
	}
	return h.text("command.unbind.success", map[string]any{"Name": b.PrimaryName()})
}

func (h *Handler) info(ctx context.Context, req Request) attendance.Reply {
	if len(req.Args) == 0 {
		return h.usage("info <名称>")
	}
	b, _, _, fail := h.lookup(ctx, req.ChannelID, strings.Join(req.Args, " "), nil, false)
	if b == nil {
		return fail
	}
	shop, err := h.remote.GetShop(ctx, b.Source, b.ExternalID)
	if err != nil {
		return h.requestFailed(err)
	}
	games := make([]string, 0, len(shop.Games))
	for _, g := range shop.Games {
		games = append(games, h.cat.Text("command.info_game", map[string]any{
			"Name": g.Name, "Version": g.Version, "GameID": g.GameID, "Quantity": g.Quantity,
			"Aliases": h.joinAliases(b.AliasesOf(g.GameID)),
		}))
	}
	return h.text("command.info", map[string]any{
		"Name":         b.PrimaryName(),
		"ID":           b.Key().String(),
		"Aliases":      h.joinAliases(b.Aliases()),
		"Game":         b.DefaultGame.Name,
		"Version":      b.DefaultGame.Version,
		"GameID":       b.DefaultGame.GameUnitID,
		"Games":        strings.Join(games, "\n"),
		"Address":      formatAddress(shop),
		"URL":          ShopURL(shop.Source, shop.ID),
		"Registrant":   b.RegistrantName,
		"RegistrantID": b.RegistrantID,
		"At":           h.formatTime(b.RegisteredAt),
	})
}

func (h *Handler) defaultGame(ctx context.Context, req Request) attendance.Reply {
	if len(req.Args) < 2 {
		return h.usage("default-game <名称> <机台ID>")
	}
	gameID, err := strconv.ParseInt(req.Args[len(req.Args)-1], 10, 64)
	if err != nil {
		return h.text("command.invalid_game_id", nil)
	}
	b, _, _, fail := h.lookup(ctx, req.ChannelID, strings.Join(req.Args[:len(req.Args)-1], " "), nil, false)
	if b == nil {
		return fail
	}
	game, fail, ok := h.rosterGame(ctx, b, gameID)
	if !ok {
		return fail
	}
	b.DefaultGame = domain.GameUnitFromDTO(game)
	if err := h.store.UpdateBinding(ctx, b); err != nil {
		return h.storeFailed(err)
	}
	return h.text("command.default_game.success", map[string]any{"Name": b.PrimaryName(), "Game": game.Name, "Version": game.Version})
}

// rosterGame fetches the live roster and finds gameID in it.
func (h *Handler) rosterGame(ctx context.Context, b *domain.ArcadeBinding, gameID int64) (nearcadedto.Game, attendance.Reply, bool) {
	shop, err := h.remote.GetShop(ctx, b.Source, b.ExternalID)
	if err != nil {
		return nearcadedto.Game{}, h.requestFailed(err), false
	}
	game, ok := domain.FindGame(shop.Games, gameID)
	if !ok {
		return nearcadedto.Game{}, h.text("command.game_not_found", nil), false
	}
	return game, attendance.Reply{}, true
}

// ShopURL is the public page of a shop.
func ShopURL(source string, id int64) string {
	return fmt.Sprintf("%s/shops/%s/%d", SiteBase, strings.ToLower(source), id)
}

// formatAddress follows how each source writes addresses: ZIV lists the region
// from the smallest unit up, the others from the country down.
func formatAddress(shop *nearcadedto.Shop) string {
	if strings.EqualFold(shop.Source, "ziv") {
		general := slices.Clone(shop.Address.General)
		slices.Reverse(general)
		return shop.Address.Detailed + " / " + strings.Join(general, ", ")
	}
	return strings.Join(shop.Address.General, "·") + " / " + shop.Address.Detailed
}
