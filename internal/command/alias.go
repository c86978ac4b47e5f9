package command

import (
	"context"
	"strconv"
	"strings"

	"github.com/park285/nearcade-kakao-bot/internal/attendance"
)

func (h *Handler) aliasAdd(ctx context.Context, req Request) attendance.Reply {
	if len(req.Args) == 0 {
		return h.usage("alias.add <名称> <别名...>")
	}
	if len(req.Args) < 2 {
		return h.text("command.need_alias", nil)
	}
	b, all, aliases, fail := h.lookup(ctx, req.ChannelID, req.Args[0], req.Args[1:], true)
	if b == nil {
		return fail
	}
	var added []string
	for _, a := range aliases {
		if a = strings.TrimSpace(a); a == "" || containsFold(added, a) || nameTaken(all, a) {
			continue
		}
		added = append(added, a)
	}
	if len(added) == 0 {
		return h.text("command.alias.add_conflict", nil)
	}
	b.Names = append(b.Names, added...)
	if err := h.store.UpdateBinding(ctx, b); err != nil {
		return h.storeFailed(err)
	}
	return h.text("command.alias.add_success", map[string]any{"Name": b.PrimaryName(), "Aliases": h.joinAliases(added)})
}

func (h *Handler) aliasRemove(ctx context.Context, req Request) attendance.Reply {
	if len(req.Args) == 0 {
		return h.usage("alias.remove <名称> <别名...>")
	}
	if len(req.Args) < 2 {
		return h.text("command.need_alias", nil)
	}
	b, _, aliases, fail := h.lookup(ctx, req.ChannelID, req.Args[0], req.Args[1:], true)
	if b == nil {
		return fail
	}
	primary := b.PrimaryName()
	var removed []string
	for _, a := range aliases {
		if strings.EqualFold(a, primary) || !b.HasName(a) || containsFold(removed, a) {
			continue
		}
		removed = append(removed, a)
	}
	if len(removed) == 0 {
		return h.text("command.alias.remove_missing", nil)
	}
	kept := []string{primary}
	for _, n := range b.Names[1:] {
		if !containsFold(removed, n) {
			kept = append(kept, n)
		}
	}
	b.Names = kept
	if err := h.store.UpdateBinding(ctx, b); err != nil {
		return h.storeFailed(err)
	}
	return h.text("command.alias.remove_success", map[string]any{"Name": primary, "Aliases": h.joinAliases(removed)})
}

func (h *Handler) gameAliasAdd(ctx context.Context, req Request) attendance.Reply {
	if len(req.Args) < 2 {
		return h.usage("alias.game.add <名称> <机台ID> <别名...>")
	}
	if len(req.Args) < 3 {
		return h.text("command.need_alias", nil)
	}
	gameID, err := strconv.ParseInt(req.Args[1], 10, 64)
	if err != nil {
		return h.text("command.invalid_game_id", nil)
	}
	b, _, _, fail := h.lookup(ctx, req.ChannelID, req.Args[0], nil, false)
	if b == nil {
		return fail
	}
	game, fail, ok := h.rosterGame(ctx, b, gameID)
	if !ok {
		return fail
	}
	added := b.AddGameAliases(gameID, req.Args[2:])
	if len(added) == 0 {
		return h.text("command.game_alias.add_conflict", nil)
	}
	if err := h.store.UpdateBinding(ctx, b); err != nil {
		return h.storeFailed(err)
	}
	return h.text("command.game_alias.add_success", map[string]any{"Game": game.Name, "Version": game.Version, "Aliases": h.joinAliases(added)})
}

func (h *Handler) gameAliasRemove(ctx context.Context, req Request) attendance.Reply {
	if len(req.Args) < 2 {
		return h.usage("alias.game.remove <名称> <机台ID> <别名...>")
	}
	if len(req.Args) < 3 {
		return h.text("command.need_alias", nil)
	}
	gameID, err := strconv.ParseInt(req.Args[1], 10, 64)
	if err != nil {
		return h.text("command.invalid_game_id", nil)
	}
	b, _, _, fail := h.lookup(ctx, req.ChannelID, req.Args[0], nil, false)
	if b == nil {
		return fail
	}
	game, fail, ok := h.rosterGame(ctx, b, gameID)
	if !ok {
		return fail
	}
	if len(b.AliasesOf(gameID)) == 0 {
		return h.text("command.game_alias.remove_empty", nil)
	}
	removed := b.RemoveGameAliases(gameID, req.Args[2:])
	if len(removed) == 0 {
		return h.text("command.game_alias.remove_missing", nil)
	}
	if err := h.store.UpdateBinding(ctx, b); err != nil {
		return h.storeFailed(err)
	}
	return h.text("command.game_alias.remove_success", map[string]any{"Game": game.Name, "Version": game.Version, "Aliases": h.joinAliases(removed)})
}
