package command

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/nearcade-kakao-bot/internal/attendance"
	"github.com/park285/nearcade-kakao-bot/internal/domain"
	"github.com/park285/nearcade-kakao-bot/internal/prompt"
	"github.com/park285/nearcade-kakao-bot/internal/store"
	"github.com/park285/nearcade-kakao-bot/pkg/nearcadedto"
)

func (h *Handler) bind(ctx context.Context, req Request) attendance.Reply {
	if len(req.Args) == 0 {
		return h.usage("bind <关键词> [别名...]")
	}
	query, aliases := req.Args[0], req.Args[1:]
	shops, err := h.remote.SearchShops(ctx, query, 0)
	if err != nil {
		return h.requestFailed(err)
	}
	switch len(shops) {
	case 0:
		return h.text("command.bind.not_found", nil)
	case 1:
		return h.bindShop(ctx, req, shops[0], aliases)
	}

	header := h.cat.Text("command.bind.candidates_header", map[string]any{"Count": len(shops)})
	lines := make([]string, 0, len(shops)+2)
	lines = append(lines, header)
	for i, s := range shops {
		lines = append(lines, h.cat.Text("command.bind.candidate", map[string]any{"Index": i + 1, "Name": s.Name}))
	}
	lines = append(lines, h.cat.Text("command.bind.prompt", nil))
	list := attendance.Reply{Header: header, Text: strings.Join(lines, "\n"), Forward: len(shops) > attendance.ForwardThreshold}
	if err := h.sender.Send(ctx, req.ChannelID, list); err != nil {
		h.log.Warn("bind_candidates_send_failed", zap.String("channel", req.ChannelID), zap.Error(err))
		return attendance.Reply{}
	}

	answer, err := h.prompts.Ask(ctx, req.ChannelID, req.UserID, h.opts.PromptTimeout)
	switch {
	case errors.Is(err, prompt.ErrTimeout):
		return h.text("command.bind.timeout", nil)
	case err != nil:
		// replaced by a newer prompt or shutting down
		return attendance.Reply{}
	}
	answer = strings.TrimSpace(answer)
	if answer == h.cat.Text("command.bind.cancel_word", nil) {
		return h.text("command.bind.cancelled", nil)
	}
	fields := strings.Fields(answer)
	if len(fields) == 0 {
		return h.text("command.bind.invalid_index", nil)
	}
	idx, err := strconv.Atoi(fields[0])
	if err != nil || idx < 1 || idx > len(shops) {
		return h.text("command.bind.invalid_index", nil)
	}
	return h.bindShop(ctx, req, shops[idx-1], fields[1:])
}

func (h *Handler) bindShop(ctx context.Context, req Request, shop nearcadedto.Shop, aliases []string) attendance.Reply {
	source := strings.ToLower(shop.Source)
	existing, err := h.store.FindBinding(ctx, req.ChannelID, source, shop.ID)
	if err != nil {
		return h.storeFailed(err)
	}
	if existing != nil {
		return h.alreadyBound(existing)
	}
	def, ok := domain.DefaultGame(shop.Games)
	if !ok {
		return h.text("command.bind.no_games", nil)
	}
	others, err := h.store.ListBindings(ctx, req.ChannelID)
	if err != nil {
		return h.storeFailed(err)
	}

	names := []string{shop.Name}
	for _, a := range aliases {
		if a = strings.TrimSpace(a); a == "" || containsFold(names, a) || nameTaken(others, a) {
			continue
		}
		names = append(names, a)
	}
	b := &domain.ArcadeBinding{
		Source:         source,
		ExternalID:     shop.ID,
		Names:          names,
		DefaultGame:    domain.GameUnitFromDTO(def),
		ChannelID:      req.ChannelID,
		RegistrantID:   req.UserID,
		RegistrantName: req.UserName,
		RegisteredAt:   h.opts.Now(),
	}
	if err := h.store.CreateBinding(ctx, b); err != nil {
		if errors.Is(err, store.ErrDuplicateBinding) {
			if existing, ferr := h.store.FindBinding(ctx, req.ChannelID, source, shop.ID); ferr == nil && existing != nil {
				return h.alreadyBound(existing)
			}
		}
		return h.storeFailed(err)
	}
	h.log.Info("arcade_bound",
		zap.String("channel", req.ChannelID),
		zap.String("arcade", b.Key().String()),
		zap.Int64("binding_id", b.ID),
	)
	return h.text("command.bind.success", map[string]any{"Name": shop.Name, "Game": def.Name, "Version": def.Version})
}

func (h *Handler) alreadyBound(b *domain.ArcadeBinding) attendance.Reply {
	return h.text("command.bind.exists", map[string]any{
		"Registrant": b.RegistrantName, "RegistrantID": b.RegistrantID, "At": h.formatTime(b.RegisteredAt),
	})
}

func nameTaken(bindings []*domain.ArcadeBinding, name string) bool {
	for _, b := range bindings {
		if b.HasName(name) {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
