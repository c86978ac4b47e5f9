package bot

import (
	"context"

	"go.uber.org/zap"

	"github.com/park285/nearcade-kakao-bot/internal/attendance"
	"github.com/park285/nearcade-kakao-bot/internal/irisfast"
	"github.com/park285/nearcade-kakao-bot/internal/msgcat"
	"github.com/park285/nearcade-kakao-bot/internal/util"
)

// Replier turns a Reply into one outgoing KakaoTalk message. Forward replies are
// folded behind "see more" with the header left visible.
type Replier struct {
	egress irisfast.Egress
	cat    *msgcat.Catalog
	log    *zap.Logger
}

func NewReplier(egress irisfast.Egress, cat *msgcat.Catalog, log *zap.Logger) *Replier {
	if cat == nil {
		cat = msgcat.MustDefault()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Replier{egress: egress, cat: cat, log: log}
}

// Send is a no-op for empty replies.
func (r *Replier) Send(ctx context.Context, channelID string, reply attendance.Reply) error {
	if reply.Empty() {
		return nil
	}
	text := reply.Text
	if reply.Forward {
		text = util.Forward(reply.Text, reply.Header, r.cat.Text("forward.fallback", nil))
	}
	if err := r.egress.SendText(ctx, channelID, text); err != nil {
		r.log.Warn("reply_failed",
			zap.String("channel", channelID),
			zap.Bool("forward", reply.Forward),
			zap.Error(err),
		)
		return err
	}
	return nil
}
