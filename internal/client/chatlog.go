package client

import (
	"time"

	"github.com/proximachat/proxima/internal/api"
)

// Exchange is one question/answer pair in the session log. A pending exchange
// has been sent optimistically and not yet confirmed by the server.
//
// Positions in the log are only valid immediately after a full reload: the
// log mirrors the server's history order, and any mutation invalidates
// previously-held indices.
type Exchange struct {
	UserText  string
	BotText   string
	Sources   []string
	Timestamp time.Time
	Pending   bool
}

func exchangeFromEntry(e api.HistoryEntry) Exchange {
	return Exchange{
		UserText:  e.User,
		BotText:   e.Bot,
		Sources:   e.Sources,
		Timestamp: e.Timestamp,
	}
}
