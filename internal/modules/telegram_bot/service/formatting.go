package service

import (
	"fmt"
	"strings"

	"paper_trader/internal/models"
)

func formatAccount(a models.Account) string {
	return fmt.Sprintf(
		"📊 %s (%s)\n\n"+
			"Balance: %s / %s\n"+
			"Total PnL: %s\n"+
			"Daily PnL: %s\n"+
			"Trades: %d opened, %d closed\n"+
			"Win rate: %.1f%%\n"+
			"Open positions: %d",
		a.ID, a.Strategy,
		a.Balance.StringFixed(2), a.InitialBalance.StringFixed(2),
		a.TotalPnL.StringFixed(2),
		a.DailyPnL.StringFixed(2),
		a.TotalTrades, a.ClosedTrades,
		a.WinRate*100,
		a.OpenPositions,
	)
}

func formatPositions(accountID string, ps []models.Position) string {
	if len(ps) == 0 {
		return "📭 " + accountID + ": no open positions"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s open positions:\n", accountID)
	for _, p := range ps {
		fmt.Fprintf(&b, "- %s %s [%s] %s @ %s sl=%s tp=%s upnl=%s\n",
			p.ID, p.Symbol, strings.ToUpper(string(p.Direction)),
			p.Size.String(), p.EntryPrice.String(),
			p.StopLoss.String(), p.TakeProfit.String(),
			p.UnrealizedPnL.StringFixed(2))
	}
	return b.String()
}

func formatClosed(t models.ClosedTrade) string {
	return fmt.Sprintf("Closed %s %s @ %s, pnl %s",
		t.Position.Symbol, strings.ToUpper(string(t.Position.Direction)),
		t.ExitPrice.String(), t.RealizedPnL.StringFixed(2))
}
