package service

import (
	"fmt"
	"strings"

	"wyckoff_keeper/internal/models"
)

func formatStatus(st models.Status) string {
	if !st.Running {
		return fmt.Sprintf("⏹ %s не запущен", st.BotID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🤖 %s [%s, %s]\n", st.BotID, st.Market, st.Mode)
	fmt.Fprintf(&b, "Фаза: %s\n", orDash(string(st.Phase)))
	if s := st.LastSignal; s != nil {
		fmt.Fprintf(&b, "Сигнал: %s (%s)\n", s.Direction, f2(s.Confidence))
	}
	if p := st.CurrentPosition; p != nil {
		fmt.Fprintf(&b, "Позиция: %s %.8f @ %.4f upl=%s\n", p.Side, p.Size, p.EntryPrice, f2(p.UnrealizedPnl))
	} else {
		b.WriteString("Позиция: нет\n")
	}
	fmt.Fprintf(&b, "Сделки: %d/%d pnl=%s\n", st.Stats.SuccessfulTrades, st.Stats.TotalTrades, f2(st.Stats.TotalPnl))
	fmt.Fprintf(&b, "Свечей: %d, ошибок подряд: %d", st.BarsCollected, st.ErrorCount)
	if !st.LastPollTime.IsZero() {
		fmt.Fprintf(&b, "\nПоследний опрос: %s", st.LastPollTime.UTC().Format("2006-01-02 15:04:05"))
	}
	if st.LastError != "" {
		fmt.Fprintf(&b, "\nПоследняя ошибка: %s", st.LastError)
	}
	return b.String()
}

func formatList(list []models.Status) string {
	var b strings.Builder
	b.WriteString("📊 Боты:\n")
	for _, st := range list {
		dir := "-"
		if st.LastSignal != nil {
			dir = string(st.LastSignal.Direction)
		}
		fmt.Fprintf(&b, "- %s %s [%s] фаза=%s сигнал=%s pnl=%s\n",
			st.BotID, st.Market, st.Mode, orDash(string(st.Phase)), dir, f2(st.Stats.TotalPnl))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatTrades(botID string, recs []models.TradeRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🧾 Сделки %s:\n", botID)
	for _, r := range recs {
		mark := "✅"
		if !r.Success {
			mark = "❌"
		}
		fmt.Fprintf(&b, "%s %s %s %s %.8f @ %.4f pnl=%s\n",
			mark, r.At.UTC().Format("01-02 15:04"), r.Action, r.Side, r.Size, r.Price, f2(r.Pnl))
	}
	return strings.TrimRight(b.String(), "\n")
}
