package analytics

import (
	"sort"
	"strings"

	"github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/shopspring/decimal"
)

// PaymentModeMix folds per-mode and per-channel totals into one row per
// payment mode, in display order, with each mode's share of total revenue.
// Each row lists its channels by revenue, largest first, with their share
// of the mode. Modes with no sales are reported with zero values.
func PaymentModeMix(rows []analytics.PaymentModeShare) []analytics.PaymentModeShare {
	byMode := make(map[analytics.PaymentMode]*analytics.PaymentModeShare)
	byChannel := make(map[analytics.PaymentMode]map[string]*analytics.ChannelShare)
	total := decimal.Zero
	for _, r := range rows {
		mode := analytics.ParsePaymentMode(string(r.Mode))
		acc, ok := byMode[mode]
		if !ok {
			acc = &analytics.PaymentModeShare{Mode: mode}
			byMode[mode] = acc
			byChannel[mode] = make(map[string]*analytics.ChannelShare)
		}
		acc.OrderCount += r.OrderCount
		acc.Revenue = acc.Revenue.Add(r.Revenue)
		total = total.Add(r.Revenue)

		name := strings.TrimSpace(r.Channel)
		if name == "" {
			name = analytics.UnknownKey
		}
		ch, ok := byChannel[mode][name]
		if !ok {
			ch = &analytics.ChannelShare{Channel: name}
			byChannel[mode][name] = ch
		}
		ch.OrderCount += r.OrderCount
		ch.Revenue = ch.Revenue.Add(r.Revenue)
	}

	out := make([]analytics.PaymentModeShare, 0, len(analytics.AllPaymentModes()))
	for _, mode := range analytics.AllPaymentModes() {
		share := analytics.PaymentModeShare{Mode: mode, Revenue: decimal.Zero}
		if acc, ok := byMode[mode]; ok {
			share = *acc
			share.Channels = channelShares(byChannel[mode], share.Revenue)
		}
		share.Pct = sharePct(share.Revenue, total)
		out = append(out, share)
	}
	return out
}

func channelShares(channels map[string]*analytics.ChannelShare, modeRevenue decimal.Decimal) []analytics.ChannelShare {
	out := make([]analytics.ChannelShare, 0, len(channels))
	for _, ch := range channels {
		c := *ch
		c.PctOfMode = sharePct(c.Revenue, modeRevenue)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].Channel < out[j].Channel
	})
	return out
}
