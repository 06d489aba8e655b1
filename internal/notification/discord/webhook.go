package discord

import (
	"fmt"
	"time"

	"github.com/assist-by/aurora/internal/domain"
	"github.com/assist-by/aurora/internal/notification"
)

const footerText = "Aurora Trading Bot 🤖"

// SendSignal은 융합 시그널 알림을 전송합니다
func (c *Client) SendSignal(sig domain.AggregatedSignal) error {
	embed := NewEmbed().
		SetTitle(fmt.Sprintf("트레이딩 시그널: %s", sig.Ticker)).
		SetDescription(fmt.Sprintf(
			"**타입**: %s\n**강도**: %.2f\n**신뢰도**: %.2f\n**스코어**: %.3f",
			sig.Type, sig.Strength, sig.Confidence, sig.FinalScore)).
		AddField("기여 소스", contributingSources(sig), false).
		SetColor(getColorForSignal(sig.Type)).
		SetFooter(footerText).
		SetTimestamp(sig.Timestamp)

	msg := WebhookMessage{
		Embeds: []Embed{*embed},
	}

	return c.sendToWebhook(c.signalWebhook, msg)
}

// SendError는 에러 알림을 전송합니다
func (c *Client) SendError(err error) error {
	embed := NewEmbed().
		SetTitle("에러 발생").
		SetDescription(fmt.Sprintf("```%v```", err)).
		SetColor(ColorError).
		SetFooter(footerText).
		SetTimestamp(time.Now())

	msg := WebhookMessage{
		Embeds: []Embed{*embed},
	}

	return c.sendToWebhook(c.errorWebhook, msg)
}

// SendInfo는 일반 정보 알림을 전송합니다
func (c *Client) SendInfo(message string) error {
	embed := NewEmbed().
		SetDescription(message).
		SetColor(ColorInfo).
		SetFooter(footerText).
		SetTimestamp(time.Now())

	msg := WebhookMessage{
		Embeds: []Embed{*embed},
	}

	return c.sendToWebhook(c.infoWebhook, msg)
}

// SendTradeInfo는 거래 실행 정보를 전송합니다
func (c *Client) SendTradeInfo(info notification.TradeInfo) error {
	embed := NewEmbed().
		SetTitle(fmt.Sprintf("거래 실행: %s", info.Ticker)).
		SetDescription(fmt.Sprintf(
			"**포지션**: %s\n**전략**: %s\n**크기**: $%.2f\n**수량**: %.8f\n**진입가**: $%.2f\n**손절가**: $%.2f\n**목표가**: $%.2f",
			info.PositionType, info.Strategy, info.Size, info.Quantity, info.EntryPrice, info.StopLoss, info.TakeProfit,
		)).
		AddField("잔고", fmt.Sprintf("$%.2f", info.Balance), true).
		SetColor(notification.GetColorForPosition(info.PositionType)).
		SetFooter(footerText).
		SetTimestamp(time.Now())

	msg := WebhookMessage{
		Embeds: []Embed{*embed},
	}

	return c.sendToWebhook(c.tradeWebhook, msg)
}

// SendPositionClosed는 포지션 청산 알림을 전송합니다
func (c *Client) SendPositionClosed(info notification.CloseInfo) error {
	embed := NewEmbed().
		SetTitle(fmt.Sprintf("포지션 청산: %s", info.Ticker)).
		SetDescription(fmt.Sprintf(
			"**포지션**: %s\n**사유**: %s\n**진입가**: $%.2f\n**청산가**: $%.2f\n**손익**: $%.2f (%.2f%%)",
			info.PositionType, info.Reason, info.EntryPrice, info.ExitPrice, info.PnL, info.PnLPct*100,
		)).
		SetColor(notification.GetColorForPnL(info.PnL)).
		SetFooter(footerText).
		SetTimestamp(time.Now())

	msg := WebhookMessage{
		Embeds: []Embed{*embed},
	}

	return c.sendToWebhook(c.tradeWebhook, msg)
}

// contributingSources는 기여 소스 요약 문자열을 만듭니다
func contributingSources(sig domain.AggregatedSignal) string {
	if len(sig.Contributing) == 0 {
		return "없음"
	}
	out := ""
	for i, s := range sig.Contributing {
		if i > 0 {
			out += "\n"
		}
		out += fmt.Sprintf("%s: %s (강도 %.2f, 신뢰도 %.2f)", s.Source, s.Type, s.Strength, s.Confidence)
	}
	return out
}

// getColorForSignal은 시그널 타입에 따른 색상을 반환합니다
func getColorForSignal(signalType domain.SignalType) int {
	switch signalType {
	case domain.SignalBuy:
		return ColorSuccess
	case domain.SignalSell:
		return ColorError
	default:
		return ColorInfo
	}
}
