package notifier

import (
	"fmt"
	"html"
	"strings"

	"PriceOracle/internal/model"
)

// Fixed replies of the bot conversation.
const (
	BeginMessage = "⏳ Собираю историю продаж и строю прогноз..."
	EndMessage   = "✅ Готово! Присылайте следующую ссылку."
	BusyMessage  = "⏳ Предыдущий запрос ещё обрабатывается, подождите немного."
	HelpMessage  = "Пришлите ссылку на предмет Торговой площадки Steam, например:\nhttps://steamcommunity.com/market/listings/730/AK-47%20%7C%20Redline%20%28Field-Tested%29"
)

// FormatStart formats the /start greeting.
func FormatStart(firstName string) string {
	if firstName == "" {
		firstName = "друг"
	}
	return fmt.Sprintf("👋 Привет, <b>%s</b>!\n\n%s", html.EscapeString(firstName), html.EscapeString(HelpMessage))
}

// FormatForecast formats a successful forecast. currency is appended to every price.
func FormatForecast(r *model.Result, currency string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("<b>%s</b>\n", html.EscapeString(strings.ToUpper(r.Item.Name))))
	b.WriteString(fmt.Sprintf("Тип: %s\n", html.EscapeString(r.Item.Type)))
	b.WriteString(fmt.Sprintf("Продажи: %d шт.\n", r.Summary.Sales))

	s := r.Summary
	if s.Days > 0 {
		b.WriteString(fmt.Sprintf("Последняя цена: %.2f %s\n", s.LastPrice, currency))
		b.WriteString(fmt.Sprintf("SMA7: %.2f | 30 дн.: %.2f – %.2f\n", s.SMA7, s.Low30d, s.High30d))
	}

	b.WriteString("\n<b>Прогноз:</b>\n")
	for _, p := range r.Forecast {
		b.WriteString(fmt.Sprintf("%s - %s %s\n", p.Date.Format(model.ForecastDateLayout), p.Value.StringFixed(2), currency))
	}
	return b.String()
}

// FormatError formats a failed request. The failure trace is shown verbatim.
func FormatError(err error) string {
	return fmt.Sprintf("❌ Не удалось построить прогноз.\n\n<code>%s</code>", html.EscapeString(err.Error()))
}

// ItemKeyboard returns the "Open in Steam" button for a listing URL.
func ItemKeyboard(url string) *InlineKeyboard {
	if url == "" {
		return nil
	}
	return &InlineKeyboard{Rows: [][]InlineButton{{{Text: "Открыть в Steam", URL: url}}}}
}
