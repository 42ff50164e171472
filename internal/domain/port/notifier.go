package port

import "context"

// AlertNotifier интерфейс внешних уведомлений о событиях конвейера
type AlertNotifier interface {
	// Alert отправляет текстовое уведомление во внешний канал
	Alert(ctx context.Context, text string) error
}

// Broadcaster интерфейс широковещательной рассылки подключённым слушателям
type Broadcaster interface {
	// Broadcast рассылает сообщение всем активным подписчикам
	Broadcast(message string)
}
