package core

import (
	"encoding/json"
	"strings"
	"time"
)

// Русский комментарий: Пакет core описывает модель данных входящих событий
// и интерфейс транспорта. Сам транспортный клиент (подключение, авторизация,
// шифрование, wire-протокол) живёт снаружи и сюда не входит.

// MessageKind классифицирует полезную нагрузку входящего сообщения.
type MessageKind string

const (
	KindText             MessageKind = "text"
	KindExtendedText     MessageKind = "extended_text"
	KindImageCaption     MessageKind = "image"
	KindVideoCaption     MessageKind = "video"
	KindButtonReply      MessageKind = "button_reply"
	KindListReply        MessageKind = "list_reply"
	KindInteractiveReply MessageKind = "interactive_reply"
	KindProtocol         MessageKind = "protocol"
)

// MessageKey адресует одно сообщение внутри разговора.
type MessageKey struct {
	RemoteJID   string // conversation (direct JID or group JID)
	ID          string
	Participant string // sender inside a group, empty for direct chats
	FromMe      bool
}

// Event — одно входящее сообщение. Неизменяемо после получения,
// живёт ровно один цикл обработки в диспетчере.
type Event struct {
	Key        MessageKey
	Kind       MessageKind
	Text       string      // plain or extended text
	Caption    string      // image/video caption
	ButtonID   string      // selected button id
	ListRowID  string      // selected list row id
	ParamsJSON string      // raw interactive-reply params fragment
	Quoted     *MessageKey // set when the message quotes another message
	Mentions   []string    // mentioned participant JIDs
	Revoked    *MessageKey // set on a protocol revoke control message
	PushName   string
	Timestamp  time.Time
}

// IsGroup сообщает, пришло ли событие из группового разговора.
func (e *Event) IsGroup() bool {
	return strings.HasSuffix(e.Key.RemoteJID, "@g.us")
}

// SenderJID возвращает JID автора сообщения.
func (e *Event) SenderJID() string {
	if e.IsGroup() && e.Key.Participant != "" {
		return e.Key.Participant
	}
	return e.Key.RemoteJID
}

// Body извлекает единственную текстовую строку из события.
// Пустая строка означает "нет интерпретируемого текста" — дальнейшая
// обработка команды не имеет смысла. Битый JSON во фрагменте
// интерактивного ответа трактуется так же, а не как ошибка.
func (e *Event) Body() string {
	switch e.Kind {
	case KindText, KindExtendedText:
		return e.Text
	case KindImageCaption, KindVideoCaption:
		return e.Caption
	case KindButtonReply:
		return e.ButtonID
	case KindListReply:
		return e.ListRowID
	case KindInteractiveReply:
		if e.ParamsJSON == "" {
			return ""
		}
		var params struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal([]byte(e.ParamsJSON), &params); err != nil {
			return ""
		}
		return params.ID
	}
	return ""
}

// BareID обрезает серверную часть JID: "491234@s.whatsapp.net" -> "491234".
func BareID(jid string) string {
	if i := strings.IndexByte(jid, '@'); i >= 0 {
		return jid[:i]
	}
	return jid
}

// IsAliasJID сообщает, является ли JID транспортным псевдонимом (@lid),
// который нужно переписать в каноничный идентификатор отправителя.
func IsAliasJID(jid string) bool {
	return strings.HasSuffix(jid, "@lid")
}
