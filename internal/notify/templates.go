package notify

import (
    "fmt"
    "strings"
    "time"

    "github.com/impulse-events/ticketing/internal/model"
)

const (
    bodyHeader = "Impulse Events\n--------------------"
    bodyFooter = "\n--------------------\nСпасибо, что с нами!\nКоманда Impulse"

    timeLayout = "02.01.2006 15:04 MST"
)

// RenderBody wraps the content lines in the standard header and footer.
func RenderBody(lines []string) string {
    return bodyHeader + "\n" + strings.Join(lines, "\n") + bodyFooter
}

func formatTime(t *time.Time) string {
    if t == nil {
        return "не указано"
    }
    return t.UTC().Format(timeLayout)
}

// EventLines describes an event: name, city, venue, start, end, link and
// description, one per line.
func EventLines(e model.Event) []string {
    start := e.EventTime
    return []string{
        "Событие: " + e.Name,
        "Город: " + e.City,
        "Место: " + e.Place,
        "Начало: " + formatTime(&start),
        "Окончание: " + formatTime(e.EventEndTime),
        "Ссылка: " + e.LongURL,
        "Описание: " + e.Description,
    }
}

func withEvent(first string, e model.Event, extra ...string) []string {
    lines := append([]string{first}, EventLines(e)...)
    return append(lines, extra...)
}

// TicketMessage is sent to the purchaser after an order is placed.
func TicketMessage(e model.Event, orderID uint64, qrLink string) Message {
    return Message{
        Kind:    KindTicket,
        Subject: fmt.Sprintf("Ваш билет #%d", orderID),
        Lines:   withEvent("Спасибо за участие!", e, "QR-код: "+qrLink),
    }
}

// ParticipantMessage tells organizers that someone bought a ticket.
func ParticipantMessage(e model.Event, participant string) Message {
    return Message{
        Kind:    KindParticipant,
        Subject: fmt.Sprintf("Подтверждено участие в событии «%s»", e.Name),
        Lines:   withEvent("Участник: "+participant, e),
    }
}

// EventUpdatedMessage goes to every purchaser after an event changes.
func EventUpdatedMessage(e model.Event) Message {
    return Message{
        Kind:    KindEventUpdated,
        Subject: fmt.Sprintf("Обновление события «%s»", e.Name),
        Lines:   withEvent("Данные события были обновлены.", e),
    }
}

// EventCreatedMessage announces a new event.
func EventCreatedMessage(e model.Event) Message {
    return Message{
        Kind:    KindEventCreated,
        Subject: fmt.Sprintf("Новое событие «%s»", e.Name),
        Lines:   withEvent("Создано новое событие.", e),
    }
}

// ReminderMessage is the "starting soon" notice.
func ReminderMessage(e model.Event) Message {
    return Message{
        Kind:    KindReminder,
        Subject: fmt.Sprintf("Напоминание о событии «%s»", e.Name),
        Lines:   withEvent("Напоминание: событие стартует менее чем через 24 часа.", e),
    }
}
