package mbrabbit

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Русский комментарий: Одноразовый публикатор в RabbitMQ. Восстановленные
// перед удалением сообщения уходят во внешний архиватор через очередь
// deleted_messages. Соединение открывается на каждую публикацию: поток
// событий редкий, держать постоянный канал не имеет смысла.

const queueName = "deleted_messages"

type Publisher struct {
	url string
}

func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

func (p *Publisher) Publish(raw []byte) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("error connect to RabbitMQ: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("error open channel: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("fail created queue: %w", err)
	}

	err = ch.Publish(
		"",        // exchange
		queueName, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        raw,
		},
	)
	if err != nil {
		return fmt.Errorf("publish error: %w", err)
	}

	return nil
}
