package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
)

type Item struct {
	ProductName string `json:"product_name"`
	SKU         string `json:"product_sku"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

type Submission struct {
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone"`
	ShippingAddress string `json:"shipping_address"`
	ShippingCost    string `json:"shipping_cost"`
	PaymentMethod   string `json:"payment_method"`
	Items           []Item `json:"items"`
}

var methods = []string{"CREDIT_CARD", "DEBIT_CARD", "PAYPAL", "BANK_TRANSFER", "CASH", "CRYPTO"}

func randomString(n int) string {
	letters := []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

func generateRandomSubmission() Submission {
	items := make([]Item, rand.Intn(3)+1)
	for i := range items {
		items[i] = Item{
			ProductName: "Item " + randomString(5),
			SKU:         "SKU-" + randomString(6),
			Quantity:    rand.Intn(5) + 1,
			UnitPrice:   fmt.Sprintf("%d.%02d", rand.Intn(500)+10, rand.Intn(100)),
		}
	}

	return Submission{
		CustomerName:    "Customer " + randomString(4),
		CustomerEmail:   fmt.Sprintf("user%d@example.com", rand.Intn(1000)),
		CustomerPhone:   fmt.Sprintf("+%d", rand.Intn(9999999999)),
		ShippingAddress: fmt.Sprintf("Street %d, City%s", rand.Intn(100), randomString(4)),
		ShippingCost:    fmt.Sprintf("%d.00", rand.Intn(30)),
		PaymentMethod:   methods[rand.Intn(len(methods))],
		Items:           items,
	}
}

func main() {
	addr := kafka.TCP("localhost:9092")

	writer := &kafka.Writer{
		Addr:  addr,
		Topic: "order-submissions",
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	ticker := time.NewTicker(2 * time.Second)
	for {
		select {
		case <-ticker.C:
			sub := generateRandomSubmission()
			data, _ := json.Marshal(sub)
			writer.WriteMessages(context.Background(), kafka.Message{Value: data})
			log.Println("submission generated", sub.CustomerEmail)
		case <-ctx.Done():
			return
		}
	}
}
