package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/storefront/internal/models"
)

// OrderNotifier formats order confirmations and hands them to a Mailer.
type OrderNotifier struct {
	mailer   Mailer
	shopName string
}

func NewOrderNotifier(mailer Mailer, shopName string) *OrderNotifier {
	return &OrderNotifier{mailer: mailer, shopName: shopName}
}

// Subject is the confirmation email subject line.
func (n *OrderNotifier) Subject() string {
	return "Order Confirmation - " + n.shopName
}

// FormatOrder renders the confirmation body.
func FormatOrder(order *models.Order) string {
	lines := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, fmt.Sprintf("%s (Size: %s) - $%.2f x %d",
			item.Name, item.Size, item.EffectivePrice(), item.Quantity))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Order ID: %s\n", order.ID)
	b.WriteString("Items:\n")
	b.WriteString(strings.Join(lines, "\n"))
	fmt.Fprintf(&b, "\nTotal: $%.2f\n", order.Total)
	fmt.Fprintf(&b, "Shipping Address: %s, %s, %s\n",
		order.Address.Name, order.Address.Address, order.Address.MobileNumber)
	b.WriteString("Thank you for your order!")
	return b.String()
}

// Notify sends the confirmation for order to one recipient.
func (n *OrderNotifier) Notify(ctx context.Context, to string, order *models.Order) error {
	return n.mailer.Send(ctx, Message{
		To:      to,
		Subject: n.Subject(),
		Body:    FormatOrder(order),
	})
}
